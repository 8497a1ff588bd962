package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"smart-inventory/internal/app"
)

// apiScan handles POST /api/scan — the unified endpoint behind the scanner
// UI. The mode decides whether the scanned code triggers a receipt, a
// consumption, or an audit.
func (h *Handler) apiScan(w http.ResponseWriter, r *http.Request) {
	var req app.ScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = userID(r)

	result, err := h.svc.Scan(r.Context(), h.tenantID(r), req)
	recordScan(string(req.Mode), err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiOpen handles POST /api/open — unseals a unit without consuming.
func (h *Handler) apiOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID uuid.UUID `json:"product_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == uuid.Nil {
		writeError(w, r, "product_id is required", "INVALID_PAYLOAD", http.StatusBadRequest)
		return
	}

	result, err := h.svc.OpenProduct(r.Context(), h.tenantID(r), req.ProductID, userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiAdjustBatch handles POST /api/batches/{id}/adjust — stock-take correction.
func (h *Handler) apiAdjustBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, "invalid batch id", "INVALID_PAYLOAD", http.StatusBadRequest)
		return
	}

	var req app.AdjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.BatchID = batchID
	req.UserID = userID(r)

	result, err := h.svc.AdjustBatch(r.Context(), h.tenantID(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
