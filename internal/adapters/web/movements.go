package web

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"smart-inventory/internal/app"
)

// apiListMovements handles GET /api/movements?product=&type=&limit=.
func (h *Handler) apiListMovements(w http.ResponseWriter, r *http.Request) {
	req := app.MovementListRequest{Type: r.URL.Query().Get("type")}

	if product := r.URL.Query().Get("product"); product != "" {
		id, err := uuid.Parse(product)
		if err != nil {
			writeError(w, r, "invalid product filter", "INVALID_PAYLOAD", http.StatusBadRequest)
			return
		}
		req.ProductID = &id
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, r, "invalid limit", "INVALID_PAYLOAD", http.StatusBadRequest)
			return
		}
		req.Limit = n
	}

	result, err := h.svc.ListMovements(r.Context(), h.tenantID(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiAuditLocation handles GET /api/audit?location=&recursive=.
func (h *Handler) apiAuditLocation(w http.ResponseWriter, r *http.Request) {
	locationRef := r.URL.Query().Get("location")
	if locationRef == "" {
		writeError(w, r, "location query parameter is required", "LOCATION_REQUIRED", http.StatusBadRequest)
		return
	}
	recursive := r.URL.Query().Get("recursive") == "true"

	audit, err := h.svc.AuditLocation(r.Context(), h.tenantID(r), locationRef, recursive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, audit)
}

// apiAuditAll handles GET /api/audit/all.
func (h *Handler) apiAuditAll(w http.ResponseWriter, r *http.Request) {
	audits, err := h.svc.AuditAll(r.Context(), h.tenantID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		TotalLocations int `json:"total_locations"`
		Locations      any `json:"locations"`
	}
	writeJSON(w, response{TotalLocations: len(audits), Locations: audits})
}
