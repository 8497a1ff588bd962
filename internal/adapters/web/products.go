package web

import (
	"net/http"
	"strconv"
)

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context(), h.tenantID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetProduct handles GET /api/products/{id}.
func (h *Handler) apiGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, r, "invalid product id", "INVALID_PAYLOAD", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetProduct(r.Context(), h.tenantID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiProductQR handles GET /api/products/{id}/qr — serves the printable QR
// label, generating it on first request.
func (h *Handler) apiProductQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, r, "invalid product id", "INVALID_PAYLOAD", http.StatusBadRequest)
		return
	}

	data, contentType, err := h.svc.ProductQRImage(r.Context(), h.tenantID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(data)
}
