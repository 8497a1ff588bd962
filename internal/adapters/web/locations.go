package web

import (
	"net/http"

	"smart-inventory/internal/app"
)

// apiLocationTree handles GET /api/locations/tree.
func (h *Handler) apiLocationTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.LocationTree(r.Context(), h.tenantID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Locations any `json:"locations"`
	}
	writeJSON(w, response{Locations: tree})
}

// apiCreateLocation handles POST /api/locations.
func (h *Handler) apiCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Parent string `json:"parent"` // UUID or name, optional
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.svc.CreateLocation(r.Context(), h.tenantID(r), req.Name, req.Parent)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, loc)
}

// apiUpdateLocation handles PUT /api/locations/{id}.
func (h *Handler) apiUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, r, "invalid location id", "INVALID_PAYLOAD", http.StatusBadRequest)
		return
	}

	var req struct {
		Name   string `json:"name"`
		Parent string `json:"parent"` // UUID, name, or "root" to move to the top level
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.svc.UpdateLocation(r.Context(), h.tenantID(r), app.LocationUpdateRequest{
		ID:        id,
		Name:      req.Name,
		ParentRef: req.Parent,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, loc)
}

// apiDeleteLocation handles DELETE /api/locations/{id}.
func (h *Handler) apiDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, r, "invalid location id", "INVALID_PAYLOAD", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteLocation(r.Context(), h.tenantID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
