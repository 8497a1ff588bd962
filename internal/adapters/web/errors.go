package web

import (
	"encoding/json"
	"log"
	"net/http"

	"smart-inventory/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForCode maps domain error codes onto HTTP statuses. Validation
// problems are 400, missing references 404, state conflicts 409.
func statusForCode(code core.ErrorCode) int {
	switch code {
	case core.ErrInvalidQuantity, core.ErrInvalidPayload, core.ErrLocationRequired, core.ErrOpenNotTracked:
		return http.StatusBadRequest
	case core.ErrMissingProduct, core.ErrLocationNotFound:
		return http.StatusNotFound
	case core.ErrInsufficientStock, core.ErrConcurrencyConflict, core.ErrAlreadyOpen,
		core.ErrNoStock, core.ErrBatchDepleted, core.ErrDuplicateName, core.ErrLocationInUse:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError translates an ApplicationService error into a response:
// domain errors keep their code and metadata, everything else is a logged 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if derr, ok := core.AsDomain(err); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusForCode(derr.Code))
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:     derr.Message,
			Code:      string(derr.Code),
			Meta:      derr.Meta,
			RequestID: requestIDFromContext(r.Context()),
		})
		return
	}
	log.Printf("request %s failed: %v", requestIDFromContext(r.Context()), err)
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}
