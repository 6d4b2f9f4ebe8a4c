package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mealbuddy/internal/apperr"
)

type errorBody struct {
	Error  string         `json:"error"`
	Kind   string         `json:"kind,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// respond writes v as JSON. A nil v with http.StatusNoContent writes no
// body.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// Encoding failures after the header is out can only be logged by the
	// access middleware; the status is already committed.
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a domain error to its HTTP status. Unknown errors
// become a generic 500 without leaking internals.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		respond(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict, apperr.KindInUse:
		status = http.StatusConflict
	case apperr.KindUnitMismatch:
		status = http.StatusUnprocessableEntity
	case apperr.KindValidation:
		status = http.StatusBadRequest
	}

	respond(w, status, errorBody{
		Error:  err.Error(),
		Kind:   string(kind),
		Fields: apperr.FieldsOf(err),
	})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
