package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// renderError maps registry errors to a status and code; anything else is
// reported with the given status.
func renderError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{Error: "error", Message: err.Error(), Code: errorCodeFromStatus(status)}

	var regErr *metadata.RegistryError
	if errors.As(err, &regErr) {
		resp.Code = string(regErr.Code)
		if len(regErr.Available) > 0 {
			resp.Details = map[string]any{"available": regErr.Available}
		}
		if errors.Is(err, metadata.ErrUnknownType) {
			status = http.StatusNotFound
		}
	}
	var violation *metadata.PlacementViolation
	if errors.As(err, &violation) {
		resp.Code = string(metadata.CodePlacementViolation)
		status = http.StatusUnprocessableEntity
	}
	renderJSON(w, status, resp)
}

func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "error"
	}
}
