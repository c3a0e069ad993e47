package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteStatus reports an error with an explicit status and kind, for failures
// outside the standard taxonomy (e.g. rate limiting).
func WriteStatus(w http.ResponseWriter, status int, kind Kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// Write reports err to the client as a structured JSON error. Errors without
// a known kind degrade to a generic message that leaks no internals.
func Write(w http.ResponseWriter, err error) {
	detail := errorDetail{
		Kind:    KindPersistence,
		Message: "An unexpected error occurred",
	}

	var ae *Error
	if errors.As(err, &ae) {
		detail.Kind = ae.Kind
		detail.Message = ae.Message
		detail.Fields = ae.Fields
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	json.NewEncoder(w).Encode(errorBody{Error: detail})
}
