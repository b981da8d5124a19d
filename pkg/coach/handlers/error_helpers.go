package handlers

import (
	"encoding/json"
	"net/http"
)

const (
	errInvalidRequest = "invalid_request_error"
	errNotFound       = "not_found_error"
	errAPI            = "api_error"
)

type apiError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, errType, message, reqID string) {
	writeJSON(w, status, errorEnvelope{Error: &apiError{
		Type:      errType,
		Message:   message,
		RequestID: reqID,
	}})
}
