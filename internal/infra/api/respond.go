package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the response shape every endpoint uses:
// {"status": bool, "message": string, "error": [], "data": ...}
type envelope struct {
	Status  bool     `json:"status"`
	Message string   `json:"message"`
	Error   []string `json:"error"`
	Data    any      `json:"data"`
}

func respondJSON(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{
		Status:  code < 400,
		Message: message,
		Error:   []string{},
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{
		Status:  false,
		Message: message,
		Error:   []string{message},
		Data:    nil,
	})
}
