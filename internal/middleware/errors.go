package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorCodeHeader carries the internal error class next to the generic
// {"error": "..."} body.
const ErrorCodeHeader = "X-Error-Code"

// WriteError writes the {"error": msg} envelope.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	if code != "" {
		w.Header().Set(ErrorCodeHeader, code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
