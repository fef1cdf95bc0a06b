// Package utils holds the JSON response helpers every API handler goes
// through, so ingest responses, chart payloads and error envelopes all share
// one shape.
package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON writes v as the response body with the given status. Encoding
// happens after the status line is committed, so an encode failure can only
// be logged, not turned into an error response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError writes the {"error", "message"} envelope the dashboard client
// expects on every non-2xx response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
