package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the error response shape of the tracking surface: {"error": "..."}
// with an optional details field carrying an upstream diagnostic body.
type ErrorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

// RespondJSON writes a JSON response directly without wrapping
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// RespondError writes an error response with the given status and message
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, ErrorBody{Error: message})
}

// RespondBadRequest writes a 400 Bad Request error response
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

// RespondUnauthorized writes a 401 Unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

// RespondNotFound writes a 404 Not Found error response
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

// RespondInternalServerError writes a 500 Internal Server Error response
func RespondInternalServerError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, message)
}

// RespondUpstreamError writes a 502 Bad Gateway response carrying the upstream
// platform's raw error body for diagnosis. Non-JSON upstream bodies are passed
// through as a JSON string so the response stays well-formed.
func RespondUpstreamError(w http.ResponseWriter, message string, details []byte) {
	if len(details) > 0 && !json.Valid(details) {
		quoted, err := json.Marshal(string(details))
		if err == nil {
			details = quoted
		} else {
			details = nil
		}
	}
	RespondJSON(w, http.StatusBadGateway, ErrorBody{Error: message, Details: details})
}
