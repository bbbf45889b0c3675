package httpx

import (
	"encoding/json"
	"net/http"
)

// ValidationFailedMessage is the top-level error of every 422 response.
const ValidationFailedMessage = "Validation failed"

// JSON writes v as JSON with the given status code. Encoding errors are
// dropped because the status line has already been sent.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes a bare 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ValidationFailed writes a 422 with a per-field message map:
//
//	{"error": "Validation failed", "fields": {"name": "..."}}
func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  ValidationFailedMessage,
		"fields": fields,
	})
}

// SafeError returns the client-facing message for err. Server errors are
// replaced with the generic status text so driver and network details stay
// in the logs.
func SafeError(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
