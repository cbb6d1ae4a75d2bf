// Package httputil centralizes JSON response and error writing so handlers
// stay thin and the error-code to HTTP-status mapping lives in one place.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "veriflow/pkg/errors"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP status and a structured error
// body. Internal and database errors omit the description so storage details
// never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) && domainErr.Message != "" {
			body["error_description"] = domainErr.Message
		}
	}

	WriteJSON(w, status, body)
}

// Decode reads a JSON request body into dst, rejecting bodies that fail to
// parse. Unknown fields are tolerated for forward compatibility.
func Decode[T any](r *http.Request) (T, error) {
	var dst T
	if err := json.NewDecoder(r.Body).Decode(&dst); err != nil {
		return dst, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid JSON body")
	}
	return dst, nil
}

// DecodeAndPrepare decodes the request body and writes the error response on
// failure, returning ok=false so handlers can return early.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	dst, err := Decode[T](r)
	if err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "request decode failed", "path", r.URL.Path, "error", err)
		}
		WriteError(w, err)
		var zero T
		return zero, false
	}
	return dst, true
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeMalformedPayload:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidTransition:
		return http.StatusConflict
	case dErrors.CodeLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
