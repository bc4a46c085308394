package api

import (
	"encoding/json"
	"net/http"
)

// Error is the body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Field names the light field whose device write failed.
	Field string `json:"field,omitempty"`
}

// Error codes. Failed light writes also record the code as their audit
// outcome.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeUnsupported    = "unsupported"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeUnavailable    = "unavailable"
	ErrCodeDeviceFailed   = "device_failed"
	ErrCodeDeviceTimeout  = "device_timeout"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeTooLarge       = "payload_too_large"
)

var statusByCode = map[string]int{
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeUnsupported:    http.StatusBadRequest,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeUnavailable:    http.StatusServiceUnavailable,
	ErrCodeDeviceFailed:   http.StatusBadGateway,
	ErrCodeDeviceTimeout:  http.StatusGatewayTimeout,
	ErrCodeMethodNotAllow: http.StatusMethodNotAllowed,
	ErrCodeTooLarge:       http.StatusRequestEntityTooLarge,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // client may have gone
	json.NewEncoder(w).Encode(v)
}

// writeError writes e, deriving Status from Code. Unknown codes are 500.
func writeError(w http.ResponseWriter, e Error) {
	status, ok := statusByCode[e.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	e.Status = status
	writeJSON(w, status, e)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeBadRequest, Message: message})
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeNotFound, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeUnauthorized, Message: message})
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeInternal, Message: message})
}
