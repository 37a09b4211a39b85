package dto

import "net/http"

// Error codes
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeRenderFailed        = "ERR_RENDER_FAILED"
	ErrCodeRenderTimeout       = "ERR_RENDER_TIMEOUT"
	ErrCodeIdempotencyMismatch = "ERR_IDEMPOTENCY_MISMATCH"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
)

var errorCodeToHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeRenderFailed:        http.StatusInternalServerError,
	ErrCodeRenderTimeout:       http.StatusGatewayTimeout,
	ErrCodeIdempotencyMismatch: http.StatusUnprocessableEntity,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:            http.StatusNotFound,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeToHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
