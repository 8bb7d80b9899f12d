package gateway

import (
	"net/http"

	"salonpro-notifier/apperrors"
)

// Result is the outcome of one gateway call after retries.
type Result struct {
	Success        bool
	HTTPStatus     int
	AttemptCount   int
	ResponseTimeMs int64
	Body           map[string]interface{}
	Err            error
}

// Retryable reports whether the last attempt failed in a way worth retrying.
func (r Result) Retryable() bool {
	return !r.Success && r.Err != nil && apperrors.IsRetryable(r.Err)
}

// Message returns the gateway's own explanation when it sent one.
func (r Result) Message() string {
	if msg, ok := r.Body["message"].(string); ok && msg != "" {
		return msg
	}
	if r.HTTPStatus != 0 {
		return http.StatusText(r.HTTPStatus)
	}
	return ""
}

var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
}

// IsRetryableStatus reports whether an HTTP status is worth another attempt.
func IsRetryableStatus(code int) bool {
	return retryableStatus[code]
}
