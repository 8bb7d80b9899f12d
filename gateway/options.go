package gateway

import (
	"net/http"

	"golang.org/x/time/rate"
)

type options struct {
	retry      RetryPolicy
	limiter    *rate.Limiter
	httpClient *http.Client
}

type Option func(*options)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithLimiter throttles sends. Share one limiter across senders that use
// the same gateway session.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(opts []Option) options {
	o := options{retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewLimiter allows perSecond sends with the given burst.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
