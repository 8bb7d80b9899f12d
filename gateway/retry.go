package gateway

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"salonpro-notifier/apperrors"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3
	maxBackoff         = 8 * time.Second
	maxJitter          = 500 * time.Millisecond
)

// BackoffDelay is the wait after the given failed attempt (1-based),
// before jitter: 1s, 2s, 4s, then 8s.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 4 {
		return maxBackoff
	}
	d := time.Duration(1<<(attempt-1)) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// RetryPolicy runs an attempt function until it succeeds, fails terminally,
// or runs out of attempts.
type RetryPolicy struct {
	MaxAttempts int
	// Jitter is added to every backoff delay. Nil means 0-500ms random.
	Jitter func() time.Duration
	// Wait blocks for d or until ctx is done. Nil means a timer.
	Wait func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts}
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int64N(int64(maxJitter) + 1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn with attempt numbers starting at 1. The returned Result
// carries the final attempt count and the elapsed time of the whole call.
func (p RetryPolicy) Do(ctx context.Context, log zerolog.Logger, op string, fn func(ctx context.Context, attempt int) Result) Result {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	jitter := p.Jitter
	if jitter == nil {
		jitter = randomJitter
	}
	wait := p.Wait
	if wait == nil {
		wait = sleepContext
	}

	start := time.Now()
	var res Result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res = fn(ctx, attempt)
		res.AttemptCount = attempt
		if res.Success || !res.Retryable() || attempt == maxAttempts {
			break
		}

		delay := BackoffDelay(attempt) + jitter()
		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Int("http_status", res.HTTPStatus).
			Dur("delay", delay).
			Err(res.Err).
			Msg("gateway: retrying")

		if err := wait(ctx, delay); err != nil {
			res.Err = apperrors.Terminal(errors.Wrapf(err, "%s: wait before attempt %d", op, attempt+1))
			break
		}
	}
	res.ResponseTimeMs = time.Since(start).Milliseconds()
	return res
}

// classifyTransportError marks connection-level failures (timeouts, refused
// or reset connections, truncated responses) as transient. Cancellation of
// the caller's context is terminal.
func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apperrors.Terminal(errors.Wrap(err, "request canceled"))
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.Transient(err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apperrors.Transient(err)
	}
	return apperrors.Terminal(err)
}
