package push

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryPolicy is the explicit retry configuration for one HTTP send. A
// no-response failure (timeout, connection refused) has its own, tighter cap.
type RetryPolicy struct {
	MaxRetries           int
	MaxNoResponseRetries int
	InitialDelay         time.Duration
	BackoffMultiplier    float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:           3,
		MaxNoResponseRetries: 2,
		InitialDelay:         1000 * time.Millisecond,
		BackoffMultiplier:    2,
	}
}

// AttemptOutcome records a single attempt; Err is nil on success.
type AttemptOutcome struct {
	Attempt int
	Err     error
}

type noResponseError struct{ err error }

func (e *noResponseError) Error() string { return "no response: " + e.err.Error() }
func (e *noResponseError) Unwrap() error { return e.err }

// NoResponse marks err as a transport-level failure where no HTTP response
// was received.
func NoResponse(err error) error { return &noResponseError{err: err} }

func IsNoResponse(err error) bool {
	var nr *noResponseError
	return errors.As(err, &nr)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (e.g. a 4xx rejection).
func Permanent(err error) error { return &permanentError{err: err} }

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// DoWithPolicy runs fn until it succeeds, fails permanently, or the policy is
// exhausted, and returns the outcome of every attempt in order. The final
// element decides the overall result.
func DoWithPolicy(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) []AttemptOutcome {
	var outcomes []AttemptOutcome
	delay := policy.InitialDelay
	retryCount := 0

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		outcomes = append(outcomes, AttemptOutcome{Attempt: attempt, Err: err})
		if err == nil || IsPermanent(err) {
			return outcomes
		}

		limit := policy.MaxRetries
		if IsNoResponse(err) && policy.MaxNoResponseRetries < limit {
			limit = policy.MaxNoResponseRetries
		}
		if retryCount >= limit {
			return outcomes
		}
		retryCount++
		slog.Warn("retrying send", "retry_attempt", retryCount, "error", err.Error())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			outcomes = append(outcomes, AttemptOutcome{Attempt: attempt + 1, Err: ctx.Err()})
			return outcomes
		}
		delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
	}
}
