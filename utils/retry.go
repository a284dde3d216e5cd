package utils

import (
	"errors"
	"fmt"
	"time"
)

// RetryPolicy is an explicit retry policy value: how many attempts a
// phase gets and the fixed delay between them. The orchestrator owns all
// retry decisions; components never retry internally.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *Logger
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as non-retryable. RetryPolicy.Do returns it
// immediately without burning further attempts. Used for configuration
// errors such as a missing browser binary, which retrying cannot fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do executes fn, retrying with a fixed delay until it succeeds, returns
// a permanent error, or attempts run out.
func (r RetryPolicy) Do(operationName string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) {
			return lastErr
		}

		if attempt < r.MaxAttempts {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
				operationName, attempt, r.MaxAttempts, lastErr, r.Delay)
			time.Sleep(r.Delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}
