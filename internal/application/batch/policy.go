package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff strategies
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Errors returned by RetryPolicy.Validate
var (
	ErrNegativeAttempts = errors.New("retry policy: max attempts cannot be negative")
	ErrNegativeDelay    = errors.New("retry policy: delay cannot be negative")
)

// RetryPolicy controls attempts for a single record.
type RetryPolicy struct {
	// MaxAttempts is the attempt budget per record. 0 means unbounded.
	MaxAttempts int

	// Delay is the wait between attempts, and the initial interval when
	// Backoff is exponential.
	Delay time.Duration

	// Backoff is "fixed" (default) or "exponential".
	Backoff string

	// Multiplier, MaxDelay and Jitter apply to exponential backoff only.
	Multiplier float64
	MaxDelay   time.Duration
	Jitter     float64
}

// CSVPolicy is the file-driven preset: 5 attempts, 3s apart.
func CSVPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Delay: 3 * time.Second, Backoff: BackoffFixed}
}

// SyntheticPolicy is the synthetic-data preset: retry forever, 5s apart.
func SyntheticPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 0, Delay: 5 * time.Second, Backoff: BackoffFixed}
}

// Bounded reports whether the policy gives up after MaxAttempts.
func (p RetryPolicy) Bounded() bool {
	return p.MaxAttempts > 0
}

// Validate checks the policy for obviously broken values.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 0 {
		return ErrNegativeAttempts
	}
	if p.Delay < 0 {
		return ErrNegativeDelay
	}
	switch p.Backoff {
	case "", BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("retry policy: unknown backoff %q", p.Backoff)
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		return fmt.Errorf("retry policy: jitter must be within [0,1], got %v", p.Jitter)
	}
	return nil
}

// newBackOff returns a fresh per-record wait schedule.
func (p RetryPolicy) newBackOff() backoff.BackOff {
	if p.Backoff != BackoffExponential {
		return backoff.NewConstantBackOff(p.Delay)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Delay
	b.RandomizationFactor = p.Jitter
	if p.Multiplier > 1 {
		b.Multiplier = p.Multiplier
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	// Budget is enforced by MaxAttempts, never by elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
