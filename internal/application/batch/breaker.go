package batch

import "time"

// BreakerConfig holds the run-level circuit breaker settings.
type BreakerConfig struct {
	// Threshold is the number of consecutive exhausted records that pauses
	// the run. 0 disables the breaker.
	Threshold int

	// Cooldown is how long the run pauses once tripped.
	// Default: 1m
	Cooldown time.Duration
}

// DefaultBreakerCooldown is used when Threshold is set without a cooldown.
const DefaultBreakerCooldown = time.Minute

// Breaker counts consecutive record failures. It is used by a single
// sequential run and is not safe for concurrent use.
type Breaker struct {
	config      BreakerConfig
	consecutive int
	trips       int
}

// NewBreaker creates a breaker, filling in the default cooldown.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold > 0 && cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerCooldown
	}
	return &Breaker{config: cfg}
}

// Enabled reports whether the breaker can ever trip.
func (b *Breaker) Enabled() bool {
	return b.config.Threshold > 0
}

// RecordSuccess resets the failure streak.
func (b *Breaker) RecordSuccess() {
	b.consecutive = 0
}

// RecordFailure extends the failure streak and reports whether the run
// should pause. Tripping resets the streak.
func (b *Breaker) RecordFailure() bool {
	if !b.Enabled() {
		return false
	}
	b.consecutive++
	if b.consecutive < b.config.Threshold {
		return false
	}
	b.consecutive = 0
	b.trips++
	return true
}

// Cooldown returns the pause duration.
func (b *Breaker) Cooldown() time.Duration {
	return b.config.Cooldown
}

// Trips returns how many times the breaker has tripped.
func (b *Breaker) Trips() int {
	return b.trips
}
