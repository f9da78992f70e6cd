package httpclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 300 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultMultiplier   = 2
)

// RetryConfig describes the retry budget of a single logical call.
// MaxAttempts counts every attempt, the first one included.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64

	// NewBackOff overrides the exponential schedule. It is called once per logical call.
	NewBackOff func() backoff.BackOff
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       0,
		NewBackOff:   nil,
	}
}

func NoRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 1

	return cfg
}

func (r RetryConfig) normalize() RetryConfig {
	if r.MaxAttempts < 1 {
		r.MaxAttempts = 1
	}

	if r.InitialDelay <= 0 {
		r.InitialDelay = DefaultInitialDelay
	}

	if r.MaxDelay < r.InitialDelay {
		r.MaxDelay = r.InitialDelay
	}

	if r.Multiplier < 1 {
		r.Multiplier = DefaultMultiplier
	}

	if r.Jitter < 0 || r.Jitter >= 1 {
		r.Jitter = 0
	}

	return r
}

// BackOff returns a fresh delay schedule. Without jitter the delays are
// InitialDelay, InitialDelay*Multiplier, ... up to MaxDelay.
func (r RetryConfig) BackOff() backoff.BackOff { //nolint:ireturn
	r = r.normalize()

	if r.NewBackOff != nil {
		return r.NewBackOff()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.InitialDelay
	exp.MaxInterval = r.MaxDelay
	exp.Multiplier = r.Multiplier
	exp.RandomizationFactor = r.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()

	return exp
}

// NextDelay draws the next delay from the schedule, bounded by MaxDelay.
// A hinted delay (Retry-After) raises the result but never past MaxDelay.
// The result never falls below previous, the delay used before the prior
// attempt, so a hint keeps raising the delays that follow it.
func (r RetryConfig) NextDelay(schedule backoff.BackOff, hint, previous time.Duration) (time.Duration, bool) {
	r = r.normalize()

	delay := schedule.NextBackOff()
	if delay == backoff.Stop {
		return 0, false
	}

	delay = max(delay, hint, previous)

	return min(delay, r.MaxDelay), true
}

func parseRetryAfter(header http.Header, now time.Time) time.Duration {
	value := header.Get(HeaderRetryAfter)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}

		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}

	return 0
}

func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
