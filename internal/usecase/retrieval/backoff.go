package retrieval

import (
	"math"
	"time"
)

// BackoffPolicy is the pure retry schedule for transient search failures.
// Delay grows exponentially from InitialDelay by Multiplier, capped at
// MaxDelay. Tests substitute zero-delay policies.
type BackoffPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoff is three attempts with 2s, 4s waits capped at 10s.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
