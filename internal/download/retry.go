package download

import (
	"context"
	"math"
	"time"

	"github.com/handiism/mixdl/internal/config"
)

// RetryPolicy decides how long to wait after a rate limited request.
//
// The delay before retry n (0-based) is Cooldown * Exponent^n. The default
// policy waits a fixed 30 seconds and never gives up.
type RetryPolicy struct {
	// Cooldown is the base wait. Zero or less means config.DefaultCooldown.
	Cooldown time.Duration

	// MaxRetries bounds the number of consecutive cooldowns for one request.
	// Zero means unbounded.
	MaxRetries int

	// Exponent grows the wait between consecutive retries. Values below 1
	// are treated as 1.
	Exponent float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Cooldown: config.DefaultCooldown,
		Exponent: 1,
	}
}

// RetryPolicyFromSettings builds the policy described by settings.
func RetryPolicyFromSettings(settings *config.Settings) RetryPolicy {
	return RetryPolicy{
		Cooldown:   settings.Cooldown(),
		MaxRetries: settings.RateLimitMaxRetries,
		Exponent:   settings.RateLimitExponent,
	}
}

// Delay returns the wait before retry n. A Cooldown of zero or less is
// replaced by config.DefaultCooldown.
func (p RetryPolicy) Delay(n int) time.Duration {
	cooldown := p.Cooldown
	if cooldown <= 0 {
		cooldown = config.DefaultCooldown
	}
	exponent := p.Exponent
	if exponent < 1 {
		exponent = 1
	}
	return time.Duration(float64(cooldown) * math.Pow(exponent, float64(n)))
}

// Exhausted reports whether retry n is no longer allowed.
func (p RetryPolicy) Exhausted(n int) bool {
	return p.MaxRetries > 0 && n >= p.MaxRetries
}

// Clock abstracts time for the dwell and cooldown waits.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
