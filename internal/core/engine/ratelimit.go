package engine

import (
	"time"

	"github.com/osudump/osudump/internal/core"
)

// RateLimiter is a sliding-window admission policy. It records when the most
// recent requests were sent and reports how long a caller has to wait before
// the next one. It never sleeps itself.
//
// A RateLimiter is owned by a single fetch loop and is not safe for
// concurrent use.
type RateLimiter struct {
	Config core.RateLimitConfig
	Clock  func() time.Time

	// starts holds at most Config.MaxRequests timestamps, oldest first.
	starts []time.Time
}

// NewRateLimiter returns a limiter enforcing cfg.
func NewRateLimiter(cfg core.RateLimitConfig) *RateLimiter {
	return &RateLimiter{Config: cfg}
}

// TimeUntilNextRequest returns zero when a request may be sent right away,
// otherwise a whole number of seconds in [1, window].
func (r *RateLimiter) TimeUntilNextRequest() time.Duration {
	if r == nil || r.Config.Unlimited() || len(r.starts) < int(r.Config.MaxRequests) {
		return 0
	}

	window := r.Config.Window()
	age := r.now().Sub(r.starts[0])
	if age >= window {
		return 0
	}

	remaining := window - age
	wait := (remaining + time.Second - 1) / time.Second * time.Second
	if wait < time.Second {
		wait = time.Second
	}
	if wait > window {
		wait = window
	}
	return wait
}

// RegisterRequestPerformed records a request that was just sent, evicting the
// oldest entry when the window is full. Call it once per request actually
// sent, after it completed, whether it succeeded or not.
func (r *RateLimiter) RegisterRequestPerformed() {
	if r == nil || r.Config.Unlimited() {
		return
	}

	if len(r.starts) >= int(r.Config.MaxRequests) {
		r.starts = append(r.starts[:0], r.starts[1:]...)
	}
	r.starts = append(r.starts, r.now())
}

// Recorded returns the number of timestamps currently tracked.
func (r *RateLimiter) Recorded() int {
	if r == nil {
		return 0
	}
	return len(r.starts)
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}
