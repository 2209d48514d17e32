package limiter

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// 探测限速的硬上限：公共节点对突发握手非常敏感
const (
	MaxProbeRPS      = 50
	DefaultBurstSize = 4
)

// RateLimiter gates how fast new probes may start. A zero value limit means
// unlimited admission.
type RateLimiter struct {
	limiter *rate.Limiter
	maxRPS  int
}

// NewRateLimiter builds a limiter for the requested probes per second.
// rps <= 0 disables limiting; values above MaxProbeRPS are clamped.
func NewRateLimiter(rps int) *RateLimiter {
	switch {
	case rps <= 0:
		slog.Debug("probe_rate_limiter_configured", "mode", "unlimited")
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	case rps > MaxProbeRPS:
		slog.Warn("probe_rate_limiter_clamped",
			"requested_rps", rps,
			"forced_rps", MaxProbeRPS)
		rps = MaxProbeRPS
	default:
		slog.Debug("probe_rate_limiter_configured", "rps", rps)
	}

	burst := DefaultBurstSize
	if rps < burst {
		burst = rps
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		maxRPS:  rps,
	}
}

// Wait blocks until a probe may start or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

// MaxRPS returns the configured admission rate, 0 when unlimited.
func (rl *RateLimiter) MaxRPS() int {
	if rl == nil {
		return 0
	}
	return rl.maxRPS
}
