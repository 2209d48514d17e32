package engine

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"rpc-pool-go/internal/limiter"
)

const defaultProbeConcurrency = 8

// EndpointPool holds the healthy endpoints of the last build and rotates
// over them round-robin.
type EndpointPool struct {
	prober      Prober
	concurrency int
	limiter     *limiter.RateLimiter
	metrics     *Metrics
	logger      *slog.Logger

	mu       sync.RWMutex
	healthy  []Endpoint // probe completion order
	latency  map[Endpoint]time.Duration
	quirks   map[Endpoint][]QuirkKind
	excluded []ProbeOutcome
	rot      rotator
}

// PoolOption configures an EndpointPool.
type PoolOption func(*EndpointPool)

// WithConcurrency bounds the number of simultaneous probes.
func WithConcurrency(n int) PoolOption {
	return func(p *EndpointPool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRateLimiter gates probe starts.
func WithRateLimiter(rl *limiter.RateLimiter) PoolOption {
	return func(p *EndpointPool) { p.limiter = rl }
}

// WithMetrics sets the metric sink. nil disables metrics.
func WithMetrics(m *Metrics) PoolOption {
	return func(p *EndpointPool) { p.metrics = m }
}

// WithPoolLogger sets the logger.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *EndpointPool) { p.logger = l }
}

// NewEndpointPool creates an empty pool. Call Build before Next.
func NewEndpointPool(prober Prober, opts ...PoolOption) *EndpointPool {
	p := &EndpointPool{
		prober:      prober,
		concurrency: defaultProbeConcurrency,
		metrics:     GetMetrics(),
		logger:      slog.Default(),
		latency:     make(map[Endpoint]time.Duration),
		quirks:      make(map[Endpoint][]QuirkKind),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next returns the next healthy endpoint in round-robin order.
func (p *EndpointPool) Next() (Endpoint, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.healthy) == 0 {
		return Endpoint{}, ErrEmptyPool
	}
	return p.healthy[p.rot.next(len(p.healthy))], nil
}

// Ranked returns the endpoints with a measured latency, slowest first.
// Ties keep probe completion order.
func (p *EndpointPool) Ranked() []RankedEndpoint {
	p.mu.RLock()
	ranked := make([]RankedEndpoint, 0, len(p.latency))
	for _, ep := range p.healthy {
		if lat, ok := p.latency[ep]; ok {
			ranked = append(ranked, RankedEndpoint{Endpoint: ep, Latency: lat})
		}
	}
	p.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Latency > ranked[j].Latency
	})
	return ranked
}

// HealthyCount returns the size of the healthy set.
func (p *EndpointPool) HealthyCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.healthy)
}

// All returns a snapshot of the healthy endpoints in completion order.
func (p *EndpointPool) All() []Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Endpoint(nil), p.healthy...)
}

// Latency returns the measured latency of ep, if any.
func (p *EndpointPool) Latency(ep Endpoint) (time.Duration, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	lat, ok := p.latency[ep]
	return lat, ok
}

// Quirks returns the quirks detected for ep.
func (p *EndpointPool) Quirks(ep Endpoint) []QuirkKind {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]QuirkKind(nil), p.quirks[ep]...)
}

// RequiresRelaxed reports whether requests through ep must skip the
// extraData length check.
func (p *EndpointPool) RequiresRelaxed(ep Endpoint) bool {
	for _, q := range p.Quirks(ep) {
		if q == QuirkPOA {
			return true
		}
	}
	return false
}

// Excluded returns the failed outcomes of the last build.
func (p *EndpointPool) Excluded() []ProbeOutcome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ProbeOutcome(nil), p.excluded...)
}
