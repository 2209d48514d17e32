package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rpc-pool-go/internal/recovery"
)

// Build probes every candidate concurrently and replaces the pool state with
// the result. Per-endpoint failures never escape: they show up in
// BuildReport.Excluded. An all-failing build leaves the pool empty.
//
// Build is safe to call while other goroutines call Next; they observe
// either the old or the new healthy set.
func (p *EndpointPool) Build(ctx context.Context, candidates []Endpoint, timeout time.Duration) BuildReport {
	start := time.Now()
	unique := dedupeEndpoints(candidates)

	healthy := make([]Endpoint, 0, len(unique))
	latency := make(map[Endpoint]time.Duration, len(unique))
	quirks := make(map[Endpoint][]QuirkKind)
	var excluded []ProbeOutcome

	for outcome := range p.fanOut(ctx, unique, timeout) {
		p.metrics.RecordProbe(outcome)

		if !outcome.Healthy {
			excluded = append(excluded, outcome)
			LogEndpointExcluded(p.logger, outcome)
			continue
		}

		ep := outcome.Endpoint
		healthy = append(healthy, ep)
		if outcome.Measured {
			latency[ep] = outcome.Latency
		} else {
			LogMissingLatency(p.logger, ep)
		}
		if len(outcome.Quirks) > 0 {
			quirks[ep] = append([]QuirkKind(nil), outcome.Quirks...)
		}
	}

	p.mu.Lock()
	p.healthy = healthy
	p.latency = latency
	p.quirks = quirks
	p.excluded = excluded
	p.rot.reset()
	p.mu.Unlock()

	report := BuildReport{
		Candidates: len(unique),
		Healthy:    len(healthy),
		Excluded:   append([]ProbeOutcome(nil), excluded...),
		Elapsed:    time.Since(start),
	}
	label := transportLabel(unique)
	p.metrics.RecordBuild(label, report)
	LogPoolBuilt(p.logger, label, report)
	return report
}

// fanOut runs one probe per endpoint on a bounded worker pool. The returned
// channel yields outcomes in completion order and is closed when every
// endpoint has reported.
func (p *EndpointPool) fanOut(ctx context.Context, endpoints []Endpoint, timeout time.Duration) <-chan ProbeOutcome {
	results := make(chan ProbeOutcome, len(endpoints))
	jobs := make(chan Endpoint)

	workers := p.concurrency
	if workers > len(endpoints) {
		workers = len(endpoints)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range jobs {
				results <- p.probeOne(ctx, ep, timeout)
			}
		}()
	}

	go func() {
		for _, ep := range endpoints {
			jobs <- ep
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	return results
}

// probeOne waits for admission and runs the prober behind a panic guard, so
// a misbehaving Prober implementation cannot take down the fan-out.
func (p *EndpointPool) probeOne(ctx context.Context, ep Endpoint, timeout time.Duration) ProbeOutcome {
	if err := p.limiter.Wait(ctx); err != nil {
		return ProbeOutcome{
			Endpoint:  ep,
			Err:       classifyProbeError(ctx, "admission", err),
			CheckedAt: time.Now(),
		}
	}

	var outcome ProbeOutcome
	rec := recovery.WithRecoveryNamed("pool_probe", func() {
		outcome = p.prober.Probe(ctx, ep, timeout)
	})
	if rec != nil {
		outcome = ProbeOutcome{
			Err:       &UnexpectedProbeError{CorrelationID: rec.CorrelationID, Value: rec.Value},
			CheckedAt: time.Now(),
		}
	}
	// the pool only ever admits endpoints it was asked to probe
	outcome.Endpoint = ep
	if outcome.Healthy && outcome.Err != nil {
		outcome.Healthy = false
	}
	return outcome
}

func dedupeEndpoints(candidates []Endpoint) []Endpoint {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Endpoint, 0, len(candidates))
	for _, ep := range candidates {
		if _, dup := seen[ep.URI]; dup {
			continue
		}
		seen[ep.URI] = struct{}{}
		out = append(out, ep)
	}
	return out
}

func transportLabel(endpoints []Endpoint) string {
	if len(endpoints) == 0 {
		return "none"
	}
	label := endpoints[0].Transport
	for _, ep := range endpoints[1:] {
		if ep.Transport != label {
			return "mixed"
		}
	}
	return label.String()
}

// EndpointsFrom wraps raw URIs as endpoints of one transport.
func EndpointsFrom(uris []string, transport Transport) []Endpoint {
	eps := make([]Endpoint, 0, len(uris))
	for _, uri := range uris {
		eps = append(eps, Endpoint{URI: uri, Transport: transport})
	}
	return eps
}

// String renders a ranked entry for diagnostics.
func (r RankedEndpoint) String() string {
	return fmt.Sprintf("%s %.3fs", r.Endpoint, r.Latency.Seconds())
}
