package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"rpc-pool-go/internal/config"
	"rpc-pool-go/internal/engine"
	"rpc-pool-go/internal/limiter"
	"rpc-pool-go/pkg/network"

	"github.com/spf13/cobra"
)

// buildResult is what timer and tester render.
type buildResult struct {
	chainID   int64
	transport engine.Transport
	pool      *engine.EndpointPool
	report    engine.BuildReport
	skipped   []error // candidates dropped for missing credentials
	verbose   bool
	cfg       *config.Config
}

func parseTarget(args []string) (int64, engine.Transport, error) {
	chainID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || chainID <= 0 {
		return 0, 0, fmt.Errorf("invalid chain id %q", args[0])
	}
	transport, err := engine.ParseTransport(args[1])
	if err != nil {
		return 0, 0, err
	}
	return chainID, transport, nil
}

// buildPool runs the shared pipeline: source → credentials → probe → pool.
// Only configuration and source failures are returned as errors.
func buildPool(ctx context.Context, cmd *cobra.Command, args []string) (*buildResult, error) {
	chainID, transport, err := parseTarget(args)
	if err != nil {
		return nil, err
	}

	cfg := config.Load()
	verbosity, _ := cmd.Flags().GetCount("verbose")
	level := cfg.LogLevel
	if verbosity > 0 {
		level = "debug"
	}
	engine.InitLogger(level, cfg.LogFormat)

	timeout := cfg.ProbeTimeout
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	concurrency := cfg.ProbeConcurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if timeout <= 0 || concurrency <= 0 {
		return nil, fmt.Errorf("timeout and concurrency must be positive")
	}

	var source engine.EndpointSource = engine.NewChainlistSource(cfg.ChainlistURL)
	if len(cfg.RPCURLs) > 0 {
		source = engine.NewStaticSource(cfg.RPCURLs)
	}

	slog.Info("fetching_candidates",
		"chain_id", chainID,
		"network", network.Name(chainID),
		"transport", transport.String())

	templates, err := source.FetchCandidates(ctx, chainID, transport)
	if err != nil {
		return nil, err
	}

	resolver := engine.NewCredentialResolver(cfg.Credentials)
	uris, err := resolver.ResolveAll(templates)
	var skipped []error
	if err != nil {
		skipped = unwrapJoined(err)
		for _, e := range skipped {
			slog.Warn("candidate_skipped", "reason", e.Error())
		}
	}

	probeOpts := []engine.ProbeOption{}
	if cfg.VerifyChainID {
		probeOpts = append(probeOpts, engine.WithExpectedChainID(chainID))
	}
	client := engine.NewProbeClient(probeOpts...)
	defer client.Close()

	pool := engine.NewEndpointPool(client,
		engine.WithConcurrency(concurrency),
		engine.WithRateLimiter(limiter.NewRateLimiter(cfg.ProbeRPS)),
	)
	report := pool.Build(ctx, engine.EndpointsFrom(uris, transport), timeout)

	return &buildResult{
		chainID:   chainID,
		transport: transport,
		pool:      pool,
		report:    report,
		skipped:   skipped,
		verbose:   verbosity > 0,
		cfg:       cfg,
	}, nil
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// printSummary writes aggregate counts; in verbose mode also every skipped
// or excluded candidate with its reason.
func printSummary(cmd *cobra.Command, res *buildResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (chain %d) %s: %d/%d healthy, %d skipped, probed in %s\n",
		network.Name(res.chainID), res.chainID, res.transport,
		res.report.Healthy, res.report.Candidates, len(res.skipped),
		res.report.Elapsed.Round(time.Millisecond))

	if !res.verbose {
		return
	}
	for _, err := range res.skipped {
		fmt.Fprintf(out, "  skipped: %v\n", err)
	}
	for _, o := range res.report.Excluded {
		fmt.Fprintf(out, "  excluded %s: %s\n", o.Endpoint, exclusionReason(o.Err))
	}
}

func exclusionReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, engine.ErrProbeTimeout):
		return "timeout: " + err.Error()
	case errors.Is(err, engine.ErrChainMismatch):
		return "wrong chain: " + err.Error()
	default:
		return err.Error()
	}
}

// maybeServeMetrics blocks serving /metrics when an address is configured.
func maybeServeMetrics(ctx context.Context, cmd *cobra.Command, res *buildResult) error {
	addr := res.cfg.MetricsAddr
	if cmd.Flags().Changed("metrics-addr") {
		addr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if addr == "" {
		return nil
	}
	return serveMetrics(ctx, addr, res.pool)
}
