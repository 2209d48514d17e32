// Package main is the entry point for the rpcpool CLI.
//
// rpcpool discovers the public RPC endpoints of a chain, probes them and
// reports which ones are healthy and how fast they answer.
//
// Usage:
//
//	rpcpool timer 1 request      # ranked latency table, slowest first
//	rpcpool tester 137 stream -v # healthy endpoint list with exclusion reasons
//	rpcpool version
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "rpcpool",
	Short: "Probe and rank the public RPC endpoints of a chain",
	Long: `rpcpool fetches the candidate RPC endpoints of a chain from the chainlist
directory, substitutes provider credentials such as ${INFURA_API_KEY} from the
environment (or a .env file), probes every endpoint concurrently and keeps the
healthy ones.

Environment:
  CHAINLIST_URL          chain directory (default https://chainid.network/chains_mini.json)
  RPC_URLS               comma separated candidates, replaces the directory
  PROBE_TIMEOUT_SECONDS  per-endpoint probe timeout (default 10)
  PROBE_CONCURRENCY      simultaneous probes (default 8)
  PROBE_RPS              probe starts per second, 0 = unlimited
  VERIFY_CHAIN_ID        reject endpoints serving another chain (default false)
  LOG_LEVEL, LOG_FORMAT  slog level and json|text`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rpcpool %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.CountP("verbose", "v", "report every excluded endpoint and why (repeatable)")
	flags.Duration("timeout", 10*time.Second, "per-endpoint probe timeout (overrides PROBE_TIMEOUT_SECONDS)")
	flags.Int("concurrency", 8, "simultaneous probes (overrides PROBE_CONCURRENCY)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address after the build (overrides METRICS_ADDR)")

	rootCmd.AddCommand(versionCmd)
}
