package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer <chain_id> <request|stream>",
	Short: "Rank the healthy endpoints of a chain by latency",
	Long: `Build the endpoint pool for a chain and print every healthy endpoint with
its measured latency, slowest first.

Example:
  rpcpool timer 1 request
  rpcpool timer 137 stream --timeout 5s -v`,
	Args: cobra.ExactArgs(2),
	RunE: runTimer,
}

func init() {
	rootCmd.AddCommand(timerCmd)
}

func runTimer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := buildPool(ctx, cmd, args)
	if err != nil {
		return err
	}
	printSummary(cmd, res)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LATENCY\tENDPOINT\tQUIRKS")
	for _, r := range res.pool.Ranked() {
		quirks := "-"
		if res.pool.RequiresRelaxed(r.Endpoint) {
			quirks = "poa"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Latency.Round(time.Microsecond), r.Endpoint.URI, quirks)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return maybeServeMetrics(ctx, cmd, res)
}
