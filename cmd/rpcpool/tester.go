package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var testerCmd = &cobra.Command{
	Use:   "tester <chain_id> <request|stream>",
	Short: "List the endpoints of a chain that pass the health probe",
	Long: `Build the endpoint pool for a chain and print the URI of every healthy
endpoint, one per line, in rotation order.

Example:
  rpcpool tester 1 request > healthy.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runTester,
}

func init() {
	rootCmd.AddCommand(testerCmd)
}

func runTester(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := buildPool(ctx, cmd, args)
	if err != nil {
		return err
	}
	printSummary(cmd, res)

	out := cmd.OutOrStdout()
	for _, ep := range res.pool.All() {
		fmt.Fprintln(out, ep.URI)
	}

	return maybeServeMetrics(ctx, cmd, res)
}
