// Command entrylab runs the membership market-entry engine: Monte Carlo
// adoption trials per scenario and strategy, risk-adjusted ranking,
// valuation and a GO / NO-GO recommendation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "entrylab",
		Short: "Membership market-entry strategy engine",
		Long: `entrylab simulates household adoption of a warehouse-club membership
under several macro scenarios and pricing strategies, ranks the strategies
on risk-adjusted contribution and recommends GO or NO-GO for the best one.

Infrastructure comes from the environment (or a .env file):
  ENTRYLAB_POSTGRES_DSN     runs, decision rows and valuations
  ENTRYLAB_CLICKHOUSE_DSN   scenario summaries
  ENTRYLAB_LOG_LEVEL        debug | info | warn | error
  ENTRYLAB_LOG_PRETTY       console log output
  ENTRYLAB_METRICS_ADDR     Prometheus /metrics listen address
Without DSNs results are kept in memory for the duration of the command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "YAML parameter file (defaults to the calibrated set)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level, overrides ENTRYLAB_LOG_LEVEL")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Human-readable console logs")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address, overrides ENTRYLAB_METRICS_ADDR")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newVerifyCmd(),
		newReportCmd(),
		newSensitivityCmd(),
	)

	return rootCmd
}
