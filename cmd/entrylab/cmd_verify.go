package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/snapshot"
	"membership-entry-lab/internal/storage"
	"membership-entry-lab/internal/verification"
)

var errVerificationFailed = errors.New("verification failed: stored summaries do not replay")

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay a stored run and compare its scenario summaries",
		Long: `Re-simulate every (scenario, strategy) pair of a stored run with the run's
seed and trial count, and compare the replayed summaries with the stored ones.

The run comes either from a snapshot file written by 'entrylab run' or from
the configured databases by run ID. In the latter case --config must be the
parameter set the run was produced with.

Examples:
  entrylab verify --snapshot out/run.msgpack
  entrylab verify --run-id 7Hq2... --config params.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp(cmd)

			snapPath, _ := cmd.Flags().GetString("snapshot")
			runID, _ := cmd.Flags().GetString("run-id")
			if (snapPath == "") == (runID == "") {
				return errors.New("exactly one of --snapshot or --run-id is required")
			}

			var (
				cfg    config.Config
				stores storage.Stores
				err    error
			)
			if snapPath != "" {
				snap, err := snapshot.ReadFile(snapPath)
				if err != nil {
					return err
				}
				if cfg, err = snap.ParsedConfig(); err != nil {
					return err
				}
				if stores, err = a.snapshotStores(ctx, snap); err != nil {
					return err
				}
				runID = snap.Run.RunID
			} else {
				if cfg, err = a.loadConfig(cmd); err != nil {
					return err
				}
				var closeStores func()
				if stores, closeStores, err = a.openStores(ctx); err != nil {
					return err
				}
				defer closeStores()
			}

			verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
				Config:       cfg,
				RunStore:     stores.Runs,
				SummaryStore: stores.Summaries,
				Logger:       a.log,
			})
			report, err := verifier.VerifyRun(ctx, runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %d/%d pairs match\n", report.RunID, report.MatchedPairs, report.TotalPairs)
			for _, r := range report.Results {
				status := "MATCH"
				if !r.Match {
					status = "DIVERGED"
				}
				fmt.Fprintf(out, "  %-8s %s / %s\n", status, r.Scenario, r.Strategy)
				for _, d := range r.Divergences {
					fmt.Fprintf(out, "           %s: stored %v, replayed %v\n", d.Field, d.Expected, d.Actual)
				}
			}
			if !report.Match() {
				return errVerificationFailed
			}
			return nil
		},
	}

	cmd.Flags().String("snapshot", "", "Snapshot file written by 'entrylab run'")
	cmd.Flags().String("run-id", "", "Run ID to load from the configured databases")

	return cmd
}
