package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/orchestrator"
	"membership-entry-lab/internal/reporting"
	"membership-entry-lab/internal/snapshot"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine and write the result tables",
		Long: `Simulate every (scenario, strategy) pair, rank the strategies, project
valuations and evaluate the recommendation gate.

Writes into --out:
  scenario_results.csv, decision_matrix.csv,
  valuation_summary.csv, valuation_cashflows.csv,
  sensitivity_breakeven.csv, sensitivity_tornado.csv (unless --skip-sensitivity),
  report.md and run.msgpack (replayable snapshot)

Examples:
  entrylab run
  entrylab run --config params.yaml --out results
  entrylab run --overrides refresh.json --audit audit_flags.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp(cmd)

			outDir, _ := cmd.Flags().GetString("out")
			overridesPath, _ := cmd.Flags().GetString("overrides")
			auditPath, _ := cmd.Flags().GetString("audit")
			skipSensitivity, _ := cmd.Flags().GetBool("skip-sensitivity")
			parallelism, _ := cmd.Flags().GetInt("parallelism")

			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if overridesPath != "" {
				updated, applied, err := config.ApplyOverridesFile(cfg, overridesPath)
				if err != nil {
					return err
				}
				if !applied {
					a.log.Warn().Str("path", overridesPath).Msg("overrides rejected by quality gate, keeping last-known-good parameters")
				}
				cfg = updated
			}

			var auditFlags []reporting.AuditFlag
			if auditPath != "" {
				if auditFlags, err = reporting.LoadAuditFlags(auditPath); err != nil {
					return err
				}
			}

			stopMetrics := a.serveMetrics()
			defer stopMetrics()

			stores, closeStores, err := a.openStores(ctx)
			if err != nil {
				return err
			}
			defer closeStores()

			orch := orchestrator.New(orchestrator.Options{
				Config:          cfg,
				Stores:          stores,
				Logger:          a.log,
				Metrics:         a.metrics,
				SkipSensitivity: skipSensitivity,
				Parallelism:     parallelism,
			})
			result, err := orch.Run(ctx)
			if err != nil {
				return fmt.Errorf("run engine: %w", err)
			}

			report, err := reporting.NewGenerator(cfg, orch.Stores()).
				WithAuditFlags(auditFlags).
				WithSensitivity(result.Sensitivity).
				Generate(ctx, result.Run.RunID)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}
			paths, err := reporting.WriteFiles(outDir, report)
			if err != nil {
				return err
			}
			a.metrics.RecordReport()

			snap, err := snapshot.New(cfg, report.Run, report.Scenarios, report.Decisions, report.Valuations)
			if err != nil {
				return err
			}
			snapPath := filepath.Join(outDir, snapshot.FileName)
			if err := snapshot.WriteFile(snapPath, snap); err != nil {
				return err
			}
			paths = append(paths, snapPath)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %s for %s\n", result.Run.RunID, result.Run.Recommendation, result.Run.RecommendedStrategy)
			if result.AlreadyStored {
				fmt.Fprintln(out, "Identical run already stored; results reproduced from the store.")
			}
			for _, p := range paths {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().String("overrides", "", "Refreshed-assumption JSON document, applied when its quality gate passed")
	cmd.Flags().String("audit", "", "Compliance audit flags JSON array, rendered into report.md")
	cmd.Flags().Bool("skip-sensitivity", false, "Skip the break-even grid and tornado analysis")
	cmd.Flags().Int("parallelism", 0, "Concurrent simulation batches (0 = GOMAXPROCS)")

	return cmd
}
