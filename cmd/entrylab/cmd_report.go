package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/reporting"
	"membership-entry-lab/internal/snapshot"
	"membership-entry-lab/internal/storage"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Regenerate the tables and report.md of a stored run",
		Long: `Render the CSV tables and report.md of a stored run without re-simulating.
Sensitivity tables are not stored and are omitted; use 'entrylab sensitivity'.

Examples:
  entrylab report --snapshot out/run.msgpack --out report
  entrylab report --run-id 7Hq2... --config params.yaml --audit audit_flags.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp(cmd)

			snapPath, _ := cmd.Flags().GetString("snapshot")
			runID, _ := cmd.Flags().GetString("run-id")
			outDir, _ := cmd.Flags().GetString("out")
			auditPath, _ := cmd.Flags().GetString("audit")
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

			gen := reporting.NewGenerator(cfg, stores)
			if auditPath != "" {
				flags, err := reporting.LoadAuditFlags(auditPath)
				if err != nil {
					return err
				}
				gen = gen.WithAuditFlags(flags)
			}

			report, err := gen.Generate(ctx, runID)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}
			paths, err := reporting.WriteFiles(outDir, report)
			if err != nil {
				return err
			}
			a.metrics.RecordReport()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report for run %s:\n", runID)
			for _, p := range paths {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().String("snapshot", "", "Snapshot file written by 'entrylab run'")
	cmd.Flags().String("run-id", "", "Run ID to load from the configured databases")
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().String("audit", "", "Compliance audit flags JSON array")

	return cmd
}
