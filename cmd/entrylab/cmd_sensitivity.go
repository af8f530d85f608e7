package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/reporting"
	"membership-entry-lab/internal/sensitivity"
)

func newSensitivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Break-even grid and tornado analysis for one strategy",
		Long: `Compute the break-even monthly spend grid over fee and discount rate, and
re-simulate the strategy with each model parameter shocked down and up.

Examples:
  entrylab sensitivity --strategy standard_65
  entrylab sensitivity --strategy entry_35 --scenario downside_stress --out sens`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newApp(cmd)

			scenarioName, _ := cmd.Flags().GetString("scenario")
			strategyName, _ := cmd.Flags().GetString("strategy")
			outDir, _ := cmd.Flags().GetString("out")

			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if scenarioName == "" {
				scenarioName = cfg.Gate.BaseScenario
			}

			scenario, ok := findScenario(cfg.ScenarioDefinitions(), scenarioName)
			if !ok {
				return fmt.Errorf("unknown scenario %q", scenarioName)
			}
			strategy, ok := findStrategy(cfg.StrategyDefinitions(), strategyName)
			if !ok {
				return fmt.Errorf("unknown strategy %q", strategyName)
			}

			analyzer := sensitivity.NewAnalyzer(sensitivity.Options{Config: cfg, Logger: a.log})
			result, err := analyzer.Analyze(ctx, scenario, strategy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tornado for %s / %s (%d trials per point)\n",
				result.Scenario, result.Strategy, cfg.Sensitivity.TornadoTrials)
			for _, row := range result.Tornado {
				fmt.Fprintf(out, "  %-28s low %10.2f  high %10.2f  swing %10.2f\n",
					row.Parameter, row.LowMeanEUR, row.HighMeanEUR, row.SwingEUR)
			}
			fmt.Fprintf(out, "Break-even grid: %d cells\n", len(result.BreakEven))

			if outDir == "" {
				return nil
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			files := map[string]string{
				reporting.FileBreakEven: reporting.RenderBreakEvenCSV(result.BreakEven),
				reporting.FileTornado:   reporting.RenderTornadoCSV(result.Tornado),
			}
			for _, name := range []string{reporting.FileBreakEven, reporting.FileTornado} {
				path := filepath.Join(outDir, name)
				if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", name, err)
				}
				fmt.Fprintf(out, "  - %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().String("scenario", "", "Scenario name (defaults to the gate's base scenario)")
	cmd.Flags().String("strategy", "", "Strategy name")
	cmd.Flags().String("out", "", "Write the sensitivity CSVs into this directory")
	_ = cmd.MarkFlagRequired("strategy")

	return cmd
}

func findScenario(defs []domain.ScenarioDefinition, name string) (domain.ScenarioDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return domain.ScenarioDefinition{}, false
}

func findStrategy(defs []domain.StrategyDefinition, name string) (domain.StrategyDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return domain.StrategyDefinition{}, false
}
