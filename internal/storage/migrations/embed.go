package migrations

import "embed"

// PostgresFS holds the runs, decision_rows, valuations and
// valuation_cashflows schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the scenario_summaries schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
