package migrations

import "embed"

// PostgresFS holds the runs and outcome_records schema, applied in file name order.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the bars and run_summaries schema, applied in file name order.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
