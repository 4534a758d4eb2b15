package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"zone-signal-lab/internal/app"
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/metrics"
	"zone-signal-lab/internal/reporting"
	"zone-signal-lab/internal/storage"
)

// Output formats
const (
	formatMarkdown   = "markdown"
	formatOutcomes   = "outcomes-csv"
	formatSummaryCSV = "summary-csv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file with ZSL_* overrides")
	runID := flag.String("run-id", "", "Run to report on (required unless --all)")
	all := flag.Bool("all", false, "Summary CSV of every stored run")
	format := flag.String("format", formatMarkdown, "Output format: markdown, outcomes-csv, summary-csv")
	output := flag.String("output", "", "Output file (default stdout)")
	flag.Parse()

	cfg, log, err := app.LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Validate flags
	if *all {
		*format = formatSummaryCSV
	} else if *runID == "" {
		log.Error("--run-id is required unless --all is set")
		os.Exit(2)
	}

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open backends", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	var content string
	switch {
	case *all:
		summaries, err := metrics.NewAggregator(a.RunStore, a.SummaryStore).SummarizeAll(ctx)
		if err != nil {
			log.Error("summarize runs", logger.Error(err))
			os.Exit(1)
		}
		content = reporting.RenderSummaryCSV(summaries)

	default:
		report, err := reporting.NewGenerator(a.RunStore, a.SummaryStore).Generate(ctx, *runID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Error("run not found", logger.String("run_id", *runID))
			} else {
				log.Error("generate report", logger.Error(err))
			}
			os.Exit(1)
		}

		switch *format {
		case formatMarkdown:
			content = reporting.RenderMarkdown(report)
		case formatOutcomes:
			content = reporting.RenderOutcomesCSV(report.Outcomes)
		case formatSummaryCSV:
			content = reporting.RenderSummaryCSV([]*domain.RunSummary{report.Summary})
		default:
			log.Error("unknown format", logger.String("format", *format))
			os.Exit(2)
		}
	}

	if *output == "" {
		fmt.Print(content)
		return
	}

	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("create output directory", logger.Error(err))
			os.Exit(1)
		}
	}
	if err := os.WriteFile(*output, []byte(content), 0o644); err != nil {
		log.Error("write report", logger.Error(err))
		os.Exit(1)
	}
	log.Info("report written", logger.String("path", *output))
}
