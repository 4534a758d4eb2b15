package main

import (
	"flag"
	"fmt"
	"os"

	"zone-signal-lab/internal/app"
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file with ZSL_* overrides")
	csvPath := flag.String("csv", "", "Bar CSV file (required)")
	instrument := flag.String("instrument", "", "Instrument (required)")
	timeframe := flag.String("timeframe", "", "Timeframe (required)")
	window := flag.String("window", "", "Optional from..to filter")
	flag.Parse()

	cfg, log, err := app.LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Validate required flags
	if *csvPath == "" || *instrument == "" || *timeframe == "" {
		log.Error("--csv, --instrument and --timeframe are required")
		os.Exit(2)
	}

	var from, to int64
	if *window != "" {
		tw, err := domain.ParseTimeWindow(*window)
		if err == nil {
			from, to, err = tw.Bounds()
		}
		if err != nil {
			log.Error("invalid --window", logger.Error(err))
			os.Exit(2)
		}
	}

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open backends", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	n, err := a.IngestCSV(ctx, *csvPath, *instrument, *timeframe, from, to)
	if err != nil {
		log.Error("ingest failed", logger.Error(err))
		a.Close()
		os.Exit(1)
	}
	fmt.Printf("Ingested %d bars for %s %s\n", n, *instrument, *timeframe)
}
