package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"zone-signal-lab/internal/app"
	"zone-signal-lab/internal/detector"
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/reporting"
	"zone-signal-lab/internal/simulation"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file with ZSL_* overrides")

	strategy := flag.String("strategy", "", "Detector variant: "+strings.Join(detector.IDs(), ", ")+" (required)")
	instrument := flag.String("instrument", "", "Instrument, e.g. EURUSD (required)")
	timeframe := flag.String("timeframe", "", "Bar timeframe, e.g. M5 (required)")
	window := flag.String("window", "", "Time window from..to, dates or RFC3339 (required)")
	stopPips := flag.Float64("stop", 0, "Stop distance in pips (required)")
	target1Pips := flag.Float64("target1", 0, "Target-1 distance in pips (required)")
	target2Pips := flag.Float64("target2", 0, "Target-2 distance in pips (required)")
	requester := flag.String("requester", "", "Requester id, part of the run identity")

	params := paramFlags{}
	flag.Var(params, "param", "Detector parameter key=value (repeatable)")
	paramsJSON := flag.String("params-json", "", "Detector parameters as a JSON object")

	csvPath := flag.String("csv", "", "Bar CSV to ingest before the run (overrides storage.csv_path)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	outcomesCSV := flag.String("outcomes-csv", "", "Write outcome records as CSV to this file")

	flag.Parse()

	cfg, log, err := app.LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Validate required flags
	if *strategy == "" || *instrument == "" || *timeframe == "" || *window == "" {
		log.Error("--strategy, --instrument, --timeframe and --window are required")
		os.Exit(2)
	}
	tw, err := domain.ParseTimeWindow(*window)
	if err != nil {
		log.Error("invalid --window", logger.Error(err))
		os.Exit(2)
	}
	if *paramsJSON != "" {
		if err := params.mergeJSON(*paramsJSON); err != nil {
			log.Error("invalid --params-json", logger.Error(err))
			os.Exit(2)
		}
	}
	if *csvPath != "" {
		cfg.Storage.CSVPath = *csvPath
	}

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open backends", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()
	defer a.WriteMetrics()

	req := simulation.RunRequest{
		StrategyID:  *strategy,
		Instrument:  *instrument,
		Timeframe:   *timeframe,
		Window:      tw,
		StopPips:    *stopPips,
		Target1Pips: *target1Pips,
		Target2Pips: *target2Pips,
		Params:      params,
		RequesterID: *requester,
	}
	if err := req.Validate(); err != nil {
		log.Error("invalid request", logger.Error(err))
		os.Exit(2)
	}

	// Ingest bars
	from, to, _ := tw.Bounds()
	if _, err := a.IngestCSV(ctx, cfg.Storage.CSVPath, *instrument, *timeframe, from, to); err != nil {
		log.Error("ingest bars", logger.Error(err))
		os.Exit(1)
	}

	runner, err := a.Runner()
	if err != nil {
		log.Error("build runner", logger.Error(err))
		os.Exit(2)
	}

	log.Info("running backtest",
		logger.String("strategy", req.StrategyID),
		logger.String("instrument", req.Instrument),
		logger.String("timeframe", req.Timeframe),
		logger.String("window", tw.String()),
	)

	res, err := runner.Run(ctx, req)
	if err != nil {
		code := 1
		if errors.Is(err, simulation.ErrInvalidRequest) {
			code = 2
		}
		log.Error("backtest failed", logger.Error(err))
		a.WriteMetrics()
		a.Close()
		os.Exit(code)
	}

	if *outcomesCSV != "" {
		if err := os.WriteFile(*outcomesCSV, []byte(reporting.RenderOutcomesCSV(res.Outcomes)), 0o644); err != nil {
			log.Error("write outcomes csv", logger.Error(err))
		}
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(newResultJSON(res), "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(res)
	}
}

// printResult outputs a human-readable run summary.
func printResult(res *simulation.RunResult) {
	run, s := res.Run, res.Summary
	d := run.Descriptor

	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", run.RunID)
	if res.Reused {
		fmt.Printf("                    (reused stored run)\n")
	}
	fmt.Printf("Strategy:           %s\n", d.StrategyID)
	fmt.Printf("Instrument:         %s %s\n", d.Instrument, d.Timeframe)
	fmt.Printf("Window:             %s\n", d.Window)
	fmt.Printf("Distances (pips):   stop %g / t1 %g / t2 %g\n", d.StopDistance, d.Target1Distance, d.Target2Distance)
	fmt.Printf("Pip Size:           %g (tie-break %s)\n", d.PipSize, d.TieBreak)
	fmt.Printf("Created:            %s\n", time.UnixMilli(run.CreatedAtMs).UTC().Format(time.RFC3339))
	fmt.Println()

	fmt.Println("Counts:")
	fmt.Printf("  Bars:             %d\n", run.BarCount)
	fmt.Printf("  Signals:          %d\n", run.SignalCount)
	fmt.Printf("  Outcome Records:  %d\n", run.OutcomeCount)
	fmt.Println()

	if s == nil {
		return
	}
	fmt.Println("Target 1:")
	fmt.Printf("  Hits / Stops:     %d / %d\n", s.Target1Hits, s.Target1Stops)
	fmt.Printf("  Win Rate:         %.2f%%\n", s.Target1WinRate*100)
	fmt.Printf("  Mean R:R:         %.2f\n", s.MeanRiskReward)
	fmt.Printf("  Expectancy:       %.3fR\n", s.ExpectancyR)
	fmt.Printf("  Max Loss Streak:  %d\n", s.MaxConsecutiveLosses)
	fmt.Println()

	fmt.Println("Target 2:")
	fmt.Printf("  Hits / Stops:     %d / %d\n", s.Target2Hits, s.Target2Stops)
	fmt.Printf("  Unresolved:       %d\n", s.Target2Unresolved)
	fmt.Printf("  Conversion Rate:  %.2f%%\n", s.Target2ConversionRate*100)
}
