package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"zone-signal-lab/internal/app"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file with ZSL_* overrides")
	runID := flag.String("run-id", "", "Run to verify (default: all stored runs)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	cfg, log, err := app.LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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

	runner, err := a.Runner()
	if err != nil {
		log.Error("build runner", logger.Error(err))
		os.Exit(2)
	}

	v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		Runner:       runner,
		RunStore:     a.RunStore,
		BarStore:     a.BarStore,
		SummaryStore: a.SummaryStore,
	})

	// Run verification
	var batch *verification.BatchReport
	if *runID != "" {
		report, err := v.VerifyRun(ctx, *runID)
		if err != nil {
			log.Error("verify run", logger.String("run_id", *runID), logger.Error(err))
			os.Exit(1)
		}
		batch = &verification.BatchReport{TotalRuns: 1, Reports: []*verification.Report{report}}
		if report.Match() {
			batch.MatchedRuns = 1
		} else {
			batch.DivergentRuns = 1
		}
	} else {
		batch, err = v.VerifyAll(ctx)
		if err != nil {
			log.Error("verify runs", logger.Error(err))
			os.Exit(1)
		}
	}

	// Output summary
	if *outputJSON {
		output, _ := json.MarshalIndent(batch, "", "  ")
		fmt.Println(string(output))
	} else {
		printBatch(batch)
	}

	if batch.DivergentRuns > 0 {
		a.Close()
		os.Exit(1)
	}
}

func printBatch(b *verification.BatchReport) {
	fmt.Printf("\n=== Replay Verification ===\n")
	fmt.Printf("Runs:        %d\n", b.TotalRuns)
	fmt.Printf("Matched:     %d\n", b.MatchedRuns)
	fmt.Printf("Divergent:   %d\n", b.DivergentRuns)

	for _, r := range b.Reports {
		if r.Match() {
			continue
		}
		fmt.Printf("\nRun %s\n", r.RunID)
		if r.Error != "" {
			fmt.Printf("  replay failed: %s\n", r.Error)
			continue
		}
		if r.ReplayedRunID != r.RunID {
			fmt.Printf("  identity changed: %s -> %s\n", r.RunID, r.ReplayedRunID)
		}
		fmt.Printf("  outcomes stored %d, replayed %d, matched %d\n", r.StoredOutcomes, r.ReplayedOutcomes, r.Matched)
		for _, res := range r.Results {
			switch {
			case res.Missing:
				fmt.Printf("  %s: missing from replay\n", res.OutcomeID)
			case res.Extra:
				fmt.Printf("  %s: not in stored run\n", res.OutcomeID)
			default:
				for _, d := range res.Divergences {
					fmt.Printf("  %s: %s stored=%v replayed=%v\n", res.OutcomeID, d.Field, d.Expected, d.Actual)
				}
			}
		}
	}
}
