package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/danielpatrickdp/multiseq-learning/internal/config"
	"github.com/danielpatrickdp/multiseq-learning/internal/experiment"
	"github.com/joho/godotenv"
)

// #region main
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	configPath := flag.String("config", envOr("MULTISEQ_CONFIG", ""), "path to YAML config (defaults when empty)")
	dataset := flag.String("dataset", envOr("MULTISEQ_DATASET", ""), "power consumption CSV (timestamp,value)")
	dbPath := flag.String("db", envOr("MULTISEQ_DB", ""), "sqlite run store (empty disables persistence)")
	logDir := flag.String("log-dir", envOr("MULTISEQ_LOG_DIR", ""), "directory for the run log artifact")
	bars := flag.Bool("progress", true, "show per-sequence progress bars")
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "usage: experiment --dataset path/to/data.csv [--config experiment.yaml] [--db runs.db] [--log-dir dir]")
		os.Exit(2)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Output.DBPath = *dbPath
	}
	if *logDir != "" {
		cfg.Output.LogDir = *logDir
	}

	exp := experiment.New(cfg)
	var prog *barProgress
	if *bars {
		prog = newBarProgress()
		exp.SetProgress(prog)
	}

	res, err := exp.Run(*dataset)
	if prog != nil {
		prog.wait()
	}
	if err != nil {
		log.Fatalf("experiment failed: %v", err)
	}

	printResult(res)
}

// #endregion main

// #region output
func printResult(res *experiment.RunResult) {
	fmt.Println()
	if res.RunID != "" {
		fmt.Printf("Run:        %s\n", res.RunID)
	}
	fmt.Printf("Log:        %s\n", res.LogPath)
	fmt.Printf("Elapsed:    %.1fs\n", res.ElapsedSeconds)
	fmt.Printf("Cycles:     %d across %d sequences\n", len(res.AccuracyHistory), len(res.SequenceLogs))
	if res.Stabilized {
		fmt.Printf("Stabilized: after %d newborn cycles\n", res.NewbornCycles)
	} else {
		fmt.Printf("Stabilized: no (%d newborn cycles)\n", res.NewbornCycles)
	}

	fmt.Printf("\nQuery: %s\n", res.QueryInput)
	if len(res.Predictions) == 0 {
		fmt.Println("  nothing predicted")
		return
	}
	for i, p := range res.Predictions {
		fmt.Printf("  %d. %-12s similarity=%.2f same_bits=%d\n", i+1, p.Label, p.Similarity, p.SameBits)
	}
}

// #endregion output

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
