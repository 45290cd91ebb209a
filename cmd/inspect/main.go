package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/multiseq-learning/internal/state"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the sqlite run store")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	sequence := flag.Int("sequence", -1, "filter run detail to one sequence index")
	cycles := flag.Bool("cycles", false, "include every cycle record in run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/runs.db [--last N] [--run id] [--sequence i] [--cycles] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *sequence, *cycles, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID          string  `json:"run_id"`
	Status         string  `json:"status"`
	Dataset        string  `json:"dataset"`
	QueryInput     string  `json:"query_input,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	CreatedAt      string  `json:"created_at"`
	Error          string  `json:"error,omitempty"`
}

func runListMode(store *state.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns newest first, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:          r.RunID,
			Status:         r.Status,
			Dataset:        r.Dataset,
			QueryInput:     r.QueryInput,
			ElapsedSeconds: r.ElapsedSeconds,
			CreatedAt:      r.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Error:          r.Error,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-9s  %9s  %-19s  %s\n", "Run", "Status", "Elapsed", "Query", "Time")
	fmt.Printf("%-10s+-%-9s+-%9s+-%-19s+-%s\n",
		"----------", "---------", "---------", "-------------------", "--------------------")
	for _, r := range rows {
		query := r.QueryInput
		if query == "" {
			query = "-"
		}
		fmt.Printf("%-10s  %-9s  %8.1fs  %-19s  %s\n", shortID(r.RunID), r.Status, r.ElapsedSeconds, query, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID       string             `json:"run_id"`
	Status      string             `json:"status"`
	Dataset     string             `json:"dataset"`
	CreatedAt   string             `json:"created_at"`
	FinishedAt  string             `json:"finished_at,omitempty"`
	Elapsed     float64            `json:"elapsed_seconds"`
	LogPath     string             `json:"log_path,omitempty"`
	Error       string             `json:"error,omitempty"`
	QueryInput  string             `json:"query_input,omitempty"`
	Sequences   []sequenceSummary  `json:"sequences"`
	Predictions []predictionDetail `json:"predictions"`
	Cycles      []cycleDetail      `json:"cycles,omitempty"`
}

type sequenceSummary struct {
	Index         int     `json:"index"`
	Name          string  `json:"name"`
	Cycles        int     `json:"cycles"`
	FinalAccuracy float64 `json:"final_accuracy"`
	BestAccuracy  float64 `json:"best_accuracy"`
	Stopped       bool    `json:"stopped"`
}

type predictionDetail struct {
	Rank       int     `json:"rank"`
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
	SameBits   int     `json:"same_bits"`
}

type cycleDetail struct {
	Sequence  int     `json:"sequence"`
	Cycle     int     `json:"cycle"`
	Matches   int     `json:"matches"`
	Length    int     `json:"length"`
	Accuracy  float64 `json:"accuracy"`
	Saturated int     `json:"consecutive_saturated"`
	Stopped   bool    `json:"stopped,omitempty"`
}

func runDetailMode(store *state.Store, runID string, seqFilter int, withCycles, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	rows, err := store.CycleRecords(run.RunID)
	if err != nil {
		return err
	}
	preds, err := store.Predictions(run.RunID)
	if err != nil {
		return err
	}

	if seqFilter >= 0 {
		filtered := rows[:0]
		for _, r := range rows {
			if r.SequenceIndex == seqFilter {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	out := detailOutput{
		RunID:      run.RunID,
		Status:     run.Status,
		Dataset:    run.Dataset,
		CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Elapsed:    run.ElapsedSeconds,
		LogPath:    run.LogPath,
		Error:      run.Error,
		QueryInput: run.QueryInput,
		Sequences:  summarizeSequences(rows),
	}
	if !run.FinishedAt.IsZero() {
		out.FinishedAt = run.FinishedAt.Format("2006-01-02T15:04:05Z")
	}
	for _, p := range preds {
		out.Predictions = append(out.Predictions, predictionDetail{
			Rank:       p.Rank,
			Label:      p.Label,
			Similarity: p.Similarity,
			SameBits:   p.SameBits,
		})
	}
	if withCycles {
		for _, r := range rows {
			out.Cycles = append(out.Cycles, cycleDetail{
				Sequence:  r.SequenceIndex,
				Cycle:     r.Cycle,
				Matches:   r.Matches,
				Length:    r.Length,
				Accuracy:  r.Accuracy,
				Saturated: r.ConsecutiveSaturated,
				Stopped:   r.Stopped,
			})
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:      %s\n", out.RunID)
	fmt.Printf("Status:   %s\n", out.Status)
	fmt.Printf("Dataset:  %s\n", out.Dataset)
	fmt.Printf("Created:  %s\n", out.CreatedAt)
	if out.FinishedAt != "" {
		fmt.Printf("Finished: %s\n", out.FinishedAt)
	}
	fmt.Printf("Elapsed:  %.1fs\n", out.Elapsed)
	if out.LogPath != "" {
		fmt.Printf("Log:      %s\n", out.LogPath)
	}
	if out.Error != "" {
		fmt.Printf("Error:    %s\n", out.Error)
	}

	fmt.Printf("\nSequences:\n")
	fmt.Printf("  %5s  %-24s  %6s  %8s  %8s  %s\n", "Index", "Name", "Cycles", "Final", "Best", "Stopped")
	for _, s := range out.Sequences {
		fmt.Printf("  %5d  %-24s  %6d  %8.2f  %8.2f  %v\n", s.Index, s.Name, s.Cycles, s.FinalAccuracy, s.BestAccuracy, s.Stopped)
	}

	if len(out.Cycles) > 0 {
		fmt.Printf("\nCycles:\n")
		for _, c := range out.Cycles {
			fmt.Printf("  seq %-3d cycle %-3d  %3d/%-3d  %7.2f  sat=%-3d %s\n",
				c.Sequence, c.Cycle, c.Matches, c.Length, c.Accuracy, c.Saturated, stopMark(c.Stopped))
		}
	}

	fmt.Printf("\nQuery: %s\n", orDash(out.QueryInput))
	if len(out.Predictions) == 0 {
		fmt.Println("  nothing predicted")
	}
	for _, p := range out.Predictions {
		fmt.Printf("  %d. %-12s similarity=%.2f same_bits=%d\n", p.Rank, p.Label, p.Similarity, p.SameBits)
	}
	return nil
}

// #endregion detail-mode

// #region metrics

// summarizeSequences folds ordered cycle rows into one line per sequence.
func summarizeSequences(rows []state.CycleRow) []sequenceSummary {
	var out []sequenceSummary
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Index != r.SequenceIndex {
			out = append(out, sequenceSummary{Index: r.SequenceIndex, Name: r.SequenceName})
		}
		s := &out[len(out)-1]
		s.Cycles++
		s.FinalAccuracy = r.Accuracy
		s.BestAccuracy = max(s.BestAccuracy, r.Accuracy)
		s.Stopped = s.Stopped || r.Stopped
	}
	return out
}

// #endregion metrics

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func stopMark(stopped bool) string {
	if stopped {
		return "stop"
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion output
