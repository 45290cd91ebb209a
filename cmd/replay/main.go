package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/multiseq-learning/internal/replay"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/training"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		os.Exit(2)
	}
	os.Exit(runFixtureMode(*fixturePath))
}

// #endregion main

// #region output

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}

	trained, results, err := replay.Replay(f.ToMultiSequence(), f.Config.ToReplayConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	code := printComparison(results, f.ExpectedResults)
	if f.Query != nil && !checkQuery(trained, f.Query) {
		code = 1
	}

	s := replay.Summarize(results, trained)
	fmt.Printf("Stabilized: %v after %d newborn cycles; %d stopped, %d exhausted, %d cycles total\n",
		s.Stabilized, s.NewbornCycles, s.Stopped, s.Exhausted, s.TotalCycles)
	return code
}

// printComparison outputs a comparison table and returns exit code.
func printComparison(results []replay.ReplayResult, expected []replay.FixtureExpectedResult) int {
	fmt.Printf("%-16s| %-15s| %-15s| %s\n", "Sequence", "Expected", "Replayed", "Match")
	fmt.Printf("%-16s+%-15s+%-15s+%s\n",
		"----------------", "----------------", "----------------", "------")

	matches := 0
	total := min(len(results), len(expected))
	for i := 0; i < total; i++ {
		exp := outcome(expected[i].Cycles, expected[i].Stopped)
		got := outcome(results[i].Cycles, results[i].Stopped)
		match := "DIFF"
		if exp == got && expected[i].Sequence == results[i].Sequence {
			match = "OK"
			matches++
		}
		fmt.Printf("%-16s| %-15s| %-15s| %s\n", results[i].Sequence, exp, got, match)
	}

	diverge := total - matches
	if len(results) != len(expected) {
		fmt.Printf("\nSequence count differs: %d expected, %d replayed\n", len(expected), len(results))
		diverge++
	}
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", total, matches, diverge)

	if diverge > 0 {
		return 1
	}
	return 0
}

func checkQuery(trained *training.TrainingResult, q *replay.FixtureQuery) bool {
	preds, err := trained.Engine.Infer(sdr.Normalize(q.Bits))
	if err != nil {
		fmt.Printf("Query: error %v\n", err)
		return false
	}
	top := ""
	if len(preds) > 0 {
		top = preds[0].PredictedInput
	}
	ok := top == q.ExpectedTop
	fmt.Printf("Query %v: expected top %q, got %q (%s)\n", q.Bits, q.ExpectedTop, top, matchMark(ok))
	return ok
}

func outcome(cycles int, stopped bool) string {
	if stopped {
		return fmt.Sprintf("%d stop", cycles)
	}
	return fmt.Sprintf("%d max", cycles)
}

func matchMark(ok bool) string {
	if ok {
		return "OK"
	}
	return "DIFF"
}

// #endregion output
