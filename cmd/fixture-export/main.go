package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/multiseq-learning/internal/config"
	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/encoder"
	"github.com/danielpatrickdp/multiseq-learning/internal/replay"
	"github.com/danielpatrickdp/multiseq-learning/internal/state"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the sqlite run store")
	runID := flag.String("run", "", "run to export (default: most recent finished run)")
	dataset := flag.String("dataset", "", "override the dataset path recorded for the run")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/runs.db --out path/to/fixture.json [--run id] [--dataset data.csv]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *dataset, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

// sequenceOutcome is what the stored cycle records say about one sequence.
type sequenceOutcome struct {
	Name    string
	Cycles  int
	Stopped bool
}

func run(dbPath, runID, datasetOverride, outPath string) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := pickRun(store, runID)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if rec.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(rec.ConfigJSON), cfg); err != nil {
			return fmt.Errorf("parse run config: %w", err)
		}
	}

	dataset := rec.Dataset
	if datasetOverride != "" {
		dataset = datasetOverride
	}

	enc, err := encoder.NewDateTimeEncoder(encoder.DefaultDateTimeConfig())
	if err != nil {
		return err
	}
	groups, err := corpus.ReadPowerConsumptionCSV(dataset, cfg.Format())
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	seqs, err := corpus.Encode(groups, enc, cfg.Experiment.ValuePrecision)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	rows, err := store.CycleRecords(rec.RunID)
	if err != nil {
		return err
	}
	outcomes := sequenceOutcomes(rows)
	if len(outcomes) != len(seqs) {
		return fmt.Errorf("run %s recorded %d sequences, dataset has %d", rec.RunID, len(outcomes), len(seqs))
	}

	preds, err := store.Predictions(rec.RunID)
	if err != nil {
		return err
	}
	var query *replay.FixtureQuery
	if rec.QueryInput != "" {
		bits, err := enc.EncodeString(rec.QueryInput)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		query = &replay.FixtureQuery{Bits: bits}
		if len(preds) > 0 {
			query.ExpectedTop = preds[0].Label
		}
	}

	fmt.Printf("Run %s: %d sequences, %d cycle records, %d predictions\n", rec.RunID, len(seqs), len(rows), len(preds))

	fixture := buildFixture(rec, cfg, enc.Width(), seqs, outcomes, query)
	return writeFixture(fixture, outPath)
}

func pickRun(store *state.Store, runID string) (state.RunRecord, error) {
	if runID != "" {
		return store.GetRun(runID)
	}
	runs, err := store.ListRuns(50)
	if err != nil {
		return state.RunRecord{}, err
	}
	for _, r := range runs {
		if r.Status == state.StatusFinished {
			return r, nil
		}
	}
	return state.RunRecord{}, fmt.Errorf("no finished run found")
}

// sequenceOutcomes folds ordered cycle rows into one outcome per sequence.
func sequenceOutcomes(rows []state.CycleRow) []sequenceOutcome {
	var out []sequenceOutcome
	last := -1
	for _, r := range rows {
		if r.SequenceIndex != last {
			out = append(out, sequenceOutcome{Name: r.SequenceName})
			last = r.SequenceIndex
		}
		o := &out[len(out)-1]
		o.Cycles++
		o.Stopped = o.Stopped || r.Stopped
	}
	return out
}

// #endregion extract

// #region output

func buildFixture(rec state.RunRecord, cfg *config.Config, inputBits int, seqs corpus.MultiSequence, outcomes []sequenceOutcome, query *replay.FixtureQuery) replay.Fixture {
	sequences := make([]replay.FixtureSequence, len(seqs))
	for i, s := range seqs {
		fs := replay.FixtureSequence{Name: s.Name, Events: make([]replay.FixtureEvent, len(s.Events))}
		for j, ev := range s.Events {
			fs.Events[j] = replay.FixtureEvent{Key: ev.Key, Bits: ev.Vector}
		}
		sequences[i] = fs
	}

	expected := make([]replay.FixtureExpectedResult, len(outcomes))
	for i, o := range outcomes {
		expected[i] = replay.FixtureExpectedResult{Sequence: o.Name, Cycles: o.Cycles, Stopped: o.Stopped}
	}

	tm := cfg.ToTMConfig()
	mon := cfg.ToMonitorConfig(len(seqs))
	return replay.Fixture{
		Description: fmt.Sprintf("Run export: %s on %s (%d sequences)", rec.RunID, rec.Dataset, len(seqs)),
		Config: replay.FixtureConfig{
			MaxCycles:        cfg.Experiment.MaxCycles,
			SaturationCycles: cfg.Experiment.SaturationCycles,
			TopK:             cfg.Experiment.TopK,
			Pooling:          replay.PoolingSpatial,
			Columns:          cfg.Experiment.NumColumns,
			Seed:             cfg.Experiment.Seed,
			Pooler: replay.FixturePoolerConfig{
				InputBits:     inputBits,
				ActiveColumns: cfg.Pooler.ActiveColumns,
			},
			SequenceMemory: replay.FixtureSequenceMemory{
				CellsPerColumn:            tm.CellsPerColumn,
				ActivationThreshold:       tm.ActivationThreshold,
				MinThreshold:              tm.MinThreshold,
				MaxNewSynapseCount:        tm.MaxNewSynapseCount,
				InitialPermanence:         tm.InitialPermanence,
				ConnectedPermanence:       tm.ConnectedPermanence,
				PermanenceIncrement:       tm.PermanenceIncrement,
				PermanenceDecrement:       tm.PermanenceDecrement,
				PredictedSegmentDecrement: tm.PredictedSegmentDecrement,
			},
			Stability: replay.FixtureStabilityConfig{
				RequiredInputs:     mon.RequiredInputs,
				WaitCycles:         mon.WaitCycles,
				RequiredSimilarity: mon.RequiredSimilarity,
			},
		},
		Sequences:       sequences,
		Query:           query,
		ExpectedResults: expected,
	}
}

func writeFixture(f replay.Fixture, path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Printf("Wrote fixture to %s\n", path)
	return nil
}

// #endregion output
