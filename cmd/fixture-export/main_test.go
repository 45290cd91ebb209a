package main

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/multiseq-learning/internal/config"
	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/replay"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/state"
)

func TestSequenceOutcomes(t *testing.T) {
	rows := []state.CycleRow{
		{SequenceIndex: 0, SequenceName: "a"},
		{SequenceIndex: 0, SequenceName: "a", Stopped: true},
		{SequenceIndex: 1, SequenceName: "b"},
	}
	got := sequenceOutcomes(rows)
	if len(got) != 2 || got[0].Cycles != 2 || !got[0].Stopped || got[1].Cycles != 1 || got[1].Stopped {
		t.Fatalf("unexpected outcomes: %+v", got)
	}
}

func TestBuildFixture_RoundTripsThroughLoader(t *testing.T) {
	cfg := config.Default()
	seqs := corpus.MultiSequence{
		{Name: "s0", Events: []corpus.Event{{Key: "1.5,t0", Vector: sdr.Vector{1, 2}}}},
	}
	outcomes := []sequenceOutcome{{Name: "s0", Cycles: 35}}
	query := &replay.FixtureQuery{Bits: []int{1, 2}, ExpectedTop: "1.5"}

	f := buildFixture(state.RunRecord{RunID: "r1", Dataset: "d.csv"}, cfg, 120, seqs, outcomes, query)
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := writeFixture(f, path); err != nil {
		t.Fatalf("writeFixture: %v", err)
	}

	loaded, err := replay.LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if loaded.Config.Pooler.InputBits != 120 || loaded.Config.Columns != cfg.Experiment.NumColumns {
		t.Errorf("unexpected config: %+v", loaded.Config)
	}
	if loaded.Config.Stability.RequiredInputs != 1 {
		t.Errorf("expected required inputs resolved to sequence count, got %d", loaded.Config.Stability.RequiredInputs)
	}
	ms := loaded.ToMultiSequence()
	if len(ms) != 1 || ms[0].Events[0].Key != "1.5,t0" || !sdr.Equal(ms[0].Events[0].Vector, sdr.Vector{1, 2}) {
		t.Errorf("unexpected sequences: %+v", ms)
	}
	if loaded.Query == nil || loaded.Query.ExpectedTop != "1.5" || loaded.ExpectedResults[0].Cycles != 35 {
		t.Errorf("unexpected query/expectations: %+v %+v", loaded.Query, loaded.ExpectedResults)
	}
}
