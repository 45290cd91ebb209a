package main

import (
	"testing"

	"github.com/danielpatrickdp/multiseq-learning/internal/state"
)

func TestSummarizeSequences(t *testing.T) {
	rows := []state.CycleRow{
		{SequenceIndex: 0, SequenceName: "a", Cycle: 0, Accuracy: 10},
		{SequenceIndex: 0, SequenceName: "a", Cycle: 1, Accuracy: 95.8},
		{SequenceIndex: 0, SequenceName: "a", Cycle: 2, Accuracy: 90, Stopped: true},
		{SequenceIndex: 1, SequenceName: "b", Cycle: 0, Accuracy: 40},
	}
	got := summarizeSequences(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 sequences, got %d", len(got))
	}
	if got[0].Cycles != 3 || got[0].FinalAccuracy != 90 || got[0].BestAccuracy != 95.8 || !got[0].Stopped {
		t.Errorf("unexpected first summary: %+v", got[0])
	}
	if got[1].Name != "b" || got[1].Cycles != 1 || got[1].Stopped {
		t.Errorf("unexpected second summary: %+v", got[1])
	}
}

func TestShortID(t *testing.T) {
	if shortID("0123456789") != "01234567" || shortID("abc") != "abc" {
		t.Fatal("unexpected shortID truncation")
	}
}
