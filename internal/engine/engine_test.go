package engine

import (
	"errors"
	"slices"
	"testing"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/pipeline"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
)

// identityPooler passes inputs through as active columns.
type identityPooler struct{ err error }

func (p identityPooler) Compute(input sdr.Vector, _ bool) (sdr.Vector, error) {
	return input, p.err
}

func oneShotTM(t *testing.T) *seqmem.TemporalMemory {
	t.Helper()
	tm, err := seqmem.NewTemporalMemory(seqmem.TMConfig{
		ColumnCount:         32,
		CellsPerColumn:      4,
		ActivationThreshold: 3,
		MinThreshold:        2,
		MaxNewSynapseCount:  8,
		InitialPermanence:   0.5,
		ConnectedPermanence: 0.5,
		PermanenceIncrement: 0.1,
		PermanenceDecrement: 0.05,
		Seed:                1,
	})
	if err != nil {
		t.Fatalf("NewTemporalMemory: %v", err)
	}
	return tm
}

var (
	inA = sdr.Vector{0, 1, 2, 3}
	inB = sdr.Vector{8, 9, 10, 11}
	inC = sdr.Vector{16, 17, 18, 19}
)

// trainedEngine learns A -> B -> C once, labelling each step's cells.
func trainedEngine(t *testing.T) *Engine {
	t.Helper()
	pipe := pipeline.New(identityPooler{})
	pipe.AttachSequenceMemory(oneShotTM(t))
	cls := classifier.NewClassifier(classifier.DefaultClassifierConfig())

	for _, step := range []struct {
		label string
		input sdr.Vector
	}{{"A", inA}, {"B", inB}, {"C", inC}} {
		cycle, err := pipe.Compute(step.input, true)
		if err != nil {
			t.Fatalf("Compute %s: %v", step.label, err)
		}
		cells := cycle.ActiveCells
		if len(cycle.ActiveCells) != len(cycle.WinnerCells) {
			cells = cycle.WinnerCells
		}
		cls.Learn(step.label, cells)
	}

	e, err := NewEngine(DefaultEngineConfig(), pipe, cls)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngine_RequiresSequenceMemory(t *testing.T) {
	_, err := NewEngine(DefaultEngineConfig(), pipeline.New(identityPooler{}), classifier.NewClassifier(classifier.DefaultClassifierConfig()))
	if !errors.Is(err, ErrNoSequenceMemory) {
		t.Fatalf("expected ErrNoSequenceMemory, got %v", err)
	}
}

func TestInfer_PredictsNextLabel(t *testing.T) {
	e := trainedEngine(t)

	res, err := e.Infer(inA)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if len(res) == 0 {
		t.Fatal("expected a prediction after A")
	}
	if res[0].PredictedInput != "B" || res[0].Similarity != 100 {
		t.Fatalf("expected B at 100%%, got %+v", res[0])
	}
}

func TestInfer_Deterministic(t *testing.T) {
	e := trainedEngine(t)

	first, err := e.Infer(inB)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := e.Infer(inB)
		if err != nil {
			t.Fatalf("Infer #%d: %v", i, err)
		}
		if !slices.Equal(first, again) {
			t.Fatalf("expected identical predictions, got %+v then %+v", first, again)
		}
	}
}

func TestInfer_EmptyPredictionIsNotAnError(t *testing.T) {
	e := trainedEngine(t)

	res, err := e.Infer(sdr.Vector{28, 29, 30, 31})
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if res == nil || len(res) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", res)
	}
}

func TestPredict_PropagatesCollaboratorError(t *testing.T) {
	boom := errors.New("boom")
	pipe := pipeline.New(identityPooler{err: boom})
	pipe.AttachSequenceMemory(oneShotTM(t))
	e, err := NewEngine(EngineConfig{}, pipe, classifier.NewClassifier(classifier.DefaultClassifierConfig()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.TopK() != 3 {
		t.Fatalf("expected default top-k 3, got %d", e.TopK())
	}
	if _, err := e.Infer(inA); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped collaborator error, got %v", err)
	}
}
