package replay

import (
	"fmt"
	"io"
	"log"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/eval"
	"github.com/danielpatrickdp/multiseq-learning/internal/pipeline"
	"github.com/danielpatrickdp/multiseq-learning/internal/pooler"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
	"github.com/danielpatrickdp/multiseq-learning/internal/stability"
	"github.com/danielpatrickdp/multiseq-learning/internal/training"
)

// #region types
const (
	PoolingSpatial     = "spatial"
	PoolingPassthrough = "passthrough"
)

// ReplayConfig bundles every collaborator config for a replay run.
type ReplayConfig struct {
	Controller training.ControllerConfig
	Pooling    string // "spatial" | "passthrough"
	Pooler     pooler.PoolerConfig
	TM         seqmem.TMConfig
	Monitor    stability.MonitorConfig
	Classifier classifier.ClassifierConfig
}

// DefaultReplayConfig returns the experiment defaults with spatial pooling.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Controller: training.DefaultControllerConfig(),
		Pooling:    PoolingSpatial,
		Pooler:     pooler.DefaultPoolerConfig(),
		TM:         seqmem.DefaultTMConfig(),
		Monitor:    stability.DefaultMonitorConfig(),
		Classifier: classifier.DefaultClassifierConfig(),
	}
}

// ReplayResult captures how one sequence trained.
type ReplayResult struct {
	Sequence            string
	Cycles              int
	Stopped             bool // saturation ended training before MaxCycles
	FinalAccuracy       float64
	MaxPossibleAccuracy float64
	SaturatedCycles     int // consecutive saturated cycles at the end
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSequences int
	TotalCycles    int
	Stopped        int
	Exhausted      int
	Stabilized     bool
	NewbornCycles  int
}

// #endregion types

// #region passthrough
// passthrough maps input bits straight onto columns of the same index.
type passthrough struct {
	columns int
}

func (p passthrough) Compute(input sdr.Vector, _ bool) (sdr.Vector, error) {
	for _, b := range input {
		if b < 0 || b >= p.columns {
			return nil, fmt.Errorf("%w: %d (columns %d)", pooler.ErrInputOutOfRange, b, p.columns)
		}
	}
	return input, nil
}

// #endregion passthrough

// #region replay
// Replay trains a fresh engine on seqs and reports per-sequence outcomes.
// Runs entirely in memory; trace logging is discarded.
func Replay(seqs corpus.MultiSequence, config ReplayConfig) (*training.TrainingResult, []ReplayResult, error) {
	var layer pipeline.PoolingLayer
	switch config.Pooling {
	case PoolingPassthrough:
		layer = passthrough{columns: config.TM.ColumnCount}
	case PoolingSpatial, "":
		sp, err := pooler.NewSpatialPooler(config.Pooler)
		if err != nil {
			return nil, nil, fmt.Errorf("build pooler: %w", err)
		}
		layer = sp
	default:
		return nil, nil, fmt.Errorf("unknown pooling %q", config.Pooling)
	}

	tm, err := seqmem.NewTemporalMemory(config.TM)
	if err != nil {
		return nil, nil, fmt.Errorf("build sequence memory: %w", err)
	}

	ctl := training.NewController(
		config.Controller,
		layer,
		tm,
		stability.NewMonitor(config.Monitor),
		classifier.NewClassifier(config.Classifier),
	)
	ctl.SetLogger(log.New(io.Discard, "", 0))

	trained, err := ctl.Train(seqs)
	if err != nil {
		return nil, nil, err
	}

	results := make([]ReplayResult, 0, len(trained.SequenceLogs))
	for _, l := range trained.SequenceLogs {
		r := ReplayResult{
			Sequence: l.Name,
			Cycles:   l.Cycles(),
		}
		if n := len(l.Records); n > 0 {
			last := l.Records[n-1]
			r.Stopped = last.Stopped
			r.FinalAccuracy = last.Accuracy
			r.MaxPossibleAccuracy = eval.MaxPossibleAccuracy(last.Length)
			r.SaturatedCycles = last.ConsecutiveSaturated
		}
		results = append(results, r)
	}
	return trained, results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, trained *training.TrainingResult) ReplaySummary {
	s := ReplaySummary{TotalSequences: len(results)}
	if trained != nil {
		s.Stabilized = trained.Stabilized
		s.NewbornCycles = trained.NewbornCycles
	}
	for _, r := range results {
		s.TotalCycles += r.Cycles
		if r.Stopped {
			s.Stopped++
		} else {
			s.Exhausted++
		}
	}
	return s
}

// #endregion replay
