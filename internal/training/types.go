package training

import (
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/engine"
	"github.com/danielpatrickdp/multiseq-learning/internal/eval"
	"github.com/danielpatrickdp/multiseq-learning/internal/gate"
	"github.com/danielpatrickdp/multiseq-learning/internal/pipeline"
	"github.com/danielpatrickdp/multiseq-learning/internal/stability"
)

// #region controller-config
// ControllerConfig holds the training schedule.
type ControllerConfig struct {
	MaxCycles int  // bound for both the stabilization and the per-sequence joint phase
	Verbose   bool // per-element match traces
	Gate      gate.GateConfig
	Eval      eval.EvalConfig
	Engine    engine.EngineConfig
}

// DefaultControllerConfig returns the experiment defaults.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxCycles: 35,
		Gate:      gate.DefaultGateConfig(),
		Eval:      eval.DefaultEvalConfig(),
		Engine:    engine.DefaultEngineConfig(),
	}
}

// #endregion controller-config

// #region collaborators
// StabilityMonitor observes pooled output and exposes stability transitions.
type StabilityMonitor interface {
	pipeline.Observer
	Poll() (stability.State, bool)
}

// Progress receives training progress. All methods are called on the training goroutine.
type Progress interface {
	BeginSequence(index int, name string, maxCycles int)
	CycleDone(index int, record CycleRecord)
	EndSequence(index int, cycles int)
}

// #endregion collaborators

// #region records
// NoPrediction is the initial previous-element prediction; it never matches a label.
const NoPrediction = "-1"

// CycleRecord is the outcome of one training cycle over one sequence.
type CycleRecord struct {
	SequenceIndex        int
	Cycle                int
	Matches              int
	Length               int
	Accuracy             float64
	Saturated            bool
	ConsecutiveSaturated int
	Stopped              bool   // the saturation rule ended this sequence
	Message              string // artifact line
	StopMessage          string // extra artifact line when Stopped
}

// SequenceLog is the ordered cycle records of one sequence.
type SequenceLog struct {
	Index   int
	Name    string
	Records []CycleRecord
}

// Cycles returns the number of executed cycles.
func (l SequenceLog) Cycles() int { return len(l.Records) }

// TrainingResult bundles everything a training run produces.
type TrainingResult struct {
	Engine          *engine.Engine
	SequenceLogs    []SequenceLog
	AccuracyHistory []float64 // one entry per executed cycle, corpus order
	Stability       stability.State
	Stabilized      bool
	NewbornCycles   int
	Duration        time.Duration
}

// #endregion records
