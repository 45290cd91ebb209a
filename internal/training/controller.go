package training

import (
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/multiseq-learning/internal/corpus"
	"github.com/danielpatrickdp/multiseq-learning/internal/engine"
	"github.com/danielpatrickdp/multiseq-learning/internal/eval"
	"github.com/danielpatrickdp/multiseq-learning/internal/gate"
	"github.com/danielpatrickdp/multiseq-learning/internal/pipeline"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/stability"
)

// #region controller
// Controller runs the two training phases over a corpus and hands back a trained engine.
// A controller owns its collaborators and trains once.
type Controller struct {
	config   ControllerConfig
	pooler   pipeline.PoolingLayer
	memory   pipeline.SequenceMemory
	monitor  StabilityMonitor
	assoc    engine.Associator
	harness  *eval.EvalHarness
	logger   *log.Logger
	progress Progress
}

// NewController wires the collaborators. The sequence memory joins the pipeline
// only after the stabilization phase.
func NewController(
	config ControllerConfig,
	pooler pipeline.PoolingLayer,
	memory pipeline.SequenceMemory,
	monitor StabilityMonitor,
	assoc engine.Associator,
) *Controller {
	if config.MaxCycles < 0 {
		config.MaxCycles = 0
	}
	if config.Gate.SaturationCycles <= 0 {
		config.Gate.SaturationCycles = gate.DefaultGateConfig().SaturationCycles
	}
	if config.Engine.TopK <= 0 {
		config.Engine.TopK = engine.DefaultEngineConfig().TopK
	}
	return &Controller{
		config:  config,
		pooler:  pooler,
		memory:  memory,
		monitor: monitor,
		assoc:   assoc,
		harness: eval.NewEvalHarness(config.Eval),
		logger:  log.Default(),
	}
}

// SetLogger replaces the trace logger. nil restores log.Default().
func (c *Controller) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.Default()
	}
	c.logger = l
}

// SetProgress attaches a progress sink; nil detaches.
func (c *Controller) SetProgress(p Progress) {
	c.progress = p
}

// Train validates the corpus, stabilizes the pooling layer, then trains pooling
// and sequence memory jointly one sequence at a time.
func (c *Controller) Train(seqs corpus.MultiSequence) (*TrainingResult, error) {
	if err := seqs.Validate(); err != nil {
		return nil, fmt.Errorf("validate corpus: %w", err)
	}

	start := time.Now()
	pipe := pipeline.New(c.pooler)
	pipe.SetObserver(c.monitor)

	run := &trainingRun{learn: true, lastPredicted: NoPrediction, saturation: gate.NewGate(c.config.Gate)}
	if err := c.stabilize(pipe, seqs, run); err != nil {
		return nil, fmt.Errorf("stabilization phase: %w", err)
	}
	if !run.stable {
		c.logger.Printf("pooling layer not stable after %d cycles; continuing with learn=%t", run.newborn, run.learn)
	}

	pipe.AttachSequenceMemory(c.memory)
	result := &TrainingResult{}
	for i, seq := range seqs {
		seqLog, err := c.trainSequence(pipe, i, seq, run)
		if err != nil {
			return nil, fmt.Errorf("train sequence %d (%s): %w", i, seq.Name, err)
		}
		result.SequenceLogs = append(result.SequenceLogs, seqLog)
		for _, rec := range seqLog.Records {
			result.AccuracyHistory = append(result.AccuracyHistory, rec.Accuracy)
		}
	}

	pipe.SetObserver(nil)
	eng, err := engine.NewEngine(c.config.Engine, pipe, c.assoc)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	result.Engine = eng
	result.Stability = run.lastState
	result.Stabilized = run.stable
	result.NewbornCycles = run.newborn
	result.Duration = time.Since(start)
	return result, nil
}

// #endregion controller

// #region run-state
// trainingRun carries the flags that live across phases and sequences.
type trainingRun struct {
	learn         bool
	stable        bool
	newborn       int
	lastPredicted string
	lastState     stability.State
	saturation    *gate.Gate
}

// pollStability applies a reported stability transition to the run flags.
func (c *Controller) pollStability(run *trainingRun) {
	st, reported := c.monitor.Poll()
	run.lastState = st
	if !reported {
		return
	}
	if st.IsStable {
		c.logger.Printf("STABLE: Patterns: %d, Inputs: %d, iteration: %d", st.NumPatterns, st.SeenInputs, st.Iteration())
	} else {
		c.logger.Printf("INSTABLE: Patterns: %d, Inputs: %d, iteration: %d", st.NumPatterns, st.SeenInputs, st.Iteration())
	}
	run.learn = st.IsStable
	run.stable = st.IsStable
}

// #endregion run-state

// #region stabilization
// stabilize feeds the corpus through the pooling layer, always learning,
// until the monitor reports stable or MaxCycles passes are done.
func (c *Controller) stabilize(pipe *pipeline.Pipeline, seqs corpus.MultiSequence, run *trainingRun) error {
	for cycle := 0; cycle < c.config.MaxCycles && !run.stable; cycle++ {
		run.newborn++
		c.logger.Printf("-------------- Training SP Newborn Cycle %d ---------------", run.newborn)
		for _, seq := range seqs {
			for _, ev := range seq.Events {
				if _, err := pipe.Compute(ev.Vector, true); err != nil {
					return fmt.Errorf("newborn cycle %d: %w", run.newborn, err)
				}
				c.pollStability(run)
				if run.stable {
					break
				}
			}
			if run.stable {
				break
			}
		}
	}
	return nil
}

// #endregion stabilization

// #region joint-phase
// trainSequence runs up to MaxCycles joint cycles over one sequence, stopping early on saturation.
func (c *Controller) trainSequence(pipe *pipeline.Pipeline, index int, seq corpus.Sequence, run *trainingRun) (SequenceLog, error) {
	seqLog := SequenceLog{Index: index, Name: seq.Name}
	g := run.saturation
	g.Reset()
	if c.progress != nil {
		c.progress.BeginSequence(index, seq.Name, c.config.MaxCycles)
	}

	for cycle := 0; cycle < c.config.MaxCycles; cycle++ {
		c.logger.Printf("-------------- Training SP+TM Newborn Cycle %d ---------------", cycle)
		matches, err := c.runCycle(pipe, seq, run)
		if err != nil {
			return seqLog, fmt.Errorf("cycle %d: %w", cycle, err)
		}

		res := c.harness.Run(matches, seq.Len())
		decision := g.Evaluate(res)
		rec := CycleRecord{
			SequenceIndex:        index,
			Cycle:                cycle,
			Matches:              matches,
			Length:               seq.Len(),
			Accuracy:             res.Accuracy,
			Saturated:            decision.Saturated,
			ConsecutiveSaturated: decision.ConsecutiveSaturated,
			Stopped:              decision.Stop(),
		}
		if rec.Saturated {
			c.logger.Printf("100%% accuracy reached %d times.", g.Consecutive())
			rec.Message = fmt.Sprintf("Cycle : %d \t  Accuracy:%g as 100%% \t Number of times repeated %d", cycle, rec.Accuracy, rec.ConsecutiveSaturated)
		} else {
			rec.Message = fmt.Sprintf("Cycle : %d \t Accuracy :%g \t ", cycle, rec.Accuracy)
		}
		if rec.Stopped {
			rec.StopMessage = fmt.Sprintf("Cycle : %d \t  SequenceMatchCount : %d >= %d breaking..", cycle, rec.ConsecutiveSaturated, c.config.Gate.SaturationCycles)
		}

		seqLog.Records = append(seqLog.Records, rec)
		if c.progress != nil {
			c.progress.CycleDone(index, rec)
		}
		if rec.Stopped {
			break
		}
	}

	c.memory.Reset()
	run.learn = true
	if c.progress != nil {
		c.progress.EndSequence(index, seqLog.Cycles())
	}
	return seqLog, nil
}

// runCycle feeds every event once and returns how many labels matched the
// prediction made at the previous element.
func (c *Controller) runCycle(pipe *pipeline.Pipeline, seq corpus.Sequence, run *trainingRun) (int, error) {
	matches := 0
	for _, ev := range seq.Events {
		label, err := ev.Label()
		if err != nil {
			return matches, err
		}

		cycle, err := pipe.Compute(ev.Vector, run.learn)
		if err != nil {
			return matches, err
		}
		c.pollStability(run)

		cells := cycle.ActiveCells
		if len(cycle.ActiveCells) != len(cycle.WinnerCells) {
			cells = cycle.WinnerCells
		}
		c.assoc.Learn(label, cells)

		if run.lastPredicted == label && run.lastPredicted != "" {
			matches++
			c.trace("Match. Actual value: %s - Predicted value: %s", label, run.lastPredicted)
		} else {
			c.trace("Mismatch! Actual value: %s - Predicted values: %s", label, run.lastPredicted)
		}

		if len(cycle.PredictiveCells) > 0 {
			c.updatePrediction(label, cycle.PredictiveCells, run)
		}
	}
	return matches, nil
}

func (c *Controller) updatePrediction(label string, predictive sdr.Vector, run *trainingRun) {
	predicted := c.assoc.Predict(predictive, c.config.Engine.TopK)
	if len(predicted) == 0 {
		return
	}
	for _, p := range predicted {
		if c.harness.ShouldReport(p.Similarity) {
			c.trace("Current Input: %s Predicted Input: %s,\tSimilarity Percentage: %g, \tNumber of Same Bits: %d", label, p.PredictedInput, p.Similarity, p.NumOfSameBits)
		}
	}
	run.lastPredicted = predicted[0].PredictedInput
}

func (c *Controller) trace(format string, args ...any) {
	if c.config.Verbose {
		c.logger.Printf(format, args...)
	}
}

// #endregion joint-phase
