package engine

import (
	"fmt"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/pipeline"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region engine
// Engine is a trained model: the compute pipeline with its sequence memory
// and the associator holding learned labels. Predict and Reset mutate
// transient context in place, so callers serialize access.
type Engine struct {
	config EngineConfig
	pipe   *pipeline.Pipeline
	assoc  Associator
}

// NewEngine wraps a trained pipeline. The pipeline must already carry its sequence memory.
func NewEngine(config EngineConfig, pipe *pipeline.Pipeline, assoc Associator) (*Engine, error) {
	if pipe == nil || pipe.SequenceMemory() == nil {
		return nil, ErrNoSequenceMemory
	}
	if config.TopK <= 0 {
		config.TopK = DefaultEngineConfig().TopK
	}
	return &Engine{config: config, pipe: pipe, assoc: assoc}, nil
}

// TopK returns the number of ranked labels returned per prediction.
func (e *Engine) TopK() int { return e.config.TopK }

// #endregion engine

// #region inference
// Reset clears the sequence memory's temporal context. Learned weights are untouched.
func (e *Engine) Reset() {
	e.pipe.SequenceMemory().Reset()
}

// Predict runs one no-learn pass and ranks labels for the resulting predictive cells.
// An empty predictive set yields an empty, non-nil list.
func (e *Engine) Predict(input sdr.Vector) ([]classifier.Result, error) {
	cycle, err := e.pipe.Compute(input, false)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(cycle.PredictiveCells) == 0 {
		return []classifier.Result{}, nil
	}
	results := e.assoc.Predict(cycle.PredictiveCells, e.config.TopK)
	if results == nil {
		results = []classifier.Result{}
	}
	return results, nil
}

// Infer resets temporal context and predicts the labels following input.
func (e *Engine) Infer(input sdr.Vector) ([]classifier.Result, error) {
	e.Reset()
	return e.Predict(input)
}

// #endregion inference
