package pipeline

import (
	"fmt"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
	"github.com/danielpatrickdp/multiseq-learning/internal/seqmem"
)

// #region collaborators
// PoolingLayer maps a sparse input to active columns.
type PoolingLayer interface {
	Compute(input sdr.Vector, learn bool) (sdr.Vector, error)
}

// SequenceMemory turns successive column activations into cell activity with temporal context.
type SequenceMemory interface {
	Compute(activeColumns sdr.Vector, learn bool) (seqmem.Output, error)
	Reset()
}

// Observer is notified of every pooled output while attached.
type Observer interface {
	Observe(input, output sdr.Vector)
}

// #endregion collaborators

// #region compute-cycle
// ComputeCycle is the combined output of one pipeline pass.
// Cell fields are empty while no sequence memory is attached.
type ComputeCycle struct {
	ActiveColumns   sdr.Vector
	ActiveCells     sdr.Vector
	WinnerCells     sdr.Vector
	PredictiveCells sdr.Vector
}

// #endregion compute-cycle

// #region pipeline
// Pipeline chains the pooling layer and, once attached, the sequence memory.
// Every call is synchronous and mutates both modules; callers serialize access.
type Pipeline struct {
	pooler   PoolingLayer
	memory   SequenceMemory
	observer Observer
}

// New creates a pipeline with only the pooling layer.
func New(pooler PoolingLayer) *Pipeline {
	return &Pipeline{pooler: pooler}
}

// AttachSequenceMemory appends the sequence memory stage.
func (p *Pipeline) AttachSequenceMemory(m SequenceMemory) {
	p.memory = m
}

// SequenceMemory returns the attached sequence memory, or nil.
func (p *Pipeline) SequenceMemory() SequenceMemory {
	return p.memory
}

// SetObserver attaches o to pooled outputs; nil detaches.
func (p *Pipeline) SetObserver(o Observer) {
	p.observer = o
}

// Compute runs input through every attached stage.
func (p *Pipeline) Compute(input sdr.Vector, learn bool) (ComputeCycle, error) {
	cols, err := p.pooler.Compute(input, learn)
	if err != nil {
		return ComputeCycle{}, fmt.Errorf("pooling layer: %w", err)
	}
	if p.observer != nil {
		p.observer.Observe(input, cols)
	}

	cycle := ComputeCycle{ActiveColumns: cols}
	if p.memory == nil {
		return cycle, nil
	}

	out, err := p.memory.Compute(cols, learn)
	if err != nil {
		return ComputeCycle{}, fmt.Errorf("sequence memory: %w", err)
	}
	cycle.ActiveCells = out.ActiveCells
	cycle.WinnerCells = out.WinnerCells
	cycle.PredictiveCells = out.PredictiveCells
	return cycle, nil
}

// #endregion pipeline
