package seqmem

import (
	"errors"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

var ErrColumnOutOfRange = errors.New("active column out of range")

// #region tm-config
// TMConfig holds temporal memory parameters.
type TMConfig struct {
	ColumnCount               int
	CellsPerColumn            int
	ActivationThreshold       int // connected active synapses for a segment to predict
	MinThreshold              int // potential active synapses for a segment to match
	MaxNewSynapseCount        int
	InitialPermanence         float64
	ConnectedPermanence       float64
	PermanenceIncrement       float64
	PermanenceDecrement       float64
	PredictedSegmentDecrement float64
	MaxSegmentsPerCell        int
	MaxSynapsesPerSegment     int
	Seed                      int64
}

// DefaultTMConfig returns the experiment defaults for 2048 columns.
func DefaultTMConfig() TMConfig {
	return TMConfig{
		ColumnCount:               2048,
		CellsPerColumn:            25,
		ActivationThreshold:       15,
		MinThreshold:              10,
		MaxNewSynapseCount:        20,
		InitialPermanence:         0.21,
		ConnectedPermanence:       0.5,
		PermanenceIncrement:       0.1,
		PermanenceDecrement:       0.1,
		PredictedSegmentDecrement: 0.1,
		MaxSegmentsPerCell:        255,
		MaxSynapsesPerSegment:     255,
		Seed:                      42,
	}
}

// #endregion tm-config

// #region output
// Output is the cell-level result of one compute step.
type Output struct {
	ActiveCells     sdr.Vector
	WinnerCells     sdr.Vector
	PredictiveCells sdr.Vector // cells expected to activate on the next step
}

// #endregion output

// #region segment
type tmSynapse struct {
	presyn int
	perm   float64
}

type segment struct {
	cell     int
	synapses []tmSynapse
	lastUsed int
}

// #endregion segment
