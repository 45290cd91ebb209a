package experiment

import (
	"github.com/danielpatrickdp/multiseq-learning/internal/encoder"
	"github.com/danielpatrickdp/multiseq-learning/internal/engine"
	"github.com/danielpatrickdp/multiseq-learning/internal/training"
)

// #region prediction
// Prediction is one ranked label for the held-out query.
type Prediction struct {
	Similarity float64
	Label      string
	SameBits   int
}

// #endregion prediction

// #region run-result
// RunResult summarizes one experiment run. Each run gets a fresh value.
type RunResult struct {
	RunID           string // empty when persistence is disabled
	AccuracyHistory []float64
	Predictions     []Prediction
	QueryInput      string
	ElapsedSeconds  float64
	LogPath         string
	SequenceLogs    []training.SequenceLog
	Stabilized      bool
	NewbornCycles   int

	// Engine and Encoder stay usable for further queries after the run.
	Engine  *engine.Engine
	Encoder *encoder.DateTimeEncoder
}

// #endregion run-result
