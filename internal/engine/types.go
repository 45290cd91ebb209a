package engine

import (
	"errors"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

var ErrNoSequenceMemory = errors.New("pipeline has no sequence memory attached")

// #region engine-config
// EngineConfig controls inference output.
type EngineConfig struct {
	TopK int // ranked labels returned per prediction
}

// DefaultEngineConfig returns the top-3 default.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{TopK: 3}
}

// #endregion engine-config

// #region associator
// Associator learns label to cell-pattern associations and ranks labels for a cell set.
type Associator interface {
	Learn(label string, cells sdr.Vector)
	Predict(cells sdr.Vector, topK int) []classifier.Result
}

// #endregion associator
