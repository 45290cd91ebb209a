package classifier

import "github.com/danielpatrickdp/multiseq-learning/internal/sdr"

// #region classifier-config
// ClassifierConfig bounds how many distinct cell patterns each label keeps.
type ClassifierConfig struct {
	MaxPatternsPerLabel int
}

// DefaultClassifierConfig keeps the 10 most recent patterns per label.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{MaxPatternsPerLabel: 10}
}

// #endregion classifier-config

// #region result
// Result is one candidate label for a set of predictive cells.
type Result struct {
	PredictedInput string
	Similarity     float64 // percent, 0-100
	NumOfSameBits  int
}

// #endregion result

// #region label-memory
type labelMemory struct {
	label    string
	patterns []sdr.Vector
}

// #endregion label-memory
