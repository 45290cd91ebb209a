package pooler

import "errors"

var ErrInputOutOfRange = errors.New("input bit out of range")

// #region pooler-config
// PoolerConfig holds spatial pooling parameters. Inhibition is global.
type PoolerConfig struct {
	InputBits          int
	ColumnCount        int
	ActiveColumns      int     // winners per compute (k)
	PotentialPct       float64 // fraction of inputs in each column's potential pool
	StimulusThreshold  int     // minimum overlap to compete
	SynPermConnected   float64
	SynPermActiveInc   float64
	SynPermInactiveDec float64
	InitPermSpread     float64 // initial permanences uniform in connected ± spread
	Seed               int64
}

// DefaultPoolerConfig mirrors the experiment defaults: 100 input bits, 2048 columns, 2% density.
func DefaultPoolerConfig() PoolerConfig {
	return PoolerConfig{
		InputBits:          100,
		ColumnCount:        2048,
		ActiveColumns:      40,
		PotentialPct:       0.5,
		StimulusThreshold:  1,
		SynPermConnected:   0.1,
		SynPermActiveInc:   0.05,
		SynPermInactiveDec: 0.008,
		InitPermSpread:     0.1,
		Seed:               42,
	}
}

// #endregion pooler-config

// #region synapse
type synapse struct {
	input int
	perm  float64
}

// #endregion synapse
