package pooler

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region pooler
// SpatialPooler maps a sparse input onto a fixed number of winning columns.
// Not safe for concurrent use.
type SpatialPooler struct {
	config    PoolerConfig
	potential [][]synapse
	tieBreak  []float64
	overlaps  []int
}

// NewSpatialPooler builds potential pools and initial permanences from config.Seed.
func NewSpatialPooler(config PoolerConfig) (*SpatialPooler, error) {
	switch {
	case config.InputBits <= 0:
		return nil, fmt.Errorf("pooler: input bits must be positive")
	case config.ColumnCount <= 0:
		return nil, fmt.Errorf("pooler: column count must be positive")
	case config.ActiveColumns <= 0 || config.ActiveColumns > config.ColumnCount:
		return nil, fmt.Errorf("pooler: active columns must be in [1,%d]", config.ColumnCount)
	case config.PotentialPct <= 0 || config.PotentialPct > 1:
		return nil, fmt.Errorf("pooler: potential pct must be in (0,1]")
	}

	rng := rand.New(rand.NewSource(config.Seed))
	poolSize := max(1, int(config.PotentialPct*float64(config.InputBits)+0.5))

	sp := &SpatialPooler{
		config:    config,
		potential: make([][]synapse, config.ColumnCount),
		tieBreak:  make([]float64, config.ColumnCount),
		overlaps:  make([]int, config.ColumnCount),
	}
	for c := range config.ColumnCount {
		inputs := rng.Perm(config.InputBits)[:poolSize]
		slices.Sort(inputs)
		syns := make([]synapse, poolSize)
		for i, in := range inputs {
			p := config.SynPermConnected + (rng.Float64()*2-1)*config.InitPermSpread
			syns[i] = synapse{input: in, perm: clamp01(p)}
		}
		sp.potential[c] = syns
		sp.tieBreak[c] = rng.Float64() * 0.01
	}
	return sp, nil
}

// InputBits returns the expected input width.
func (sp *SpatialPooler) InputBits() int { return sp.config.InputBits }

// ColumnCount returns the number of columns.
func (sp *SpatialPooler) ColumnCount() int { return sp.config.ColumnCount }

// #endregion pooler

// #region compute
// Compute returns the sorted winning columns for input, adapting permanences when learn is set.
func (sp *SpatialPooler) Compute(input sdr.Vector, learn bool) (sdr.Vector, error) {
	active := make([]bool, sp.config.InputBits)
	for _, idx := range input {
		if idx < 0 || idx >= sp.config.InputBits {
			return nil, fmt.Errorf("%w: %d (width %d)", ErrInputOutOfRange, idx, sp.config.InputBits)
		}
		active[idx] = true
	}

	candidates := make([]int, 0, sp.config.ColumnCount)
	for c, syns := range sp.potential {
		n := 0
		for _, s := range syns {
			if active[s.input] && s.perm >= sp.config.SynPermConnected {
				n++
			}
		}
		sp.overlaps[c] = n
		if n > 0 && n >= sp.config.StimulusThreshold {
			candidates = append(candidates, c)
		}
	}

	slices.SortFunc(candidates, func(a, b int) int {
		sa := float64(sp.overlaps[a]) + sp.tieBreak[a]
		sb := float64(sp.overlaps[b]) + sp.tieBreak[b]
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return a - b
	})
	winners := candidates[:min(len(candidates), sp.config.ActiveColumns)]

	if learn {
		for _, c := range winners {
			syns := sp.potential[c]
			for i := range syns {
				if active[syns[i].input] {
					syns[i].perm = clamp01(syns[i].perm + sp.config.SynPermActiveInc)
				} else {
					syns[i].perm = clamp01(syns[i].perm - sp.config.SynPermInactiveDec)
				}
			}
		}
	}

	return sdr.Normalize(winners), nil
}

// #endregion compute

// #region helpers
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
