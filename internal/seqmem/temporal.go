package seqmem

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region temporal-memory
// TemporalMemory learns transitions between successive column activations.
// Segments and permanences persist across Reset; active, winner and
// predictive state does not. Not safe for concurrent use.
type TemporalMemory struct {
	config       TMConfig
	rng          *rand.Rand
	segments     []*segment
	cellSegments [][]int
	iteration    int

	activeCells        sdr.Vector
	winnerCells        sdr.Vector
	activeSegments     []int
	matchingSegments   []int
	numActivePotential []int
}

// NewTemporalMemory validates config and returns an empty memory.
func NewTemporalMemory(config TMConfig) (*TemporalMemory, error) {
	switch {
	case config.ColumnCount <= 0:
		return nil, fmt.Errorf("temporal memory: column count must be positive")
	case config.CellsPerColumn <= 0:
		return nil, fmt.Errorf("temporal memory: cells per column must be positive")
	case config.ActivationThreshold <= 0 || config.MinThreshold <= 0:
		return nil, fmt.Errorf("temporal memory: thresholds must be positive")
	case config.MaxNewSynapseCount <= 0:
		return nil, fmt.Errorf("temporal memory: max new synapse count must be positive")
	}
	if config.MaxSegmentsPerCell <= 0 {
		config.MaxSegmentsPerCell = 255
	}
	if config.MaxSynapsesPerSegment <= 0 {
		config.MaxSynapsesPerSegment = 255
	}
	return &TemporalMemory{
		config:       config,
		rng:          rand.New(rand.NewSource(config.Seed)),
		cellSegments: make([][]int, config.ColumnCount*config.CellsPerColumn),
	}, nil
}

// NumCells returns ColumnCount * CellsPerColumn.
func (tm *TemporalMemory) NumCells() int { return len(tm.cellSegments) }

// NumSegments returns the number of distal segments grown so far.
func (tm *TemporalMemory) NumSegments() int { return len(tm.segments) }

// Reset clears transient temporal context. Learned segments are kept.
func (tm *TemporalMemory) Reset() {
	tm.activeCells = nil
	tm.winnerCells = nil
	tm.activeSegments = nil
	tm.matchingSegments = nil
}

// #endregion temporal-memory

// #region compute
// Compute activates cells for activeColumns given the context left by the previous call.
func (tm *TemporalMemory) Compute(activeColumns sdr.Vector, learn bool) (Output, error) {
	for _, col := range activeColumns {
		if col < 0 || col >= tm.config.ColumnCount {
			return Output{}, fmt.Errorf("%w: %d (columns %d)", ErrColumnOutOfRange, col, tm.config.ColumnCount)
		}
	}

	prevActive := make([]bool, tm.NumCells())
	for _, c := range tm.activeCells {
		prevActive[c] = true
	}
	prevWinners := tm.winnerCells

	activeByCol := tm.segmentsByColumn(tm.activeSegments)
	matchingByCol := tm.segmentsByColumn(tm.matchingSegments)

	var newActive, newWinners []int
	for _, col := range activeColumns {
		if segs := activeByCol[col]; len(segs) > 0 {
			cells := tm.activatePredictedColumn(segs, prevActive, prevWinners, learn)
			newActive = append(newActive, cells...)
			newWinners = append(newWinners, cells...)
			continue
		}
		cells, winner := tm.burstColumn(col, matchingByCol[col], prevActive, prevWinners, learn)
		newActive = append(newActive, cells...)
		newWinners = append(newWinners, winner)
	}

	if learn && tm.config.PredictedSegmentDecrement > 0 {
		tm.punishPredictedColumns(matchingByCol, activeColumns, prevActive)
	}

	tm.activeCells = sdr.Normalize(newActive)
	tm.winnerCells = sdr.Normalize(newWinners)
	tm.activateDendrites(learn)
	tm.iteration++

	return Output{
		ActiveCells:     slices.Clone(tm.activeCells),
		WinnerCells:     slices.Clone(tm.winnerCells),
		PredictiveCells: tm.predictiveCells(),
	}, nil
}

// #endregion compute

// #region column-activation
func (tm *TemporalMemory) activatePredictedColumn(segs []int, prevActive []bool, prevWinners sdr.Vector, learn bool) []int {
	var cells []int
	for _, id := range segs {
		seg := tm.segments[id]
		if len(cells) == 0 || cells[len(cells)-1] != seg.cell {
			cells = append(cells, seg.cell)
		}
		if learn {
			tm.adaptSegment(seg, prevActive)
			tm.growSynapses(seg, prevWinners, tm.config.MaxNewSynapseCount-tm.numActivePotential[id])
		}
	}
	return cells
}

func (tm *TemporalMemory) burstColumn(col int, matching []int, prevActive []bool, prevWinners sdr.Vector, learn bool) ([]int, int) {
	first := col * tm.config.CellsPerColumn
	cells := make([]int, tm.config.CellsPerColumn)
	for i := range cells {
		cells[i] = first + i
	}

	if len(matching) > 0 {
		best := matching[0]
		for _, id := range matching[1:] {
			if tm.numActivePotential[id] > tm.numActivePotential[best] {
				best = id
			}
		}
		seg := tm.segments[best]
		if learn {
			tm.adaptSegment(seg, prevActive)
			tm.growSynapses(seg, prevWinners, tm.config.MaxNewSynapseCount-tm.numActivePotential[best])
		}
		return cells, seg.cell
	}

	winner := tm.leastUsedCell(col)
	if learn && len(prevWinners) > 0 {
		seg := tm.createSegment(winner)
		tm.growSynapses(seg, prevWinners, min(tm.config.MaxNewSynapseCount, len(prevWinners)))
	}
	return cells, winner
}

func (tm *TemporalMemory) punishPredictedColumns(matchingByCol map[int][]int, activeColumns sdr.Vector, prevActive []bool) {
	for col, segs := range matchingByCol {
		if activeColumns.Contains(col) {
			continue
		}
		for _, id := range segs {
			seg := tm.segments[id]
			for i := range seg.synapses {
				if prevActive[seg.synapses[i].presyn] {
					seg.synapses[i].perm = clamp01(seg.synapses[i].perm - tm.config.PredictedSegmentDecrement)
				}
			}
		}
	}
}

// #endregion column-activation

// #region dendrites
// activateDendrites recomputes active and matching segments against the current active cells.
func (tm *TemporalMemory) activateDendrites(learn bool) {
	active := make([]bool, tm.NumCells())
	for _, c := range tm.activeCells {
		active[c] = true
	}

	tm.activeSegments = tm.activeSegments[:0]
	tm.matchingSegments = tm.matchingSegments[:0]
	if cap(tm.numActivePotential) < len(tm.segments) {
		tm.numActivePotential = make([]int, len(tm.segments))
	}
	tm.numActivePotential = tm.numActivePotential[:len(tm.segments)]

	for id, seg := range tm.segments {
		connected, potential := 0, 0
		for _, s := range seg.synapses {
			if !active[s.presyn] {
				continue
			}
			if s.perm > 0 {
				potential++
			}
			if s.perm >= tm.config.ConnectedPermanence {
				connected++
			}
		}
		tm.numActivePotential[id] = potential
		if connected >= tm.config.ActivationThreshold {
			tm.activeSegments = append(tm.activeSegments, id)
			if learn {
				seg.lastUsed = tm.iteration
			}
		}
		if potential >= tm.config.MinThreshold {
			tm.matchingSegments = append(tm.matchingSegments, id)
		}
	}
}

func (tm *TemporalMemory) predictiveCells() sdr.Vector {
	cells := make([]int, 0, len(tm.activeSegments))
	for _, id := range tm.activeSegments {
		cells = append(cells, tm.segments[id].cell)
	}
	return sdr.Normalize(cells)
}

// segmentsByColumn groups segment ids by their cell's column, ordered by cell.
func (tm *TemporalMemory) segmentsByColumn(ids []int) map[int][]int {
	out := make(map[int][]int)
	for _, id := range ids {
		col := tm.segments[id].cell / tm.config.CellsPerColumn
		out[col] = append(out[col], id)
	}
	for col := range out {
		slices.SortStableFunc(out[col], func(a, b int) int {
			return tm.segments[a].cell - tm.segments[b].cell
		})
	}
	return out
}

// #endregion dendrites

// #region learning
func (tm *TemporalMemory) adaptSegment(seg *segment, prevActive []bool) {
	kept := seg.synapses[:0]
	for _, s := range seg.synapses {
		if prevActive[s.presyn] {
			s.perm = clamp01(s.perm + tm.config.PermanenceIncrement)
		} else {
			s.perm = clamp01(s.perm - tm.config.PermanenceDecrement)
		}
		if s.perm > 0 {
			kept = append(kept, s)
		}
	}
	seg.synapses = kept
	seg.lastUsed = tm.iteration
}

// growSynapses connects seg to up to n candidate cells it is not already connected to.
func (tm *TemporalMemory) growSynapses(seg *segment, candidates sdr.Vector, n int) {
	if n <= 0 || len(candidates) == 0 {
		return
	}
	existing := make(map[int]struct{}, len(seg.synapses))
	for _, s := range seg.synapses {
		existing[s.presyn] = struct{}{}
	}
	pool := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c]; !ok {
			pool = append(pool, c)
		}
	}
	tm.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, c := range pool[:min(n, len(pool))] {
		seg.synapses = append(seg.synapses, tmSynapse{presyn: c, perm: tm.config.InitialPermanence})
	}

	if over := len(seg.synapses) - tm.config.MaxSynapsesPerSegment; over > 0 {
		slices.SortStableFunc(seg.synapses, func(a, b tmSynapse) int {
			switch {
			case a.perm > b.perm:
				return -1
			case a.perm < b.perm:
				return 1
			}
			return 0
		})
		seg.synapses = seg.synapses[:tm.config.MaxSynapsesPerSegment]
	}
}

// createSegment adds a segment to cell, recycling its least recently used one when full.
func (tm *TemporalMemory) createSegment(cell int) *segment {
	if ids := tm.cellSegments[cell]; len(ids) >= tm.config.MaxSegmentsPerCell {
		lru := ids[0]
		for _, id := range ids[1:] {
			if tm.segments[id].lastUsed < tm.segments[lru].lastUsed {
				lru = id
			}
		}
		seg := tm.segments[lru]
		seg.synapses = nil
		seg.lastUsed = tm.iteration
		return seg
	}
	seg := &segment{cell: cell, lastUsed: tm.iteration}
	tm.segments = append(tm.segments, seg)
	tm.cellSegments[cell] = append(tm.cellSegments[cell], len(tm.segments)-1)
	return seg
}

// leastUsedCell picks the cell in col with the fewest segments, breaking ties randomly.
func (tm *TemporalMemory) leastUsedCell(col int) int {
	first := col * tm.config.CellsPerColumn
	fewest := -1
	var candidates []int
	for cell := first; cell < first+tm.config.CellsPerColumn; cell++ {
		n := len(tm.cellSegments[cell])
		switch {
		case fewest < 0 || n < fewest:
			fewest = n
			candidates = append(candidates[:0], cell)
		case n == fewest:
			candidates = append(candidates, cell)
		}
	}
	return candidates[tm.rng.Intn(len(candidates))]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion learning
