package stability

import (
	"slices"

	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region monitor
// Monitor tracks whether the pooled representation of each input has stopped changing.
// A transition between stable and unstable is reported once through Poll.
type Monitor struct {
	config    MonitorConfig
	outputs   map[string]sdr.Vector
	unchanged int
	colSum    int
	state     State
	reported  bool
}

// NewMonitor creates a monitor in the unstable state.
func NewMonitor(config MonitorConfig) *Monitor {
	if config.WaitCycles < 0 {
		config.WaitCycles = 0
	}
	return &Monitor{
		config:  config,
		outputs: make(map[string]sdr.Vector),
	}
}

// Observe records the pooled output for input and updates the stability state.
func (m *Monitor) Observe(input, output sdr.Vector) {
	key := input.Key()
	prev, seen := m.outputs[key]
	m.outputs[key] = slices.Clone(output)

	if seen && sdr.Similarity(prev, output) >= m.config.RequiredSimilarity {
		m.unchanged++
	} else {
		m.unchanged = 0
	}

	m.colSum += len(output)
	m.state.SeenInputs++
	m.state.NumPatterns = len(m.outputs)
	m.state.ActiveColumnAvg = float64(m.colSum) / float64(m.state.SeenInputs)

	stable := m.unchanged >= m.config.WaitCycles && len(m.outputs) >= m.config.RequiredInputs
	m.reported = stable != m.state.IsStable
	m.state.IsStable = stable
}

// Poll returns the current state and whether the most recent observation
// changed stability. The report is consumed by the call.
func (m *Monitor) Poll() (State, bool) {
	r := m.reported
	m.reported = false
	return m.state, r
}

// #endregion monitor
