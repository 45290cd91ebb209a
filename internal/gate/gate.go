package gate

import (
	"fmt"

	"github.com/danielpatrickdp/multiseq-learning/internal/eval"
)

// #region gate
// Gate decides whether training of one sequence should continue.
// It counts consecutive saturated cycles; Reset it between sequences.
type Gate struct {
	config    GateConfig
	saturated int
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	if config.SaturationCycles <= 0 {
		config.SaturationCycles = DefaultGateConfig().SaturationCycles
	}
	return &Gate{config: config}
}

// Evaluate consumes one cycle result. Any unsaturated cycle resets the counter.
func (g *Gate) Evaluate(result eval.EvalResult) GateDecision {
	if !result.Saturated {
		g.saturated = 0
		return GateDecision{
			Action: ActionContinue,
			Reason: result.Reason,
		}
	}

	g.saturated++
	if g.saturated >= g.config.SaturationCycles {
		return GateDecision{
			Action:               ActionStop,
			Reason:               fmt.Sprintf("saturated for %d consecutive cycles", g.saturated),
			Saturated:            true,
			ConsecutiveSaturated: g.saturated,
		}
	}

	return GateDecision{
		Action:               ActionContinue,
		Reason:               fmt.Sprintf("saturated %d/%d", g.saturated, g.config.SaturationCycles),
		Saturated:            true,
		ConsecutiveSaturated: g.saturated,
	}
}

// Consecutive returns the current run of saturated cycles.
func (g *Gate) Consecutive() int {
	return g.saturated
}

// Reset clears the counter for a new sequence.
func (g *Gate) Reset() {
	g.saturated = 0
}

// #endregion gate
