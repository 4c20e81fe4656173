package evolution

import "math"

// PenaltyCost is the cost assigned to every invalid or failed candidate.
// All invalid candidates share the same value, so the search gets no
// gradient back toward the valid region.
const PenaltyCost = 1_000_000.0

// Evaluation is the derived outcome of costing one genome.
// GasUsed and LatencyMs are only meaningful when Valid is true.
type Evaluation struct {
	Valid     bool    `json:"valid"`
	Cost      float64 `json:"cost"`
	GasUsed   int64   `json:"gasUsed,omitempty"`
	LatencyMs float64 `json:"latencyMs,omitempty"`
}

// Penalty returns the evaluation of an invalid candidate
func Penalty() Evaluation {
	return Evaluation{Valid: false, Cost: PenaltyCost}
}

// wellFormed reports whether an evaluation can be ranked
func (e Evaluation) wellFormed() bool {
	return !math.IsNaN(e.Cost) && !math.IsInf(e.Cost, 0) && e.Cost >= 0
}
