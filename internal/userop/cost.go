package userop

import (
	"math"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
)

// Cost model constants
const (
	OverheadGas           = 10000
	BaseLatencyMs         = 1000.0
	MinLatencyMs          = 100.0
	LatencyMsPerGwei      = 100.0
	MaxLatencyReductionMs = 900.0
	GweiPerEth            = 1e9
	LatencyCostPerSecond  = 0.001
)

// CostModel is a closed-form estimate of what submitting a UserOperation costs:
// gas spend at the offered fees plus a small charge for inclusion latency.
// It is pure and safe for concurrent use.
type CostModel struct {
	Rules RuleSet
}

// NewCostModel creates a cost model applying rules
func NewCostModel(rules RuleSet) CostModel {
	return CostModel{Rules: rules}
}

// Evaluate costs g for batchMultiplier operations; multipliers below 1 count as 1.
// Invalid genomes receive evolution.PenaltyCost and no gas or latency.
func (m CostModel) Evaluate(g Genome, batchMultiplier int64) evolution.Evaluation {
	if batchMultiplier < 1 {
		batchMultiplier = 1
	}
	if !m.Rules.Valid(g) {
		return evolution.Penalty()
	}

	k := float64(batchMultiplier)
	gasUsed := (g.TotalGasLimit() + OverheadGas) * batchMultiplier
	reduction := math.Min(g.MaxPriorityFeePerGas*LatencyMsPerGwei, MaxLatencyReductionMs)
	latency := math.Max(BaseLatencyMs-reduction, MinLatencyMs) * k
	gasCost := float64(gasUsed) * (g.MaxFeePerGas + g.MaxPriorityFeePerGas) / GweiPerEth

	return evolution.Evaluation{
		Valid:     true,
		Cost:      gasCost + (latency/1000)*LatencyCostPerSecond,
		GasUsed:   gasUsed,
		LatencyMs: latency,
	}
}
