package bundler

import "github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"

// Gas accounting constants
const (
	BaseGas           = 21000
	BundleOverheadGas = 10000
	SortGasPerOp      = 5000
	DefaultOpGas      = 96000
)

// GasPerCostUnit converts workload gas to cost. Costs are in gigagas so a
// valid configuration always ranks below evolution.PenaltyCost.
const GasPerCostUnit = 1e9

// Workload is the pending UserOperation queue a configuration is costed against
type Workload struct {
	PendingOps int
	OpGasLimit int64
}

// Batches is the number of bundles needed to submit every pending operation
func Batches(g Genome, w Workload) int {
	if g.BatchSize < 1 || w.PendingOps <= 0 {
		return 0
	}
	return (w.PendingOps + g.BatchSize - 1) / g.BatchSize
}

// GasFor estimates the gas spent submitting the workload with configuration g.
// An empty workload costs nothing.
func GasFor(g Genome, w Workload) int64 {
	if w.PendingOps <= 0 {
		return 0
	}
	ops := int64(w.PendingOps)
	gas := int64(BaseGas) + int64(BundleOverheadGas)*int64(Batches(g, w)) + ops*w.OpGasLimit
	if g.PrioritizeHighGas {
		gas += ops * SortGasPerOp
	}
	return gas
}

// Evaluate costs g against w; a batch size below 1 is invalid
func Evaluate(g Genome, w Workload) evolution.Evaluation {
	if g.BatchSize < 1 {
		return evolution.Penalty()
	}
	gas := GasFor(g, w)
	return evolution.Evaluation{Valid: true, Cost: float64(gas) / GasPerCostUnit, GasUsed: gas}
}

// worstCaseGas is the gas of the most expensive configuration: one operation
// per bundle, sorted. It is computed in float64 so huge workloads cannot wrap.
func worstCaseGas(w Workload) float64 {
	ops := float64(w.PendingOps)
	return BaseGas + ops*(BundleOverheadGas+float64(w.OpGasLimit)+SortGasPerOp)
}
