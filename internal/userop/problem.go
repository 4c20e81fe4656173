package userop

import (
	"context"
	"math"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

// Problem searches UserOperation parameters within bounds for one batch multiplier
type Problem struct {
	bounds     config.Bounds
	model      CostModel
	multiplier int64
}

var _ evolution.Problem[Genome] = (*Problem)(nil)

// NewProblem validates bounds and creates a problem
func NewProblem(bounds config.Bounds, model CostModel, batchMultiplier int64) (*Problem, error) {
	if err := config.ValidateBounds(&bounds); err != nil {
		return nil, &evolution.ConfigurationError{Field: "bounds", Reason: err.Error()}
	}
	if batchMultiplier < 1 {
		return nil, &evolution.ConfigurationError{Field: "batch_multiplier", Reason: "must be at least 1"}
	}
	return &Problem{bounds: bounds, model: model, multiplier: batchMultiplier}, nil
}

// ProblemFromConfig builds a problem from the bounds, rules and multiplier in cfg
func ProblemFromConfig(cfg *config.Config) (*Problem, error) {
	rules, err := RulesByName(cfg.Rules)
	if err != nil {
		return nil, &evolution.ConfigurationError{Field: "rules", Reason: err.Error()}
	}
	return NewProblem(cfg.Bounds, NewCostModel(rules), cfg.BatchMultiplier)
}

// Bounds returns the search space
func (p *Problem) Bounds() config.Bounds { return p.bounds }

// BatchMultiplier returns the scale the problem is costed at
func (p *Problem) BatchMultiplier() int64 { return p.multiplier }

// Model returns the cost model
func (p *Problem) Model() CostModel { return p.model }

// Sample draws every gene uniformly within its range
func (p *Problem) Sample(rng *utils.RandSource) Genome {
	b := p.bounds
	return Genome{
		CallGasLimit:         rng.IntRange(b.CallGasLimit.Min, b.CallGasLimit.Max),
		VerificationGasLimit: rng.IntRange(b.VerificationGasLimit.Min, b.VerificationGasLimit.Max),
		PreVerificationGas:   rng.IntRange(b.PreVerificationGas.Min, b.PreVerificationGas.Max),
		MaxFeePerGas:         rng.UniformFloat64(b.MaxFeePerGas.Min, b.MaxFeePerGas.Max),
		MaxPriorityFeePerGas: rng.UniformFloat64(b.MaxPriorityFeePerGas.Min, b.MaxPriorityFeePerGas.Max),
	}
}

// Crossover recombines two parents into one child
func (p *Problem) Crossover(rng *utils.RandSource, a, b Genome, strategy evolution.CrossoverStrategy) Genome {
	var fromB [numGenes]bool
	switch strategy {
	case evolution.CrossoverAverage:
		return Genome{
			CallGasLimit:         utils.FloorMean(a.CallGasLimit, b.CallGasLimit),
			VerificationGasLimit: utils.FloorMean(a.VerificationGasLimit, b.VerificationGasLimit),
			PreVerificationGas:   utils.FloorMean(a.PreVerificationGas, b.PreVerificationGas),
			MaxFeePerGas:         (a.MaxFeePerGas + b.MaxFeePerGas) / 2,
			MaxPriorityFeePerGas: (a.MaxPriorityFeePerGas + b.MaxPriorityFeePerGas) / 2,
		}
	case evolution.CrossoverOnePoint:
		cut := 1 + rng.Intn(numGenes-1)
		for i := cut; i < numGenes; i++ {
			fromB[i] = true
		}
	case evolution.CrossoverTwoPoint:
		// the segment [lo, hi) is never empty and may run to the last gene
		lo := 1 + rng.Intn(numGenes-1)
		hi := lo + 1 + rng.Intn(numGenes-lo)
		for i := lo; i < hi; i++ {
			fromB[i] = true
		}
	default:
		for i := range fromB {
			fromB[i] = rng.BernoulliBool(0.5)
		}
	}
	return mix(a, b, fromB)
}

// Mutate perturbs each gene independently with the given probability.
// Offsets are bounded by scale times the gene's range and results are clamped.
func (p *Problem) Mutate(rng *utils.RandSource, g Genome, probability, scale float64) Genome {
	b := p.bounds
	if rng.BernoulliBool(probability) {
		g.CallGasLimit = mutateInt(rng, g.CallGasLimit, b.CallGasLimit, scale)
	}
	if rng.BernoulliBool(probability) {
		g.VerificationGasLimit = mutateInt(rng, g.VerificationGasLimit, b.VerificationGasLimit, scale)
	}
	if rng.BernoulliBool(probability) {
		g.PreVerificationGas = mutateInt(rng, g.PreVerificationGas, b.PreVerificationGas, scale)
	}
	if rng.BernoulliBool(probability) {
		g.MaxFeePerGas = mutateReal(rng, g.MaxFeePerGas, b.MaxFeePerGas, scale)
	}
	if rng.BernoulliBool(probability) {
		g.MaxPriorityFeePerGas = mutateReal(rng, g.MaxPriorityFeePerGas, b.MaxPriorityFeePerGas, scale)
	}
	return g
}

func mutateInt(rng *utils.RandSource, v int64, r config.IntRange, scale float64) int64 {
	span := int64(math.Max(1, math.Round(scale*float64(r.Max-r.Min))))
	return utils.Clamp(v+rng.IntRange(-span, span), r.Min, r.Max)
}

func mutateReal(rng *utils.RandSource, v float64, r config.RealRange, scale float64) float64 {
	span := scale * (r.Max - r.Min)
	return utils.ClampFloat64(v+rng.UniformFloat64(-span, span), r.Min, r.Max)
}

// Evaluate costs g with the problem's model and multiplier
func (p *Problem) Evaluate(_ context.Context, g Genome) (evolution.Evaluation, error) {
	return p.model.Evaluate(g, p.multiplier), nil
}

// Clone returns g; genomes are plain values
func (p *Problem) Clone(g Genome) Genome {
	return g
}
