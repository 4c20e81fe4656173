package bundler

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

// maxBatchStep bounds a single batch size mutation
const maxBatchStep = 5

// Problem searches bundler configurations for a fixed workload
type Problem struct {
	minBatch, maxBatch int
	workload           Workload
}

var _ evolution.Problem[Genome] = (*Problem)(nil)

// NewProblem creates a problem over batch sizes in [minBatch, maxBatch]
func NewProblem(minBatch, maxBatch int, w Workload) (*Problem, error) {
	if minBatch < 1 || minBatch > maxBatch {
		return nil, &evolution.ConfigurationError{
			Field:  "batch_size",
			Reason: fmt.Sprintf("invalid range [%d, %d]", minBatch, maxBatch),
		}
	}
	if w.PendingOps < 0 || w.OpGasLimit < 0 {
		return nil, &evolution.ConfigurationError{Field: "workload", Reason: "cannot be negative"}
	}
	if worstCaseGas(w)/GasPerCostUnit >= evolution.PenaltyCost {
		return nil, &evolution.ConfigurationError{
			Field:  "workload",
			Reason: fmt.Sprintf("%d ops of %d gas would cost as much as an invalid configuration", w.PendingOps, w.OpGasLimit),
		}
	}
	return &Problem{minBatch: minBatch, maxBatch: maxBatch, workload: w}, nil
}

// ProblemFromConfig builds a problem from the bundler section of cfg
func ProblemFromConfig(cfg config.Bundler) (*Problem, error) {
	opGas := cfg.OpGasLimit
	if opGas == 0 {
		opGas = DefaultOpGas
	}
	return NewProblem(cfg.MinBatchSize, cfg.MaxBatchSize, Workload{PendingOps: cfg.PendingOps, OpGasLimit: opGas})
}

// Workload returns the queue being optimized for
func (p *Problem) Workload() Workload { return p.workload }

func (p *Problem) Sample(rng *utils.RandSource) Genome {
	return Genome{
		BatchSize:         int(rng.IntRange(int64(p.minBatch), int64(p.maxBatch))),
		PrioritizeHighGas: rng.BernoulliBool(0.5),
	}
}

// Crossover averages batch sizes (floor) or picks them uniformly; the flag
// always comes from either parent with probability 0.5
func (p *Problem) Crossover(rng *utils.RandSource, a, b Genome, strategy evolution.CrossoverStrategy) Genome {
	child := a
	if strategy == evolution.CrossoverAverage {
		child.BatchSize = int(utils.FloorMean(int64(a.BatchSize), int64(b.BatchSize)))
	} else if rng.BernoulliBool(0.5) {
		child.BatchSize = b.BatchSize
	}
	if rng.BernoulliBool(0.5) {
		child.PrioritizeHighGas = b.PrioritizeHighGas
	}
	return child
}

// Mutate shifts the batch size by up to 5 and flips the flag, each with the
// given probability. Scale is unused; the step is fixed.
func (p *Problem) Mutate(rng *utils.RandSource, g Genome, probability, _ float64) Genome {
	if rng.BernoulliBool(probability) {
		step := rng.IntRange(-maxBatchStep, maxBatchStep)
		g.BatchSize = int(utils.Clamp(int64(g.BatchSize)+step, int64(p.minBatch), int64(p.maxBatch)))
	}
	if rng.BernoulliBool(probability) {
		g.PrioritizeHighGas = !g.PrioritizeHighGas
	}
	return g
}

func (p *Problem) Evaluate(_ context.Context, g Genome) (evolution.Evaluation, error) {
	return Evaluate(g, p.workload), nil
}

func (p *Problem) Clone(g Genome) Genome {
	return g
}

// NewOptimizer creates an evolutionary optimizer over p
func NewOptimizer(p *Problem, params evolution.Params) (*evolution.Optimizer[Genome], error) {
	return evolution.New[Genome](p, params)
}
