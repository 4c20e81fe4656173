package evolution

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

// lineProblem searches the integers in [lo, hi] for target; cost is the squared distance.
type lineProblem struct {
	lo, hi int64
	target int64
}

func (p lineProblem) Sample(rng *utils.RandSource) int64 {
	return rng.IntRange(p.lo, p.hi)
}

func (p lineProblem) Crossover(rng *utils.RandSource, a, b int64, strategy CrossoverStrategy) int64 {
	if strategy == CrossoverAverage {
		return utils.FloorMean(a, b)
	}
	if rng.BernoulliBool(0.5) {
		return a
	}
	return b
}

func (p lineProblem) Mutate(rng *utils.RandSource, g int64, probability, scale float64) int64 {
	if !rng.BernoulliBool(probability) {
		return g
	}
	span := int64(math.Max(1, math.Round(scale*float64(p.hi-p.lo))))
	return utils.Clamp(g+rng.IntRange(-span, span), p.lo, p.hi)
}

func (p lineProblem) Evaluate(_ context.Context, g int64) (Evaluation, error) {
	d := float64(g - p.target)
	return Evaluation{Valid: true, Cost: d * d, GasUsed: g}, nil
}

func (p lineProblem) Clone(g int64) int64 { return g }

// flatProblem gives every genome the same cost, so nothing ever improves.
type flatProblem struct{ lineProblem }

func (flatProblem) Evaluate(context.Context, int64) (Evaluation, error) {
	return Evaluation{Valid: true, Cost: 42}, nil
}

// faultyProblem misbehaves depending on the genome value.
type faultyProblem struct{ lineProblem }

func (faultyProblem) Evaluate(ctx context.Context, g int64) (Evaluation, error) {
	switch g {
	case 1:
		panic("boom")
	case 2:
		return Evaluation{}, errors.New("backend unavailable")
	case 3:
		return Evaluation{Valid: true, Cost: math.NaN()}, nil
	case 4:
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
		}
		return Evaluation{Valid: true, Cost: 1}, nil
	case 5:
		return Evaluation{Valid: false, Cost: 17}, nil
	default:
		return Evaluation{Valid: true, Cost: float64(g)}, nil
	}
}

func testParams() Params {
	p := DefaultParams()
	p.PopulationSize = 30
	p.MaxGenerations = 25
	p.MaxStagnantGenerations = 0
	p.EvaluationTimeout = 0
	return p.WithSeed(7)
}
