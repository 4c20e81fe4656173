package evolution

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

// CrossoverStrategy selects how two parent genomes are recombined
type CrossoverStrategy string

const (
	// CrossoverUniform picks each gene from either parent with probability 0.5
	CrossoverUniform CrossoverStrategy = config.CrossoverUniform
	// CrossoverAverage takes the arithmetic mean of each gene (floor for integers)
	CrossoverAverage CrossoverStrategy = config.CrossoverAverage
	// CrossoverOnePoint swaps the gene tail after one random cut
	CrossoverOnePoint CrossoverStrategy = config.CrossoverOnePoint
	// CrossoverTwoPoint swaps the genes between two random cuts
	CrossoverTwoPoint CrossoverStrategy = config.CrossoverTwoPoint
)

// ParseCrossoverStrategy converts a configuration name to a strategy
func ParseCrossoverStrategy(name string) (CrossoverStrategy, error) {
	switch s := CrossoverStrategy(name); s {
	case CrossoverUniform, CrossoverAverage, CrossoverOnePoint, CrossoverTwoPoint:
		return s, nil
	case "":
		return CrossoverUniform, nil
	default:
		return "", &ConfigurationError{Field: "crossover_type", Reason: fmt.Sprintf("unknown strategy %q", name)}
	}
}

// Problem is the capability set a genome variant supplies to the optimizer.
// Sample, Crossover and Mutate draw only from the random source they are given.
// Evaluate must be safe for concurrent use.
type Problem[G any] interface {
	// Sample draws a genome uniformly within the problem's bounds
	Sample(rng *utils.RandSource) G
	// Crossover produces one child genome from two parents
	Crossover(rng *utils.RandSource, a, b G, strategy CrossoverStrategy) G
	// Mutate perturbs genes of g and returns the result clamped into bounds
	Mutate(rng *utils.RandSource, g G, probability, scale float64) G
	// Evaluate costs a genome
	Evaluate(ctx context.Context, g G) (Evaluation, error)
	// Clone returns a copy of g that shares no mutable state with it
	Clone(g G) G
}
