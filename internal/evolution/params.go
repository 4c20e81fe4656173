package evolution

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
)

// ErrInvalidParams is wrapped by every parameter validation failure
var ErrInvalidParams = errors.New("invalid optimizer parameters")

// ConfigurationError reports a malformed algorithm parameter.
// It is returned before any generation runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidParams
}

// Params holds the evolutionary search parameters of one run
type Params struct {
	PopulationSize         int
	MaxGenerations         int
	MutationProbability    float64
	MutationScale          float64
	CrossoverProbability   float64
	Crossover              CrossoverStrategy
	EliteRatio             float64
	TournamentSize         int
	MaxStagnantGenerations int           // 0 disables the stagnation stop
	EvaluationTimeout      time.Duration // 0 disables the per-evaluation timeout
	Parallelism            int           // <= 1 evaluates sequentially
	Seed                   *int64        // nil draws a seed from the clock
}

// DefaultParams returns the parameters used when nothing is configured
func DefaultParams() Params {
	p, _ := ParamsFromConfig(config.DefaultAlgorithm())
	return p
}

// ParamsFromConfig converts the YAML algorithm section to optimizer parameters
func ParamsFromConfig(a config.Algorithm) (Params, error) {
	strategy, err := ParseCrossoverStrategy(a.CrossoverType)
	if err != nil {
		return Params{}, err
	}
	timeout, err := a.GetEvaluationTimeout()
	if err != nil {
		return Params{}, &ConfigurationError{Field: "evaluation_timeout", Reason: err.Error()}
	}
	p := Params{
		PopulationSize:         a.PopulationSize,
		MaxGenerations:         a.MaxGenerations,
		MutationProbability:    a.MutationProbability,
		MutationScale:          a.MutationScale,
		CrossoverProbability:   a.CrossoverProbability,
		Crossover:              strategy,
		EliteRatio:             a.EliteRatio,
		TournamentSize:         a.TournamentSize,
		MaxStagnantGenerations: a.MaxStagnantGenerations,
		EvaluationTimeout:      timeout,
		Parallelism:            a.Parallelism,
	}
	if a.Seed != nil {
		seed := *a.Seed
		p.Seed = &seed
	}
	return p, nil
}

// WithSeed returns a copy of p pinned to seed
func (p Params) WithSeed(seed int64) Params {
	p.Seed = &seed
	return p
}

// EliteCount is the number of candidates copied unchanged into the next generation
func (p Params) EliteCount() int {
	return int(math.Floor(p.EliteRatio * float64(p.PopulationSize)))
}

func probability(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("must be in [0, 1], got %g", v)}
	}
	return nil
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.PopulationSize <= 0 {
		return &ConfigurationError{Field: "population_size", Reason: fmt.Sprintf("must be positive, got %d", p.PopulationSize)}
	}
	if p.MaxGenerations < 0 {
		return &ConfigurationError{Field: "max_generations", Reason: fmt.Sprintf("cannot be negative, got %d", p.MaxGenerations)}
	}
	if err := probability("mutation_probability", p.MutationProbability); err != nil {
		return err
	}
	if err := probability("mutation_scale", p.MutationScale); err != nil {
		return err
	}
	if err := probability("crossover_probability", p.CrossoverProbability); err != nil {
		return err
	}
	if _, err := ParseCrossoverStrategy(string(p.Crossover)); err != nil {
		return err
	}
	if math.IsNaN(p.EliteRatio) || p.EliteRatio < 0 || p.EliteRatio >= 1 {
		return &ConfigurationError{Field: "elite_ratio", Reason: fmt.Sprintf("must be in [0, 1), got %g", p.EliteRatio)}
	}
	if p.TournamentSize < 1 || p.TournamentSize > p.PopulationSize {
		return &ConfigurationError{
			Field:  "tournament_size",
			Reason: fmt.Sprintf("must be between 1 and population_size %d, got %d", p.PopulationSize, p.TournamentSize),
		}
	}
	if p.MaxStagnantGenerations < 0 {
		return &ConfigurationError{Field: "max_stagnant_generations", Reason: fmt.Sprintf("cannot be negative, got %d", p.MaxStagnantGenerations)}
	}
	if p.EvaluationTimeout < 0 {
		return &ConfigurationError{Field: "evaluation_timeout", Reason: fmt.Sprintf("cannot be negative, got %s", p.EvaluationTimeout)}
	}
	return nil
}
