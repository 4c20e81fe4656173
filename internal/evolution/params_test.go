package evolution

import (
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
)

func TestParamsFromConfig(t *testing.T) {
	seed := int64(11)
	a := config.DefaultAlgorithm()
	a.CrossoverType = config.CrossoverAverage
	a.EvaluationTimeout = "250ms"
	a.Seed = &seed

	p, err := ParamsFromConfig(a)
	if err != nil {
		t.Fatalf("ParamsFromConfig error: %v", err)
	}
	if p.Crossover != CrossoverAverage {
		t.Fatalf("expected average crossover, got %s", p.Crossover)
	}
	if p.EvaluationTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms timeout, got %s", p.EvaluationTimeout)
	}
	if p.Seed == nil || *p.Seed != 11 {
		t.Fatalf("expected seed 11, got %v", p.Seed)
	}

	// the returned params must not alias the config's seed
	seed = 99
	if *p.Seed != 11 {
		t.Fatalf("params seed aliased config seed")
	}
}

func TestParamsFromConfigRejectsUnknownCrossover(t *testing.T) {
	a := config.DefaultAlgorithm()
	a.CrossoverType = "blend"
	_, err := ParamsFromConfig(a)
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestEliteCount(t *testing.T) {
	tests := []struct {
		ratio float64
		size  int
		want  int
	}{
		{0, 100, 0},
		{0.1, 100, 10},
		{0.1, 15, 1},
		{0.05, 10, 0},
		{0.99, 10, 9},
	}
	for _, tt := range tests {
		p := DefaultParams()
		p.EliteRatio = tt.ratio
		p.PopulationSize = tt.size
		if got := p.EliteCount(); got != tt.want {
			t.Errorf("EliteCount(ratio=%g, size=%d) = %d, want %d", tt.ratio, tt.size, got, tt.want)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"zero population", func(p *Params) { p.PopulationSize = 0 }, "population_size"},
		{"negative generations", func(p *Params) { p.MaxGenerations = -1 }, "max_generations"},
		{"mutation probability", func(p *Params) { p.MutationProbability = 2 }, "mutation_probability"},
		{"mutation scale", func(p *Params) { p.MutationScale = -0.5 }, "mutation_scale"},
		{"crossover probability", func(p *Params) { p.CrossoverProbability = 1.01 }, "crossover_probability"},
		{"crossover strategy", func(p *Params) { p.Crossover = "blend" }, "crossover_type"},
		{"elite ratio", func(p *Params) { p.EliteRatio = 1 }, "elite_ratio"},
		{"tournament too large", func(p *Params) { p.TournamentSize = p.PopulationSize + 1 }, "tournament_size"},
		{"tournament zero", func(p *Params) { p.TournamentSize = 0 }, "tournament_size"},
		{"negative stagnation", func(p *Params) { p.MaxStagnantGenerations = -1 }, "max_stagnant_generations"},
		{"negative timeout", func(p *Params) { p.EvaluationTimeout = -time.Second }, "evaluation_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
			if !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("expected error to wrap ErrInvalidParams")
			}
		})
	}

	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params should validate: %v", err)
	}
}
