package config

import (
	"strings"
	"testing"
)

func TestParseConfigYAMLStringOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfigYAMLString(`
rules: strict
batch_multiplier: 10
algorithm:
  population_size: 50
  crossover_type: average
  seed: 7
`)
	if err != nil {
		t.Fatalf("ParseConfigYAMLString error: %v", err)
	}

	if cfg.Rules != RulesStrict {
		t.Errorf("expected strict rules, got %s", cfg.Rules)
	}
	if cfg.BatchMultiplier != 10 {
		t.Errorf("expected multiplier 10, got %d", cfg.BatchMultiplier)
	}
	if cfg.Algorithm.PopulationSize != 50 {
		t.Errorf("expected population 50, got %d", cfg.Algorithm.PopulationSize)
	}
	if cfg.Algorithm.CrossoverType != CrossoverAverage {
		t.Errorf("expected average crossover, got %s", cfg.Algorithm.CrossoverType)
	}
	if cfg.Algorithm.Seed == nil || *cfg.Algorithm.Seed != 7 {
		t.Errorf("expected seed 7, got %v", cfg.Algorithm.Seed)
	}

	// untouched sections keep their defaults
	if cfg.Algorithm.TournamentSize != 3 {
		t.Errorf("expected default tournament size 3, got %d", cfg.Algorithm.TournamentSize)
	}
	if cfg.Bounds != DefaultBounds() {
		t.Errorf("expected default bounds, got %+v", cfg.Bounds)
	}
}

func TestParseConfigYAMLEmptyDocument(t *testing.T) {
	cfg, err := ParseConfigYAMLString("")
	if err != nil {
		t.Fatalf("empty document should yield defaults, got error: %v", err)
	}
	if cfg.Algorithm.Seed != nil {
		t.Fatalf("expected no pinned seed by default")
	}
}

func TestParseConfigYAMLSyntaxError(t *testing.T) {
	_, err := ParseConfigYAMLString("bounds: [unclosed")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse config yaml") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseConfigYAMLValidationError(t *testing.T) {
	_, err := ParseConfigYAMLString(`
bounds:
  max_fee_per_gas: {min: 5, max: 1}
`)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "invalid config") || !strings.Contains(err.Error(), "bounds.max_fee_per_gas") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarshalConfigYAMLRoundTrip(t *testing.T) {
	seed := int64(3)
	in := Default()
	in.Algorithm.Seed = &seed
	in.Variant = VariantBundler

	text, err := MarshalConfigYAML(in)
	if err != nil {
		t.Fatalf("MarshalConfigYAML error: %v", err)
	}
	out, err := ParseConfigYAMLString(text)
	if err != nil {
		t.Fatalf("re-parse error: %v\n%s", err, text)
	}
	if out.Variant != VariantBundler || out.Algorithm.Seed == nil || *out.Algorithm.Seed != 3 {
		t.Fatalf("round trip lost fields: %+v", out)
	}
}
