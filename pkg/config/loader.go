package config

import (
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Upper limits that keep gas arithmetic inside int64:
// (3*MaxGasLimit + overhead) * MaxBatchMultiplier and
// MaxPendingOps * MaxGasLimit both stay far below math.MaxInt64.
const (
	MaxGasLimit        = 1_000_000_000
	MaxBatchMultiplier = 1_000_000
	MaxPendingOps      = 100_000
)

// ValidationError reports the configuration field that failed validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Unwrap lets callers match ErrInvalidConfig with errors.Is
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate performs validation on the configuration
func Validate(cfg *Config) error {
	if cfg == nil {
		return invalid("config", "is nil")
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	switch cfg.Variant {
	case VariantUserOp, VariantBundler:
	default:
		return invalid("variant", "must be userop or bundler, got %q", cfg.Variant)
	}

	switch cfg.Rules {
	case RulesStandard, RulesStrict:
	default:
		return invalid("rules", "must be standard or strict, got %q", cfg.Rules)
	}

	if cfg.BatchMultiplier < 1 || cfg.BatchMultiplier > MaxBatchMultiplier {
		return invalid("batch_multiplier", "must be between 1 and %d, got %d", MaxBatchMultiplier, cfg.BatchMultiplier)
	}

	if err := ValidateBounds(&cfg.Bounds); err != nil {
		return err
	}

	if err := ValidateAlgorithm(&cfg.Algorithm); err != nil {
		return err
	}

	if cfg.Variant == VariantBundler {
		if err := validateBundler(&cfg.Bundler); err != nil {
			return err
		}
	}

	if err := validateSweep(&cfg.Sweep); err != nil {
		return err
	}

	return nil
}

// validateLogging validates the logging configuration
func validateLogging(l *Logging) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[l.Level] {
		return invalid("logging.level", "must be debug, info, warn, or error, got %q", l.Level)
	}
	if l.Format != "json" && l.Format != "text" {
		return invalid("logging.format", "must be json or text, got %q", l.Format)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return invalid("logging", "rotation limits cannot be negative")
	}
	return nil
}

// ValidateBounds checks that every range is well formed
func ValidateBounds(b *Bounds) error {
	ints := []struct {
		name string
		r    IntRange
	}{
		{"bounds.call_gas_limit", b.CallGasLimit},
		{"bounds.verification_gas_limit", b.VerificationGasLimit},
		{"bounds.pre_verification_gas", b.PreVerificationGas},
	}
	for _, p := range ints {
		if p.r.Min > p.r.Max {
			return invalid(p.name, "min %d is greater than max %d", p.r.Min, p.r.Max)
		}
		if p.r.Min < 0 {
			return invalid(p.name, "min cannot be negative, got %d", p.r.Min)
		}
		if p.r.Max > MaxGasLimit {
			return invalid(p.name, "max cannot exceed %d, got %d", MaxGasLimit, p.r.Max)
		}
	}

	reals := []struct {
		name string
		r    RealRange
	}{
		{"bounds.max_fee_per_gas", b.MaxFeePerGas},
		{"bounds.max_priority_fee_per_gas", b.MaxPriorityFeePerGas},
	}
	for _, p := range reals {
		if math.IsNaN(p.r.Min) || math.IsNaN(p.r.Max) || math.IsInf(p.r.Min, 0) || math.IsInf(p.r.Max, 0) {
			return invalid(p.name, "bounds must be finite")
		}
		if p.r.Min > p.r.Max {
			return invalid(p.name, "min %g is greater than max %g", p.r.Min, p.r.Max)
		}
		if p.r.Min < 0 {
			return invalid(p.name, "min cannot be negative, got %g", p.r.Min)
		}
	}
	return nil
}

// ValidateAlgorithm checks the evolutionary search parameters
func ValidateAlgorithm(a *Algorithm) error {
	if a.PopulationSize <= 0 {
		return invalid("algorithm.population_size", "must be positive, got %d", a.PopulationSize)
	}
	if a.MaxGenerations < 0 {
		return invalid("algorithm.max_generations", "cannot be negative, got %d", a.MaxGenerations)
	}
	if a.MutationProbability < 0 || a.MutationProbability > 1 {
		return invalid("algorithm.mutation_probability", "must be between 0 and 1, got %g", a.MutationProbability)
	}
	if a.MutationScale < 0 || a.MutationScale > 1 {
		return invalid("algorithm.mutation_scale", "must be between 0 and 1, got %g", a.MutationScale)
	}
	if a.CrossoverProbability < 0 || a.CrossoverProbability > 1 {
		return invalid("algorithm.crossover_probability", "must be between 0 and 1, got %g", a.CrossoverProbability)
	}
	switch a.CrossoverType {
	case CrossoverUniform, CrossoverAverage, CrossoverOnePoint, CrossoverTwoPoint:
	default:
		return invalid("algorithm.crossover_type", "must be uniform, average, one_point, or two_point, got %q", a.CrossoverType)
	}
	if a.EliteRatio < 0 || a.EliteRatio >= 1 {
		return invalid("algorithm.elite_ratio", "must be in [0, 1), got %g", a.EliteRatio)
	}
	if a.TournamentSize < 1 {
		return invalid("algorithm.tournament_size", "must be at least 1, got %d", a.TournamentSize)
	}
	if a.TournamentSize > a.PopulationSize {
		return invalid("algorithm.tournament_size", "%d exceeds population_size %d", a.TournamentSize, a.PopulationSize)
	}
	if a.MaxStagnantGenerations < 0 {
		return invalid("algorithm.max_stagnant_generations", "cannot be negative, got %d", a.MaxStagnantGenerations)
	}
	if a.Parallelism < 0 {
		return invalid("algorithm.parallelism", "cannot be negative, got %d", a.Parallelism)
	}
	timeout, err := a.GetEvaluationTimeout()
	if err != nil {
		return invalid("algorithm.evaluation_timeout", "invalid duration %q: %v", a.EvaluationTimeout, err)
	}
	if timeout < 0 {
		return invalid("algorithm.evaluation_timeout", "cannot be negative, got %s", timeout)
	}
	return nil
}

// validateBundler validates the bundler variant settings
func validateBundler(b *Bundler) error {
	if b.MinBatchSize < 1 {
		return invalid("bundler.min_batch_size", "must be at least 1, got %d", b.MinBatchSize)
	}
	if b.MinBatchSize > b.MaxBatchSize {
		return invalid("bundler.min_batch_size", "min %d is greater than max %d", b.MinBatchSize, b.MaxBatchSize)
	}
	if b.PendingOps < 0 || b.PendingOps > MaxPendingOps {
		return invalid("bundler.pending_ops", "must be between 0 and %d, got %d", MaxPendingOps, b.PendingOps)
	}
	if b.OpGasLimit < 0 || b.OpGasLimit > MaxGasLimit {
		return invalid("bundler.op_gas_limit", "must be between 0 and %d, got %d", MaxGasLimit, b.OpGasLimit)
	}
	return nil
}

// validateSweep validates the sweep configuration
func validateSweep(s *Sweep) error {
	if len(s.BundleSizes) == 0 {
		return invalid("sweep.bundle_sizes", "at least one bundle size must be defined")
	}
	for i, size := range s.BundleSizes {
		if size < 1 || size > MaxBatchMultiplier {
			return invalid("sweep.bundle_sizes", "entry %d must be between 1 and %d, got %d", i, MaxBatchMultiplier, size)
		}
	}
	if s.Runs < 1 {
		return invalid("sweep.runs", "must be at least 1, got %d", s.Runs)
	}
	if s.MaxParallelRuns < 0 {
		return invalid("sweep.max_parallel_runs", "cannot be negative, got %d", s.MaxParallelRuns)
	}
	return nil
}
