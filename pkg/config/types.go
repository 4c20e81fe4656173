package config

import "time"

// Config represents the optimizer configuration
type Config struct {
	Logging         Logging   `yaml:"logging"`
	Variant         string    `yaml:"variant"` // userop or bundler
	Rules           string    `yaml:"rules"`   // standard or strict
	BatchMultiplier int64     `yaml:"batch_multiplier"`
	Bounds          Bounds    `yaml:"bounds"`
	Algorithm       Algorithm `yaml:"algorithm"`
	Bundler         Bundler   `yaml:"bundler"`
	Sweep           Sweep     `yaml:"sweep"`
	Archive         Archive   `yaml:"archive"`
}

// Logging represents logger configuration
type Logging struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or text
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// IntRange is an inclusive integer parameter range
type IntRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// RealRange is an inclusive real parameter range
type RealRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Bounds holds the search range of every UserOperation parameter.
// Gas limits are integer parameters; fees are real parameters in gwei.
type Bounds struct {
	CallGasLimit         IntRange  `yaml:"call_gas_limit"`
	VerificationGasLimit IntRange  `yaml:"verification_gas_limit"`
	PreVerificationGas   IntRange  `yaml:"pre_verification_gas"`
	MaxFeePerGas         RealRange `yaml:"max_fee_per_gas"`
	MaxPriorityFeePerGas RealRange `yaml:"max_priority_fee_per_gas"`
}

// Algorithm represents the evolutionary search parameters
type Algorithm struct {
	PopulationSize         int     `yaml:"population_size"`
	MaxGenerations         int     `yaml:"max_generations"`
	MutationProbability    float64 `yaml:"mutation_probability"`
	MutationScale          float64 `yaml:"mutation_scale"`
	CrossoverProbability   float64 `yaml:"crossover_probability"`
	CrossoverType          string  `yaml:"crossover_type"` // uniform, average, one_point, two_point
	EliteRatio             float64 `yaml:"elite_ratio"`
	TournamentSize         int     `yaml:"tournament_size"`
	MaxStagnantGenerations int     `yaml:"max_stagnant_generations"`
	EvaluationTimeout      string  `yaml:"evaluation_timeout,omitempty"` // e.g., "30s"
	Parallelism            int     `yaml:"parallelism"`
	Seed                   *int64  `yaml:"seed,omitempty"`
}

// Bundler represents the bundler-config genome variant settings
type Bundler struct {
	MinBatchSize int   `yaml:"min_batch_size"`
	MaxBatchSize int   `yaml:"max_batch_size"`
	PendingOps   int   `yaml:"pending_ops"`
	OpGasLimit   int64 `yaml:"op_gas_limit"`
}

// Sweep represents the bundle size x repetition sweep
type Sweep struct {
	BundleSizes     []int64 `yaml:"bundle_sizes"`
	Runs            int     `yaml:"runs"`
	BaseSeed        int64   `yaml:"base_seed"`
	MaxParallelRuns int     `yaml:"max_parallel_runs"`
	OutputDir       string  `yaml:"output_dir"`
	XLSX            bool    `yaml:"xlsx"`
}

// Archive represents the persistent result archive
type Archive struct {
	Dir string `yaml:"dir,omitempty"`
}

// GetEvaluationTimeout parses the evaluation timeout; an empty value means no timeout
func (a *Algorithm) GetEvaluationTimeout() (time.Duration, error) {
	if a.EvaluationTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.EvaluationTimeout)
}
