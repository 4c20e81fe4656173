package config

// Variant names
const (
	VariantUserOp  = "userop"
	VariantBundler = "bundler"
)

// Rule set names
const (
	RulesStandard = "standard"
	RulesStrict   = "strict"
)

// Crossover type names
const (
	CrossoverUniform  = "uniform"
	CrossoverAverage  = "average"
	CrossoverOnePoint = "one_point"
	CrossoverTwoPoint = "two_point"
)

// DefaultBounds returns the search space used by the reference experiments
func DefaultBounds() Bounds {
	return Bounds{
		CallGasLimit:         IntRange{Min: 20000, Max: 50000},
		VerificationGasLimit: IntRange{Min: 20000, Max: 40000},
		PreVerificationGas:   IntRange{Min: 21000, Max: 100000},
		MaxFeePerGas:         RealRange{Min: 1.0, Max: 10.0},
		MaxPriorityFeePerGas: RealRange{Min: 0.1, Max: 5.0},
	}
}

// DefaultAlgorithm returns the algorithm parameters used by the reference experiments
func DefaultAlgorithm() Algorithm {
	return Algorithm{
		PopulationSize:         100,
		MaxGenerations:         100,
		MutationProbability:    0.1,
		MutationScale:          0.1,
		CrossoverProbability:   0.7,
		CrossoverType:          CrossoverUniform,
		EliteRatio:             0.1,
		TournamentSize:         3,
		MaxStagnantGenerations: 10,
		EvaluationTimeout:      "30s",
		Parallelism:            1,
	}
}

// Default returns a complete, valid configuration
func Default() *Config {
	return &Config{
		Logging: Logging{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Variant:         VariantUserOp,
		Rules:           RulesStandard,
		BatchMultiplier: 1,
		Bounds:          DefaultBounds(),
		Algorithm:       DefaultAlgorithm(),
		Bundler: Bundler{
			MinBatchSize: 5,
			MaxBatchSize: 50,
			PendingOps:   100,
			OpGasLimit:   96000,
		},
		Sweep: Sweep{
			BundleSizes:     []int64{5, 10, 100, 1000},
			Runs:            20,
			MaxParallelRuns: 4,
			OutputDir:       "GA_multi_userops",
			XLSX:            true,
		},
	}
}
