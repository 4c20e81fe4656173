package sweep

import (
	"slices"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
)

// RunSpec fully describes one optimizer run of a sweep. It owns its Config,
// so runs never share mutable state.
type RunSpec struct {
	BundleSize int64
	Run        int
	Seed       int64
	Config     config.Config
}

// Plan expands the sweep section of cfg into run specs, bundle size major.
// Runs are numbered from 1; run r of every bundle size uses seed
// base_seed + r - 1 and a batch multiplier equal to the bundle size.
func Plan(cfg *config.Config) []RunSpec {
	specs := make([]RunSpec, 0, len(cfg.Sweep.BundleSizes)*cfg.Sweep.Runs)
	for _, bundle := range cfg.Sweep.BundleSizes {
		for run := 1; run <= cfg.Sweep.Runs; run++ {
			seed := cfg.Sweep.BaseSeed + int64(run-1)
			specs = append(specs, RunSpec{
				BundleSize: bundle,
				Run:        run,
				Seed:       seed,
				Config:     runConfig(cfg, bundle, seed),
			})
		}
	}
	return specs
}

// runConfig copies cfg and pins the multiplier and seed of one run
func runConfig(cfg *config.Config, bundle, seed int64) config.Config {
	c := *cfg
	c.Sweep.BundleSizes = slices.Clone(cfg.Sweep.BundleSizes)
	c.BatchMultiplier = bundle
	c.Algorithm.Seed = &seed
	return c
}
