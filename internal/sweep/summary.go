package sweep

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/userop"
)

// Summary aggregates the runs of one bundle size
type Summary struct {
	BundleSize  int64         `json:"bundleSize"`
	Runs        int           `json:"runs"`
	ValidRuns   int           `json:"validRuns"`
	MeanFitness float64       `json:"meanFitness"`
	StdFitness  float64       `json:"stdFitness"` // population standard deviation
	BestRun     int           `json:"bestRun"`
	BestFitness float64       `json:"bestFitness"`
	BestGenome  userop.Genome `json:"bestGenome"`
}

// Summarize groups outcomes by bundle size, in order of first appearance.
// Ties for the best run go to the earliest run.
func Summarize(outcomes []RunOutcome) []Summary {
	var order []int64
	groups := make(map[int64][]RunOutcome)
	for _, o := range outcomes {
		if _, ok := groups[o.BundleSize]; !ok {
			order = append(order, o.BundleSize)
		}
		groups[o.BundleSize] = append(groups[o.BundleSize], o)
	}

	summaries := make([]Summary, 0, len(order))
	for _, bundle := range order {
		group := groups[bundle]
		fitness := make([]float64, len(group))
		valid := 0
		for i, o := range group {
			fitness[i] = o.Best.Cost
			if o.Best.Valid {
				valid++
			}
		}

		mean, std := stat.PopMeanStdDev(fitness, nil)
		best := floats.MinIdx(fitness)
		summaries = append(summaries, Summary{
			BundleSize:  bundle,
			Runs:        len(group),
			ValidRuns:   valid,
			MeanFitness: mean,
			StdFitness:  std,
			BestRun:     group[best].Run,
			BestFitness: fitness[best],
			BestGenome:  group[best].Best.Genome,
		})
	}
	return summaries
}

// Best returns the index of the lowest-fitness outcome, -1 when there are none
func Best(outcomes []RunOutcome) int {
	if len(outcomes) == 0 {
		return -1
	}
	fitness := make([]float64, len(outcomes))
	for i, o := range outcomes {
		fitness[i] = o.Best.Cost
	}
	return floats.MinIdx(fitness)
}
