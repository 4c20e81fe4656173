package evolution

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

// Stop conditions reported in Result.Reason and the runs_total metric
const (
	StopMaxGenerations = "max_generations"
	StopConverged      = "converged"
	StopCancelled      = "cancelled"
)

// maxHistoryPrealloc caps the history capacity reserved up front
const maxHistoryPrealloc = 1024

// ProgressReporter is called after every generation, including the initial one
type ProgressReporter func(stats GenerationStats)

// Result is the outcome of one optimizer run
type Result[G any] struct {
	Best        Candidate[G]      `json:"best"`
	Generations int               `json:"generations"`
	Converged   bool              `json:"converged"`
	Reason      string            `json:"reason"`
	History     []GenerationStats `json:"history"`
	Seed        int64             `json:"seed"`
	Evaluations int               `json:"evaluations"`
	Duration    time.Duration     `json:"duration"`
}

// Optimizer runs a generational evolutionary search over a Problem.
// The generational loop is the same for every genome variant.
type Optimizer[G any] struct {
	problem     Problem[G]
	params      Params
	seed        int64
	convergence ConvergenceStrategy
	progress    ProgressReporter
	metrics     *Metrics
	log         *slog.Logger

	mu          sync.RWMutex
	generation  int
	best        Candidate[G]
	hasBest     bool
	history     []GenerationStats
	evaluations int
}

// New validates params and creates an optimizer.
// When params.Seed is nil a seed is drawn from the clock and reported in the result.
func New[G any](problem Problem[G], params Params) (*Optimizer[G], error) {
	if problem == nil {
		return nil, &ConfigurationError{Field: "problem", Reason: "is required"}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	seed := utils.TimeSeed()
	if params.Seed != nil {
		seed = *params.Seed
	}
	params.Seed = &seed

	return &Optimizer[G]{
		problem:     problem,
		params:      params,
		seed:        seed,
		convergence: NewNoImprovementStrategy(params.MaxStagnantGenerations),
	}, nil
}

// WithProgressReporter sets a callback invoked after every generation
func (o *Optimizer[G]) WithProgressReporter(fn ProgressReporter) *Optimizer[G] {
	o.progress = fn
	return o
}

// WithMetrics sets the Prometheus instruments the run reports to
func (o *Optimizer[G]) WithMetrics(m *Metrics) *Optimizer[G] {
	o.metrics = m
	return o
}

// WithLogger sets the logger; the package default logger is used otherwise
func (o *Optimizer[G]) WithLogger(l *slog.Logger) *Optimizer[G] {
	o.log = l
	return o
}

// WithConvergence replaces the stagnation check with a custom strategy
func (o *Optimizer[G]) WithConvergence(strategy ConvergenceStrategy) *Optimizer[G] {
	o.convergence = strategy
	return o
}

// Seed returns the seed the optimizer runs with
func (o *Optimizer[G]) Seed() int64 {
	return o.seed
}

// Params returns the validated parameters with the resolved seed
func (o *Optimizer[G]) Params() Params {
	return o.params
}

// Generation returns the last completed generation
func (o *Optimizer[G]) Generation() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.generation
}

// BestCost returns the best cost observed so far and false before the first generation
func (o *Optimizer[G]) BestCost() (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.best.Cost, o.hasBest
}

// History returns a copy of the generation history recorded so far
func (o *Optimizer[G]) History() []GenerationStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]GenerationStats, len(o.history))
	copy(out, o.history)
	return out
}

// Run executes the search. Every call restarts from the optimizer's seed, so
// repeated calls produce identical results. The context is checked between
// generations; on cancellation Run returns the partial result and ctx.Err().
func (o *Optimizer[G]) Run(ctx context.Context) (*Result[G], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := o.log
	if log == nil {
		log = logger.Default
	}
	log = log.With("seed", o.seed)
	o.reset()

	rng := utils.NewRandSource(o.seed)
	eval := &evaluator[G]{
		problem:     o.problem,
		timeout:     o.params.EvaluationTimeout,
		parallelism: o.params.Parallelism,
		log:         log,
		metrics:     o.metrics,
	}

	log.Debug("optimizer run started",
		"population_size", o.params.PopulationSize,
		"max_generations", o.params.MaxGenerations,
		"crossover", o.params.Crossover)

	genomes := make([]G, o.params.PopulationSize)
	for i := range genomes {
		genomes[i] = o.problem.Sample(rng)
	}
	pop, err := eval.evaluateAll(ctx, genomes)
	o.observe(log, 0, pop, len(genomes))
	if err != nil {
		return o.cancelled(log, start, err)
	}

	for gen := 1; gen <= o.params.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return o.cancelled(log, start, err)
		}

		var evaluated int
		pop, evaluated, err = o.nextGeneration(ctx, rng, eval, pop)
		o.observe(log, gen, pop, evaluated)
		if err != nil {
			return o.cancelled(log, start, err)
		}

		if o.convergence == nil {
			continue
		}
		if converged, reason := o.convergence.CheckConvergence(o.History()); converged {
			res := o.result(true, reason, start)
			o.finish(log, res, StopConverged)
			return res, nil
		}
	}

	res := o.result(false, StopMaxGenerations, start)
	o.finish(log, res, StopMaxGenerations)
	return res, nil
}

// cancelled ends a run interrupted by its context with the partial result
func (o *Optimizer[G]) cancelled(log *slog.Logger, start time.Time, err error) (*Result[G], error) {
	res := o.result(false, StopCancelled, start)
	o.finish(log, res, StopCancelled)
	return res, err
}

func (o *Optimizer[G]) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	var zero Candidate[G]
	o.generation = 0
	o.best = zero
	o.hasBest = false
	o.history = make([]GenerationStats, 0, min(o.params.MaxGenerations+1, maxHistoryPrealloc))
	o.evaluations = 0
}

// nextGeneration builds the replacement population: elites first, then
// children bred by tournament selection, crossover and mutation. All random
// draws happen before evaluation so parallel evaluation cannot reorder them.
func (o *Optimizer[G]) nextGeneration(ctx context.Context, rng *utils.RandSource, eval *evaluator[G], pop Population[G]) (Population[G], int, error) {
	n := o.params.PopulationSize
	next := make(Population[G], 0, n)

	if elites := o.params.EliteCount(); elites > 0 {
		for _, i := range pop.Ranked()[:elites] {
			next = append(next, Candidate[G]{Genome: o.problem.Clone(pop[i].Genome), Evaluation: pop[i].Evaluation})
		}
	}

	children := make([]G, 0, n-len(next))
	for len(next)+len(children) < n {
		a := pop[tournament(rng, pop, o.params.TournamentSize)].Genome
		b := pop[tournament(rng, pop, o.params.TournamentSize)].Genome

		var child G
		if rng.BernoulliBool(o.params.CrossoverProbability) {
			child = o.problem.Crossover(rng, a, b, o.params.Crossover)
		} else {
			child = o.problem.Clone(a)
		}
		children = append(children, o.problem.Mutate(rng, child, o.params.MutationProbability, o.params.MutationScale))
	}

	evaluated, err := eval.evaluateAll(ctx, children)
	return append(next, evaluated...), len(children), err
}

// observe folds a freshly evaluated generation into the run state
func (o *Optimizer[G]) observe(log *slog.Logger, gen int, pop Population[G], evaluated int) {
	o.mu.Lock()
	if i := pop.BestIndex(); i >= 0 && (!o.hasBest || pop[i].Cost < o.best.Cost) {
		o.best = Candidate[G]{Genome: o.problem.Clone(pop[i].Genome), Evaluation: pop[i].Evaluation}
		o.hasBest = true
	}
	o.generation = gen
	o.evaluations += evaluated
	stats := pop.Stats(gen, o.best.Cost)
	o.history = append(o.history, stats)
	o.mu.Unlock()

	log.Debug("generation evolved",
		"generation", gen,
		"best_cost", stats.BestCost,
		"best_so_far", stats.BestSoFar,
		"mean_cost", stats.MeanCost,
		"valid", stats.ValidCount)
	o.metrics.observeGeneration(stats)
	if o.progress != nil {
		o.progress(stats)
	}
}

func (o *Optimizer[G]) result(converged bool, reason string, start time.Time) *Result[G] {
	o.mu.RLock()
	defer o.mu.RUnlock()

	history := make([]GenerationStats, len(o.history))
	copy(history, o.history)
	return &Result[G]{
		Best:        Candidate[G]{Genome: o.problem.Clone(o.best.Genome), Evaluation: o.best.Evaluation},
		Generations: o.generation,
		Converged:   converged,
		Reason:      reason,
		History:     history,
		Seed:        o.seed,
		Evaluations: o.evaluations,
		Duration:    time.Since(start),
	}
}

func (o *Optimizer[G]) finish(log *slog.Logger, res *Result[G], stop string) {
	o.metrics.observeRun(stop, res.Duration)
	log.Info("optimizer run finished",
		"stop", stop,
		"reason", res.Reason,
		"generations", res.Generations,
		"best_cost", res.Best.Cost,
		"best_valid", res.Best.Valid,
		"evaluations", res.Evaluations)
}

// IsConfigurationError reports whether err came from parameter validation
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
