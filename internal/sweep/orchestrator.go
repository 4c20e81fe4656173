package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/userop"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

// Sink receives the complete result of a sweep
type Sink interface {
	WriteSweep(ctx context.Context, res *Result) error
}

// Result contains every run outcome of a sweep in plan order
type Result struct {
	SweepID   string        `json:"sweepId"`
	Outcomes  []RunOutcome  `json:"outcomes"`
	Summaries []Summary     `json:"summaries"`
	BestIndex int           `json:"bestIndex"`
	Duration  time.Duration `json:"duration"`
}

// Best returns the overall best outcome and false for an empty sweep
func (r *Result) Best() (RunOutcome, bool) {
	if r.BestIndex < 0 || r.BestIndex >= len(r.Outcomes) {
		return RunOutcome{}, false
	}
	return r.Outcomes[r.BestIndex], true
}

// Orchestrator runs a bundle size x repetition sweep of the UserOperation optimizer
type Orchestrator struct {
	cfg     *config.Config
	sinks   []Sink
	metrics *evolution.Metrics
	log     *slog.Logger

	mu        sync.RWMutex
	completed int
	total     int
}

// NewOrchestrator validates cfg and creates an orchestrator
func NewOrchestrator(cfg *config.Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.Variant != config.VariantUserOp {
		return nil, fmt.Errorf("sweeps support the %s variant only, got %s", config.VariantUserOp, cfg.Variant)
	}
	return &Orchestrator{cfg: cfg, log: logger.Default}, nil
}

// WithSinks adds sinks that receive the result after every run completes
func (o *Orchestrator) WithSinks(sinks ...Sink) *Orchestrator {
	o.sinks = append(o.sinks, sinks...)
	return o
}

// WithMetrics sets the instruments shared by every run
func (o *Orchestrator) WithMetrics(m *evolution.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// WithLogger sets the logger
func (o *Orchestrator) WithLogger(l *slog.Logger) *Orchestrator {
	o.log = l
	return o
}

// Progress returns the number of completed runs and the planned total
func (o *Orchestrator) Progress() (completed, total int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.completed, o.total
}

// Run executes every planned run, at most max_parallel_runs at a time, then
// hands the result to the sinks. Outcomes are returned in plan order.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	specs := Plan(o.cfg)
	res := &Result{
		SweepID:  utils.GenerateSweepID(),
		Outcomes: make([]RunOutcome, len(specs)),
	}
	log := o.log.With("sweep_id", res.SweepID)

	o.mu.Lock()
	o.completed, o.total = 0, len(specs)
	o.mu.Unlock()

	log.Info("sweep started",
		"bundle_sizes", o.cfg.Sweep.BundleSizes,
		"runs", o.cfg.Sweep.Runs,
		"max_parallel_runs", o.cfg.Sweep.MaxParallelRuns)

	g, gctx := errgroup.WithContext(ctx)
	if o.cfg.Sweep.MaxParallelRuns > 0 {
		g.SetLimit(o.cfg.Sweep.MaxParallelRuns)
	}
	for i, spec := range specs {
		g.Go(func() error {
			outcome, err := RunOne(gctx, spec, o.metrics, log)
			if err != nil {
				return fmt.Errorf("bundle %d run %d: %w", spec.BundleSize, spec.Run, err)
			}
			outcome.SweepID = res.SweepID
			res.Outcomes[i] = outcome

			o.mu.Lock()
			o.completed++
			o.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("sweep failed", "error", err)
		return nil, fmt.Errorf("sweep failed: %w", err)
	}

	res.Summaries = Summarize(res.Outcomes)
	res.BestIndex = Best(res.Outcomes)
	res.Duration = time.Since(start)

	var sinkErrs []error
	for _, sink := range o.sinks {
		if err := sink.WriteSweep(ctx, res); err != nil {
			sinkErrs = append(sinkErrs, err)
		}
	}

	if best, ok := res.Best(); ok {
		log.Info("sweep completed",
			"runs", len(res.Outcomes),
			"best_bundle_size", best.BundleSize,
			"best_run", best.Run,
			"best_fitness", best.Best.Cost,
			"duration", res.Duration)
	}

	if err := errors.Join(sinkErrs...); err != nil {
		return res, fmt.Errorf("failed to write sweep results: %w", err)
	}
	return res, nil
}

// RunOne runs the optimizer for a single spec
func RunOne(ctx context.Context, spec RunSpec, metrics *evolution.Metrics, log *slog.Logger) (RunOutcome, error) {
	cfg := spec.Config
	problem, err := userop.ProblemFromConfig(&cfg)
	if err != nil {
		return RunOutcome{}, err
	}
	params, err := evolution.ParamsFromConfig(cfg.Algorithm)
	if err != nil {
		return RunOutcome{}, err
	}

	opt, err := userop.NewOptimizer(problem, params.WithSeed(spec.Seed))
	if err != nil {
		return RunOutcome{}, err
	}
	runLog := log.With("bundle_size", spec.BundleSize, "run", spec.Run)
	res, err := opt.WithMetrics(metrics).WithLogger(runLog).Run(ctx)
	if err != nil {
		return RunOutcome{}, err
	}

	return RunOutcome{
		BundleSize:  spec.BundleSize,
		Run:         spec.Run,
		Seed:        res.Seed,
		Best:        res.Best,
		Generations: res.Generations,
		Converged:   res.Converged,
		Reason:      res.Reason,
		Evaluations: res.Evaluations,
		Duration:    res.Duration,
	}, nil
}
