package gasoptd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/archive"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/bundler"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/userop"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
)

// RunExecutor manages asynchronous run execution and per-run cancellation.
type RunExecutor struct {
	store    *RunStore
	archive  *archive.Store
	metrics  *Metrics
	notifier *Notifier
	log      *slog.Logger

	mu      sync.Mutex
	cancels map[string]*activeRun
	wg      sync.WaitGroup
}

// activeRun is the cancel handle of one worker goroutine
type activeRun struct {
	cancel context.CancelFunc
}

func NewRunExecutor(store *RunStore) *RunExecutor {
	return &RunExecutor{
		store:   store,
		log:     logger.Default,
		cancels: make(map[string]*activeRun),
	}
}

// WithArchive persists completed runs into an archive store
func (e *RunExecutor) WithArchive(a *archive.Store) *RunExecutor {
	e.archive = a
	return e
}

func (e *RunExecutor) WithMetrics(m *Metrics) *RunExecutor {
	e.metrics = m
	return e
}

// WithNotifier posts terminal runs to their callback URLs
func (e *RunExecutor) WithNotifier(n *Notifier) *RunExecutor {
	e.notifier = n
	return e
}

func (e *RunExecutor) WithLogger(l *slog.Logger) *RunExecutor {
	e.log = l
	return e
}

// Start begins executing a run asynchronously.
// Starting a RUNNING run is a no-op; terminal runs cannot be restarted.
func (e *RunExecutor) Start(runID string) (RunRecord, error) {
	if runID == "" {
		return RunRecord{}, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	switch {
	case rec.Run.Status == RunStatusRunning:
		return rec, nil
	case rec.Run.Status.Terminal():
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	cfg, err := rec.Input.Config()
	if err != nil {
		return RunRecord{}, err
	}

	// only the caller that moves the run out of PENDING launches a worker
	e.mu.Lock()
	updated, err := e.store.SetStatusIf(runID, RunStatusPending, RunStatusRunning)
	if err != nil {
		e.mu.Unlock()
		if !errors.Is(err, ErrRunStatusChanged) {
			return RunRecord{}, err
		}
		if updated.Run.Status == RunStatusRunning {
			return updated, nil
		}
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	run := &activeRun{cancel: cancel}
	e.cancels[runID] = run
	e.wg.Add(1)
	e.mu.Unlock()

	e.metrics.runStarted()
	go e.runOptimization(ctx, runID, run, cfg)
	return updated, nil
}

// Stop cancels a pending or running run and marks it CANCELLED
func (e *RunExecutor) Stop(runID string) (RunRecord, error) {
	if runID == "" {
		return RunRecord{}, ErrRunIDMissing
	}

	e.mu.Lock()
	run, ok := e.cancels[runID]
	if ok {
		run.cancel()
	}
	updated, err := e.store.SetStatus(runID, RunStatusCancelled, "")
	e.mu.Unlock()
	if err != nil {
		return RunRecord{}, err
	}
	e.log.Info("run cancelled", "run_id", runID)
	if !ok {
		e.notify(runID)
	}
	return updated, nil
}

// Wait blocks until every started run has finished
func (e *RunExecutor) Wait() {
	e.wg.Wait()
}

// Shutdown cancels every active run and waits for them to finish
func (e *RunExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.Stop(id); err != nil && !errors.Is(err, ErrRunTerminal) {
			e.log.Warn("failed to stop run during shutdown", "run_id", id, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cleanup releases run and forgets it unless another worker owns runID now
func (e *RunExecutor) cleanup(runID string, run *activeRun) {
	run.cancel()
	e.mu.Lock()
	if e.cancels[runID] == run {
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) runOptimization(ctx context.Context, runID string, run *activeRun, cfg *config.Config) {
	defer e.wg.Done()
	defer e.cleanup(runID, run)

	log := e.log.With("run_id", runID, "variant", cfg.Variant)
	progress := func(stats evolution.GenerationStats) {
		if err := e.store.SetProgress(runID, stats); err != nil {
			log.Warn("failed to record progress", "error", err)
		}
	}

	log.Info("optimization started")
	var (
		res *RunResult
		err error
	)
	switch cfg.Variant {
	case config.VariantBundler:
		res, err = e.runBundler(ctx, cfg, progress, log)
	default:
		res, err = e.runUserOp(ctx, cfg, progress, log)
	}

	if res != nil {
		if setErr := e.store.SetResult(runID, res); setErr != nil {
			log.Error("failed to store result", "error", setErr)
		}
	}

	if ctx.Err() != nil {
		e.metrics.runFinished(RunStatusCancelled)
		log.Info("optimization cancelled")
		e.notify(runID)
		return
	}

	if err != nil {
		log.Error("optimization failed", "error", err)
		if _, setErr := e.store.SetStatus(runID, RunStatusFailed, err.Error()); setErr != nil {
			log.Error("failed to set failed status", "error", setErr)
		}
		e.metrics.runFinished(RunStatusFailed)
		e.notify(runID)
		return
	}

	rec, err := e.store.SetStatus(runID, RunStatusCompleted, "")
	if err != nil {
		log.Error("failed to set completed status", "error", err)
		e.metrics.runFinished(RunStatusCancelled)
		return
	}
	e.metrics.runFinished(RunStatusCompleted)
	log.Info("run completed",
		"best_cost", res.BestCost,
		"valid", res.Valid,
		"generations", res.Generations,
		"reason", res.Reason)

	e.archiveRun(rec, log)
	e.notify(runID)
}

func (e *RunExecutor) runUserOp(ctx context.Context, cfg *config.Config, progress evolution.ProgressReporter, log *slog.Logger) (*RunResult, error) {
	problem, err := userop.ProblemFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	params, err := evolution.ParamsFromConfig(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	opt, err := userop.NewOptimizer(problem, params)
	if err != nil {
		return nil, err
	}

	r, err := opt.WithProgressReporter(progress).WithMetrics(e.metrics.optimizer()).WithLogger(log).Run(ctx)
	if r == nil {
		return nil, err
	}
	out, encErr := newRunResult(cfg.Variant, r)
	if encErr != nil {
		return nil, encErr
	}
	op := userop.ToUserOperation(r.Best.Genome, cfg.BatchMultiplier)
	gas := userop.ToGasOutput(r.Best.Evaluation)
	out.UserOperation = &op
	out.GasOutput = &gas
	return out, err
}

func (e *RunExecutor) runBundler(ctx context.Context, cfg *config.Config, progress evolution.ProgressReporter, log *slog.Logger) (*RunResult, error) {
	problem, err := bundler.ProblemFromConfig(cfg.Bundler)
	if err != nil {
		return nil, err
	}
	params, err := evolution.ParamsFromConfig(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	opt, err := bundler.NewOptimizer(problem, params)
	if err != nil {
		return nil, err
	}

	r, err := opt.WithProgressReporter(progress).WithMetrics(e.metrics.optimizer()).WithLogger(log).Run(ctx)
	if r == nil {
		return nil, err
	}
	out, encErr := newRunResult(cfg.Variant, r)
	if encErr != nil {
		return nil, encErr
	}
	return out, err
}

func newRunResult[G any](variant string, r *evolution.Result[G]) (*RunResult, error) {
	genome, err := json.Marshal(r.Best.Genome)
	if err != nil {
		return nil, fmt.Errorf("failed to encode genome: %w", err)
	}
	return &RunResult{
		Variant:     variant,
		Seed:        r.Seed,
		Generations: r.Generations,
		Converged:   r.Converged,
		Reason:      r.Reason,
		Evaluations: r.Evaluations,
		DurationMs:  r.Duration.Milliseconds(),
		BestCost:    r.Best.Cost,
		Valid:       r.Best.Valid,
		Genome:      genome,
		History:     r.History,
	}, nil
}

func (e *RunExecutor) archiveRun(rec RunRecord, log *slog.Logger) {
	if e.archive == nil || rec.Result == nil {
		return
	}
	res := rec.Result
	ar := archive.RunRecord{
		ID:            rec.Run.ID,
		Variant:       res.Variant,
		Status:        string(rec.Run.Status),
		CreatedAt:     time.UnixMilli(rec.Run.CreatedAtUnixMs).UTC(),
		CompletedAt:   time.UnixMilli(rec.Run.EndedAtUnixMs).UTC(),
		Seed:          res.Seed,
		Generations:   res.Generations,
		Evaluations:   res.Evaluations,
		Converged:     res.Converged,
		Reason:        res.Reason,
		BestCost:      res.BestCost,
		Valid:         res.Valid,
		Genome:        res.Genome,
		UserOperation: res.UserOperation,
		GasOutput:     res.GasOutput,
		ConfigYAML:    rec.Input.ConfigYAML,
	}
	if err := e.archive.PutRun(ar); err != nil {
		log.Error("failed to archive run", "error", err)
	}
}

func (e *RunExecutor) notify(runID string) {
	if e.notifier == nil {
		return
	}
	if rec, ok := e.store.Get(runID); ok {
		e.notifier.Notify(rec)
	}
}
