package evolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Evaluation outcomes, used as metric labels
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// EvaluationError describes a failure while costing a genome.
// It never escapes the optimizer; the candidate receives the penalty cost.
type EvaluationError struct {
	Cause   error
	Timeout bool
	Panic   any
}

func (e *EvaluationError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("evaluation timed out: %v", e.Cause)
	case e.Panic != nil:
		return fmt.Sprintf("evaluation panicked: %v", e.Panic)
	default:
		return fmt.Sprintf("evaluation failed: %v", e.Cause)
	}
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// evaluator is the boundary between the optimizer and a problem's Evaluate.
// Whatever happens inside Evaluate, it yields a rankable Evaluation.
type evaluator[G any] struct {
	problem     Problem[G]
	timeout     time.Duration
	parallelism int
	log         *slog.Logger
	metrics     *Metrics
}

// safeEvaluate calls Evaluate, recovering panics and rejecting ill-formed costs
func (e *evaluator[G]) safeEvaluate(ctx context.Context, g G) (ev Evaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			ev = Penalty()
			err = &EvaluationError{Cause: fmt.Errorf("panic: %v", r), Panic: r}
		}
	}()

	ev, err = e.problem.Evaluate(ctx, g)
	if err != nil {
		return Penalty(), &EvaluationError{Cause: err}
	}
	if !ev.wellFormed() {
		return Penalty(), &EvaluationError{Cause: fmt.Errorf("ill-formed cost %v", ev.Cost)}
	}
	if !ev.Valid {
		return Penalty(), nil
	}
	return ev, nil
}

// withTimeout runs safeEvaluate under the per-evaluation deadline
func (e *evaluator[G]) withTimeout(ctx context.Context, g G) (Evaluation, error) {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		ev  Evaluation
		err error
	}
	done := make(chan result, 1)
	genome := e.problem.Clone(g)
	go func() {
		ev, err := e.safeEvaluate(tctx, genome)
		done <- result{ev: ev, err: err}
	}()

	select {
	case r := <-done:
		return r.ev, r.err
	case <-tctx.Done():
		return Penalty(), &EvaluationError{
			Cause:   tctx.Err(),
			Timeout: errors.Is(tctx.Err(), context.DeadlineExceeded),
		}
	}
}

// evaluate costs one genome and records the outcome
func (e *evaluator[G]) evaluate(ctx context.Context, g G) Evaluation {
	var (
		ev  Evaluation
		err error
	)
	if e.timeout > 0 {
		ev, err = e.withTimeout(ctx, g)
	} else {
		ev, err = e.safeEvaluate(ctx, g)
	}

	outcome := OutcomeValid
	var evalErr *EvaluationError
	switch {
	case errors.As(err, &evalErr) && evalErr.Timeout:
		outcome = OutcomeTimeout
		e.log.Warn("evaluation timed out", "timeout", e.timeout, "genome", g)
	case err != nil:
		outcome = OutcomeFailed
		e.log.Warn("evaluation failed", "error", err, "genome", g)
	case !ev.Valid:
		outcome = OutcomeInvalid
		e.log.Debug("candidate invalid", "genome", g)
	}
	e.metrics.observeEvaluation(outcome)
	return ev
}

// evaluateAll costs every genome. Results are written by index, so the
// returned population order never depends on scheduling. Once ctx is done the
// remaining genomes are not evaluated: they keep the penalty and evaluateAll
// returns ctx.Err() alongside the complete population.
func (e *evaluator[G]) evaluateAll(ctx context.Context, genomes []G) (Population[G], error) {
	pop := make(Population[G], len(genomes))
	for i, g := range genomes {
		pop[i] = Candidate[G]{Genome: g, Evaluation: Penalty()}
	}

	if e.parallelism <= 1 || len(genomes) < 2 {
		for i, g := range genomes {
			if err := ctx.Err(); err != nil {
				return pop, err
			}
			pop[i].Evaluation = e.evaluate(ctx, g)
		}
		return pop, nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelism)
	for i, g := range genomes {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pop[i].Evaluation = e.evaluate(gctx, g)
			return nil
		})
	}
	return pop, eg.Wait()
}
