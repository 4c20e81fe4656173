package archive

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/sweep"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/models"
)

// SweepSink stores the summary rows of every sweep it receives
type SweepSink struct {
	store *Store
}

var _ sweep.Sink = (*SweepSink)(nil)

// NewSweepSink creates a sink writing into store
func NewSweepSink(store *Store) *SweepSink {
	return &SweepSink{store: store}
}

// WriteSweep implements sweep.Sink
func (s *SweepSink) WriteSweep(ctx context.Context, res *sweep.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([]models.SweepRow, len(res.Outcomes))
	for i, o := range res.Outcomes {
		rows[i] = o.Row()
	}
	if err := s.store.PutSweepRows(res.SweepID, rows); err != nil {
		return fmt.Errorf("failed to archive sweep %s: %w", res.SweepID, err)
	}
	return nil
}
