package gasoptd

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
	ErrRunExists    = errors.New("run already exists")

	// ErrRunStatusChanged is returned by SetStatusIf when the run has left the expected status
	ErrRunStatusChanged = errors.New("run status changed")
)

// RunStore keeps run records in memory. Readers receive copies; the
// Progress and Result pointers are replaced on update, never mutated.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*RunRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create registers a PENDING run; an empty runID gets a generated one
func (s *RunStore) Create(runID string, input RunInput) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	rec := &RunRecord{
		Run: Run{
			ID:              runID,
			Status:          RunStatusPending,
			CreatedAtUnixMs: nowUnixMs(),
		},
		Input: input,
	}
	s.runs[runID] = rec
	return *rec, nil
}

func (s *RunStore) Get(runID string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// List returns up to limit runs, newest first
func (s *RunStore) List(limit int) []RunRecord {
	return s.ListFiltered(limit, 0, "")
}

// ListFiltered returns runs newest first, optionally filtered by status
func (s *RunStore) ListFiltered(limit, offset int, status RunStatus) []RunRecord {
	s.mu.RLock()
	all := make([]RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		if status != "" && rec.Run.Status != status {
			continue
		}
		all = append(all, *rec)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Run.CreatedAtUnixMs != all[j].Run.CreatedAtUnixMs {
			return all[i].Run.CreatedAtUnixMs > all[j].Run.CreatedAtUnixMs
		}
		return all[i].Run.ID < all[j].Run.ID
	})

	if limit <= 0 {
		limit = 50
	}
	if offset >= len(all) {
		return []RunRecord{}
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SetStatus moves a run to status. Terminal runs never change again.
func (s *RunStore) SetStatus(runID string, status RunStatus, errMsg string) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status.Terminal() {
		return *rec, fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.Run.Status)
	}
	return s.transition(rec, status, errMsg), nil
}

// SetStatusIf moves a run from one status to another in a single step.
// The current record is returned with ErrRunStatusChanged when the run is not in from.
func (s *RunStore) SetStatusIf(runID string, from, to RunStatus) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.Run.Status != from {
		return *rec, fmt.Errorf("%w: %s is %s, not %s", ErrRunStatusChanged, runID, rec.Run.Status, from)
	}
	return s.transition(rec, to, ""), nil
}

// transition must be called with s.mu held
func (s *RunStore) transition(rec *RunRecord, status RunStatus, errMsg string) RunRecord {
	rec.Run.Status = status
	if errMsg != "" {
		rec.Run.Error = errMsg
	}

	switch {
	case status == RunStatusRunning:
		if rec.Run.StartedAtUnixMs == 0 {
			rec.Run.StartedAtUnixMs = nowUnixMs()
		}
	case status.Terminal():
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}
	return *rec
}

// SetProgress records the latest generation summary of a run
func (s *RunStore) SetProgress(runID string, stats evolution.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.Progress = &stats
	return nil
}

// SetResult records the outcome of a run
func (s *RunStore) SetResult(runID string, result *RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.Result = result
	return nil
}
