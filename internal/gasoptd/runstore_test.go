package gasoptd

import (
	"errors"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/evolution"
)

func TestRunStoreCreate(t *testing.T) {
	store := NewRunStore()

	rec, err := store.Create("", RunInput{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !strings.HasPrefix(rec.Run.ID, "run-") {
		t.Fatalf("expected generated run id, got %q", rec.Run.ID)
	}
	if rec.Run.Status != RunStatusPending || rec.Run.CreatedAtUnixMs == 0 {
		t.Fatalf("unexpected new run %+v", rec.Run)
	}

	if _, err := store.Create("fixed", RunInput{ConfigYAML: quickConfig}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := store.Create("fixed", RunInput{}); !errors.Is(err, ErrRunExists) {
		t.Fatalf("expected ErrRunExists, got %v", err)
	}

	got, ok := store.Get("fixed")
	if !ok || got.Input.ConfigYAML != quickConfig {
		t.Fatalf("expected stored input, got %+v", got)
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatalf("expected missing run to be absent")
	}
}

func TestRunStoreStatusTransitions(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("r1", RunInput{}); err != nil {
		t.Fatal(err)
	}

	running, err := store.SetStatus("r1", RunStatusRunning, "")
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if running.Run.StartedAtUnixMs == 0 || running.Run.EndedAtUnixMs != 0 {
		t.Fatalf("unexpected timestamps after start: %+v", running.Run)
	}

	failed, err := store.SetStatus("r1", RunStatusFailed, "boom")
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if failed.Run.EndedAtUnixMs == 0 || failed.Run.Error != "boom" {
		t.Fatalf("unexpected failed run: %+v", failed.Run)
	}

	if _, err := store.SetStatus("r1", RunStatusCompleted, ""); !errors.Is(err, ErrRunTerminal) {
		t.Fatalf("expected ErrRunTerminal, got %v", err)
	}
	if rec, _ := store.Get("r1"); rec.Run.Status != RunStatusFailed {
		t.Fatalf("terminal status changed to %s", rec.Run.Status)
	}

	if _, err := store.SetStatus("missing", RunStatusRunning, ""); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunStoreSetStatusIf(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("r1", RunInput{}); err != nil {
		t.Fatal(err)
	}

	rec, err := store.SetStatusIf("r1", RunStatusPending, RunStatusRunning)
	if err != nil {
		t.Fatalf("SetStatusIf error: %v", err)
	}
	if rec.Run.Status != RunStatusRunning || rec.Run.StartedAtUnixMs == 0 {
		t.Fatalf("unexpected run after transition: %+v", rec.Run)
	}

	rec, err = store.SetStatusIf("r1", RunStatusPending, RunStatusRunning)
	if !errors.Is(err, ErrRunStatusChanged) {
		t.Fatalf("expected ErrRunStatusChanged, got %v", err)
	}
	if rec.Run.Status != RunStatusRunning {
		t.Fatalf("expected the current record with the error, got %s", rec.Run.Status)
	}

	if _, err := store.SetStatusIf("missing", RunStatusPending, RunStatusRunning); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunStoreListFiltered(t *testing.T) {
	store := NewRunStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := store.Create(id, RunInput{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.SetStatus("b", RunStatusCancelled, ""); err != nil {
		t.Fatal(err)
	}

	all := store.List(0)
	if len(all) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Run.CreatedAtUnixMs < all[i].Run.CreatedAtUnixMs {
			t.Fatalf("runs not ordered newest first")
		}
	}

	if page := store.ListFiltered(2, 1, ""); len(page) != 2 || page[0].Run.ID != all[1].Run.ID {
		t.Fatalf("unexpected page %+v", page)
	}
	if page := store.ListFiltered(10, 10, ""); len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(page))
	}

	cancelled := store.ListFiltered(10, 0, RunStatusCancelled)
	if len(cancelled) != 1 || cancelled[0].Run.ID != "b" {
		t.Fatalf("unexpected status filter result %+v", cancelled)
	}
}

func TestRunStoreProgressAndResult(t *testing.T) {
	store := NewRunStore()
	if _, err := store.Create("r1", RunInput{}); err != nil {
		t.Fatal(err)
	}

	before, _ := store.Get("r1")
	if err := store.SetProgress("r1", evolution.GenerationStats{Generation: 3, BestSoFar: 0.5}); err != nil {
		t.Fatalf("SetProgress error: %v", err)
	}
	if before.Progress != nil {
		t.Fatalf("earlier copies must not observe later progress")
	}
	rec, _ := store.Get("r1")
	if rec.Progress == nil || rec.Progress.Generation != 3 {
		t.Fatalf("unexpected progress %+v", rec.Progress)
	}

	if err := store.SetResult("r1", &RunResult{BestCost: 0.25}); err != nil {
		t.Fatalf("SetResult error: %v", err)
	}
	if rec, _ := store.Get("r1"); rec.Result == nil || rec.Result.BestCost != 0.25 {
		t.Fatalf("unexpected result %+v", rec.Result)
	}

	if err := store.SetProgress("missing", evolution.GenerationStats{}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.SetResult("missing", nil); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestParseRunStatus(t *testing.T) {
	tests := []struct {
		in   string
		want RunStatus
	}{
		{"pending", RunStatusPending},
		{"RUNNING", RunStatusRunning},
		{"Completed", RunStatusCompleted},
		{"failed", RunStatusFailed},
		{"cancelled", RunStatusCancelled},
		{"bogus", ""},
	}
	for _, tt := range tests {
		if got := ParseRunStatus(tt.in); got != tt.want {
			t.Errorf("ParseRunStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
