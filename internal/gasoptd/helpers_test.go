package gasoptd

import (
	"testing"
	"time"
)

const quickConfig = `
algorithm:
  population_size: 20
  max_generations: 5
  seed: 7
`

const bundlerConfig = `
variant: bundler
algorithm:
  population_size: 20
  max_generations: 10
  seed: 3
bundler:
  min_batch_size: 5
  max_batch_size: 50
  pending_ops: 100
`

// endlessConfig runs until it is stopped
const endlessConfig = `
algorithm:
  population_size: 30
  max_generations: 100000000
  max_stagnant_generations: 0
  seed: 1
`

func waitForStatus(t *testing.T, store *RunStore, runID string, want RunStatus) RunRecord {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := store.Get(runID)
		if !ok {
			t.Fatalf("run %s disappeared", runID)
		}
		if rec.Run.Status == want {
			return rec
		}
		if rec.Run.Status.Terminal() {
			t.Fatalf("run %s reached %s (error %q), want %s", runID, rec.Run.Status, rec.Run.Error, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for run %s to reach %s", runID, want)
	return RunRecord{}
}

func waitForProgress(t *testing.T, store *RunStore, runID string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if rec, ok := store.Get(runID); ok && rec.Progress != nil && rec.Progress.Generation > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for progress on run %s", runID)
}
