package evolution

import (
	"testing"

	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/utils"
)

func population(costs ...float64) Population[int64] {
	pop := make(Population[int64], len(costs))
	for i, c := range costs {
		pop[i] = Candidate[int64]{Genome: int64(i), Evaluation: Evaluation{Valid: c < PenaltyCost, Cost: c}}
	}
	return pop
}

func TestPopulationBestFirstEncounteredTie(t *testing.T) {
	pop := population(5, 2, 9, 2, 3)
	if got := pop.BestIndex(); got != 1 {
		t.Fatalf("expected first minimum at index 1, got %d", got)
	}
	best, ok := pop.Best()
	if !ok || best.Genome != 1 {
		t.Fatalf("expected genome 1, got %v (ok=%v)", best.Genome, ok)
	}

	if _, ok := (Population[int64]{}).Best(); ok {
		t.Fatalf("empty population should report no best")
	}
}

func TestPopulationRankedIsStable(t *testing.T) {
	pop := population(3, 1, 3, 1, 0)
	want := []int{4, 1, 3, 0, 2}
	got := pop.Ranked()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ranked() = %v, want %v", got, want)
		}
	}
}

func TestPopulationStats(t *testing.T) {
	pop := population(1, 3, PenaltyCost)
	s := pop.Stats(4, 0.5)
	if s.Generation != 4 || s.BestSoFar != 0.5 {
		t.Fatalf("unexpected header fields: %+v", s)
	}
	if s.BestCost != 1 {
		t.Fatalf("expected best cost 1, got %f", s.BestCost)
	}
	if s.ValidCount != 2 {
		t.Fatalf("expected 2 valid, got %d", s.ValidCount)
	}
	if want := (1 + 3 + PenaltyCost) / 3; s.MeanCost != want {
		t.Fatalf("expected mean %f, got %f", want, s.MeanCost)
	}
}

func TestPopulationCloneIsIndependent(t *testing.T) {
	pop := population(1, 2)
	cp := pop.Clone(func(g int64) int64 { return g })
	cp[0].Cost = 100
	if pop[0].Cost != 1 {
		t.Fatalf("clone shares storage with original")
	}
}

func TestTournamentFullSizePicksFirstBest(t *testing.T) {
	pop := population(4, 1, 7, 1)
	rng := utils.NewRandSource(3)
	for i := 0; i < 20; i++ {
		if got := tournament(rng, pop, len(pop)); got != 1 {
			t.Fatalf("full tournament should return index 1, got %d", got)
		}
	}
}

func TestTournamentPrefersCheaper(t *testing.T) {
	pop := population(10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	rng := utils.NewRandSource(1)
	wins := make([]int, len(pop))
	for i := 0; i < 2000; i++ {
		wins[tournament(rng, pop, 3)]++
	}
	// with size 3 without replacement the two costliest members can never win
	if wins[0] != 0 || wins[1] != 0 {
		t.Fatalf("costliest members won tournaments: %v", wins)
	}
	if wins[9] <= wins[5] {
		t.Fatalf("cheapest member should win most often: %v", wins)
	}
}
