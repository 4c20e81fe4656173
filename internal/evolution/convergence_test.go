package evolution

import (
	"strings"
	"testing"
)

func history(bestSoFar ...float64) []GenerationStats {
	h := make([]GenerationStats, len(bestSoFar))
	for i, b := range bestSoFar {
		h[i] = GenerationStats{Generation: i, BestSoFar: b, BestCost: b}
	}
	return h
}

func TestNoImprovementStrategy(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		history []GenerationStats
		want    bool
	}{
		{"disabled", 0, history(5, 5, 5, 5), false},
		{"empty", 3, nil, false},
		{"still improving", 3, history(5, 4, 3, 2), false},
		{"two stagnant", 3, history(5, 4, 4, 4), false},
		{"three stagnant", 3, history(5, 4, 4, 4, 4), true},
		{"stagnant from start", 2, history(1, 1, 1), true},
		{"improvement resets", 2, history(3, 3, 2, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewNoImprovementStrategy(tt.limit)
			got, reason := s.CheckConvergence(tt.history)
			if got != tt.want {
				t.Fatalf("CheckConvergence = %v (%s), want %v", got, reason, tt.want)
			}
			if got && !strings.Contains(reason, "no improvement") {
				t.Fatalf("unexpected reason %q", reason)
			}
		})
	}
}

func TestCombinedStrategy(t *testing.T) {
	s := NewCombinedStrategy(NewNoImprovementStrategy(10))
	if converged, _ := s.CheckConvergence(history(5, 4, 0.5)); converged {
		t.Fatalf("should not converge before target strategy is added")
	}
	s.AddStrategy(NewTargetCostStrategy(1))
	converged, reason := s.CheckConvergence(history(5, 4, 0.5))
	if !converged {
		t.Fatalf("expected convergence on target cost")
	}
	if !strings.HasPrefix(reason, "target_cost:") {
		t.Fatalf("expected reason to name the strategy, got %q", reason)
	}
}
