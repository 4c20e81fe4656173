package evolution

import "fmt"

// ConvergenceStrategy decides whether a run should stop early
type ConvergenceStrategy interface {
	// CheckConvergence inspects the generation history recorded so far
	CheckConvergence(history []GenerationStats) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// NoImprovementStrategy stops a run once the best-so-far cost has not improved
// for a fixed number of consecutive generations
type NoImprovementStrategy struct {
	limit int
}

// NewNoImprovementStrategy creates a stagnation check; limit <= 0 never converges
func NewNoImprovementStrategy(limit int) *NoImprovementStrategy {
	return &NoImprovementStrategy{limit: limit}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []GenerationStats) (bool, string) {
	if s.limit <= 0 || len(history) == 0 {
		return false, ""
	}

	bestIdx := 0
	for i, step := range history {
		if step.BestSoFar < history[bestIdx].BestSoFar {
			bestIdx = i
		}
	}

	since := len(history) - 1 - bestIdx
	if since >= s.limit {
		return true, fmt.Sprintf("no improvement for %d generations (best at generation %d)",
			since, history[bestIdx].Generation)
	}
	return false, ""
}

// CombinedStrategy converges when any member strategy converges
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy creates a strategy over the given members
func NewCombinedStrategy(strategies ...ConvergenceStrategy) *CombinedStrategy {
	return &CombinedStrategy{strategies: strategies}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(history []GenerationStats) (bool, string) {
	for _, strategy := range s.strategies {
		if converged, reason := strategy.CheckConvergence(history); converged {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), reason)
		}
	}
	return false, ""
}

// AddStrategy adds a member strategy
func (s *CombinedStrategy) AddStrategy(strategy ConvergenceStrategy) {
	s.strategies = append(s.strategies, strategy)
}

// TargetCostStrategy stops a run once the best-so-far cost reaches a target
type TargetCostStrategy struct {
	target float64
}

// NewTargetCostStrategy creates a strategy converging at or below target
func NewTargetCostStrategy(target float64) *TargetCostStrategy {
	return &TargetCostStrategy{target: target}
}

func (s *TargetCostStrategy) Name() string {
	return "target_cost"
}

func (s *TargetCostStrategy) CheckConvergence(history []GenerationStats) (bool, string) {
	if len(history) == 0 {
		return false, ""
	}
	last := history[len(history)-1]
	if last.BestSoFar <= s.target {
		return true, fmt.Sprintf("best cost %.8f reached target %.8f", last.BestSoFar, s.target)
	}
	return false, ""
}
