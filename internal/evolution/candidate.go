package evolution

import (
	"sort"
)

// Candidate is one point in parameter space together with its evaluation
type Candidate[G any] struct {
	Genome G `json:"genome"`
	Evaluation
}

// Population is the ordered set of candidates of one generation
type Population[G any] []Candidate[G]

// BestIndex returns the index of the lowest-cost candidate.
// Ties go to the first candidate in population order. Returns -1 when empty.
func (p Population[G]) BestIndex() int {
	best := -1
	for i := range p {
		if best < 0 || p[i].Cost < p[best].Cost {
			best = i
		}
	}
	return best
}

// Best returns the lowest-cost candidate and false when the population is empty
func (p Population[G]) Best() (Candidate[G], bool) {
	i := p.BestIndex()
	if i < 0 {
		var zero Candidate[G]
		return zero, false
	}
	return p[i], true
}

// Costs returns the cost of every candidate in population order
func (p Population[G]) Costs() []float64 {
	costs := make([]float64, len(p))
	for i := range p {
		costs[i] = p[i].Cost
	}
	return costs
}

// Ranked returns candidate indices sorted by ascending cost, stable on ties
func (p Population[G]) Ranked() []int {
	order := make([]int, len(p))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p[order[a]].Cost < p[order[b]].Cost
	})
	return order
}

// Clone deep-copies the population using the problem's genome clone
func (p Population[G]) Clone(clone func(G) G) Population[G] {
	out := make(Population[G], len(p))
	for i := range p {
		out[i] = Candidate[G]{Genome: clone(p[i].Genome), Evaluation: p[i].Evaluation}
	}
	return out
}

// ValidCount returns the number of valid candidates
func (p Population[G]) ValidCount() int {
	n := 0
	for i := range p {
		if p[i].Valid {
			n++
		}
	}
	return n
}

// GenerationStats summarizes one generation
type GenerationStats struct {
	Generation int     `json:"generation"`
	BestCost   float64 `json:"bestCost"`
	BestSoFar  float64 `json:"bestSoFar"`
	MeanCost   float64 `json:"meanCost"`
	ValidCount int     `json:"validCount"`
	Size       int     `json:"size"`
}

// Stats computes the per-generation summary; bestSoFar is supplied by the caller
func (p Population[G]) Stats(generation int, bestSoFar float64) GenerationStats {
	s := GenerationStats{Generation: generation, BestSoFar: bestSoFar, Size: len(p)}
	if len(p) == 0 {
		return s
	}
	sum := 0.0
	for i := range p {
		sum += p[i].Cost
	}
	s.MeanCost = sum / float64(len(p))
	s.BestCost = p[p.BestIndex()].Cost
	s.ValidCount = p.ValidCount()
	return s
}
