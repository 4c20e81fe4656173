package utils

import (
	"math/rand"
	"time"
)

// RandSource is a seeded random number generator owned by a single optimizer run.
// It is not safe for concurrent use; every run threads its own instance.
type RandSource struct {
	seed int64
	rng  *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// Every seed, including zero, yields a reproducible sequence.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// TimeSeed returns a seed derived from the wall clock, for runs that do not pin one
func TimeSeed() int64 {
	return time.Now().UnixNano()
}

// Seed returns the seed the source was created with
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntRange returns a uniformly distributed int64 in the inclusive range [min, max]
func (r *RandSource) IntRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + r.rng.Int63n(max-min+1)
}

// UniformFloat64 returns a uniformly distributed random number in [min, max)
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// BernoulliBool returns true with probability p, false otherwise
func (r *RandSource) BernoulliBool(p float64) bool {
	return r.rng.Float64() < p
}

// Sample returns k distinct indices drawn from [0, n) in draw order.
// It runs a partial Fisher-Yates shuffle so only k swaps are performed.
func (r *RandSource) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + r.rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
