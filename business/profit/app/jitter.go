package app

import "math/rand/v2"

// JitterSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type JitterSource interface {
	Float64() float64
}

// JitterFactory returns the jitter source for the candidate at index.
type JitterFactory func(index int) JitterSource

// NewSeededJitter returns a deterministic source for seed.
func NewSeededJitter(seed int64) JitterSource {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// SeededJitterFactory derives one independent stream per index from seed, so
// results do not depend on evaluation order.
func SeededJitterFactory(seed int64) JitterFactory {
	return func(index int) JitterSource {
		return rand.New(rand.NewPCG(uint64(seed), uint64(index)+1))
	}
}

// NoJitter disables jitter for every index.
func NoJitter(int) JitterSource {
	return nil
}
