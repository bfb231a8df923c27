package animation

import (
	"math/rand/v2"
	"time"
)

// Random is the source of blink and eye-dart randomness.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// NewRandom returns a PCG-backed Random. A zero seed draws one from the clock.
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

func uniform(r Random, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// intRange draws uniformly from [lo, hi] inclusive.
func intRange(r Random, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}
