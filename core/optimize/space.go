package optimize

import (
	"math/rand"

	"github.com/kilianp07/ehsim/core/problem"
)

// Space creates and perturbs candidate vectors of a fixed length.
type Space[S problem.Vector] interface {
	Len() int
	Random(rng *rand.Rand) S
	// Neighbour returns a mutated copy of s; s is left unchanged.
	Neighbour(rng *rand.Rand, s S) S
}

// BitSpace holds binary vectors mutated by bit flips.
type BitSpace struct {
	N int
	// Rate is the per-bit flip probability, 1/N when zero. At least one bit
	// is always flipped.
	Rate float64
}

func (b BitSpace) Len() int { return b.N }

func (b BitSpace) Random(rng *rand.Rand) []bool {
	s := make([]bool, b.N)
	for i := range s {
		s[i] = rng.Intn(2) == 1
	}
	return s
}

func (b BitSpace) Neighbour(rng *rand.Rand, s []bool) []bool {
	out := append([]bool(nil), s...)
	if len(out) == 0 {
		return out
	}
	rate := b.Rate
	if rate <= 0 {
		rate = 1 / float64(len(out))
	}
	flipped := false
	for i := range out {
		if rng.Float64() < rate {
			out[i] = !out[i]
			flipped = true
		}
	}
	if !flipped {
		i := rng.Intn(len(out))
		out[i] = !out[i]
	}
	return out
}

// GaussSpace holds real vectors in [0,1] mutated by Gaussian noise.
type GaussSpace struct {
	N int
	// Sigma is the noise standard deviation, 0.1 when zero.
	Sigma float64
	// Rate is the per-gene mutation probability, 1/N when zero.
	Rate float64
}

func (g GaussSpace) Len() int { return g.N }

func (g GaussSpace) Random(rng *rand.Rand) []float64 {
	s := make([]float64, g.N)
	for i := range s {
		s[i] = rng.Float64()
	}
	return s
}

func (g GaussSpace) Neighbour(rng *rand.Rand, s []float64) []float64 {
	out := append([]float64(nil), s...)
	if len(out) == 0 {
		return out
	}
	sigma, rate := g.Sigma, g.Rate
	if sigma <= 0 {
		sigma = 0.1
	}
	if rate <= 0 {
		rate = 1 / float64(len(out))
	}
	mutated := false
	for i := range out {
		if rng.Float64() < rate {
			out[i] = unit(out[i] + rng.NormFloat64()*sigma)
			mutated = true
		}
	}
	if !mutated {
		i := rng.Intn(len(out))
		out[i] = unit(out[i] + rng.NormFloat64()*sigma)
	}
	return out
}

func unit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
