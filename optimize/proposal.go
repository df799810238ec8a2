package optimize

import (
	"math/rand"
)

// Proposal returns a new value given the current one.
type Proposal func(x float64, rng *rand.Rand) float64

// NormalProposal returns normal proposal function.
func NormalProposal(sd float64) Proposal {
	if sd <= 0 {
		panic("sd should be > 0")
	}
	return func(x float64, rng *rand.Rand) float64 {
		return x + rng.NormFloat64()*sd
	}
}

// UniformProposal returns a proposal uniform in [x-width/2,
// x+width/2].
func UniformProposal(width float64) Proposal {
	if width <= 0 {
		panic("width should be > 0")
	}
	return func(x float64, rng *rand.Rand) float64 {
		return x + (rng.Float64()-0.5)*width
	}
}
