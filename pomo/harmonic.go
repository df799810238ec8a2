package pomo

import "github.com/gonum/mathext"

const (
	// eulerGamma is the Euler-Mascheroni constant.
	eulerGamma = 0.57721566490153286060651209008240243104215933593992
	// harmonic numbers above this are computed using digamma.
	harmonicExactMax = 64
)

// harmonic returns the n-th harmonic number 1 + 1/2 + ... + 1/n,
// H(0) = 0.
func harmonic(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n > harmonicExactMax {
		return mathext.Digamma(float64(n)+1) + eulerGamma
	}
	h := 0.0
	for i := 1; i <= n; i++ {
		h += 1 / float64(i)
	}
	return h
}
