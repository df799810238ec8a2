package pomo

import "math"

// samplingCorrection relates the level of polymorphism at boundary
// mutation equilibrium to theta: 1 for sampling without replacement,
// (N-1)/N for sampling with replacement (not used).
const samplingCorrection = 1.0

// normalizeMutationRates reads the mutation model rates and scales
// them so that the level of polymorphism matches theta.
func (m *Model) normalizeMutationRates() error {
	const n = nAlleles
	pi := m.BoundaryFreq()
	m.mutationQMatrix(m.mut)
	for j := 0; j < n; j++ {
		if pi[j] <= 0 {
			return newError(InvalidParameter, "boundary frequency of %c is %v", "ACGT"[j], pi[j])
		}
		for i := 0; i < n; i++ {
			m.mut[i*n+j] /= pi[j]
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.sym[i*n+j] = (m.mut[i*n+j] + m.mut[j*n+i]) / 2
		}
	}
	if m.reversibility == NonReversible {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					m.asy[i*n+j] = 0
					continue
				}
				m.asy[i*n+j] = (m.mut[i*n+j] - m.mut[j*n+i]) / 2
			}
		}
	}

	h := harmonic(m.n - 1)
	thetaBM := m.polyMass() / h
	denom := thetaBM * (samplingCorrection - h*m.theta)
	if m.theta <= 0 || denom <= 0 || math.IsNaN(denom) {
		return newError(InvalidParameter, "cannot scale mutation rates to theta=%v (N=%d)", m.theta, m.n)
	}
	norm := m.theta / denom
	m.debugf("Normalization constant of mutation rates: %v", norm)
	m.scaleMutationRates(norm)
	m.computeStateFreq()
	return nil
}

// scaleMutationRates multiplies m, r and f by scale.
func (m *Model) scaleMutationRates(scale float64) {
	for i := range m.mut {
		m.mut[i] *= scale
		m.sym[i] *= scale
		m.asy[i] *= scale
	}
}

// ScaleMutationRates scales the mutation rates and rebuilds the rate
// matrix and its decomposition.
func (m *Model) ScaleMutationRates(scale float64) error {
	m.scaleMutationRates(scale)
	return m.decomposeRateMatrix()
}

// polyMass returns the unnormalized total frequency of polymorphic
// states, sum_{i>j} 2 pi_i pi_j r_ij H(N-1).
func (m *Model) polyMass() float64 {
	pi := m.BoundaryFreq()
	s := 0.0
	for i := 0; i < nAlleles; i++ {
		for j := 0; j < i; j++ {
			s += 2 * pi[i] * pi[j] * m.sym[i*nAlleles+j]
		}
	}
	return s * harmonic(m.n-1)
}
