package pomo

import (
	"fmt"

	"github.com/gonum/blas/blas64"
)

// computeStateFreq computes the stationary frequencies from the
// boundary frequencies and the calibrated mutation rates.
func (m *Model) computeStateFreq() {
	pi := m.BoundaryFreq()
	norm := 0.0
	for _, f := range pi {
		norm += f
	}
	norm = 1 / (norm + m.polyMass())
	n := float64(m.n)
	for st, d := range m.dec {
		if d.nt2 < 0 {
			m.stateFreq[st] = pi[st] * norm
			continue
		}
		i := float64(d.count)
		r := m.sym[d.nt1*nAlleles+d.nt2]
		f := m.asy[d.nt1*nAlleles+d.nt2]
		m.stateFreq[st] = norm * pi[d.nt1] * pi[d.nt2] *
			(r*(1/i+1/(n-i)) - f*(1/i-1/(n-i)))
	}
}

// mutationCoefficient returns the calibrated mutation rate from a to
// b.
func (m *Model) mutationCoefficient(a, b int) float64 {
	return m.mut[a*nAlleles+b]
}

// transitionRate returns the rate from s1 to s2 before the rate
// matrix normalization. Drift moves the allele count by one;
// mutation moves a boundary state to a polymorphic state with a
// single copy of the new allele.
func (m *Model) transitionRate(s1, s2 int) float64 {
	if s1 == s2 {
		panic(fmt.Sprintf("transition rate requested for the same state %d", s1))
	}
	d1, d2 := m.dec[s1], m.dec[s2]
	i1, nt1, nt2 := d1.count, d1.nt1, d1.nt2
	i2, nt3, nt4 := d2.count, d2.nt1, d2.nt2
	pi := m.BoundaryFreq()
	drift := float64(i1*(m.n-i1)) / float64(m.n)

	switch {
	case nt1 == nt3 && (nt2 == nt4 || nt2 < 0 || nt4 < 0):
		switch i2 {
		case i1 + 1:
			// 2A8C -> 3A7C, 9A1C -> 10A
			return drift
		case i1 - 1:
			if nt2 < 0 {
				// 10A -> 9A1C
				return m.mutationCoefficient(nt1, nt4) * pi[nt4]
			}
			// 3A7C -> 2A8C
			return drift
		}
		return 0
	case nt1 == nt4 && nt2 < 0 && i2 == 1:
		// 10G -> 1A9G
		return m.mutationCoefficient(nt1, nt3) * pi[nt3]
	case nt2 == nt3 && i1 == 1 && nt4 < 0:
		// 1A9G -> 10G
		return drift
	}
	return 0
}

// buildRateMatrix computes the rate matrix and normalizes it to one
// expected event per unit time.
func (m *Model) buildRateMatrix() {
	m.computeStateFreq()
	m.totalRate = 0
	for i := 0; i < m.nStates; i++ {
		rowSum := 0.0
		for j := 0; j < m.nStates; j++ {
			if i == j {
				continue
			}
			r := m.transitionRate(i, j)
			m.q.Set(i, j, r)
			rowSum += r
		}
		m.q.Set(i, i, -rowSum)
		m.rowSum[i] = rowSum
		m.totalRate += m.stateFreq[i] * rowSum
	}
	raw := m.q.RawMatrix()
	blas64.Implementation().Dscal(len(raw.Data), 1/m.totalRate, raw.Data, 1)
}

// TotalRate returns the frequency weighted total rate before the rate
// matrix normalization.
func (m *Model) TotalRate() float64 {
	return m.totalRate
}
