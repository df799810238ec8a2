package pomo

import (
	"math"
	"sort"

	"github.com/gonum/floats"

	"bitbucket.org/Davydov/gopomo/counts"
	"bitbucket.org/Davydov/gopomo/dna"
)

// initBoundaryFreq estimates empirical boundary frequencies and sets
// the boundary frequencies of the mutation model according to the
// frequency type.
func (m *Model) initBoundaryFreq() error {
	freqEmp, err := m.estimateBoundaryFreq()
	if err != nil {
		return err
	}
	m.freqEmp = freqEmp
	m.freqType = m.mutation.FreqType()

	switch m.freqType {
	case dna.FreqEqual:
		f := make([]float64, nAlleles)
		for i := range f {
			f[i] = 1 / float64(nAlleles)
		}
		m.mutation.SetStateFreq(f)
	case dna.FreqEstimate, dna.FreqEmpirical:
		// estimation starts from the empirical frequencies
		m.mutation.SetStateFreq(m.freqEmp)
	case dna.FreqUserDefined:
		if m.mutation.StateFreq()[0] == 0 {
			return newError(UserFreqMissing, "state frequencies not specified")
		}
	case dna.FreqUnknown:
		return newError(UnknownFreqType, "no frequency type given")
	default:
		return newError(UnknownFreqType, "%v", m.freqType)
	}
	return nil
}

// estimateBoundaryFreq computes boundary frequencies from the data.
func (m *Model) estimateBoundaryFreq() ([]float64, error) {
	freq := make([]float64, nAlleles)
	switch m.sampling {
	case counts.Sampled:
		abs := m.aln.AbsoluteStateFreq()
		if len(abs) != m.nStates {
			return nil, newError(StateCountMismatch, "%d absolute state frequencies, %d states",
				len(abs), m.nStates)
		}
		for st, f := range abs {
			d := m.dec[st]
			freq[d.nt1] += float64(d.count * f)
			if d.nt2 >= 0 {
				freq[d.nt2] += float64((m.n - d.count) * f)
			}
		}
		m.debugf("Absolute empirical state frequencies: %v", abs)
	case counts.Weighted:
		for _, obs := range m.aln.ObservedCounts() {
			freq[obs.Allele1] += float64(obs.Count1 * obs.Weight)
			freq[obs.Allele2] += float64(obs.Count2 * obs.Weight)
		}
	default:
		return nil, newError(UnsupportedSampling, "%v", m.sampling)
	}
	if floats.Sum(freq) <= 0 {
		return nil, newError(NoPolymorphicData, "no observations in the data")
	}
	m.normalizeBoundaryFreq(freq)
	m.debugf("Empirical boundary state frequencies: %v", freq)
	return freq, nil
}

// normalizeBoundaryFreq normalizes frequencies to sum to one and
// clamps them into [MinBoundaryFreq, MaxBoundaryFreq].
func (m *Model) normalizeBoundaryFreq(freq []float64) {
	floats.Scale(1/floats.Sum(freq), freq)
	for i, f := range freq {
		switch {
		case f < MinBoundaryFreq:
			m.log.Warningf("Boundary state %c has very low frequency %.4g, set to at least %v",
				"ACGT"[i], f, MinBoundaryFreq)
		case f > MaxBoundaryFreq:
			m.log.Warningf("Boundary state %c has very high frequency %.4g, set to at most %v",
				"ACGT"[i], f, MaxBoundaryFreq)
		}
	}
	clampFreq(freq, MinBoundaryFreq, MaxBoundaryFreq)
}

// clampFreq clamps normalized frequencies into [lo, hi] and
// renormalizes them. The result is the stable point of repeated
// clamping and renormalization: freq[i] = clamp(c*freq[i]) summing to
// one. Returns false if all the frequencies were within bounds.
func clampFreq(freq []float64, lo, hi float64) bool {
	inside := true
	for _, f := range freq {
		if f < lo || f > hi {
			inside = false
		}
	}
	if inside {
		return false
	}
	clamped := func(c float64) (sum, free float64) {
		for _, f := range freq {
			switch v := c * f; {
			case v <= lo:
				sum += lo
			case v >= hi:
				sum += hi
			default:
				sum += v
				free += f
			}
		}
		return
	}
	// sum of clamped values is piecewise linear in c with
	// breakpoints lo/f and hi/f
	var bps []float64
	for _, f := range freq {
		if f > 0 {
			bps = append(bps, lo/f, hi/f)
		}
	}
	sort.Float64s(bps)
	left, right := 0.0, bps[len(bps)-1]
	for _, bp := range bps {
		if s, _ := clamped(bp); s >= 1 {
			right = bp
			break
		}
		left = bp
	}
	c := right
	if s, free := clamped((left + right) / 2); free > 0 {
		c = (left + right) / 2
		c += (1 - s) / free
	}
	for i, f := range freq {
		freq[i] = math.Min(hi, math.Max(lo, c*f))
	}
	return true
}

// wattersonTheta computes Watterson's estimate of theta from the
// data.
func (m *Model) wattersonTheta() (theta float64) {
	switch m.sampling {
	case counts.Sampled:
		abs := m.aln.AbsoluteStateFreq()
		fix, pol := 0, 0
		for st, f := range abs {
			if m.codec.IsBoundary(st) {
				fix += f
			} else {
				pol += f
			}
		}
		if fix+pol > 0 {
			theta = float64(pol) / float64(fix+pol)
		}
	case counts.Weighted:
		total := 0
		sum := 0.0
		for _, obs := range m.aln.ObservedCounts() {
			total += obs.Weight
			if obs.IsPolymorphic() {
				sum += float64(obs.Weight) / harmonic(obs.SampleSize()-1)
			}
		}
		if total > 0 {
			theta = sum / float64(total)
		}
	}
	m.debugf("Estimated relative frequency of polymorphic states: %.8g", theta)
	return
}
