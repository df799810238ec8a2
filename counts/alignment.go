package counts

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"bitbucket.org/Davydov/gopomo/states"
)

// SamplingMethod specifies how allele counts are mapped onto the
// PoMo state space.
type SamplingMethod int

// Sampling methods.
const (
	// Weighted keeps the observed counts; the likelihood weights
	// every state by the sampling probability of the counts.
	Weighted SamplingMethod = iota
	// Sampled draws N alleles with replacement and stores the
	// resulting PoMo state.
	Sampled
)

// String returns the name of the sampling method.
func (s SamplingMethod) String() string {
	switch s {
	case Weighted:
		return "Weighted"
	case Sampled:
		return "Sampled"
	}
	return "Unknown"
}

// ParseSamplingMethod converts a string into a sampling method.
func ParseSamplingMethod(s string) (SamplingMethod, error) {
	switch strings.ToLower(s) {
	case "weighted", "w":
		return Weighted, nil
	case "sampled", "s":
		return Sampled, nil
	}
	return Weighted, fmt.Errorf("unknown sampling method: %s", s)
}

// Pattern is a unique site pattern. Codes contain a code per
// population: a packed AlleleCount word for the weighted method or a
// PoMo state for the sampled method. Unknown marks missing data.
type Pattern struct {
	Codes  []uint32
	Weight int
}

// Alignment stores population data as site patterns.
type Alignment struct {
	Pops     []string
	Patterns []Pattern
	codec    *states.Codec
	method   SamplingMethod
	nSites   int
}

// NewAlignment converts counts into patterns. N is the virtual
// population size. Random generator is used only for the sampled
// method. Sites with more than two alleles in a population are
// treated as missing data.
func NewAlignment(c *Counts, n int, method SamplingMethod, rng *rand.Rand) (*Alignment, error) {
	codec, err := states.NewCodec(n)
	if err != nil {
		return nil, err
	}
	if method == Sampled && rng == nil {
		return nil, errors.New("random generator is required for the sampled method")
	}
	a := &Alignment{
		Pops:   c.Pops,
		codec:  codec,
		method: method,
		nSites: c.NSites(),
	}
	index := make(map[string]int)
	codes := make([]uint32, c.NPop())
	var key strings.Builder
	nMulti := 0
	for _, site := range c.Sites {
		key.Reset()
		for p, ac := range site {
			code, multi, err := a.encode(ac, rng)
			if err != nil {
				return nil, err
			}
			if multi {
				nMulti++
			}
			codes[p] = code
			fmt.Fprintf(&key, "%d,", code)
		}
		if i, ok := index[key.String()]; ok {
			a.Patterns[i].Weight++
			continue
		}
		index[key.String()] = len(a.Patterns)
		a.Patterns = append(a.Patterns, Pattern{
			Codes:  append([]uint32(nil), codes...),
			Weight: 1,
		})
	}
	if nMulti > 0 {
		log.Warningf("%d population sites with more than two alleles treated as missing", nMulti)
	}
	log.Infof("%d sites, %d patterns, %s sampling", a.nSites, len(a.Patterns), method)
	return a, nil
}

// encode converts allele counts of a population into a code.
func (a *Alignment) encode(ac [4]int, rng *rand.Rand) (code uint32, multi bool, err error) {
	var alleles []int
	for i, n := range ac {
		if n > 0 {
			alleles = append(alleles, i)
		}
	}
	switch {
	case len(alleles) == 0:
		return Unknown, false, nil
	case len(alleles) > 2:
		return Unknown, true, nil
	}
	rec := AlleleCount{Allele1: alleles[0], Count1: ac[alleles[0]], Allele2: alleles[0]}
	if len(alleles) == 2 {
		rec.Allele2 = alleles[1]
		rec.Count2 = ac[alleles[1]]
	}
	if a.method == Weighted {
		code, err = rec.Encode()
		return code, false, err
	}
	// sampled: draw N alleles with replacement
	p := float64(rec.Count1) / float64(rec.SampleSize())
	k := 0
	for i := 0; i < a.codec.N; i++ {
		if rng.Float64() < p {
			k++
		}
	}
	state, err := a.codec.Compose(k, rec.Allele1, rec.Allele2)
	return uint32(state), false, err
}

// VirtualPopSize returns the virtual population size N.
func (a *Alignment) VirtualPopSize() int {
	return a.codec.N
}

// NStates returns number of PoMo states.
func (a *Alignment) NStates() int {
	return a.codec.NStates()
}

// Codec returns the state codec.
func (a *Alignment) Codec() *states.Codec {
	return a.codec
}

// SamplingMethod returns the sampling method.
func (a *Alignment) SamplingMethod() SamplingMethod {
	return a.method
}

// NSites returns number of sites.
func (a *Alignment) NSites() int {
	return a.nSites
}

// NPop returns number of populations.
func (a *Alignment) NPop() int {
	return len(a.Pops)
}

// ObservedCounts decodes all known observations of the weighted
// method. For the sampled method it returns nil.
func (a *Alignment) ObservedCounts() (res []WeightedCount) {
	if a.method != Weighted {
		return nil
	}
	for _, pat := range a.Patterns {
		for _, code := range pat.Codes {
			if code == Unknown {
				continue
			}
			res = append(res, WeightedCount{Decode(code), pat.Weight})
		}
	}
	return
}

// AbsoluteStateFreq returns how many times every PoMo state was
// observed (sampled method only, otherwise all zeros).
func (a *Alignment) AbsoluteStateFreq() []int {
	freq := make([]int, a.codec.NStates())
	if a.method != Sampled {
		return freq
	}
	for _, pat := range a.Patterns {
		for _, code := range pat.Codes {
			if code == Unknown {
				continue
			}
			freq[code] += pat.Weight
		}
	}
	return freq
}
