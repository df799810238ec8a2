// Package dna provides nucleotide (4-state) substitution models. These
// are used as mutation models of PoMo.
package dna

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gonum/floats"
)

const (
	// NStates is the number of nucleotides.
	NStates = 4
	// MinRate is the minimum value of a relative rate parameter.
	MinRate = 1e-4
	// MaxRate is the maximum value of a relative rate parameter.
	MaxRate = 100
	// MinFreqPar is the minimum value of a frequency parameter
	// (frequency relative to T).
	MinFreqPar = 1e-3
	// MaxFreqPar is the maximum value of a frequency parameter.
	MaxFreqPar = 100
)

// ErrUnknownModel is returned if the model name is not in the registry.
var ErrUnknownModel = errors.New("unknown DNA model")

// Model is a nucleotide substitution model.
type Model interface {
	// Name returns short model name (e.g. HKY).
	Name() string
	// FullName returns model name with a reference.
	FullName() string
	// NStates returns number of states.
	NStates() int
	// IsReversible returns true for time-reversible models.
	IsReversible() bool
	// FreqType returns the frequency type.
	FreqType() FreqType
	// StateFreq returns state frequencies. The slice is owned by
	// the model.
	StateFreq() []float64
	// SetStateFreq copies state frequencies into the model.
	SetStateFreq([]float64)
	// QMatrix writes the normalized rate matrix (row-major) into
	// dst and returns it.
	QMatrix(dst []float64) []float64
	// NDim returns number of free parameters.
	NDim() int
	// Variables writes free parameter values into dst.
	Variables(dst []float64) []float64
	// SetVariables reads free parameters from x and returns true
	// if anything changed.
	SetVariables(x []float64) bool
	// Bounds writes parameter bounds.
	Bounds(lower, upper []float64)
	// ParameterNames returns names of free parameters.
	ParameterNames() []string
	// Rates returns the relative rates.
	Rates() []float64
	// SetRates sets the relative rates.
	SetRates([]float64)
	// Copy returns an independent copy.
	Copy() Model
}

// Markov is a nucleotide model defined by a pattern of rate classes.
type Markov struct {
	name       string
	fullName   string
	reversible bool
	// class of every rate
	pattern []int
	// free classes in order of parameters
	free []int
	// reference class, rate fixed to 1
	ref        int
	classRate  []float64
	rates      []float64
	fixedRates bool
	freqType   FreqType
	freq       []float64
}

// New creates a new model by name. Name can carry a frequency suffix
// (e.g. HKY+FO) which overrides freqType. If params is not empty, the
// rate parameters are set to these values and are not optimized.
func New(name string, params string, freqType FreqType, freqParams string) (Model, error) {
	base := name
	if i := strings.Index(name, "+"); i >= 0 {
		base = name[:i]
		ft, err := ParseFreqType(name[i:])
		if err != nil {
			return nil, err
		}
		freqType = ft
	}
	def, ok := registry[strings.ToUpper(base)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, base)
	}
	if freqType == FreqUnknown {
		freqType = def.freqType
	}
	m := newMarkov(def, freqType)

	if params != "" {
		v, err := parseFloats(params)
		if err != nil {
			return nil, fmt.Errorf("error parsing model parameters: %v", err)
		}
		if len(v) != len(m.free) {
			return nil, fmt.Errorf("%s needs %d rate parameters, got %d", m.name, len(m.free), len(v))
		}
		for i, c := range m.free {
			m.classRate[c] = v[i]
		}
		m.fixedRates = true
		m.updateRates()
	}

	if freqType == FreqUserDefined {
		if freqParams == "" {
			// state frequencies should be set later
			for i := range m.freq {
				m.freq[i] = 0
			}
			return m, nil
		}
		v, err := parseFloats(freqParams)
		if err != nil {
			return nil, fmt.Errorf("error parsing frequencies: %v", err)
		}
		if len(v) != NStates {
			return nil, fmt.Errorf("%d frequencies required, got %d", NStates, len(v))
		}
		m.SetStateFreq(v)
	}
	return m, nil
}

func newMarkov(def modelDef, freqType FreqType) *Markov {
	m := &Markov{
		name:       def.name,
		fullName:   def.fullName,
		reversible: def.reversible,
		freqType:   freqType,
		freq:       make([]float64, NStates),
	}
	m.pattern = make([]int, len(def.pattern))
	nClass := 0
	for i, c := range def.pattern {
		m.pattern[i] = strings.IndexRune(classDigits, c)
		if m.pattern[i]+1 > nClass {
			nClass = m.pattern[i] + 1
		}
	}
	m.ref = m.pattern[len(m.pattern)-1]
	for c := 0; c < nClass; c++ {
		if c != m.ref {
			m.free = append(m.free, c)
		}
	}
	m.classRate = make([]float64, nClass)
	for i := range m.classRate {
		m.classRate[i] = 1
	}
	m.rates = make([]float64, len(m.pattern))
	m.updateRates()
	for i := range m.freq {
		m.freq[i] = 1 / float64(NStates)
	}
	return m
}

// Copy returns an independent copy of the model.
func (m *Markov) Copy() Model {
	newM := *m
	newM.pattern = append([]int(nil), m.pattern...)
	newM.free = append([]int(nil), m.free...)
	newM.classRate = append([]float64(nil), m.classRate...)
	newM.rates = append([]float64(nil), m.rates...)
	newM.freq = append([]float64(nil), m.freq...)
	return &newM
}

// updateRates copies class rates into the rates.
func (m *Markov) updateRates() {
	for i, c := range m.pattern {
		m.rates[i] = m.classRate[c]
	}
}

// Name returns short model name.
func (m *Markov) Name() string {
	return m.name
}

// FullName returns the model name with a reference.
func (m *Markov) FullName() string {
	return m.fullName
}

// NStates returns number of states (always 4).
func (m *Markov) NStates() int {
	return NStates
}

// IsReversible returns true for time-reversible models.
func (m *Markov) IsReversible() bool {
	return m.reversible
}

// FreqType returns the frequency type.
func (m *Markov) FreqType() FreqType {
	return m.freqType
}

// StateFreq returns state frequencies.
func (m *Markov) StateFreq() []float64 {
	return m.freq
}

// SetStateFreq sets state frequencies, they are normalized to sum to 1.
func (m *Markov) SetStateFreq(f []float64) {
	copy(m.freq, f)
	if s := floats.Sum(m.freq); s > 0 {
		floats.Scale(1/s, m.freq)
	}
}

// Rates returns relative rates. For reversible models the order is
// AC, AG, AT, CG, CT, GT; for non-reversible models it is the
// row-major order of the off-diagonal elements.
func (m *Markov) Rates() []float64 {
	return m.rates
}

// SetRates sets relative rates (e.g. from a checkpoint).
func (m *Markov) SetRates(r []float64) {
	for i, c := range m.pattern {
		if i < len(r) {
			m.classRate[c] = r[i]
		}
	}
	m.updateRates()
}

// rate returns the rate from nucleotide i to nucleotide j.
func (m *Markov) rate(i, j int) float64 {
	if m.reversible {
		if i > j {
			i, j = j, i
		}
		// index in AC, AG, AT, CG, CT, GT
		return m.rates[i*(2*NStates-i-1)/2+j-i-1]
	}
	k := i*(NStates-1) + j
	if j > i {
		k--
	}
	return m.rates[k]
}

// QMatrix computes the normalized rate matrix. The off-diagonal
// elements are rate(i,j)*freq[j], the mean rate is one.
func (m *Markov) QMatrix(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, NStates*NStates)
	}
	scale := 0.0
	for i := 0; i < NStates; i++ {
		rowSum := 0.0
		for j := 0; j < NStates; j++ {
			if i == j {
				continue
			}
			dst[i*NStates+j] = m.rate(i, j) * m.freq[j]
			rowSum += dst[i*NStates+j]
		}
		dst[i*NStates+i] = -rowSum
		scale += m.freq[i] * rowSum
	}
	if scale > 0 {
		floats.Scale(1/scale, dst)
	}
	return dst
}

// estimateFreq returns true if frequencies are free parameters.
func (m *Markov) estimateFreq() bool {
	return m.freqType == FreqEstimate
}

// NDim returns number of free parameters.
func (m *Markov) NDim() int {
	n := 0
	if !m.fixedRates {
		n += len(m.free)
	}
	if m.estimateFreq() {
		n += NStates - 1
	}
	return n
}

// ParameterNames returns names of free parameters.
func (m *Markov) ParameterNames() (names []string) {
	if !m.fixedRates {
		for _, c := range m.free {
			names = append(names, m.className(c))
		}
	}
	if m.estimateFreq() {
		for i := 0; i < NStates-1; i++ {
			names = append(names, "pi"+string(letters[i]))
		}
	}
	return
}

// className returns a parameter name for a rate class, e.g. rAG for
// HKY kappa.
func (m *Markov) className(c int) string {
	for i, pc := range m.pattern {
		if pc == c {
			return "r" + m.rateName(i)
		}
	}
	return "r" + strconv.Itoa(c)
}

// rateName returns the nucleotide pair of the i-th rate.
func (m *Markov) rateName(k int) string {
	for i := 0; i < NStates; i++ {
		for j := 0; j < NStates; j++ {
			if i == j || (m.reversible && j < i) {
				continue
			}
			if k == 0 {
				return string([]byte{letters[i], letters[j]})
			}
			k--
		}
	}
	return "??"
}

// Variables writes free parameters into dst.
func (m *Markov) Variables(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, m.NDim())
	}
	k := 0
	if !m.fixedRates {
		for _, c := range m.free {
			dst[k] = m.classRate[c]
			k++
		}
	}
	if m.estimateFreq() {
		for i := 0; i < NStates-1; i++ {
			dst[k] = m.freq[i] / m.freq[NStates-1]
			k++
		}
	}
	return dst
}

// SetVariables reads free parameters from x.
func (m *Markov) SetVariables(x []float64) (changed bool) {
	k := 0
	if !m.fixedRates {
		for _, c := range m.free {
			if m.classRate[c] != x[k] {
				changed = true
				m.classRate[c] = x[k]
			}
			k++
		}
		m.updateRates()
	}
	if m.estimateFreq() {
		sum := 1.0
		for i := 0; i < NStates-1; i++ {
			sum += x[k+i]
		}
		for i := 0; i < NStates-1; i++ {
			f := x[k+i] / sum
			if f != m.freq[i] {
				changed = true
			}
			m.freq[i] = f
		}
		m.freq[NStates-1] = 1 / sum
	}
	return
}

// Bounds writes lower and upper parameter bounds.
func (m *Markov) Bounds(lower, upper []float64) {
	k := 0
	if !m.fixedRates {
		for range m.free {
			lower[k], upper[k] = MinRate, MaxRate
			k++
		}
	}
	if m.estimateFreq() {
		for i := 0; i < NStates-1; i++ {
			lower[k], upper[k] = MinFreqPar, MaxFreqPar
			k++
		}
	}
}

// parseFloats converts a string with floats separated by commas,
// slashes or spaces into a slice.
func parseFloats(s string) (res []float64, err error) {
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		for _, f := range strings.FieldsFunc(scanner.Text(), func(r rune) bool { return r == ',' || r == '/' }) {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(x) || x < 0 {
				return nil, fmt.Errorf("incorrect value: %s", f)
			}
			res = append(res, x)
		}
	}
	return res, scanner.Err()
}
