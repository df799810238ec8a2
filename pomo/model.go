// Package pomo implements the polymorphism-aware phylogenetic model
// (PoMo). The state space consists of four boundary states (fixed
// alleles) and 6*(N-1) polymorphic states. The rate matrix combines
// genetic drift with a nucleotide mutation model whose rates are
// scaled to match the level of polymorphism (theta).
package pomo

import (
	"bytes"
	"strconv"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gopomo/counts"
	"bitbucket.org/Davydov/gopomo/dna"
	"bitbucket.org/Davydov/gopomo/states"
)

// log is the global logging variable.
var log = logging.MustGetLogger("pomo")

const (
	// MinBoundaryFreq is the minimum empirical boundary frequency.
	MinBoundaryFreq = 0.05
	// MaxBoundaryFreq is the maximum empirical boundary frequency.
	MaxBoundaryFreq = 0.95
	// ThetaMin is the lower bound of theta during optimization.
	ThetaMin = 1e-4
	// ThetaMax is the upper bound of theta during optimization.
	ThetaMax = 0.1
	// state frequencies below this are considered unstable
	unstableFreq = 1e-6

	nAlleles = states.NAlleles
)

// Verbosity controls the amount of diagnostic output of a model.
type Verbosity int

// Verbosity levels.
const (
	// Silent prints warnings only.
	Silent Verbosity = iota
	// Normal prints initialization messages.
	Normal
	// Verbose also prints intermediate quantities.
	Verbose
)

// Reversibility specifies which decomposition the rate matrix allows.
type Reversibility int

// Reversibility variants.
const (
	Reversible Reversibility = iota
	NonReversible
)

func (r Reversibility) String() string {
	if r == Reversible {
		return "reversible"
	}
	return "non-reversible"
}

// ThetaMode is the provenance of theta.
type ThetaMode int

// Theta modes.
const (
	// ThetaEstimated means theta is a free parameter.
	ThetaEstimated ThetaMode = iota
	// ThetaEmpirical means theta is fixed to the Watterson estimate.
	ThetaEmpirical
	// ThetaUser means theta is fixed to a user value.
	ThetaUser
)

// Alignment is the population data the model is built from.
type Alignment interface {
	// VirtualPopSize returns the virtual population size N.
	VirtualPopSize() int
	// NStates returns the declared number of states.
	NStates() int
	// SamplingMethod returns the sampling method.
	SamplingMethod() counts.SamplingMethod
	// ObservedCounts returns decoded observations (weighted
	// sampling).
	ObservedCounts() []counts.WeightedCount
	// AbsoluteStateFreq returns number of observations of every
	// state (sampled sampling).
	AbsoluteStateFreq() []int
}

// Settings are the model construction parameters.
type Settings struct {
	// Model is the mutation model name, e.g. HKY or GTR+FO.
	Model string
	// Params fixes mutation model rates if not empty.
	Params string
	// FreqType is the boundary frequency type, FreqUnknown means
	// the mutation model default.
	FreqType dna.FreqType
	// FreqParams are user-defined frequencies.
	FreqParams string
	// Theta is empty (estimate), "EMP" (fix to the Watterson
	// estimate) or a number (fix to the value).
	Theta string
	// MatrixExp is the matrix exponentiation technique for
	// non-reversible models.
	MatrixExp MatrixExp
	// Verbosity controls diagnostic output.
	Verbosity Verbosity
	// Logger receives diagnostic output, nil means the package
	// logger.
	Logger *logging.Logger
}

// decomposedState caches a decomposed state.
type decomposedState struct {
	count, nt1, nt2 int
}

// Model is a PoMo substitution model. A model is not safe for
// concurrent use.
type Model struct {
	name     string
	fullName string

	n        int
	nStates  int
	codec    *states.Codec
	dec      []decomposedState
	sampling counts.SamplingMethod
	aln      Alignment

	// mutation is the nucleotide mutation model; its state
	// frequencies are the boundary frequencies.
	mutation      dna.Model
	freqType      dna.FreqType
	reversibility Reversibility
	matrixExp     MatrixExp
	fixedParams   bool

	// expFallback is set once the eigendecomposition was replaced
	// by scaling and squaring
	expFallback bool

	thetaMode ThetaMode
	theta     float64
	thetaEmp  float64
	freqEmp   []float64

	// calibrated mutation rates m, their symmetric part r and
	// antisymmetric part f (row-major 4x4)
	mut []float64
	sym []float64
	asy []float64

	q         *mat64.Dense
	stateFreq []float64
	rowSum    []float64
	totalRate float64
	em        *EMatrix

	verbosity Verbosity
	log       *logging.Logger

	// vars stores parameter values for optimize.FloatParameters.
	vars  []float64
	stale bool
}

// New creates a new PoMo model for the alignment.
func New(s Settings, aln Alignment) (*Model, error) {
	codec, err := states.NewCodec(aln.VirtualPopSize())
	if err != nil {
		return nil, wrapError(InvalidState, err)
	}
	if codec.NStates() != aln.NStates() {
		return nil, newError(StateCountMismatch, "N=%d requires %d states, data has %d",
			codec.N, codec.NStates(), aln.NStates())
	}
	m := &Model{
		n:         codec.N,
		nStates:   codec.NStates(),
		codec:     codec,
		aln:       aln,
		matrixExp: s.MatrixExp,
		verbosity: s.Verbosity,
		log:       s.Logger,
	}
	if m.log == nil {
		m.log = log
	}
	m.dec = make([]decomposedState, m.nStates)
	for st := range m.dec {
		count, nt1, nt2, err := codec.Decompose(st)
		if err != nil {
			return nil, wrapError(InvalidState, err)
		}
		m.dec[st] = decomposedState{count, nt1, nt2}
	}

	if err := m.initMutationModel(s); err != nil {
		return nil, err
	}
	if err := m.initSamplingMethod(); err != nil {
		return nil, err
	}
	if err := m.initBoundaryFreq(); err != nil {
		return nil, err
	}
	m.thetaEmp = m.wattersonTheta()
	m.theta = m.thetaEmp
	if err := m.initTheta(s.Theta); err != nil {
		return nil, err
	}

	m.mut = make([]float64, nAlleles*nAlleles)
	m.sym = make([]float64, nAlleles*nAlleles)
	m.asy = make([]float64, nAlleles*nAlleles)
	m.q = mat64.NewDense(m.nStates, m.nStates, nil)
	m.stateFreq = make([]float64, m.nStates)
	m.rowSum = make([]float64, m.nStates)
	m.em = NewEMatrix(m.q)

	if err := m.initMutationRates(); err != nil {
		return nil, err
	}
	if err := m.decomposeRateMatrix(); err != nil {
		return nil, err
	}

	m.infof("Initialized PoMo model %s", m.name)
	m.infof("%s", m.fullName)
	if m.verbosity >= Verbose {
		var buf bytes.Buffer
		m.WriteInfo(&buf)
		m.debugf("%s", buf.String())
	}
	return m, nil
}

// initSamplingMethod validates the sampling method and finalizes the
// model names.
func (m *Model) initSamplingMethod() error {
	m.sampling = m.aln.SamplingMethod()
	switch m.sampling {
	case counts.Sampled:
		m.name += "+S"
	case counts.Weighted:
		m.name += "+W"
	default:
		return newError(UnsupportedSampling, "%v", m.sampling)
	}
	m.fullName = "PoMo with N=" + strconv.Itoa(m.n) + " and " +
		m.mutation.FullName() + " mutation model; " +
		"Sampling method: " + m.sampling.String() + "; " +
		strconv.Itoa(m.nStates) + " states in total."
	return nil
}

// initTheta parses the theta directive.
func (m *Model) initTheta(directive string) error {
	switch directive {
	case "":
		m.thetaMode = ThetaEstimated
	case "EMP":
		m.thetaMode = ThetaEmpirical
		m.infof("Level of polymorphism is fixed to the estimate from the data: %.5g", m.theta)
	default:
		theta, err := strconv.ParseFloat(directive, 64)
		if err != nil {
			return wrapError(InvalidParameter, err)
		}
		if theta <= 0 {
			return newError(InvalidParameter, "theta should be positive, got %v", theta)
		}
		m.thetaMode = ThetaUser
		m.theta = theta
		m.infof("Level of polymorphism is fixed to the value given by the user: %.5g", m.theta)
	}
	return nil
}

// initMutationRates checks that rates can be calibrated and
// normalizes them.
func (m *Model) initMutationRates() error {
	if m.thetaMode != ThetaUser && m.thetaEmp <= 0 {
		m.log.Warning("We strongly discourage to use PoMo on data without polymorphisms.")
		return newError(NoPolymorphicData, "setting the level of polymorphism without population data is not supported")
	}
	return m.normalizeMutationRates()
}

// Copy creates an independent copy of the model.
func (m *Model) Copy() *Model {
	newM := *m
	newM.mutation = m.mutation.Copy()
	newM.freqEmp = append([]float64(nil), m.freqEmp...)
	newM.mut = append([]float64(nil), m.mut...)
	newM.sym = append([]float64(nil), m.sym...)
	newM.asy = append([]float64(nil), m.asy...)
	newM.stateFreq = append([]float64(nil), m.stateFreq...)
	newM.rowSum = make([]float64, m.nStates)
	newM.q = mat64.DenseCopyOf(m.q)
	newM.em = m.em.Copy(newM.q)
	newM.vars = nil
	newM.stale = false
	return &newM
}

// Name returns the model name, e.g. HKY+P+N10+W.
func (m *Model) Name() string {
	return m.name
}

// FullName returns the model description.
func (m *Model) FullName() string {
	return m.fullName
}

// N returns the virtual population size.
func (m *Model) N() int {
	return m.n
}

// NStates returns number of states.
func (m *Model) NStates() int {
	return m.nStates
}

// Codec returns the state codec.
func (m *Model) Codec() *states.Codec {
	return m.codec
}

// Reversibility returns reversibility of the model.
func (m *Model) Reversibility() Reversibility {
	return m.reversibility
}

// Theta returns the current level of polymorphism.
func (m *Model) Theta() float64 {
	return m.theta
}

// ThetaMode returns the provenance of theta.
func (m *Model) ThetaMode() ThetaMode {
	return m.thetaMode
}

// EmpiricalTheta returns the Watterson estimate of theta.
func (m *Model) EmpiricalTheta() float64 {
	return m.thetaEmp
}

// BoundaryFreq returns the boundary frequencies.
func (m *Model) BoundaryFreq() []float64 {
	return m.mutation.StateFreq()
}

// EmpiricalBoundaryFreq returns the boundary frequencies estimated
// from the data.
func (m *Model) EmpiricalBoundaryFreq() []float64 {
	return m.freqEmp
}

// StateFreq returns the stationary frequencies.
func (m *Model) StateFreq() []float64 {
	return m.stateFreq
}

// RateMatrix returns the normalized rate matrix.
func (m *Model) RateMatrix() *mat64.Dense {
	return m.q
}

// MutationRates returns the calibrated mutation rate matrix
// (row-major 4x4).
func (m *Model) MutationRates() []float64 {
	return m.mut
}

// EMatrix returns the decomposed rate matrix.
func (m *Model) EMatrix() *EMatrix {
	return m.em
}

// IsUnstable returns true if any of the state frequencies is close to
// zero.
func (m *Model) IsUnstable() bool {
	for _, f := range m.stateFreq {
		if f < unstableFreq {
			return true
		}
	}
	return false
}

// infof prints a message unless the model is silent.
func (m *Model) infof(format string, args ...interface{}) {
	if m.verbosity >= Normal {
		m.log.Infof(format, args...)
	}
}

// debugf prints a message in the verbose mode.
func (m *Model) debugf(format string, args ...interface{}) {
	if m.verbosity >= Verbose {
		m.log.Debugf(format, args...)
	}
}
