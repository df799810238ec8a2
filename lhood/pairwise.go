// Package lhood computes the PoMo likelihood of two populations
// separated by a single branch.
package lhood

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gopomo/counts"
	"bitbucket.org/Davydov/gopomo/optimize"
	"bitbucket.org/Davydov/gopomo/pomo"
)

var log = logging.MustGetLogger("lhood")

const (
	// MinBranchLength is the minimum branch length.
	MinBranchLength = 1e-6
	// MaxBranchLength is the default maximum branch length.
	MaxBranchLength = 100
	// DefaultBranchLength is the starting branch length.
	DefaultBranchLength = 0.1
)

// Pairwise is the likelihood of two populations. The first
// population is at the root with the stationary state frequencies;
// the second one evolves along a branch of length t.
type Pairwise struct {
	model      *pomo.Model
	aln        *counts.Alignment
	pop1, pop2 int

	t      float64
	maxT   float64
	fixedT bool

	parameters optimize.FloatParameters

	p *mat64.Dense
	// obs caches observation likelihood vectors per code
	obs map[uint32][]float64
	// workspace
	root []float64
}

// NewPairwise creates a new pairwise likelihood for populations pop1
// and pop2 of the alignment.
func NewPairwise(model *pomo.Model, aln *counts.Alignment, pop1, pop2 int) (*Pairwise, error) {
	if pop1 < 0 || pop2 < 0 || pop1 >= aln.NPop() || pop2 >= aln.NPop() || pop1 == pop2 {
		return nil, fmt.Errorf("incorrect populations %d and %d (%d populations)", pop1, pop2, aln.NPop())
	}
	if model.NStates() != aln.NStates() {
		return nil, errors.New("model and alignment have different number of states")
	}
	l := &Pairwise{
		model: model,
		aln:   aln,
		pop1:  pop1,
		pop2:  pop2,
		t:     DefaultBranchLength,
		maxT:  MaxBranchLength,
	}
	l.init()
	return l, nil
}

// init allocates the workspace and creates the parameters.
func (l *Pairwise) init() {
	n := l.model.NStates()
	l.p = mat64.NewDense(n, n, nil)
	l.obs = make(map[uint32][]float64)
	l.root = make([]float64, n)
	l.addParameters()
}

// addParameters creates the model parameters and the branch length.
func (l *Pairwise) addParameters() {
	l.parameters = nil
	l.model.AddParameters(optimize.BasicFloatParameterGenerator, &l.parameters)
	if l.fixedT {
		return
	}
	t := optimize.NewBasicFloatParameter(&l.t, "t")
	t.SetMin(MinBranchLength)
	t.SetMax(l.maxT)
	t.SetPriorFunc(optimize.ExponentialPrior(10, false))
	t.SetProposalFunc(optimize.UniformProposal(0.02))
	l.parameters.Append(t)
}

// SetBranchLength sets the branch length.
func (l *Pairwise) SetBranchLength(t float64) {
	l.t = t
}

// BranchLength returns the branch length.
func (l *Pairwise) BranchLength() float64 {
	return l.t
}

// SetMaxBranchLength sets the upper bound of the branch length.
func (l *Pairwise) SetMaxBranchLength(maxT float64) {
	l.maxT = maxT
	l.addParameters()
}

// FixBranchLength excludes the branch length from the parameters.
func (l *Pairwise) FixBranchLength() {
	l.fixedT = true
	l.addParameters()
}

// Model returns the PoMo model.
func (l *Pairwise) Model() *pomo.Model {
	return l.model
}

// GetFloatParameters returns the model parameters and the branch
// length.
func (l *Pairwise) GetFloatParameters() optimize.FloatParameters {
	return l.parameters
}

// Copy creates an independent copy with a copy of the model.
func (l *Pairwise) Copy() optimize.Optimizable {
	newL := &Pairwise{
		model:  l.model.Copy(),
		aln:    l.aln,
		pop1:   l.pop1,
		pop2:   l.pop2,
		t:      l.t,
		maxT:   l.maxT,
		fixedT: l.fixedT,
	}
	newL.init()
	return newL
}

// observation returns the likelihood of an observation given every
// PoMo state.
func (l *Pairwise) observation(code uint32) []float64 {
	if v, ok := l.obs[code]; ok {
		return v
	}
	codec := l.model.Codec()
	n := codec.NStates()
	v := make([]float64, n)
	switch {
	case code == counts.Unknown:
		for x := range v {
			v[x] = 1
		}
	case l.aln.SamplingMethod() == counts.Sampled:
		v[code] = 1
	default:
		ac := counts.Decode(code)
		for x := range v {
			v[x] = samplingProb(codec.N, x, ac, codec.Decompose)
		}
	}
	l.obs[code] = v
	return v
}

// samplingProb returns the binomial probability to observe allele
// counts ac in a population in the state x.
func samplingProb(n, x int, ac counts.AlleleCount,
	decompose func(int) (int, int, int, error)) float64 {
	count, nt1, nt2, err := decompose(x)
	if err != nil {
		return 0
	}
	// frequency of every allele in the state
	var f [4]float64
	f[nt1] = float64(count) / float64(n)
	if nt2 >= 0 {
		f[nt2] = float64(n-count) / float64(n)
	}
	j1, j2 := ac.Count1, ac.Count2
	p1, p2 := f[ac.Allele1], f[ac.Allele2]
	if ac.Allele1 == ac.Allele2 {
		j1, j2 = j1+j2, 0
		p2 = 1
	}
	if (j1 > 0 && p1 == 0) || (j2 > 0 && p2 == 0) {
		return 0
	}
	lg := func(k int) float64 {
		v, _ := math.Lgamma(float64(k + 1))
		return v
	}
	logP := lg(j1+j2) - lg(j1) - lg(j2)
	if j1 > 0 {
		logP += float64(j1) * math.Log(p1)
	}
	if j2 > 0 {
		logP += float64(j2) * math.Log(p2)
	}
	return math.Exp(logP)
}

// Likelihood computes the log likelihood. If the model parameters
// cannot be applied or some of the state frequencies are close to
// zero the result is -Inf.
func (l *Pairwise) Likelihood() float64 {
	if err := l.model.Update(); err != nil {
		log.Debug("Cannot update model:", err)
		return math.Inf(-1)
	}
	if l.model.IsUnstable() {
		log.Debug("Unstable model parameters")
		return math.Inf(-1)
	}
	if _, err := l.model.EMatrix().Exp(l.p, l.t); err != nil {
		log.Error("Error computing exp(Qt):", err)
		return math.Inf(-1)
	}
	pi := l.model.StateFreq()
	raw := l.p.RawMatrix()
	res := 0.0
	for _, pat := range l.aln.Patterns {
		e1 := l.observation(pat.Codes[l.pop1])
		e2 := l.observation(pat.Codes[l.pop2])
		floats.MulTo(l.root, pi, e1)
		s := 0.0
		for x, f := range l.root {
			if f == 0 {
				continue
			}
			s += f * floats.Dot(raw.Data[x*raw.Stride:x*raw.Stride+len(e2)], e2)
		}
		if s <= 0 {
			return math.Inf(-1)
		}
		res += float64(pat.Weight) * math.Log(s)
	}
	return res
}

// Summary is the likelihood summary for the JSON output.
type Summary struct {
	BranchLength float64      `json:"branchLength"`
	LnL          float64      `json:"lnL"`
	Model        pomo.Summary `json:"model"`
}

// Summary returns the summary at the current parameters.
func (l *Pairwise) Summary() Summary {
	return Summary{
		BranchLength: l.t,
		LnL:          l.Likelihood(),
		Model:        l.model.Summary(),
	}
}

// ExpectedStates returns the expected state frequencies at the
// second population: pi P(t).
func (l *Pairwise) ExpectedStates() []float64 {
	res := make([]float64, l.model.NStates())
	if _, err := l.model.EMatrix().Exp(l.p, l.t); err != nil {
		return res
	}
	for x, f := range l.model.StateFreq() {
		for y := range res {
			res[y] += f * l.p.At(x, y)
		}
	}
	return res
}
