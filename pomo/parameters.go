package pomo

import (
	"math"

	"bitbucket.org/Davydov/gopomo/optimize"
)

const (
	// thetaName is the name of the theta parameter.
	thetaName = "theta"
	// thetaPriorShape is the shape of the gamma prior of theta.
	thetaPriorShape = 2
)

// Likelihooder computes the log likelihood using the current state
// of the model.
type Likelihooder interface {
	Likelihood() float64
}

// NDim returns number of free parameters: the mutation model
// parameters and theta if it is not fixed.
func (m *Model) NDim() int {
	if m.thetaMode != ThetaEstimated {
		return m.mutation.NDim()
	}
	return m.mutation.NDim() + 1
}

// ParameterNames returns names of the free parameters.
func (m *Model) ParameterNames() []string {
	names := m.mutation.ParameterNames()
	if m.thetaMode == ThetaEstimated {
		names = append(names, thetaName)
	}
	return names
}

// Variables writes the current parameter vector into dst (or a new
// slice if dst is nil).
func (m *Model) Variables(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, m.NDim())
	}
	k := m.mutation.NDim()
	m.mutation.Variables(dst[:k])
	if m.thetaMode == ThetaEstimated {
		dst[k] = m.theta
	}
	return dst
}

// SetVariables applies the parameter vector x. The mutation rates are
// normalized, the rate matrix is rebuilt and decomposed before
// returning. Changed is true if any of the parameters changed.
func (m *Model) SetVariables(x []float64) (changed bool, err error) {
	k := m.mutation.NDim()
	if len(x) != m.NDim() {
		return false, newError(InvalidParameter, "%d parameters required, got %d", m.NDim(), len(x))
	}
	changed = m.mutation.SetVariables(x[:k])
	if m.thetaMode == ThetaEstimated {
		changed = changed || m.theta != x[k]
		m.theta = x[k]
	}
	if err := m.normalizeMutationRates(); err != nil {
		return changed, err
	}
	return changed, m.decomposeRateMatrix()
}

// Bounds writes lower and upper parameter bounds.
func (m *Model) Bounds(lower, upper []float64) {
	k := m.mutation.NDim()
	m.mutation.Bounds(lower[:k], upper[:k])
	if m.thetaMode == ThetaEstimated {
		lower[k] = ThetaMin
		upper[k] = ThetaMax
	}
}

// TargetFunc applies the parameter vector x and returns the negative
// log likelihood computed by lh. If the parameters cannot be applied
// or give unstable state frequencies the result is +Inf.
func (m *Model) TargetFunc(x []float64, lh Likelihooder) float64 {
	if _, err := m.SetVariables(x); err != nil {
		m.log.Warning("Cannot apply parameters:", err)
		return math.Inf(+1)
	}
	if m.IsUnstable() {
		m.debugf("Unstable parameters: %v", x)
		return math.Inf(+1)
	}
	return -lh.Likelihood()
}

// AddParameters adds the free parameters to pars. Changing a
// parameter marks the model stale; Update applies the changes.
func (m *Model) AddParameters(fpg optimize.FloatParameterGenerator, pars *optimize.FloatParameters) {
	m.vars = m.Variables(nil)
	lower := make([]float64, len(m.vars))
	upper := make([]float64, len(m.vars))
	m.Bounds(lower, upper)
	for i, name := range m.ParameterNames() {
		par := fpg(&m.vars[i], name)
		par.SetOnChange(func() {
			m.stale = true
		})
		prior := optimize.UniformPrior(lower[i], upper[i], false, false)
		if name == thetaName {
			prior = optimize.ProductPrior(prior, m.thetaPrior())
		}
		par.SetPriorFunc(prior)
		par.SetMin(lower[i])
		par.SetMax(upper[i])
		par.SetProposalFunc(optimize.NormalProposal((upper[i] - lower[i]) / 100))
		pars.Append(par)
	}
}

// thetaPrior returns the gamma prior of theta with the mean at the
// Watterson estimate (clamped into the theta bounds).
func (m *Model) thetaPrior() func(float64) float64 {
	mean := math.Min(ThetaMax, math.Max(ThetaMin, m.thetaEmp))
	return optimize.GammaPrior(thetaPriorShape, mean/thetaPriorShape, false)
}

// Update applies parameter values changed through the parameters
// created by AddParameters.
func (m *Model) Update() error {
	if !m.stale {
		return nil
	}
	m.stale = false
	if _, err := m.SetVariables(m.vars); err != nil {
		// the rate matrix does not match the parameters
		m.stale = true
		return err
	}
	return nil
}
