package pomo

import (
	"errors"
	"strconv"

	"bitbucket.org/Davydov/gopomo/dna"
)

// initMutationModel creates the underlying nucleotide mutation model
// and sets the model name.
func (m *Model) initMutationModel(s Settings) error {
	if m.verbosity >= Normal {
		m.log.Info("Initialize PoMo DNA mutation model.")
	}
	mm, err := dna.New(s.Model, s.Params, s.FreqType, s.FreqParams)
	if err != nil {
		if errors.Is(err, dna.ErrUnknownModel) {
			return wrapError(UnsupportedModel, err)
		}
		return wrapError(InvalidParameter, err)
	}
	if mm.NStates() != nAlleles {
		return newError(UnsupportedModel, "PoMo only works with DNA models, %s has %d states",
			mm.Name(), mm.NStates())
	}
	m.mutation = mm
	m.fixedParams = s.Params != ""
	if mm.IsReversible() {
		m.reversibility = Reversible
	} else {
		m.reversibility = NonReversible
		if m.matrixExp != EigenDecomposition && m.matrixExp != ScalingSquaring {
			return newError(UnsupportedDecomposition, "%v does not work with non-reversible PoMo", m.matrixExp)
		}
	}

	m.name = mm.Name()
	if s.Params != "" {
		m.name += "{" + s.Params + "}"
	}
	m.name += "+P"
	if s.Theta != "" {
		m.name += "{" + s.Theta + "}"
	}
	m.name += "+N" + strconv.Itoa(m.n)
	return nil
}

// mutationQMatrix writes the normalized 4x4 rate matrix of the
// mutation model into dst.
func (m *Model) mutationQMatrix(dst []float64) []float64 {
	return m.mutation.QMatrix(dst)
}

// MutationModel returns the underlying mutation model.
func (m *Model) MutationModel() dna.Model {
	return m.mutation
}
