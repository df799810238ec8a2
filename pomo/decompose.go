package pomo

import (
	"errors"
	"fmt"
	"strings"
)

// MatrixExp is a matrix exponentiation technique.
type MatrixExp int

// Matrix exponentiation techniques.
const (
	// EigenDecomposition uses the eigendecomposition of the rate
	// matrix.
	EigenDecomposition MatrixExp = iota
	// ScalingSquaring computes e^Qt by scaling and squaring, no
	// decomposition is needed.
	ScalingSquaring
	// Eigen3Decomposition is a dedicated library decomposition,
	// not available for PoMo.
	Eigen3Decomposition
	// LieMarkovDecomposition is the closed form decomposition,
	// not available for PoMo.
	LieMarkovDecomposition
)

var matrixExpNames = []string{"eigen", "scaling", "eigen3", "liemarkov"}

func (t MatrixExp) String() string {
	if t >= 0 && int(t) < len(matrixExpNames) {
		return matrixExpNames[t]
	}
	return fmt.Sprintf("technique %d", int(t))
}

// ParseMatrixExp converts a technique name into MatrixExp.
func ParseMatrixExp(s string) (MatrixExp, error) {
	for i, nm := range matrixExpNames {
		if strings.EqualFold(s, nm) {
			return MatrixExp(i), nil
		}
	}
	return EigenDecomposition, fmt.Errorf("unknown matrix exponentiation technique: %s", s)
}

// decomposeRateMatrix rebuilds the rate matrix and decomposes it. A
// non-reversible matrix with ill-conditioned eigenvectors is
// exponentiated by scaling and squaring.
func (m *Model) decomposeRateMatrix() error {
	m.buildRateMatrix()
	switch m.reversibility {
	case Reversible:
		if err := m.em.EigenSym(m.stateFreq); err != nil {
			return wrapError(DecompositionFailed, err)
		}
		return nil
	case NonReversible:
		switch m.matrixExp {
		case EigenDecomposition:
			err := m.em.Eigen()
			if errors.Is(err, ErrIllConditioned) {
				if !m.expFallback {
					m.infof("Switching to scaling and squaring: %v", err)
					m.expFallback = true
				}
				m.em.SetScalingSquaring()
				return nil
			}
			if err != nil {
				return wrapError(DecompositionFailed, err)
			}
			return nil
		case ScalingSquaring:
			m.em.SetScalingSquaring()
			return nil
		}
		return newError(UnsupportedDecomposition, "%v does not work with non-reversible PoMo", m.matrixExp)
	}
	return newError(UnsupportedDecomposition, "unknown reversibility %d", int(m.reversibility))
}
