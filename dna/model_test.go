package dna

import (
	"errors"
	"math"
	"testing"
)

const smallDiff = 1e-10

func TestUnknownModel(tst *testing.T) {
	_, err := New("XYZ", "", FreqUnknown, "")
	if !errors.Is(err, ErrUnknownModel) {
		tst.Error("Expected unknown model error, got", err)
	}
}

func TestNDim(tst *testing.T) {
	for _, c := range []struct {
		name string
		ft   FreqType
		ndim int
	}{
		{"JC", FreqUnknown, 0},
		{"HKY", FreqUnknown, 1},
		{"HKY", FreqEstimate, 4},
		{"TN93", FreqUnknown, 2},
		{"GTR", FreqUnknown, 5},
		{"GTR+FO", FreqUnknown, 8},
		{"TVM", FreqEqual, 4},
		{"UNREST", FreqUnknown, 11},
	} {
		m, err := New(c.name, "", c.ft, "")
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if m.NDim() != c.ndim {
			tst.Errorf("%s: expected %d parameters, got %d", c.name, c.ndim, m.NDim())
		}
		if len(m.ParameterNames()) != c.ndim {
			tst.Errorf("%s: wrong number of parameter names: %v", c.name, m.ParameterNames())
		}
	}
}

func TestQMatrix(tst *testing.T) {
	m, err := New("HKY", "2.5", FreqUnknown, "")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if m.NDim() != 0 {
		tst.Error("Fixed parameters should not be free")
	}
	m.SetStateFreq([]float64{1, 2, 3, 4})
	q := m.QMatrix(nil)
	pi := m.StateFreq()
	scale := 0.0
	for i := 0; i < NStates; i++ {
		s := 0.0
		for j := 0; j < NStates; j++ {
			s += q[i*NStates+j]
		}
		if math.Abs(s) > smallDiff {
			tst.Error("Row sum should be 0, got", s)
		}
		scale -= pi[i] * q[i*NStates+i]
	}
	if math.Abs(scale-1) > smallDiff {
		tst.Error("Mean rate should be 1, got", scale)
	}
	// A->G over A->C is kappa
	ratio := (q[0*NStates+2] / pi[2]) / (q[0*NStates+1] / pi[1])
	if math.Abs(ratio-2.5) > smallDiff {
		tst.Error("Expected kappa=2.5, got", ratio)
	}
	// detailed balance
	for i := 0; i < NStates; i++ {
		for j := 0; j < NStates; j++ {
			if math.Abs(pi[i]*q[i*NStates+j]-pi[j]*q[j*NStates+i]) > smallDiff {
				tst.Error("Detailed balance violated for", i, j)
			}
		}
	}
}

func TestVariablesRoundTrip(tst *testing.T) {
	m, _ := New("GTR", "", FreqEstimate, "")
	x := []float64{0.5, 2, 0.7, 1.2, 3, 1, 2, 3}
	if !m.SetVariables(x) {
		tst.Error("Variables should have changed")
	}
	y := m.Variables(nil)
	for i := range x {
		if math.Abs(x[i]-y[i]) > smallDiff {
			tst.Errorf("Parameter %d: set %v, got %v", i, x[i], y[i])
		}
	}
	f := m.StateFreq()
	if math.Abs(f[3]-1.0/7) > smallDiff || math.Abs(f[2]-3.0/7) > smallDiff {
		tst.Error("Wrong frequencies:", f)
	}
	if m.SetVariables(x) {
		tst.Error("Variables should not have changed")
	}
}

func TestUserFrequencies(tst *testing.T) {
	m, err := New("F81", "", FreqUserDefined, "0.1,0.2,0.3,0.4")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if math.Abs(m.StateFreq()[3]-0.4) > smallDiff {
		tst.Error("Wrong user frequencies:", m.StateFreq())
	}
	m, _ = New("F81", "", FreqUserDefined, "")
	if m.StateFreq()[0] != 0 {
		tst.Error("Frequencies should be unset")
	}
	if _, err := New("F81", "", FreqUserDefined, "0.1,0.2"); err == nil {
		tst.Error("Expected error for wrong number of frequencies")
	}
}

func TestNonReversibleRates(tst *testing.T) {
	m, _ := New("UNREST", "", FreqEqual, "")
	x := make([]float64, m.NDim())
	for i := range x {
		x[i] = float64(i + 1)
	}
	m.SetVariables(x)
	q := m.QMatrix(nil)
	// C->A is the fourth rate, A->C the first one
	if math.Abs(q[1*NStates+0]/q[0*NStates+1]-4) > smallDiff {
		tst.Error("Wrong directional rates:", q)
	}
	if m.IsReversible() {
		tst.Error("UNREST should not be reversible")
	}
}

func TestCopy(tst *testing.T) {
	m, _ := New("HKY", "", FreqUnknown, "")
	c := m.Copy()
	c.SetVariables([]float64{5})
	if m.Variables(nil)[0] != 1 {
		tst.Error("Copy shares parameters with the original")
	}
}
