package pomo

import (
	"fmt"
	"io"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/gopomo/counts"
	"bitbucket.org/Davydov/gopomo/dna"
)

// WriteInfo writes boundary frequencies and the mutation rate matrix.
func (m *Model) WriteInfo(w io.Writer) {
	fmt.Fprint(w, "Frequency of boundary states:")
	for _, f := range m.BoundaryFreq() {
		fmt.Fprintf(w, " %.8g", f)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Mutation rate matrix:")
	mm := mat64.NewDense(nAlleles, nAlleles, m.mut)
	fmt.Fprintf(w, "%.8g\n\n", mat64.Formatted(mm))
}

// reportRates writes the upper triangle of the mutation rate matrix.
func (m *Model) reportRates(w io.Writer) {
	fmt.Fprintln(w, "Mutation rates (in the order AC, AG, AT, CG, CT, GT):")
	for i := 0; i < nAlleles; i++ {
		for j := i + 1; j < nAlleles; j++ {
			fmt.Fprintf(w, "%.8g ", m.mut[i*nAlleles+j])
		}
	}
	fmt.Fprintln(w)
}

// Report writes a human readable report of estimated and empirical
// quantities.
func (m *Model) Report(w io.Writer) {
	if m.reversibility == Reversible {
		fmt.Fprintln(w, "Reversible PoMo.")
	} else {
		fmt.Fprintln(w, "Non-reversible PoMo.")
	}
	fmt.Fprintln(w, "Virtual population size N:", m.n)
	if m.sampling == counts.Sampled {
		fmt.Fprintln(w, "Sampling method: Sampled.")
	} else {
		fmt.Fprintln(w, "Sampling method: Weighted.")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Estimated quantities")
	fmt.Fprintln(w, "--------------------")
	if m.freqType == dna.FreqEstimate {
		fmt.Fprintln(w, "Frequencies of boundary states (in the order A, C, G, T):")
		writeFloats(w, m.BoundaryFreq())
	}
	m.reportRates(w)

	switch m.thetaMode {
	case ThetaEstimated:
		fmt.Fprint(w, "Estimated heterozygosity: ")
	case ThetaEmpirical:
		fmt.Fprint(w, "Empirical heterozygosity: ")
	case ThetaUser:
		fmt.Fprint(w, "User-defined heterozygosity: ")
	}
	fmt.Fprintf(w, "%.8g\n", m.theta)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Empirical quantities")
	fmt.Fprintln(w, "--------------------")
	fmt.Fprintln(w, "Frequencies of boundary states (in the order A, C, G, T):")
	writeFloats(w, m.freqEmp)
	fmt.Fprintf(w, "Watterson's Theta: %.8g\n\n", m.thetaEmp)
}

func writeFloats(w io.Writer, v []float64) {
	for _, f := range v {
		fmt.Fprintf(w, "%.8g ", f)
	}
	fmt.Fprintln(w)
}

// Summary is the model summary for the JSON output.
type Summary struct {
	Name            string    `json:"name"`
	N               int       `json:"N"`
	Theta           float64   `json:"theta"`
	ThetaMode       string    `json:"thetaMode"`
	WattersonTheta  float64   `json:"wattersonTheta"`
	BoundaryFreq    []float64 `json:"boundaryFreq"`
	EmpBoundaryFreq []float64 `json:"empiricalBoundaryFreq"`
	MutationRates   []float64 `json:"mutationRates"`
	StateFreq       []float64 `json:"stateFreq"`
}

// Summary returns the model summary.
func (m *Model) Summary() Summary {
	rates := make([]float64, 0, 6)
	for i := 0; i < nAlleles; i++ {
		for j := i + 1; j < nAlleles; j++ {
			rates = append(rates, m.mut[i*nAlleles+j])
		}
	}
	modes := map[ThetaMode]string{
		ThetaEstimated: "estimated",
		ThetaEmpirical: "empirical",
		ThetaUser:      "user",
	}
	return Summary{
		Name:            m.name,
		N:               m.n,
		Theta:           m.theta,
		ThetaMode:       modes[m.thetaMode],
		WattersonTheta:  m.thetaEmp,
		BoundaryFreq:    append([]float64(nil), m.BoundaryFreq()...),
		EmpBoundaryFreq: append([]float64(nil), m.freqEmp...),
		MutationRates:   rates,
		StateFreq:       append([]float64(nil), m.stateFreq...),
	}
}
