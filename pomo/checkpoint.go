package pomo

import "fmt"

// checkpointStruct is the name of the checkpoint structure.
const checkpointStruct = "ModelPoMo"

// Checkpointer stores named structures of keyed arrays.
type Checkpointer interface {
	SaveStruct(name string, arrays map[string][]float64) error
	LoadStruct(name string) (map[string][]float64, error)
}

// SaveCheckpoint saves the mutation model rates and the boundary
// frequencies.
func (m *Model) SaveCheckpoint(cp Checkpointer) error {
	return cp.SaveStruct(checkpointStruct, map[string][]float64{
		"rates":      append([]float64(nil), m.mutation.Rates()...),
		"state_freq": append([]float64(nil), m.BoundaryFreq()...),
	})
}

// RestoreCheckpoint restores the mutation model rates and the
// boundary frequencies, and rebuilds the rate matrix. Found is false
// if the checkpoint has no model data.
func (m *Model) RestoreCheckpoint(cp Checkpointer) (found bool, err error) {
	arrays, err := cp.LoadStruct(checkpointStruct)
	if err != nil || arrays == nil {
		return false, err
	}
	rates, freq := arrays["rates"], arrays["state_freq"]
	if len(rates) != len(m.mutation.Rates()) || len(freq) != nAlleles {
		return false, fmt.Errorf("checkpoint %s does not match the model (%d rates, %d frequencies)",
			checkpointStruct, len(rates), len(freq))
	}
	m.mutation.SetRates(rates)
	m.mutation.SetStateFreq(freq)
	if err := m.normalizeMutationRates(); err != nil {
		return true, err
	}
	if err := m.decomposeRateMatrix(); err != nil {
		return true, err
	}
	if m.vars != nil {
		m.Variables(m.vars)
	}
	return true, nil
}
