package dna

import "sort"

// letters are nucleotides in the state order.
const letters = "ACGT"

// classDigits are symbols used in rate class patterns.
const classDigits = "0123456789ab"

// modelDef describes a model in the registry. Pattern contains a rate
// class for every rate (AC, AG, AT, CG, CT, GT for reversible models;
// row-major off-diagonal order for non-reversible ones). The class of
// the last rate is the reference with the rate fixed to 1.
type modelDef struct {
	name       string
	fullName   string
	pattern    string
	freqType   FreqType
	reversible bool
}

var registry = map[string]modelDef{}

func register(def modelDef, aliases ...string) {
	registry[def.name] = def
	for _, a := range aliases {
		registry[a] = def
	}
}

func init() {
	register(modelDef{"JC", "JC (Juke and Cantor, 1969)", "000000", FreqEqual, true}, "JC69")
	register(modelDef{"F81", "F81 (Felsenstein, 1981)", "000000", FreqEmpirical, true})
	register(modelDef{"K80", "K80 (Kimura, 1980)", "010010", FreqEqual, true}, "K2P")
	register(modelDef{"HKY", "HKY (Hasegawa, Kishino and Yano, 1985)", "010010", FreqEmpirical, true}, "HKY85")
	register(modelDef{"TN", "TN (Tamura and Nei, 1993)", "010020", FreqEmpirical, true}, "TN93", "TRN")
	register(modelDef{"K81", "K81 (Kimura, 1981)", "012210", FreqEqual, true}, "K3P")
	register(modelDef{"K81U", "K81 with unequal base frequencies", "012210", FreqEmpirical, true})
	register(modelDef{"TIM", "TIM (transition model)", "012230", FreqEmpirical, true})
	register(modelDef{"TVM", "TVM (transversion model)", "012314", FreqEmpirical, true})
	register(modelDef{"SYM", "SYM (Zharkihk, 1994)", "012345", FreqEqual, true})
	register(modelDef{"GTR", "GTR (Tavare, 1986)", "012345", FreqEmpirical, true})
	register(modelDef{"UNREST", "UNREST (non-reversible, 12 rates)", "0123456789ab", FreqEmpirical, false}, "NONREV")
}

// Names returns sorted names of all the registered models (including
// aliases).
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Valid returns true if the model name is in the registry.
func Valid(name string) bool {
	_, ok := registry[name]
	return ok
}
