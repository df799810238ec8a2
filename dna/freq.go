package dna

import (
	"fmt"
	"strings"
)

// FreqType specifies how state frequencies are obtained.
type FreqType int

// Frequency types.
const (
	// FreqUnknown means no frequency type was given.
	FreqUnknown FreqType = iota
	// FreqEqual is equal frequencies (+FQ).
	FreqEqual
	// FreqEstimate means frequencies are optimized starting from
	// the empirical ones (+FO).
	FreqEstimate
	// FreqEmpirical is frequencies counted from the data (+F).
	FreqEmpirical
	// FreqUserDefined is user supplied frequencies (+FU).
	FreqUserDefined
)

// String returns model suffix for the frequency type.
func (ft FreqType) String() string {
	switch ft {
	case FreqEqual:
		return "+FQ"
	case FreqEstimate:
		return "+FO"
	case FreqEmpirical:
		return "+F"
	case FreqUserDefined:
		return "+FU"
	}
	return "+F?"
}

// ParseFreqType converts a string (with or without "+") into a
// frequency type. An empty string gives FreqUnknown.
func ParseFreqType(s string) (FreqType, error) {
	switch strings.ToUpper(strings.TrimPrefix(s, "+")) {
	case "":
		return FreqUnknown, nil
	case "F":
		return FreqEmpirical, nil
	case "FQ":
		return FreqEqual, nil
	case "FO":
		return FreqEstimate, nil
	case "FU":
		return FreqUserDefined, nil
	}
	return FreqUnknown, fmt.Errorf("unknown frequency type: %s", s)
}
