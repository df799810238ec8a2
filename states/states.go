// Package states encodes PoMo states. A state is either a boundary
// state (a single fixed allele) or a polymorphic state, i.e. a pair of
// alleles with an allele count split within a virtual population of
// size N.
package states

import (
	"errors"
	"fmt"
)

// Allele is a nucleotide number (A=0, C=1, G=2, T=3).
type Allele int

// Nucleotides.
const (
	A Allele = iota
	C
	G
	T
)

const (
	// NAlleles is the number of alleles (nucleotides).
	NAlleles = 4
	// NPairs is the number of unordered allele pairs.
	NPairs = NAlleles * (NAlleles - 1) / 2
	// NoAllele marks an absent second allele of boundary states.
	NoAllele = -1
)

// Letters are nucleotide letters in the allele order.
const Letters = "ACGT"

// ErrOutOfRange is returned for state ids or counts outside of the
// state space.
var ErrOutOfRange = errors.New("state exceeds limit")

// Pair is an unordered pair of alleles, First < Second.
type Pair struct {
	First, Second int
}

// Pairs are the allele pairs in the order of polymorphic bands
// (AC, AG, AT, CG, CT, GT).
var Pairs = [NPairs]Pair{
	{0, 1}, {0, 2}, {0, 3},
	{1, 2}, {1, 3},
	{2, 3},
}

// pairIndex maps a pair of alleles to a band number.
var pairIndex [NAlleles][NAlleles]int

func init() {
	for i := range pairIndex {
		for j := range pairIndex[i] {
			pairIndex[i][j] = -1
		}
	}
	for k, p := range Pairs {
		pairIndex[p.First][p.Second] = k
		pairIndex[p.Second][p.First] = k
	}
}

// PairIndex returns band number for alleles a and b (in any order) or
// -1 if a == b or alleles are not valid.
func PairIndex(a, b int) int {
	if a < 0 || a >= NAlleles || b < 0 || b >= NAlleles {
		return -1
	}
	return pairIndex[a][b]
}

// String returns the two letter name of the pair, e.g. "AC".
func (p Pair) String() string {
	return string([]byte{Letters[p.First], Letters[p.Second]})
}

// NStates returns number of states for the virtual population size n.
func NStates(n int) int {
	return NAlleles + NPairs*(n-1)
}

// Codec maps state ids to (count, allele, allele) triples and back.
type Codec struct {
	// N is the virtual population size.
	N int
	// nStates is cached number of states.
	nStates int
}

// NewCodec creates a codec for the virtual population size n.
func NewCodec(n int) (*Codec, error) {
	if n < 2 {
		return nil, fmt.Errorf("virtual population size should be at least 2, got %d", n)
	}
	return &Codec{N: n, nStates: NStates(n)}, nil
}

// NStates returns total number of states.
func (c *Codec) NStates() int {
	return c.nStates
}

// IsBoundary returns true for boundary states.
func (c *Codec) IsBoundary(state int) bool {
	return state < NAlleles
}

// IsPolymorphic returns true for polymorphic states.
func (c *Codec) IsPolymorphic(state int) bool {
	return !c.IsBoundary(state)
}

// Decompose returns allele count of the first allele as well as the
// first and the second allele. For boundary states count is N and the
// second allele is NoAllele.
func (c *Codec) Decompose(state int) (count, nt1, nt2 int, err error) {
	if state < 0 || state >= c.nStates {
		return 0, 0, 0, fmt.Errorf("%w: %d (%d states)", ErrOutOfRange, state, c.nStates)
	}
	if state < NAlleles {
		return c.N, state, NoAllele, nil
	}
	band := (state - NAlleles) / (c.N - 1)
	offset := NAlleles + band*(c.N-1)
	p := Pairs[band]
	return state - offset + 1, p.First, p.Second, nil
}

// Compose is the inverse of Decompose. A count of N gives the boundary
// state nt1, and a count of 0 gives the boundary state nt2.
func (c *Codec) Compose(count, nt1, nt2 int) (int, error) {
	switch {
	case count == c.N && nt1 >= 0 && nt1 < NAlleles:
		return nt1, nil
	case count == 0 && nt2 >= 0 && nt2 < NAlleles:
		return nt2, nil
	case count < 0 || count > c.N:
		return 0, fmt.Errorf("%w: count %d (N=%d)", ErrOutOfRange, count, c.N)
	}
	if nt1 > nt2 {
		nt1, nt2 = nt2, nt1
		count = c.N - count
	}
	band := PairIndex(nt1, nt2)
	if band < 0 {
		return 0, fmt.Errorf("%w: alleles %d, %d", ErrOutOfRange, nt1, nt2)
	}
	return NAlleles + band*(c.N-1) + count - 1, nil
}

// Name returns a human readable state name, e.g. "10A" or "3A7C".
func (c *Codec) Name(state int) string {
	count, nt1, nt2, err := c.Decompose(state)
	if err != nil {
		return "?"
	}
	if nt2 == NoAllele {
		return fmt.Sprintf("%d%c", count, Letters[nt1])
	}
	return fmt.Sprintf("%d%c%d%c", count, Letters[nt1], c.N-count, Letters[nt2])
}
