package counts

import (
	"math/rand"
	"strings"
	"testing"
)

const countsFile = `# test data
COUNTSFILE NPOP 2 NSITES 6
CHROM POS Sheep BlackSheep
chr1 1 0,0,10,0 0,0,8,0
chr1 2 0,0,10,0 0,0,8,0
chr1 3 3,7,0,0 0,0,8,0
chr1 4 0,0,0,0 1,0,0,7
chr1 5 1,1,1,0 0,2,0,0
chr1 6 0,0,10,0 0,0,8,0
`

func readTestCounts(tst *testing.T) *Counts {
	c, err := ReadCounts(strings.NewReader(countsFile))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return c
}

func TestReadCounts(tst *testing.T) {
	c := readTestCounts(tst)
	if c.NPop() != 2 || c.NSites() != 6 {
		tst.Fatal("Wrong dimensions:", c.NPop(), c.NSites())
	}
	if c.Pops[1] != "BlackSheep" {
		tst.Error("Wrong population name:", c.Pops[1])
	}
	if c.Sites[2][0] != [4]int{3, 7, 0, 0} {
		tst.Error("Wrong counts:", c.Sites[2][0])
	}
	if c.Pos[3] != 4 {
		tst.Error("Wrong position:", c.Pos[3])
	}
}

func TestReadCountsErrors(tst *testing.T) {
	for _, s := range []string{
		"CHROM POS a\n",
		"COUNTSFILE NPOP 1\nCHROM POS a b\n",
		"COUNTSFILE NPOP 1\nCHROM POS a\nc 1 1,2,3\n",
		"COUNTSFILE NPOP 1\nCHROM POS a\nc 1 1,2,-3,0\n",
		"COUNTSFILE NPOP 1\n",
	} {
		if _, err := ReadCounts(strings.NewReader(s)); err == nil {
			tst.Errorf("Expected error for %q", s)
		}
	}
}

func TestWireFormat(tst *testing.T) {
	ac := AlleleCount{Allele1: 1, Count1: 16383, Allele2: 3, Count2: 5}
	w, err := ac.Encode()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if w&3 != 1 || (w>>2)&16383 != 16383 || (w>>16)&3 != 3 || w>>18 != 5 {
		tst.Errorf("Wrong bit layout: %032b", w)
	}
	if Decode(w) != ac {
		tst.Error("Decode(Encode(x)) != x:", Decode(w))
	}
	if _, err := (AlleleCount{Count1: MaxCount + 1}).Encode(); err == nil {
		tst.Error("Expected error for too large count")
	}
}

func TestWeightedAlignment(tst *testing.T) {
	a, err := NewAlignment(readTestCounts(tst), 9, Weighted, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(a.Patterns) != 4 {
		tst.Fatal("Expected 4 patterns, got", len(a.Patterns))
	}
	if a.Patterns[0].Weight != 3 {
		tst.Error("First pattern should have weight 3, got", a.Patterns[0].Weight)
	}
	if a.Patterns[2].Codes[0] != Unknown {
		tst.Error("Empty population should be unknown")
	}
	if a.Patterns[3].Codes[0] != Unknown {
		tst.Error("Three alleles should be unknown")
	}
	obs := a.ObservedCounts()
	// 2 + 2 + 1 + 1 known observations
	if len(obs) != 6 {
		tst.Fatal("Wrong number of observations:", len(obs))
	}
	poly := obs[2]
	if poly.Allele1 != 0 || poly.Count1 != 3 || poly.Allele2 != 1 || poly.Count2 != 7 || poly.Weight != 1 {
		tst.Error("Wrong polymorphic observation:", poly)
	}
	for _, f := range a.AbsoluteStateFreq() {
		if f != 0 {
			tst.Error("Absolute state frequencies should be empty in weighted mode")
		}
	}
}

func TestSampledAlignment(tst *testing.T) {
	a, err := NewAlignment(readTestCounts(tst), 9, Sampled, rand.New(rand.NewSource(1)))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	freq := a.AbsoluteStateFreq()
	if len(freq) != a.NStates() {
		tst.Fatal("Wrong number of states:", len(freq))
	}
	// monomorphic G sites: 3 sites in both populations, 1 in
	// BlackSheep at site 3
	if freq[2] != 7 {
		tst.Error("Expected 7 G observations, got", freq[2])
	}
	total := 0
	for _, f := range freq {
		total += f
	}
	if total != 10 {
		tst.Error("Expected 10 known observations, got", total)
	}
	if a.ObservedCounts() != nil {
		tst.Error("Observed counts should be nil in sampled mode")
	}
	if _, err := NewAlignment(readTestCounts(tst), 9, Sampled, nil); err == nil {
		tst.Error("Expected error without random generator")
	}
}

func TestParseSamplingMethod(tst *testing.T) {
	if m, err := ParseSamplingMethod("SAMPLED"); err != nil || m != Sampled {
		tst.Error("Wrong sampling method", m, err)
	}
	if _, err := ParseSamplingMethod("x"); err == nil {
		tst.Error("Expected error")
	}
}
