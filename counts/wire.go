package counts

import "fmt"

// Unknown is the code for a missing observation in a pattern.
const Unknown = ^uint32(0)

// MaxCount is the largest allele count representable in a word.
const MaxCount = 1<<14 - 1

// AlleleCount is an observed allele-count record of a population at
// one site. For monomorphic sites Count2 is 0 and Allele2 equals
// Allele1.
type AlleleCount struct {
	Allele1, Count1 int
	Allele2, Count2 int
}

// SampleSize returns number of sampled individuals.
func (ac AlleleCount) SampleSize() int {
	return ac.Count1 + ac.Count2
}

// IsPolymorphic returns true if both alleles are observed.
func (ac AlleleCount) IsPolymorphic() bool {
	return ac.Count2 > 0
}

// Encode packs the record into a 32 bit word. Layout (lowest bit
// first):
//
//	bits  0-1   first allele
//	bits  2-15  count of the first allele
//	bits 16-17  second allele
//	bits 18-31  count of the second allele
func (ac AlleleCount) Encode() (uint32, error) {
	if ac.Count1 < 0 || ac.Count1 > MaxCount || ac.Count2 < 0 || ac.Count2 > MaxCount {
		return 0, fmt.Errorf("allele count exceeds %d: %d, %d", MaxCount, ac.Count1, ac.Count2)
	}
	if ac.Allele1 < 0 || ac.Allele1 > 3 || ac.Allele2 < 0 || ac.Allele2 > 3 {
		return 0, fmt.Errorf("incorrect alleles: %d, %d", ac.Allele1, ac.Allele2)
	}
	return uint32(ac.Allele1) |
		uint32(ac.Count1)<<2 |
		uint32(ac.Allele2)<<16 |
		uint32(ac.Count2)<<18, nil
}

// Decode unpacks a word created by Encode.
func Decode(w uint32) AlleleCount {
	return AlleleCount{
		Allele1: int(w & 3),
		Count1:  int((w >> 2) & MaxCount),
		Allele2: int((w >> 16) & 3),
		Count2:  int(w >> 18),
	}
}

// WeightedCount is a decoded record with the weight of its pattern.
type WeightedCount struct {
	AlleleCount
	Weight int
}
