package states

import (
	"errors"
	"testing"
)

func TestDecomposeCompose(tst *testing.T) {
	for _, n := range []int{2, 3, 4, 9, 10, 17} {
		c, err := NewCodec(n)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if c.NStates() != 4+6*(n-1) {
			tst.Errorf("N=%d: wrong number of states %d", n, c.NStates())
		}
		for s := 0; s < c.NStates(); s++ {
			count, nt1, nt2, err := c.Decompose(s)
			if err != nil {
				tst.Fatal("Error: ", err)
			}
			s2, err := c.Compose(count, nt1, nt2)
			if err != nil {
				tst.Fatal("Error: ", err)
			}
			if s != s2 {
				tst.Errorf("N=%d: state %d decomposed to (%d,%d,%d) composed to %d", n, s, count, nt1, nt2, s2)
			}
		}
	}
}

func TestComposeDecompose(tst *testing.T) {
	c, _ := NewCodec(5)
	for _, p := range Pairs {
		for i := 1; i < c.N; i++ {
			s, err := c.Compose(i, p.First, p.Second)
			if err != nil {
				tst.Fatal("Error: ", err)
			}
			count, nt1, nt2, _ := c.Decompose(s)
			if count != i || nt1 != p.First || nt2 != p.Second {
				tst.Errorf("(%d,%v) -> %d -> (%d,%d,%d)", i, p, s, count, nt1, nt2)
			}
		}
	}
}

func TestDecomposeBands(tst *testing.T) {
	c, _ := NewCodec(10)
	count, nt1, nt2, _ := c.Decompose(2)
	if count != 10 || nt1 != 2 || nt2 != NoAllele {
		tst.Error("Wrong boundary state:", count, nt1, nt2)
	}
	// first AC state: 1A9C
	count, nt1, nt2, _ = c.Decompose(4)
	if count != 1 || nt1 != 0 || nt2 != 1 {
		tst.Error("Wrong first polymorphic state:", count, nt1, nt2)
	}
	// last GT state: 9G1T
	count, nt1, nt2, _ = c.Decompose(c.NStates() - 1)
	if count != 9 || nt1 != 2 || nt2 != 3 {
		tst.Error("Wrong last polymorphic state:", count, nt1, nt2)
	}
	if c.Name(4) != "1A9C" || c.Name(3) != "10T" {
		tst.Error("Wrong names:", c.Name(4), c.Name(3))
	}
}

func TestOutOfRange(tst *testing.T) {
	c, _ := NewCodec(4)
	if _, _, _, err := c.Decompose(c.NStates()); !errors.Is(err, ErrOutOfRange) {
		tst.Error("Expected out of range error, got", err)
	}
	if _, _, _, err := c.Decompose(-1); !errors.Is(err, ErrOutOfRange) {
		tst.Error("Expected out of range error, got", err)
	}
	if _, err := c.Compose(2, 1, 1); !errors.Is(err, ErrOutOfRange) {
		tst.Error("Expected out of range error, got", err)
	}
	if _, err := NewCodec(1); err == nil {
		tst.Error("Expected error for N=1")
	}
}

func TestComposeReversedPair(tst *testing.T) {
	c, _ := NewCodec(10)
	s1, _ := c.Compose(3, 1, 0)
	s2, _ := c.Compose(7, 0, 1)
	if s1 != s2 {
		tst.Error("3C7A and 7A3C should be the same state:", s1, s2)
	}
	if s, _ := c.Compose(0, 0, 1); s != 1 {
		tst.Error("0A10C should be boundary C, got", s)
	}
}
