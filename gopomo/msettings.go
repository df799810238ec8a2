package main

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"bitbucket.org/Davydov/gopomo/counts"
	"bitbucket.org/Davydov/gopomo/dna"
	"bitbucket.org/Davydov/gopomo/lhood"
	"bitbucket.org/Davydov/gopomo/pomo"
)

// modelSettings stores settings for creating a new model.
type modelSettings struct {
	countsF  string
	pomo     pomo.Settings
	n        int
	sampling counts.SamplingMethod

	pop1, pop2 string

	noOptBrLen bool
	maxBrLen   float64
	brLen      float64

	startF    string
	randomize bool
}

// newModelSettings initializes modelSettings from global
// variables (command-line arguments).
func newModelSettings() (*modelSettings, error) {
	ft, err := dna.ParseFreqType(*freq)
	if err != nil {
		return nil, err
	}
	mexp, err := pomo.ParseMatrixExp(*matrixExp)
	if err != nil {
		return nil, err
	}
	sm, err := counts.ParseSamplingMethod(*sampling)
	if err != nil {
		return nil, err
	}
	if *verbosity < int(pomo.Silent) || *verbosity > int(pomo.Verbose) {
		return nil, fmt.Errorf("incorrect verbosity level: %d", *verbosity)
	}
	return &modelSettings{
		countsF: *countsFileName,
		pomo: pomo.Settings{
			Model:      *model,
			Params:     *params,
			FreqType:   ft,
			FreqParams: *freqParams,
			Theta:      *theta,
			MatrixExp:  mexp,
			Verbosity:  pomo.Verbosity(*verbosity),
		},
		n:        *popSize,
		sampling: sm,

		pop1: *pop1,
		pop2: *pop2,

		noOptBrLen: *noOptBrLen,
		maxBrLen:   *maxBrLen,
		brLen:      *brLen,

		startF:    *startF,
		randomize: *randomize,
	}, nil
}

// lastLine returns the last line of a file content.
func lastLine(fn string) (line string, err error) {
	f, err := os.Open(fn)
	if err != nil {
		return line, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line = scanner.Text()
	}
	err = scanner.Err()
	return line, err
}

// readCounts reads the counts file.
func (ms *modelSettings) readCounts() (*counts.Counts, error) {
	f, err := os.Open(ms.countsF)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := counts.ReadCounts(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %v", ms.countsF, err)
	}
	log.Infof("Read %d sites of %d populations", c.NSites(), c.NPop())
	return c, nil
}

// popIndex returns index of a population by name, or def if the name
// is empty.
func popIndex(c *counts.Counts, name string, def int) (int, error) {
	if name == "" {
		return def, nil
	}
	for i, p := range c.Pops {
		if p == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown population: %s", name)
}

// createInitialized creates and initializes a pairwise likelihood
// from modelSettings.
func (ms *modelSettings) createInitialized(c *counts.Counts, rng *rand.Rand) (*lhood.Pairwise, error) {
	i1, err := popIndex(c, ms.pop1, 0)
	if err != nil {
		return nil, err
	}
	i2, err := popIndex(c, ms.pop2, 1)
	if err != nil {
		return nil, err
	}
	log.Infof("Populations: %s (root) and %s", popName(c, i1), popName(c, i2))

	aln, err := counts.NewAlignment(c, ms.n, ms.sampling, rng)
	if err != nil {
		return nil, err
	}
	log.Infof("%d site patterns, N=%d, %s sampling", len(aln.Patterns), ms.n, ms.sampling)

	m, err := pomo.New(ms.pomo, aln)
	if err != nil {
		return nil, err
	}

	l, err := lhood.NewPairwise(m, aln, i1, i2)
	if err != nil {
		return nil, err
	}
	l.SetBranchLength(ms.brLen)

	if !ms.noOptBrLen {
		log.Info("Will optimize the branch length")
		log.Infof("Maximum branch length: %f", ms.maxBrLen)
		l.SetMaxBranchLength(ms.maxBrLen)
	} else {
		log.Info("Will not optimize the branch length")
		l.FixBranchLength()
	}

	par := l.GetFloatParameters()
	if ms.startF != "" {
		line, err := lastLine(ms.startF)
		if err == nil {
			err = par.ReadLine(line)
		}
		if err != nil {
			log.Debug("Reading start file as JSON")
			err2 := par.ReadFromJSON(ms.startF)
			// startF is neither trajectory nor correct JSON
			if err2 != nil {
				log.Error("Error reading start position from JSON:", err2)
				return nil, fmt.Errorf("error reading start position from trajectory file: %v", err)
			}
		}
		if !par.InRange() {
			return nil, errors.New("initial parameters are not in the range")
		}
	} else if ms.randomize {
		log.Info("Using uniform (in the boundaries) random starting point")
		par.Randomize(rng)
	}

	log.Infof("Model has %d parameters.", len(par))

	return l, nil
}

// popName returns a population name or its index if the name is
// empty.
func popName(c *counts.Counts, i int) string {
	if i >= 0 && i < len(c.Pops) && c.Pops[i] != "" {
		return c.Pops[i]
	}
	return fmt.Sprint(i)
}
