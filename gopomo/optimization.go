package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"bitbucket.org/Davydov/gopomo/checkpoint"
	"bitbucket.org/Davydov/gopomo/lhood"
)

// checkpointKey returns the database key of a run. Runs with different
// data, model or populations do not share checkpoints.
func checkpointKey(ms *modelSettings) []byte {
	fields := []string{ms.countsF, ms.pomo.Model, ms.pomo.FreqType.String(), ms.sampling.String(),
		fmt.Sprint(ms.n), ms.pop1, ms.pop2}
	return []byte(strings.Join(fields, "|"))
}

// runOptimization reads the data, creates the model and performs the
// optimization.
func runOptimization(ms *modelSettings, o *optimizerSettings, rng *rand.Rand) (summary *OptimizationSummary, err error) {
	startTime := time.Now()
	summary = &OptimizationSummary{}

	c, err := ms.readCounts()
	if err != nil {
		return nil, err
	}

	l, err := ms.createInitialized(c, rng)
	if err != nil {
		return nil, err
	}
	m := l.Model()

	var cpIO *checkpoint.CheckpointIO
	if *checkpointDB != "" {
		db, err := checkpoint.Open(*checkpointDB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		cpIO = checkpoint.NewCheckpointIO(db, checkpointKey(ms), *checkpointSeconds)
		found, err := m.RestoreCheckpoint(cpIO)
		if err != nil {
			log.Error("Error restoring model from checkpoint:", err)
		} else if found {
			log.Notice("Restored mutation rates and boundary frequencies from checkpoint")
		}
	}
	o.cpIO = cpIO

	o.trajF = os.Stdout
	if *outF != "" {
		f, err := os.Create(*outF)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		o.trajF = f
	}

	opt, err := o.create(l)
	if err != nil {
		return nil, err
	}
	opt.Run(o.iterations)
	opt.PrintResults()
	summary.Optimizer = opt.Summary()

	if err := finalize(l, cpIO, summary); err != nil {
		return nil, err
	}

	summary.Time = time.Since(startTime).Seconds()
	return summary, nil
}

// finalize stores the model summary, saves the model checkpoint and
// writes the model report and the plot.
func finalize(l *lhood.Pairwise, cpIO *checkpoint.CheckpointIO, summary *OptimizationSummary) error {
	m := l.Model()
	// brings the model to the current parameter values
	summary.Likelihood = l.Summary()

	if cpIO != nil {
		if err := m.SaveCheckpoint(cpIO); err != nil {
			log.Error("Error saving model checkpoint:", err)
		}
	}

	var buf bytes.Buffer
	m.Report(&buf)
	log.Info(buf.String())
	if *reportF != "" {
		if err := os.WriteFile(*reportF, buf.Bytes(), 0666); err != nil {
			log.Error("Error writing report:", err)
		}
	}

	if *plotF != "" {
		if err := plotFrequencies(*plotF, m.Codec(), m.StateFreq(), l.ExpectedStates()); err != nil {
			return err
		}
		log.Infof("Frequency plot saved to %s", *plotF)
	}
	return nil
}
