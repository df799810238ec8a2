package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"bitbucket.org/Davydov/gopomo/checkpoint"
	"bitbucket.org/Davydov/gopomo/optimize"
)

// optimizerSettings stores settings for creation of a new optimizer.
type optimizerSettings struct {
	method string

	iterations int

	report int

	accept        int
	annealingSkip int

	trajF io.Writer
	cpIO  *checkpoint.CheckpointIO

	seed int64
}

// newOptimizerSettings creates a new optimizerSettings from
// the command line parameters (global variables).
func newOptimizerSettings() *optimizerSettings {
	return &optimizerSettings{
		method: *method,

		iterations: *iterations,

		report: *report,

		accept:        *accept,
		annealingSkip: *annealingSkip,

		seed: *seed,
	}
}

// create creates and initializes a new optimizer from optimizerSettings.
func (o *optimizerSettings) create(m optimize.Optimizable) (optimize.Optimizer, error) {
	opt, err := o.getOptimizer()
	if err != nil {
		return nil, err
	}
	log.Infof("Using %s optimization.", o.method)

	if o.trajF != nil {
		opt.SetOutput(o.trajF)
	}
	opt.SetOptimizable(m)
	opt.SetReportPeriod(o.report)
	if o.cpIO != nil {
		opt.SetCheckpointIO(o.cpIO)
	}
	opt.WatchSignals(os.Interrupt, syscall.SIGUSR2)

	return opt, nil
}

// getOptimizer returns an optimizer from settings.
func (o *optimizerSettings) getOptimizer() (optimize.Optimizer, error) {
	switch o.method {
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "simplex":
		return optimize.NewDS(), nil
	case "mh":
		chain := optimize.NewMH(false, 0, o.seed)
		chain.AccPeriod = o.accept
		return chain, nil
	case "annealing":
		chain := optimize.NewMH(true, o.annealingSkip, o.seed)
		chain.AccPeriod = o.accept
		return chain, nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("unknown optimization method: %s", o.method)
}
