// Package optimize implements likelihood optimizers (L-BFGS-B,
// downhill simplex) and the Metropolis-Hastings sampler.
package optimize

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gopomo/checkpoint"
)

var log = logging.MustGetLogger("optimize")

// Optimizable is a model which likelihood can be optimized.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Copy() Optimizable
	Likelihood() float64
}

// Optimizer is an optimizer or a sampler.
type Optimizer interface {
	SetOptimizable(Optimizable)
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	SetOutput(io.Writer)
	SetCheckpointIO(*checkpoint.CheckpointIO)
	Run(iterations int)
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
	PrintResults()
	Summary() Summary
}

// Summary is the optimizer summary for the JSON output.
type Summary struct {
	// Method is the optimization method name.
	Method string `json:"method"`
	// StartLnL is the likelihood at the starting point.
	StartLnL float64 `json:"startLnL"`
	// MaxLnL is the maximum log likelihood.
	MaxLnL float64 `json:"maxLnL"`
	// MaxLParameters are the parameter values at the maximum.
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	// Iterations is the number of iterations performed.
	Iterations int `json:"iterations"`
	// LikelihoodCalls is the number of likelihood computations.
	LikelihoodCalls int `json:"likelihoodCalls"`
	// Time is the optimization time in seconds.
	Time float64 `json:"time"`
}

// BaseOptimizer contains the code shared by the optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	method     string
	i          int
	l          float64
	startL     float64
	maxL       float64
	maxLPar    []float64
	calls      int
	repPeriod  int
	sig        chan os.Signal
	output     io.Writer
	cpIO       *checkpoint.CheckpointIO
	startTime  time.Time
	deltaT     time.Duration
	// Quiet disables the trajectory output.
	Quiet bool
}

// SetOptimizable sets the model to optimize.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// WatchSignals stops the optimization if one of the signals is
// received.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetReportPeriod sets how often the trajectory is printed.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetOutput sets the trajectory output.
func (o *BaseOptimizer) SetOutput(w io.Writer) {
	o.output = w
}

// SetCheckpointIO enables saving and restoring of the optimization
// progress.
func (o *BaseOptimizer) SetCheckpointIO(cpIO *checkpoint.CheckpointIO) {
	o.cpIO = cpIO
}

// signalled returns true if a watched signal was received.
func (o *BaseOptimizer) signalled() bool {
	if o.sig == nil {
		return false
	}
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
		return false
	}
}

// SaveStart restores the checkpoint if present and computes the
// starting likelihood.
func (o *BaseOptimizer) SaveStart() {
	o.startTime = time.Now()
	if o.repPeriod <= 0 {
		o.repPeriod = 10
	}
	if o.cpIO != nil {
		data, err := o.cpIO.GetParameters()
		if err != nil {
			log.Error("Error reading checkpoint:", err)
		}
		if data != nil {
			if err := o.parameters.SetFromMap(data.Parameters); err != nil {
				log.Error("Cannot restore parameters from checkpoint:", err)
			} else {
				o.i = data.Iter
			}
		}
		o.cpIO.SetNow()
	}
	o.startL = o.Likelihood()
	o.calls++
	o.l = o.startL
	o.maxL = o.startL
	o.maxLPar = o.parameters.Values(o.maxLPar)
}

// SaveCheckpoint writes the current state of the optimization if the
// last checkpoint is old or the optimization is finished.
func (o *BaseOptimizer) SaveCheckpoint(final bool) {
	if o.cpIO == nil || !(final || o.cpIO.Old()) {
		return
	}
	pars := o.parameters.Map()
	if final {
		pars = make(map[string]float64, len(o.parameters))
		for i, par := range o.parameters {
			pars[par.Name()] = o.maxLPar[i]
		}
	}
	l := o.l
	if final {
		l = o.maxL
	}
	o.cpIO.Save(&checkpoint.CheckpointData{
		Parameters: pars,
		Likelihood: l,
		Iter:       o.i,
		Final:      final,
	})
}

// update records the likelihood of the current parameters.
func (o *BaseOptimizer) update(l float64) {
	o.l = l
	if l > o.maxL || math.IsInf(o.maxL, -1) {
		o.maxL = l
		o.maxLPar = o.parameters.Values(o.maxLPar)
	}
}

// PrintHeader prints the trajectory header.
func (o *BaseOptimizer) PrintHeader() {
	if !o.Quiet && o.output != nil {
		fmt.Fprintf(o.output, "iteration\tlikelihood\t%s\n", o.parameters.NamesString())
	}
}

// PrintLine prints the trajectory line every repPeriod iterations and
// saves a checkpoint when needed.
func (o *BaseOptimizer) PrintLine(par FloatParameters, l float64, repPeriod int) {
	if repPeriod <= 0 || o.i%repPeriod != 0 {
		return
	}
	if !o.Quiet && o.output != nil {
		fmt.Fprintf(o.output, "%d\t%f\t%s\n", o.i, l, par.ValuesString())
	}
	o.SaveCheckpoint(false)
}

// saveDeltaT records the optimization time.
func (o *BaseOptimizer) saveDeltaT() {
	o.deltaT = time.Since(o.startTime)
}

// PrintResults logs the maximum likelihood parameters.
func (o *BaseOptimizer) PrintResults() {
	log.Noticef("Maximum likelihood: %v", o.maxL)
	log.Infof("Likelihood function calls: %v", o.calls)
	for i, par := range o.parameters {
		if i < len(o.maxLPar) {
			log.Noticef("%s=%v", par.Name(), o.maxLPar[i])
		}
	}
	log.Infof("Optimization time: %v", o.deltaT)
}

// GetL returns the current likelihood.
func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

// GetMaxL returns the maximum likelihood.
func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

// GetMaxLParameters returns the maximum likelihood parameter values.
func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Summary returns the optimization summary.
func (o *BaseOptimizer) Summary() Summary {
	pars := make(map[string]float64, len(o.parameters))
	for i, par := range o.parameters {
		if i < len(o.maxLPar) {
			pars[par.Name()] = o.maxLPar[i]
		}
	}
	return Summary{
		Method:          o.method,
		StartLnL:        o.startL,
		MaxLnL:          o.maxL,
		MaxLParameters:  pars,
		Iterations:      o.i,
		LikelihoodCalls: o.calls,
		Time:            o.deltaT.Seconds(),
	}
}
