package optimize

import (
	"errors"
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// errStop stops the L-BFGS-B iterations.
var errStop = errors.New("optimization stopped")

// LBFGSB is the limited-memory BFGS optimizer with bounds. The
// gradient is computed numerically.
type LBFGSB struct {
	BaseOptimizer
	dH      float64
	grad    []float64
	stopped bool
}

// NewLBFGSB creates a new L-BFGS-B optimizer.
func NewLBFGSB() *LBFGSB {
	return &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    "lbfgsb",
		},
		dH: 1e-6,
	}
}

// Logger is called by L-BFGS-B after every iteration.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	l.parameters.SetValues(info.X)
	l.PrintLine(l.parameters, -info.F, l.repPeriod)
	if l.signalled() {
		l.stopped = true
	}
}

// EvaluateFunction returns the negative log likelihood at x.
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if l.stopped {
		return math.Inf(+1)
	}
	if !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}
	l.parameters.SetValues(x)
	L := l.Likelihood()
	l.calls++
	l.update(L)
	return -L
}

// EvaluateGradient computes the gradient of the negative log
// likelihood using the central differences.
func (l *LBFGSB) EvaluateGradient(x []float64) []float64 {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	for i := range x {
		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		lo := math.Max(x[i]-l.dH, par1[i].GetMin())
		par1[i].Set(lo)
		l1 := -no1.Likelihood()
		l.calls++

		no2 := no1.Copy()
		par2 := no2.GetFloatParameters()
		hi := math.Min(x[i]+l.dH, par2[i].GetMax())
		par2[i].Set(hi)
		l2 := -no2.Likelihood()
		l.calls++

		l.grad[i] = (l2 - l1) / (hi - lo)
	}
	return l.grad
}

// Run starts the optimization.
func (l *LBFGSB) Run(iterations int) {
	l.SaveStart()
	l.PrintHeader()
	if len(l.parameters) == 0 {
		log.Info("No parameters to optimize")
		l.saveDeltaT()
		return
	}
	bounds := make([][2]float64, len(l.parameters))
	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin()
		bounds[i][1] = par.GetMax()
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)
	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, l.parameters.Values(nil))
	if l.stopped {
		log.Warning(errStop)
	}
	log.Info("Exit status: ", exitStatus)

	// the last evaluated point is not necessarily the best one
	l.parameters.SetValues(l.maxLPar)
	l.l = l.maxL
	log.Info("Finished LBFGSB")
	l.SaveCheckpoint(true)
	l.saveDeltaT()
}
