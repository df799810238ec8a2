package optimize

import (
	"io/ioutil"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gopomo/checkpoint"
)

func init() {
	logging.SetLevel(logging.ERROR, "optimize")
	logging.SetLevel(logging.ERROR, "checkpoint")
}

// quadratic has the maximum likelihood at x=1, y=-2.
type quadratic struct {
	x, y  float64
	pars  FloatParameters
	calls int
}

func newQuadratic(x, y float64) *quadratic {
	q := &quadratic{x: x, y: y}
	for _, p := range []struct {
		v    *float64
		name string
	}{{&q.x, "x"}, {&q.y, "y"}} {
		par := NewBasicFloatParameter(p.v, p.name)
		par.SetMin(-10)
		par.SetMax(10)
		par.SetPriorFunc(UniformPrior(-10, 10, true, true))
		par.SetProposalFunc(NormalProposal(0.5))
		q.pars.Append(par)
	}
	return q
}

func (q *quadratic) GetFloatParameters() FloatParameters {
	return q.pars
}

func (q *quadratic) Copy() Optimizable {
	return newQuadratic(q.x, q.y)
}

func (q *quadratic) Likelihood() float64 {
	q.calls++
	return -(q.x-1)*(q.x-1) - 2*(q.y+2)*(q.y+2)
}

func checkOptimum(tst *testing.T, opt Optimizer, q *quadratic, eps float64) {
	if math.Abs(q.x-1) > eps || math.Abs(q.y+2) > eps {
		tst.Errorf("Wrong optimum: x=%v, y=%v", q.x, q.y)
	}
	if opt.GetMaxL() < -eps {
		tst.Error("Wrong maximum likelihood:", opt.GetMaxL())
	}
	par := opt.GetMaxLParameters()
	if math.Abs(par[0]-q.x) > smallDiff || math.Abs(par[1]-q.y) > smallDiff {
		tst.Error("Model parameters differ from the maximum likelihood parameters")
	}
}

const smallDiff = 1e-12

func TestLBFGSB(tst *testing.T) {
	q := newQuadratic(5, 5)
	opt := NewLBFGSB()
	opt.SetOptimizable(q)
	opt.Run(100)
	checkOptimum(tst, opt, q, 1e-4)
}

func TestDS(tst *testing.T) {
	q := newQuadratic(5, 5)
	opt := NewDS()
	opt.SetOptimizable(q)
	opt.Run(1000)
	checkOptimum(tst, opt, q, 1e-3)
	s := opt.Summary()
	if s.Method != "simplex" || s.MaxLnL != opt.GetMaxL() || len(s.MaxLParameters) != 2 {
		tst.Error("Wrong summary:", s)
	}
}

func TestNone(tst *testing.T) {
	q := newQuadratic(1, 0)
	var sb strings.Builder
	opt := NewNone()
	opt.SetOptimizable(q)
	opt.SetOutput(&sb)
	opt.Run(100)
	if opt.GetL() != -8 || q.calls != 1 {
		tst.Error("Wrong likelihood:", opt.GetL(), q.calls)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 || lines[0] != "iteration\tlikelihood\tx\ty" {
		tst.Errorf("Wrong trajectory output:\n%s", sb.String())
	}
	var pars FloatParameters
	x, y := 0.0, 0.0
	pars.Append(NewBasicFloatParameter(&x, "x"))
	pars.Append(NewBasicFloatParameter(&y, "y"))
	if err := pars.ReadLine(lines[1]); err != nil {
		tst.Fatal("Error: ", err)
	}
	if x != 1 || y != 0 {
		tst.Error("Wrong values from the trajectory:", x, y)
	}
}

func TestMH(tst *testing.T) {
	q := newQuadratic(5, 5)
	opt := NewMH(false, 0, 1)
	opt.SetOptimizable(q)
	opt.Run(5000)
	if opt.GetMaxL() <= opt.Summary().StartLnL {
		tst.Error("Sampler did not improve the likelihood")
	}
	if opt.GetMaxL() < -0.5 {
		tst.Error("Sampler did not approach the maximum:", opt.GetMaxL())
	}
	if !q.pars.InRange() {
		tst.Error("Parameters out of range")
	}
}

func TestAnnealing(tst *testing.T) {
	q := newQuadratic(-5, 5)
	opt := NewMH(true, 100, 2)
	opt.SetOptimizable(q)
	opt.Run(3000)
	if opt.GetMaxL() < -0.25 {
		tst.Error("Annealing did not approach the maximum:", opt.GetMaxL())
	}
}

func TestCheckpoint(tst *testing.T) {
	dir, err := ioutil.TempDir("", "optimize")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	defer os.RemoveAll(dir)
	db, err := checkpoint.Open(filepath.Join(dir, "cp.db"))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	defer db.Close()
	cpIO := checkpoint.NewCheckpointIO(db, []byte("test"), 1000)

	q := newQuadratic(5, 5)
	opt := NewLBFGSB()
	opt.SetOptimizable(q)
	opt.SetCheckpointIO(cpIO)
	opt.Run(100)

	data, err := cpIO.GetParameters()
	if err != nil || data == nil {
		tst.Fatal("Checkpoint not found", err)
	}
	if !data.Final || math.Abs(data.Parameters["x"]-1) > 1e-4 {
		tst.Error("Wrong final checkpoint:", data)
	}

	// a new run starts from the checkpoint
	q2 := newQuadratic(5, 5)
	opt2 := NewNone()
	opt2.SetOptimizable(q2)
	opt2.SetCheckpointIO(cpIO)
	opt2.Run(1)
	if math.Abs(q2.x-1) > 1e-4 || math.Abs(q2.y+2) > 1e-4 {
		tst.Error("Parameters were not restored:", q2.x, q2.y)
	}
}

func TestPriors(tst *testing.T) {
	u := UniformPrior(0, 2, false, true)
	if !math.IsInf(u(0), -1) || math.Abs(u(2)+math.Log(2)) > smallDiff || !math.IsInf(u(2.1), -1) {
		tst.Error("Wrong uniform prior")
	}
	e := ExponentialPrior(2, false)
	if math.Abs(e(1)-(math.Log(2)-2)) > smallDiff || !math.IsInf(e(0), -1) {
		tst.Error("Wrong exponential prior")
	}
	// gamma with shape 1 is exponential
	g := GammaPrior(1, 0.5, true)
	if math.Abs(g(1)-e(1)) > smallDiff {
		tst.Error("Wrong gamma prior:", g(1), e(1))
	}
	p := ProductPrior(e, g)
	if math.Abs(p(1)-2*e(1)) > smallDiff {
		tst.Error("Wrong product prior")
	}
}

func TestReflect(tst *testing.T) {
	x := 0.9
	par := NewBasicFloatParameter(&x, "x")
	par.SetMin(0)
	par.SetMax(1)
	par.SetProposalFunc(func(v float64, _ *rand.Rand) float64 { return v + 0.3 })
	par.Propose(nil)
	if math.Abs(x-0.8) > smallDiff {
		tst.Error("Expected 0.8 after reflection, got", x)
	}
	par.Reject()
	if x != 0.9 {
		tst.Error("Reject should restore the value, got", x)
	}
}

func TestUniformProposal(tst *testing.T) {
	rng := rand.New(rand.NewSource(1))
	f := UniformProposal(0.5)
	for i := 0; i < 1000; i++ {
		if v := f(2, rng); v < 1.75 || v > 2.25 {
			tst.Fatal("Proposal out of the window:", v)
		}
	}
}
