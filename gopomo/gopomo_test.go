package main

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gopomo/counts"
	"bitbucket.org/Davydov/gopomo/dna"
	"bitbucket.org/Davydov/gopomo/pomo"
)

const countsF = "testdata/sheep.cf"

func init() {
	for _, p := range logPackages {
		logging.SetLevel(logging.ERROR, p)
	}
}

func testSettings() *modelSettings {
	return &modelSettings{
		countsF:  countsF,
		pomo:     pomo.Settings{Model: "HKY", Verbosity: pomo.Silent},
		n:        5,
		sampling: counts.Weighted,
		maxBrLen: 100,
		brLen:    0.1,
	}
}

func tempDir(tst *testing.T) string {
	dir, err := ioutil.TempDir("", "gopomo")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return dir
}

func TestCreateInitialized(tst *testing.T) {
	ms := testSettings()
	c, err := ms.readCounts()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if c.NPop() != 2 || c.NSites() != 20 {
		tst.Fatal("Wrong counts:", c.NPop(), c.NSites())
	}

	l, err := ms.createInitialized(c, rand.New(rand.NewSource(1)))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	par := l.GetFloatParameters()
	names := par.Names(nil)
	if len(names) != 3 || names[2] != "t" {
		tst.Error("Wrong parameters:", names)
	}
	if lnL := l.Likelihood(); math.IsInf(lnL, 0) || math.IsNaN(lnL) || lnL >= 0 {
		tst.Error("Wrong likelihood:", lnL)
	}

	ms.noOptBrLen = true
	ms.pop1, ms.pop2 = "BlackSheep", "Sheep"
	l, err = ms.createInitialized(c, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(l.GetFloatParameters()) != 2 {
		tst.Error("Branch length should not be optimized")
	}
}

func TestUnknownPopulation(tst *testing.T) {
	ms := testSettings()
	ms.pop2 = "Goat"
	c, err := ms.readCounts()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := ms.createInitialized(c, nil); err == nil {
		tst.Error("Expected error for an unknown population")
	}
	if i, err := popIndex(c, "BlackSheep", 0); err != nil || i != 1 {
		tst.Error("Wrong population index:", i, err)
	}
}

func TestStartFile(tst *testing.T) {
	dir := tempDir(tst)
	defer os.RemoveAll(dir)

	ms := testSettings()
	ms.startF = filepath.Join(dir, "traj.txt")
	traj := "iteration\tlikelihood\tkappa\ttheta\tt\n10\t-100\t2.5\t0.02\t0.3\n"
	if err := ioutil.WriteFile(ms.startF, []byte(traj), 0666); err != nil {
		tst.Fatal("Error: ", err)
	}
	c, err := ms.readCounts()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	l, err := ms.createInitialized(c, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	par := l.GetFloatParameters()
	if v := par.Values(nil); v[0] != 2.5 || v[1] != 0.02 || v[2] != 0.3 {
		tst.Error("Wrong starting values:", v)
	}
	if l.BranchLength() != 0.3 {
		tst.Error("Wrong branch length:", l.BranchLength())
	}

	// JSON start file
	names := par.Names(nil)
	writeStart := func(v ...float64) {
		m := make(map[string]float64)
		for i, name := range names {
			m[name] = v[i]
		}
		b, _ := json.Marshal(m)
		if err := ioutil.WriteFile(ms.startF, b, 0666); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	writeStart(3, 0.005, 1)
	l, err = ms.createInitialized(c, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	par = l.GetFloatParameters()
	if v := par.Values(nil); v[0] != 3 || v[1] != 0.005 || v[2] != 1 {
		tst.Error("Wrong starting values from JSON:", v)
	}

	// out of range
	writeStart(3, 5, 1)
	if _, err := ms.createInitialized(c, nil); err == nil {
		tst.Error("Expected error for parameters out of range")
	}
}

func TestModelHelp(tst *testing.T) {
	for _, f := range app.Model().Flags {
		if f.Name != "model" {
			continue
		}
		list := f.Help[strings.Index(f.Help, "(")+1 : strings.Index(f.Help, ")")]
		for _, name := range strings.FieldsFunc(list, func(r rune) bool {
			return r == ',' || r == ' '
		}) {
			if name != "or" && !dna.Valid(name) {
				tst.Error("Model is not registered:", name)
			}
		}
		return
	}
	tst.Error("No model flag")
}

func TestGetOptimizer(tst *testing.T) {
	for _, m := range []string{"lbfgsb", "simplex", "mh", "annealing", "none"} {
		o := &optimizerSettings{method: m}
		if _, err := o.getOptimizer(); err != nil {
			tst.Error("Error: ", err)
		}
	}
	o := &optimizerSettings{method: "n_lbfgs"}
	if _, err := o.getOptimizer(); err == nil {
		tst.Error("Expected error for an unknown method")
	}
}

func TestCheckpointKey(tst *testing.T) {
	ms1 := testSettings()
	ms2 := testSettings()
	if string(checkpointKey(ms1)) != string(checkpointKey(ms2)) {
		tst.Error("Identical settings should share the checkpoint")
	}
	ms2.pomo.Model = "GTR"
	if string(checkpointKey(ms1)) == string(checkpointKey(ms2)) {
		tst.Error("Different models should not share the checkpoint")
	}
}

// setFlag sets a command-line option and returns a function
// restoring the old value.
func setFlag(p *string, v string) func() {
	old := *p
	*p = v
	return func() { *p = old }
}

func TestRunOptimization(tst *testing.T) {
	dir := tempDir(tst)
	defer os.RemoveAll(dir)

	defer setFlag(checkpointDB, filepath.Join(dir, "cp.db"))()
	defer setFlag(outF, filepath.Join(dir, "traj.txt"))()
	defer setFlag(reportF, filepath.Join(dir, "report.txt"))()
	defer setFlag(plotF, filepath.Join(dir, "freq.png"))()

	o := &optimizerSettings{method: "lbfgsb", iterations: 50, report: 1}
	summary, err := runOptimization(testSettings(), o, rand.New(rand.NewSource(1)))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if summary.Optimizer.MaxLnL < summary.Optimizer.StartLnL {
		tst.Error("Optimization decreased the likelihood")
	}
	if math.Abs(summary.Likelihood.LnL-summary.Optimizer.MaxLnL) > 1e-6 {
		tst.Error("Summary likelihood differs from the maximum:",
			summary.Likelihood.LnL, summary.Optimizer.MaxLnL)
	}
	if summary.Likelihood.Model.N != 5 || len(summary.Likelihood.Model.StateFreq) != 28 {
		tst.Error("Wrong model summary:", summary.Likelihood.Model)
	}
	for _, fn := range []string{*outF, *reportF, *plotF} {
		if fi, err := os.Stat(fn); err != nil || fi.Size() == 0 {
			tst.Error("Output file was not written:", fn, err)
		}
	}

	// the second run starts from the final checkpoint
	o = &optimizerSettings{method: "none", iterations: 1, report: 1}
	summary2, err := runOptimization(testSettings(), o, rand.New(rand.NewSource(1)))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if math.Abs(summary2.Optimizer.StartLnL-summary.Optimizer.MaxLnL) > 1e-6 {
		tst.Error("Run did not restart from the checkpoint:",
			summary2.Optimizer.StartLnL, summary.Optimizer.MaxLnL)
	}

	fn := filepath.Join(dir, "summary.json")
	if err := writeJSON(fn, &CallSummary{Version: "test", Run: summary}); err != nil {
		tst.Fatal("Error: ", err)
	}
	b, err := ioutil.ReadFile(fn)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		tst.Fatal("Error: ", err)
	}
	if v["version"] != "test" || v["run"] == nil {
		tst.Error("Wrong json summary:", string(b))
	}
}
