/*

Gopomo fits the polymorphism-aware phylogenetic model (PoMo) to allele
counts of two populations. It includes several likelihood optimizers
as well as Metropolis-Hastings sampler.

The basic usage of gopomo looks like this:

	gopomo data.cf

, this will run HKY+P model with the virtual population size N=9 and
the default optimizer (LBFGS-B).

You can change a mutation model, the population size and an optimizer:

	gopomo --model GTR --N 5 --method simplex data.cf

To see all the options run:

	gopomo --help

*/
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("gopomo")
var formatter = logging.MustStringFormatter(`%{message}`)

// packages which log level is controlled by -loglevel.
var logPackages = []string{"gopomo", "optimize", "pomo", "counts", "lhood", "checkpoint"}

// command-line options
var (
	// application
	app = kingpin.New("gopomo", "polymorphism-aware phylogenetic model optimizer and sampler").Version(version)

	// input counts file
	countsFileName = app.Arg("counts", "allele counts file").Required().ExistingFile()

	// model parameters
	model = app.Flag("model", "mutation model (JC, F81, K80, HKY, TN, K81, K81U, TIM, TVM, SYM, GTR "+
		"or UNREST), optionally with a frequency type suffix (+F, +FQ, +FO, +FU)").
		Default("HKY").String()
	params     = app.Flag("params", "comma separated mutation model rates (fixed)").String()
	freq       = app.Flag("freq", "boundary frequency type (F, FQ, FO or FU)").String()
	freqParams = app.Flag("freqparams", "comma separated user-defined boundary frequencies (for FU)").String()
	theta      = app.Flag("theta", "heterozygosity: empty to estimate, EMP to fix to "+
		"Watterson's theta or a number").String()
	popSize   = app.Flag("N", "virtual population size").Default("9").Int()
	sampling  = app.Flag("sampling", "sampling method (weighted or sampled)").Default("weighted").Enum("weighted", "sampled")
	matrixExp = app.Flag("mexp", "matrix exponentiation technique for non-reversible models "+
		"(eigen, scaling, eigen3, liemarkov)").Default("eigen").String()
	verbosity = app.Flag("verbosity", "model diagnostic output (0: silent, 1: normal, 2: verbose)").Default("1").Int()

	// populations
	pop1 = app.Flag("pop1", "first (root) population name, the first population by default").String()
	pop2 = app.Flag("pop2", "second population name, the second population by default").String()

	// branch length
	maxBrLen   = app.Flag("maxbrlen", "maximum branch length").Default("100").Float64()
	noOptBrLen = app.Flag("nobrlen", "don't optimize the branch length").Bool()
	brLen      = app.Flag("brlen", "starting branch length").Default("0.1").Float64()

	// optimizer parameters
	randomize = app.Flag("randomize", "use uniformly distributed random starting point").Bool()
	iterations = app.Flag("iter", "number of iterations").Default("10000").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	method     = app.Flag("method", "optimization method to use "+
		"(lbfgsb: limited-memory Broyden–Fletcher–Goldfarb–Shanno with bounding constraints, "+
		"simplex: downhill simplex, "+
		"annealing: simullated annealing, "+
		"mh: Metropolis-Hastings, "+
		"none: just compute likelihood, no optimization"+
		")").Default("lbfgsb").Enum("lbfgsb", "simplex", "annealing", "mh", "none")

	// mcmc parameters
	accept        = app.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()
	annealingSkip = app.Flag("skip", "number of iterations to skip before annealing").Default("0").Int()

	// technical
	seed = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()

	// checkpoints
	checkpointDB      = app.Flag("checkpoint", "checkpoint database file").String()
	checkpointSeconds = app.Flag("checkpoint-freq", "save checkpoint not more often than every N seconds").Default("60").Float64()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	outF     = app.Flag("out", "write optimization trajectory to a file").String()
	startF   = app.Flag("start", "read start position from the trajectory or JSON file").ExistingFile()
	reportF  = app.Flag("report-file", "write the model report to a file").String()
	plotF    = app.Flag("plot", "plot expected state frequencies to a file (png, svg, pdf)").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range logPackages {
		logging.SetLevel(level, p)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)
	rng := rand.New(rand.NewSource(*seed))

	startTime := time.Now()

	ms, err := newModelSettings()
	if err != nil {
		log.Fatal(err)
	}

	summary, err := runOptimization(ms, newOptimizerSettings(), rng)
	if err != nil {
		log.Fatal(err)
	}

	endTime := time.Now()
	deltaT := endTime.Sub(startTime)
	log.Noticef("Running time: %v", deltaT)

	callSummary := &CallSummary{
		Version:     version,
		CommandLine: os.Args,
		Seed:        *seed,
		TotalTime:   deltaT.Seconds(),
		Run:         summary,
	}

	// output summary in json format
	if *jsonF != "" {
		if err := writeJSON(*jsonF, callSummary); err != nil {
			log.Error("Error writing json output:", err)
		}
	}
}

// writeJSON writes a value to a json file.
func writeJSON(fn string, v interface{}) error {
	j, err := json.Marshal(v)
	if err != nil {
		return err
	}
	log.Debug(string(j))
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(j)
	return err
}
