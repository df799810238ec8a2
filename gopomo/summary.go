package main

import (
	"bitbucket.org/Davydov/gopomo/lhood"
	"bitbucket.org/Davydov/gopomo/optimize"
)

// CallSummary is storing gopomo call summary information.
type CallSummary struct {
	// Version stores gopomo version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// Time is the computations time in seconds.
	TotalTime float64 `json:"time"`
	// Run is the optimization summary.
	Run *OptimizationSummary `json:"run"`
}

// OptimizationSummary is storing gopomo run summary information.
type OptimizationSummary struct {
	// Time is the computations time in seconds.
	Time float64 `json:"optimizationTime"`
	// Likelihood is the likelihood and the model summary at the
	// optimum.
	Likelihood lhood.Summary `json:"likelihood"`
	// Optimizer is the optimizer summary.
	Optimizer optimize.Summary `json:"optimizer"`
}
