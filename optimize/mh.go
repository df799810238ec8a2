package optimize

import (
	"math"
	"math/rand"
)

// MH is a Metropolis-Hastings sampler. With annealing enabled it
// becomes simulated annealing.
type MH struct {
	BaseOptimizer
	// AccPeriod is the acceptance rate reporting period.
	AccPeriod int
	annealing bool
	// iteration to skip before annealing
	annealingSkip int
	rng           *rand.Rand
}

// NewMH creates a new MH sampler.
func NewMH(annealing bool, annealingSkip int, seed int64) *MH {
	method := "mh"
	if annealing {
		method = "annealing"
	}
	return &MH{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    method,
		},
		AccPeriod:     10,
		annealing:     annealing,
		annealingSkip: annealingSkip,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Run starts sampling.
func (m *MH) Run(iterations int) {
	m.SaveStart()
	m.PrintHeader()
	if len(m.parameters) == 0 {
		log.Info("No parameters to sample")
		m.saveDeltaT()
		return
	}
	accepted := 0
	lastReported := -1
	l := m.startL
	start := m.i
Iter:
	for ; m.i < start+iterations; m.i++ {
		T := 1.0
		if m.annealing && m.i-start >= m.annealingSkip {
			T = math.Pow(0.9, float64(m.i-start-m.annealingSkip)/float64(iterations-m.annealingSkip)*100)
		}
		if m.i > start && m.AccPeriod > 0 && (m.i-start)%m.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%", 100*float64(accepted)/float64(m.AccPeriod))
			accepted = 0
		}

		m.PrintLine(m.parameters, l, m.repPeriod)
		if m.i%m.repPeriod == 0 {
			if m.annealing {
				log.Debugf("%d: L=%f, T=%f", m.i, l, T)
			} else {
				log.Debugf("%d: L=%f", m.i, l)
			}
			lastReported = m.i
		}
		par := m.parameters[m.rng.Intn(len(m.parameters))]
		par.Propose(m.rng)
		newL := m.Likelihood()
		m.calls++

		var a float64
		if m.annealing {
			a = math.Exp((newL - l) / T)
		} else {
			a = math.Exp(par.Prior() - par.OldPrior() + newL - l)
		}

		if a > 1 || m.rng.Float64() < a {
			l = newL
			par.Accept(m.i)
			accepted++
			m.update(l)
		} else {
			par.Reject()
		}

		if m.signalled() {
			break Iter
		}
	}
	m.l = l

	if m.i != lastReported {
		m.PrintLine(m.parameters, l, 1)
	}

	m.SaveCheckpoint(true)
	m.saveDeltaT()
}
