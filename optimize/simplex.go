package optimize

import (
	"math"
)

const (
	// TINY is the relative tolerance of the simplex.
	TINY = 1e-10
	// SMALL is the absolute likelihood change to stop after a
	// restart.
	SMALL = 1e-6
)

// DS is the downhill simplex optimizer (Nelder-Mead).
type DS struct {
	BaseOptimizer
	delta  float64
	ftol   float64
	repeat bool
	oldL   float64
	points []Optimizable
	psum   []float64
	pars   []FloatParameters
	ls     []float64
	newOpt Optimizable
	newPar FloatParameters
}

// NewDS creates a new downhill simplex optimizer.
func NewDS() *DS {
	return &DS{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
			method:    "simplex",
		},
		delta: 1,
		ftol:  TINY,
	}
}

// likelihood returns the likelihood of a point or -Inf if parameters
// are outside of the bounds.
func (ds *DS) likelihood(opt Optimizable, pars FloatParameters) float64 {
	if !pars.InRange() {
		return math.Inf(-1)
	}
	ds.calls++
	return opt.Likelihood()
}

// createSimplex creates a simplex around opt. The step is reduced
// for parameters close to their bounds.
func (ds *DS) createSimplex(opt Optimizable, delta float64) {
	parameters := opt.GetFloatParameters()
	ds.points = make([]Optimizable, len(parameters)+1)
	ds.pars = make([]FloatParameters, len(ds.points))
	ds.ls = make([]float64, len(ds.points))
	ds.points[0] = opt
	ds.pars[0] = parameters
	for i := 1; i < len(ds.points); i++ {
		point := opt.Copy()
		ds.points[i] = point
		ds.pars[i] = point.GetFloatParameters()
	}
	for i := 0; i < len(parameters); i++ {
		par := ds.pars[i+1][i]
		d := delta
		if w := par.GetMax() - par.GetMin(); w < 10*d {
			d = w / 10
		}
		v := par.Get() + d
		if !par.ValueInRange(v) {
			v = par.Get() - d
		}
		par.Set(v)
	}
	for i := range ds.points {
		ds.ls[i] = ds.likelihood(ds.points[i], ds.pars[i])
	}
}

// amotry extrapolates by factor fac through the face of the simplex
// across from the low point, tries it, and replaces the low point if
// the new point is better.
func (ds *DS) amotry(ilo int, fac float64) float64 {
	if ds.newOpt == nil {
		ds.newOpt = ds.points[0].Copy()
		ds.newPar = ds.newOpt.GetFloatParameters()
	}
	ds.calcPsum()
	ndim := len(ds.newPar)
	fac1 := (1 - fac) / float64(ndim)
	fac2 := fac1 - fac
	for j := 0; j < ndim; j++ {
		ds.newPar[j].Set(ds.psum[j]*fac1 - ds.pars[ilo][j].Get()*fac2)
	}
	l := ds.likelihood(ds.newOpt, ds.newPar)
	if l > ds.ls[ilo] {
		ds.points[ilo], ds.newOpt = ds.newOpt, ds.points[ilo]
		ds.pars[ilo], ds.newPar = ds.newPar, ds.pars[ilo]
		ds.ls[ilo] = l
	}
	return l
}

func (ds *DS) calcPsum() {
	if ds.psum == nil {
		ds.psum = make([]float64, len(ds.pars[0]))
	}
	for i := range ds.psum {
		ds.psum[i] = 0
		for _, parameters := range ds.pars {
			ds.psum[i] += parameters[i].Get()
		}
	}
}

// Run starts the optimization.
func (ds *DS) Run(iterations int) {
	ds.SaveStart()
	ds.PrintHeader()
	if len(ds.parameters) == 0 {
		log.Info("No parameters to optimize")
		ds.saveDeltaT()
		return
	}
	ds.createSimplex(ds.Optimizable, ds.delta)
	// Lowest (worst), next-lowest and highest points
	var ilo, inlo, ihi int
	var llo, lnlo, lhi float64
	start := ds.i
Iter:
	for ds.i = start + 1; ds.i <= start+iterations; ds.i++ {
		if ds.ls[0] < ds.ls[1] {
			ilo, inlo, ihi = 0, 1, 1
		} else {
			ilo, inlo, ihi = 1, 0, 0
		}
		llo, lnlo, lhi = ds.ls[ilo], ds.ls[inlo], ds.ls[ihi]
		for i := 2; i < len(ds.points); i++ {
			if ds.ls[i] >= lhi {
				lhi = ds.ls[i]
				ihi = i
			}
			if ds.ls[i] < llo {
				lnlo, inlo = llo, ilo
				llo, ilo = ds.ls[i], i
			} else if ds.ls[i] < lnlo {
				lnlo, inlo = ds.ls[i], i
			}
		}
		if lhi > ds.maxL {
			ds.maxL = lhi
			ds.maxLPar = ds.pars[ihi].Values(ds.maxLPar)
		}
		ds.l = lhi
		if ds.i%ds.repPeriod == 0 {
			log.Debugf("%d: L=%f (%f)", ds.i, lhi, lhi-llo)
		}
		ds.PrintLine(ds.pars[ihi], lhi, ds.repPeriod)
		rtol := 2 * math.Abs(ds.ls[ihi]-ds.ls[ilo]) / (math.Abs(ds.ls[ilo]) + math.Abs(ds.ls[ihi]) + TINY)
		if rtol < ds.ftol {
			if ds.repeat && math.Abs(ds.oldL-lhi) < SMALL {
				break Iter
			}
			ds.repeat = true
			ds.oldL = lhi
			log.Info("Converged, restarting the simplex")
			ds.createSimplex(ds.points[ihi], ds.delta)
			continue
		}
		l := ds.amotry(ilo, -1)
		switch {
		case l >= lhi:
			ds.amotry(ilo, 2)
		case l <= lnlo:
			lsave := llo
			l := ds.amotry(ilo, 0.5)
			if l <= lsave {
				for i, point := range ds.points {
					if i == ihi {
						continue
					}
					for j := range ds.pars[i] {
						ds.pars[i][j].Set(0.5 * (ds.pars[i][j].Get() + ds.pars[ihi][j].Get()))
					}
					ds.ls[i] = ds.likelihood(point, ds.pars[i])
				}
			}
		}
		if ds.signalled() {
			break Iter
		}
	}
	if ds.i > start+iterations {
		log.Warningf("Iterations exceeded (%d)", iterations)
	}

	ds.parameters.SetValues(ds.maxLPar)
	ds.l = ds.maxL
	log.Info("Finished downhill simplex")
	ds.SaveCheckpoint(true)
	ds.saveDeltaT()
}
