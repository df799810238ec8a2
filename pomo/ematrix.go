package pomo

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

const (
	// maxCond is the largest condition number of the eigenvector
	// matrix accepted by Eigen.
	maxCond = 1e6
	// expNorm is the largest 1-norm of Qt/2^s passed to the Taylor
	// expansion.
	expNorm = 0.5
)

// ErrIllConditioned is returned by Eigen if the eigenvectors are
// close to linearly dependent.
var ErrIllConditioned = errors.New("eigenvectors are ill-conditioned")

// EMatrix stores a rate matrix and its eigendecomposition to quickly
// compute e^Qt. Complex eigenvalues are stored as pairs a+bi, a-bi
// (b > 0 first); the corresponding columns of v hold the real and the
// imaginary part of the eigenvector.
type EMatrix struct {
	// Q is the rate matrix.
	Q *mat64.Dense
	// re and im are real and imaginary parts of the eigenvalues.
	re []float64
	im []float64
	v  *mat64.Dense
	iv *mat64.Dense
	// tmp is a workspace.
	tmp *mat64.Dense
	// scaling means e^Qt is computed by scaling and squaring.
	scaling    bool
	decomposed bool
}

// NewEMatrix creates a new EMatrix.
func NewEMatrix(Q *mat64.Dense) *EMatrix {
	return &EMatrix{Q: Q}
}

// Copy creates a copy of EMatrix for the rate matrix Q while saving
// the eigendecomposition.
func (e *EMatrix) Copy(Q *mat64.Dense) *EMatrix {
	newE := &EMatrix{
		Q:          Q,
		scaling:    e.scaling,
		decomposed: e.decomposed,
	}
	if e.decomposed {
		newE.re = append([]float64(nil), e.re...)
		newE.im = append([]float64(nil), e.im...)
		newE.v = mat64.DenseCopyOf(e.v)
		newE.iv = mat64.DenseCopyOf(e.iv)
	}
	return newE
}

// reset allocates the storage and invalidates the decomposition.
func (e *EMatrix) reset() int {
	n, _ := e.Q.Dims()
	if e.v == nil {
		e.re = make([]float64, n)
		e.im = make([]float64, n)
		e.v = mat64.NewDense(n, n, nil)
		e.iv = mat64.NewDense(n, n, nil)
	}
	e.decomposed = false
	e.scaling = false
	return n
}

// EigenSym decomposes a rate matrix which is reversible with respect
// to the frequencies pi. The symmetric matrix
// S = diag(sqrt(pi)) Q diag(1/sqrt(pi)) is decomposed as U L U^T, so
// Q = V L V^-1 with V = diag(1/sqrt(pi)) U and V^-1 = U^T diag(sqrt(pi)).
func (e *EMatrix) EigenSym(pi []float64) error {
	n := e.reset()
	if len(pi) != n {
		return errors.New("frequencies do not match the rate matrix")
	}
	sq := make([]float64, n)
	for i, f := range pi {
		if f <= 0 {
			return errors.New("non-positive stationary frequency")
		}
		sq[i] = math.Sqrt(f)
	}
	s := mat64.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sij := sq[i] * e.Q.At(i, j) / sq[j]
			sji := sq[j] * e.Q.At(j, i) / sq[i]
			s.SetSym(i, j, (sij+sji)/2)
		}
	}
	var eig mat64.EigenSym
	if ok := eig.Factorize(s, true); !ok {
		return errors.New("symmetric eigendecomposition failed")
	}
	eig.Values(e.re)
	for i := range e.im {
		e.im[i] = 0
	}
	var u mat64.Dense
	u.EigenvectorsSym(&eig)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			e.v.Set(i, j, u.At(i, j)/sq[i])
			e.iv.Set(i, j, u.At(j, i)*sq[j])
		}
	}
	e.decomposed = true
	return nil
}

// Eigen performs the general eigendecomposition.
func (e *EMatrix) Eigen() error {
	n := e.reset()
	var eig mat64.Eigen
	if ok := eig.Factorize(e.Q, false, true); !ok {
		return errors.New("eigendecomposition failed")
	}
	values := eig.Values(nil)
	for i, c := range values {
		e.re[i] = real(c)
		e.im[i] = imag(c)
	}
	for j := 0; j < n; j++ {
		if e.im[j] != 0 && (j+1 == n || e.im[j] < 0) {
			return errors.New("unexpected order of complex eigenvalues")
		}
		if e.im[j] != 0 {
			j++
		}
	}
	e.v.Copy(eig.Vectors())
	// repeated eigenvalues of the drift blocks can give nearly
	// dependent eigenvectors
	if c := mat64.Cond(e.v, 1); c > maxCond || math.IsNaN(c) {
		return fmt.Errorf("%w (condition number %.3g)", ErrIllConditioned, c)
	}
	if err := e.iv.Inverse(e.v); err != nil {
		return err
	}
	e.decomposed = true
	return nil
}

// SetScalingSquaring switches to the scaling and squaring
// exponentiation. No decomposition is performed.
func (e *EMatrix) SetScalingSquaring() {
	e.reset()
	e.scaling = true
}

// IsScalingSquaring returns true if e^Qt is computed by scaling and
// squaring.
func (e *EMatrix) IsScalingSquaring() bool {
	return e.scaling
}

// Eigenvalues returns real and imaginary parts of the eigenvalues.
func (e *EMatrix) Eigenvalues() (re, im []float64) {
	return e.re, e.im
}

// mulBlocks computes V*B into the workspace. B is block diagonal: a
// real eigenvalue a gives the element x of g(a, 0), a complex pair
// a+bi, a-bi gives the block [[x, y], [-y, x]] with x, y = g(a, b).
func (e *EMatrix) mulBlocks(g func(a, b float64) (x, y float64)) *mat64.Dense {
	n := len(e.re)
	if e.tmp == nil {
		e.tmp = mat64.NewDense(n, n, nil)
	}
	for j := 0; j < n; j++ {
		if e.im[j] == 0 {
			x, _ := g(e.re[j], 0)
			for i := 0; i < n; i++ {
				e.tmp.Set(i, j, e.v.At(i, j)*x)
			}
			continue
		}
		x, y := g(e.re[j], e.im[j])
		for i := 0; i < n; i++ {
			vj, vk := e.v.At(i, j), e.v.At(i, j+1)
			e.tmp.Set(i, j, x*vj-y*vk)
			e.tmp.Set(i, j+1, y*vj+x*vk)
		}
		j++
	}
	return e.tmp
}

// Reconstruct computes V L V^-1 from the decomposition into dst (or a
// new matrix if dst is nil).
func (e *EMatrix) Reconstruct(dst *mat64.Dense) (*mat64.Dense, error) {
	if !e.decomposed {
		return nil, errors.New("matrix is not decomposed")
	}
	if dst == nil {
		n := len(e.re)
		dst = mat64.NewDense(n, n, nil)
	}
	w := e.mulBlocks(func(a, b float64) (float64, float64) {
		return a, b
	})
	dst.Mul(w, e.iv)
	return dst, nil
}

// Exp computes P=e^Qt and writes it to dst (or a new matrix if dst is
// nil).
func (e *EMatrix) Exp(dst *mat64.Dense, t float64) (*mat64.Dense, error) {
	rows, cols := e.Q.Dims()
	if rows != cols {
		return nil, errors.New("Q isn't a square matrix")
	}
	if dst == nil {
		dst = mat64.NewDense(rows, cols, nil)
	}
	switch {
	case e.scaling:
		e.expScaled(dst, t)
	case e.decomposed:
		w := e.mulBlocks(func(a, b float64) (float64, float64) {
			ea := math.Exp(a * t)
			return ea * math.Cos(b*t), ea * math.Sin(b*t)
		})
		dst.Mul(w, e.iv)
	default:
		return nil, errors.New("matrix is not decomposed")
	}
	// Remove slightly negative values
	dst.Apply(func(r, c int, v float64) float64 {
		return math.Max(0, v)
	}, dst)
	return dst, nil
}

// expScaled computes e^Qt into dst. Qt is divided by 2^s to bring its
// 1-norm below expNorm, exponentiated and squared s times.
func (e *EMatrix) expScaled(dst *mat64.Dense, t float64) {
	n, _ := e.Q.Dims()
	if e.tmp == nil {
		e.tmp = mat64.NewDense(n, n, nil)
	}
	s := 0
	if norm := mat64.Norm(e.Q, 1) * math.Abs(t); norm > expNorm {
		s = int(math.Ceil(math.Log2(norm / expNorm)))
	}
	e.tmp.Scale(t/math.Pow(2, float64(s)), e.Q)
	dst.Exp(e.tmp)
	for i := 0; i < s; i++ {
		e.tmp.Mul(dst, dst)
		dst.Copy(e.tmp)
	}
}
