package linalg

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingular      = errors.New("linalg: system is singular")
	ErrNotFactored   = errors.New("linalg: solve before prefactor")
	ErrNoConvergence = errors.New("linalg: iterative solver did not converge")
	ErrDimension     = errors.New("linalg: dimension mismatch")
)

// Solver solves min ‖A·x − b‖² for one matrix and many right-hand sides.
type Solver interface {
	// Prefactor prepares A; it must be called before Solve.
	Prefactor(a *Matrix) error
	Solve(b []float64) ([]float64, error)
}

// Factory returns a solver suited to a system with n unknowns.
type Factory func(n int) Solver

// DenseLimit is the largest number of unknowns Auto sends to Cholesky.
const DenseLimit = 1500

// Auto picks a dense Cholesky factorization for small systems and a
// preconditioned conjugate gradient beyond DenseLimit.
func Auto(n int) Solver {
	if n <= DenseLimit {
		return &Cholesky{}
	}
	return &ConjugateGradient{}
}

// Cholesky factors the normal equations AᵀA densely with gonum.
type Cholesky struct {
	a    *Matrix
	chol mat.Cholesky
}

func (c *Cholesky) Prefactor(a *Matrix) error {
	n := a.Cols()
	ata := mat.NewSymDense(n, nil)
	for j, row := range a.normal() {
		for _, e := range row {
			if e.col >= j {
				ata.SetSym(j, e.col, e.val)
			}
		}
	}
	if ok := c.chol.Factorize(ata); !ok {
		c.a = nil
		return errors.Wrapf(ErrSingular, "cholesky of %dx%d normal matrix", n, n)
	}
	c.a = a
	return nil
}

func (c *Cholesky) Solve(b []float64) ([]float64, error) {
	if c.a == nil {
		return nil, ErrNotFactored
	}
	if len(b) != c.a.Rows() {
		return nil, errors.Wrapf(ErrDimension, "rhs has %d rows, matrix %d", len(b), c.a.Rows())
	}
	rhs := mat.NewVecDense(c.a.Cols(), c.a.MulTransVec(b))
	var x mat.VecDense
	if err := c.chol.SolveVecTo(&x, rhs); err != nil {
		// A Condition error still carries a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errors.Wrap(ErrSingular, err.Error())
		}
	}
	out := make([]float64, c.a.Cols())
	copy(out, x.RawVector().Data)
	return out, nil
}

// ConjugateGradient runs Jacobi-preconditioned CG on the normal equations.
// The zero value uses Tol 1e-10 and 10n iterations.
type ConjugateGradient struct {
	Tol     float64
	MaxIter int

	a    *Matrix
	ata  [][]entry
	diag []float64
}

func (cg *ConjugateGradient) Prefactor(a *Matrix) error {
	cg.ata = a.normal()
	cg.diag = make([]float64, a.Cols())
	for j, row := range cg.ata {
		for _, e := range row {
			if e.col == j {
				cg.diag[j] = e.val
			}
		}
		if cg.diag[j] <= 0 {
			cg.a = nil
			return errors.Wrapf(ErrSingular, "column %d has no weight", j)
		}
	}
	cg.a = a
	return nil
}

func (cg *ConjugateGradient) mul(x, dst []float64) {
	for j, row := range cg.ata {
		var s float64
		for _, e := range row {
			s += e.val * x[e.col]
		}
		dst[j] = s
	}
}

func (cg *ConjugateGradient) Solve(b []float64) ([]float64, error) {
	if cg.a == nil {
		return nil, ErrNotFactored
	}
	if len(b) != cg.a.Rows() {
		return nil, errors.Wrapf(ErrDimension, "rhs has %d rows, matrix %d", len(b), cg.a.Rows())
	}
	tol := cg.Tol
	if tol <= 0 {
		tol = 1e-10
	}
	n := cg.a.Cols()
	maxIter := cg.MaxIter
	if maxIter <= 0 {
		maxIter = 10 * n
	}

	rhs := cg.a.MulTransVec(b)
	z := make([]float64, n)
	floats.DivTo(z, rhs, cg.diag)
	// Residuals are measured in the Jacobi-scaled norm so that heavily
	// weighted unknowns do not mask the others.
	ref := math.Sqrt(floats.Dot(rhs, z))
	if ref == 0 {
		return make([]float64, n), nil
	}

	x := append([]float64(nil), z...)
	r := make([]float64, n)
	cg.mul(x, r)
	floats.SubTo(r, rhs, r)
	floats.DivTo(z, r, cg.diag)
	p := append([]float64(nil), z...)
	ap := make([]float64, n)
	rz := floats.Dot(r, z)

	for it := 0; it < maxIter; it++ {
		if math.Sqrt(rz) <= tol*ref {
			return x, nil
		}
		cg.mul(p, ap)
		pap := floats.Dot(p, ap)
		if pap <= 0 {
			return nil, errors.Wrapf(ErrSingular, "non-positive curvature at iteration %d", it)
		}
		alpha := rz / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		floats.DivTo(z, r, cg.diag)
		rzNext := floats.Dot(r, z)
		floats.AddScaledTo(p, z, rzNext/rz, p)
		rz = rzNext
	}
	if math.Sqrt(rz) <= tol*ref {
		return x, nil
	}
	return nil, errors.Wrapf(ErrNoConvergence, "scaled residual %g after %d iterations", math.Sqrt(rz)/ref, maxIter)
}
