package mcf

import (
	"fmt"

	"mcf-skeleton/internal/linalg"
	"mcf-skeleton/internal/mathutil"
)

// fixedAnchorWeight pins fixed vertices in place.
func (e *Engine) fixedAnchorWeight() float64 { return 1 / e.params.ZeroThreshold }

// system is one assembled contraction step.
type system struct {
	ids []int
	a   *linalg.Matrix
	b   [3][]float64
}

// assemble builds the least-squares system over the live vertices. Rows
// [0,n) are the Laplacian, [n,2n) the anchors and, when medially centered,
// [2n,3n) the pole attractions. Row i of each block belongs to the i-th
// vertex in ascending id order. Only input vertices are pulled towards their
// pole; vertices inserted by splits get an empty pole row.
func (e *Engine) assemble() *system {
	m := e.m
	ids := m.Vertices()
	n := len(ids)
	row := make([]int, m.MaxVertexID())
	for i, v := range ids {
		row[v] = i
	}

	blocks := 2
	if e.params.MediallyCentered {
		blocks = 3
	}
	s := &system{ids: ids, a: linalg.NewMatrix(blocks*n, n)}
	for k := range s.b {
		s.b[k] = make([]float64, blocks*n)
	}

	w := e.computeWeights()
	for i, v := range ids {
		vx := m.Vertex(v)
		if !vx.Fixed {
			var diag float64
			for _, h := range m.Outgoing(v) {
				wij := 2 * w[h]
				s.a.Set(i, row[m.Target(h)], wij)
				diag -= wij
			}
			s.a.Set(i, i, diag)
		}

		wh := e.params.QualitySpeedTradeoff
		if vx.Fixed {
			wh = e.fixedAnchorWeight()
		}
		s.a.Set(n+i, i, wh)
		for k := 0; k < 3; k++ {
			s.b[k][n+i] = wh * vx.Pos[k]
		}

		if blocks == 3 && !vx.Fixed && v < m.OriginalCount() && e.inside.Inside(vx.Pole) {
			wp := e.params.MediallyCenteredSpeedTradeoff
			s.a.Set(2*n+i, i, wp)
			for k := 0; k < 3; k++ {
				s.b[k][2*n+i] = wp * vx.Pole[k]
			}
		}
	}
	return s
}

// ContractGeometry runs one implicit mean-curvature step: assemble, factor
// once, solve the three coordinates and move every non-fixed vertex. On a
// solver failure no vertex moves and the error wraps ErrLinearSolverFailure.
func (e *Engine) ContractGeometry() error {
	if e.params.MediallyCentered && !e.polesComputed {
		if err := e.ComputePoles(); err != nil {
			return err
		}
	}

	s := e.assemble()
	solver := e.newSolver(len(s.ids))
	if err := solver.Prefactor(s.a); err != nil {
		return fmt.Errorf("%w: prefactor: %w", ErrLinearSolverFailure, err)
	}
	var x [3][]float64
	for k := range x {
		sol, err := solver.Solve(s.b[k])
		if err != nil {
			return fmt.Errorf("%w: solve axis %d: %w", ErrLinearSolverFailure, k, err)
		}
		if len(sol) != len(s.ids) {
			return fmt.Errorf("%w: axis %d: %d values for %d vertices", ErrLinearSolverFailure, k, len(sol), len(s.ids))
		}
		x[k] = sol
	}

	for i, v := range s.ids {
		if e.m.Vertex(v).Fixed {
			continue
		}
		e.m.SetPos(v, mathutil.Vec3{x[0][i], x[1][i], x[2][i]})
	}
	return nil
}
