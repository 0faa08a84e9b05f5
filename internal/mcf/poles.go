package mcf

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mcf-skeleton/internal/delaunay"
	"mcf-skeleton/internal/mathutil"
)

// Triangulation is a tetrahedralization of a point set: cells index the input
// points and Dual is the circumcenter of a cell.
type Triangulation interface {
	NumCells() int
	Cell(i int) [4]int
	Dual(i int) mathutil.Vec3
}

// Triangulator builds a Delaunay tetrahedralization.
type Triangulator interface {
	Build(points []mathutil.Vec3) (Triangulation, error)
}

// TriangulatorFunc adapts a function to Triangulator.
type TriangulatorFunc func(points []mathutil.Vec3) (Triangulation, error)

func (f TriangulatorFunc) Build(points []mathutil.Vec3) (Triangulation, error) { return f(points) }

// Delaunay is the built-in Bowyer–Watson triangulator.
var Delaunay = TriangulatorFunc(func(points []mathutil.Vec3) (Triangulation, error) {
	t, err := delaunay.Build(points)
	if err != nil {
		return nil, err
	}
	return t, nil
})

// ComputePoles estimates a medial pole for every live vertex: among the
// circumcenters of the Delaunay cells incident to the vertex, the one lying
// farthest against its outward normal. A vertex with no such circumcenter
// uses its own position.
func (e *Engine) ComputePoles() error {
	ids := e.m.Vertices()
	pts := make([]mathutil.Vec3, len(ids))
	normals := make([]mathutil.Vec3, len(ids))
	for i, v := range ids {
		pts[i] = e.m.Pos(v)
		normals[i] = e.m.VertexNormal(v)
	}

	tr, err := e.triangles.Build(pts)
	if err != nil {
		return errors.Wrap(err, "mcf: pole estimation")
	}

	best := make([]float64, len(ids))
	found := make([]bool, len(ids))
	poles := make([]mathutil.Vec3, len(ids))
	for c := 0; c < tr.NumCells(); c++ {
		dual := tr.Dual(c)
		for _, k := range tr.Cell(c) {
			if k < 0 || k >= len(ids) {
				continue
			}
			d := dual.Sub(pts[k]).Dot(normals[k])
			if d < 0 && (!found[k] || d < best[k]) {
				best[k], found[k], poles[k] = d, true, dual
			}
		}
	}

	missing := 0
	for i, v := range ids {
		if found[i] {
			e.m.Vertex(v).Pole = poles[i]
		} else {
			e.m.Vertex(v).Pole = pts[i]
			missing++
		}
	}
	e.polesComputed = true
	e.log.Debug("poles computed", zap.Int("cells", tr.NumCells()), zap.Int("vertices", len(ids)), zap.Int("fallback", missing))
	return nil
}

// Poles returns the pole of every live vertex, in ascending id order.
func (e *Engine) Poles() []mathutil.Vec3 {
	ids := e.m.Vertices()
	out := make([]mathutil.Vec3, len(ids))
	for i, v := range ids {
		out[i] = e.m.Vertex(v).Pole
	}
	return out
}
