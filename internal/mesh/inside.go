package mesh

import (
	"math"

	"mcf-skeleton/internal/mathutil"
)

// rayDirs are fixed, non-axis-aligned directions; three votes break ties
// when a ray grazes an edge or a vertex.
var rayDirs = [3]mathutil.Vec3{
	mathutil.Vec3{0.5773502691896258, 0.5773502691896258, 0.5773502691896258}.Add(mathutil.Vec3{0.0123, -0.0311, 0.0071}).Normalize(),
	mathutil.Vec3{-0.2672612419124244, 0.8017837257372732, -0.5345224838248488}.Add(mathutil.Vec3{0.0057, 0.0213, -0.0161}).Normalize(),
	mathutil.Vec3{0.8164965809277261, -0.4082482904638631, -0.4082482904638631}.Add(mathutil.Vec3{-0.0193, 0.0087, 0.0251}).Normalize(),
}

// InsideTester classifies points against a frozen copy of a closed surface.
type InsideTester struct {
	tris [][3]mathutil.Vec3
	box  mathutil.BBox
}

// NewInsideTester snapshots the current faces of m.
func NewInsideTester(m *Mesh) *InsideTester {
	it := &InsideTester{box: m.BoundingBox()}
	for _, f := range m.Faces() {
		fv := m.FaceVertices(f)
		it.tris = append(it.tris, [3]mathutil.Vec3{m.verts[fv[0]].Pos, m.verts[fv[1]].Pos, m.verts[fv[2]].Pos})
	}
	return it
}

// Inside reports whether p lies strictly inside the surface, by majority of
// three ray-parity votes.
func (it *InsideTester) Inside(p mathutil.Vec3) bool {
	for k := 0; k < 3; k++ {
		if p[k] < it.box.Min[k] || p[k] > it.box.Max[k] || math.IsNaN(p[k]) {
			return false
		}
	}
	votes := 0
	for _, dir := range rayDirs {
		hits := 0
		for _, tri := range it.tris {
			if rayHitsTriangle(p, dir, tri) {
				hits++
			}
		}
		if hits%2 == 1 {
			votes++
		}
	}
	return votes >= 2
}

// rayHitsTriangle is the Möller–Trumbore test for t > 0.
func rayHitsTriangle(orig, dir mathutil.Vec3, tri [3]mathutil.Vec3) bool {
	const eps = 1e-12
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	pv := dir.Cross(e2)
	det := e1.Dot(pv)
	if det > -eps && det < eps {
		return false
	}
	inv := 1 / det
	tv := orig.Sub(tri[0])
	u := tv.Dot(pv) * inv
	if u < 0 || u > 1 {
		return false
	}
	qv := tv.Cross(e1)
	v := dir.Dot(qv) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	return e2.Dot(qv)*inv > eps
}
