package mesh

import (
	"github.com/pkg/errors"
)

// SatisfiesLinkCondition reports whether collapsing the edge of h keeps the
// surface a 2-manifold: the one-rings of both endpoints may share only the
// two vertices opposite the edge, and the mesh must not be a tetrahedron.
func (m *Mesh) SatisfiesLinkCondition(h int) bool {
	if m.numVerts <= 4 {
		return false
	}
	a, b := m.Source(h), m.Target(h)
	c := m.Target(m.Next(h))
	d := m.Target(m.Next(m.Twin(h)))
	if c == d {
		return false
	}

	ring := make(map[int]struct{})
	for _, w := range m.Neighbors(a) {
		ring[w] = struct{}{}
	}
	for _, w := range m.Neighbors(b) {
		if _, ok := ring[w]; ok && w != c && w != d {
			return false
		}
	}
	return true
}

// CollapseEdge merges the source of h into its target and returns the kept
// vertex. The two faces on either side of the edge and three edges disappear.
// The kept vertex absorbs the removed vertex's correspondence list; position
// and pole are left to the caller. Callers check SatisfiesLinkCondition first.
func (m *Mesh) CollapseEdge(h int) int {
	h1 := m.hes[h].Next
	h2 := m.hes[h1].Next
	t := m.hes[h].Twin
	t1 := m.hes[t].Next
	t2 := m.hes[t1].Next

	a, b := m.hes[h].Origin, m.hes[t].Origin
	c, d := m.hes[h2].Origin, m.hes[t2].Origin

	o1, o2 := m.hes[h1].Twin, m.hes[h2].Twin
	p1, p2 := m.hes[t1].Twin, m.hes[t2].Twin

	for _, e := range m.Outgoing(a) {
		m.hes[e].Origin = b
	}

	m.hes[o1].Twin, m.hes[o2].Twin = o2, o1
	m.hes[p1].Twin, m.hes[p2].Twin = p2, p1

	m.verts[b].out = o2
	m.verts[c].out = o1
	m.verts[d].out = p1

	for _, e := range []int{h, h1, h2, t, t1, t2} {
		m.hes[e].removed = true
	}
	m.faces[m.hes[h].Face].removed = true
	m.faces[m.hes[t].Face].removed = true
	m.numHEs -= 6
	m.numFaces -= 2

	m.verts[b].Corr = append(m.verts[b].Corr, m.verts[a].Corr...)
	m.verts[a].Corr = nil
	m.verts[a].removed = true
	m.numVerts--
	return b
}

// SplitEdge inserts a new vertex on the edge of h and splits both incident
// triangles in two. The new vertex gets the next unused id, an empty
// correspondence list, and the midpoint as a provisional position.
func (m *Mesh) SplitEdge(h int) int {
	h1 := m.hes[h].Next
	h2 := m.hes[h1].Next
	t0 := m.hes[h].Twin
	t1 := m.hes[t0].Next
	t2 := m.hes[t1].Next

	s, tv := m.hes[h].Origin, m.hes[t0].Origin
	k, l := m.hes[h2].Origin, m.hes[t2].Origin
	f0, f1 := m.hes[h].Face, m.hes[t0].Face

	n := len(m.verts)
	mid := m.verts[s].Pos.Add(m.verts[tv].Pos).Scale(0.5)
	m.verts = append(m.verts, Vertex{ID: n, Pos: mid, Pole: mid})

	f2, f3 := len(m.faces), len(m.faces)+1
	m.faces = append(m.faces, face{}, face{})

	base := len(m.hes)
	x, y := base, base+1
	m1, m2 := base+2, base+3
	q1, q2 := base+4, base+5
	m.hes = append(m.hes,
		HalfEdge{Origin: n, Twin: h, Next: t1, Face: f3},  // x: n->s
		HalfEdge{Origin: n, Twin: t0, Next: h1, Face: f2}, // y: n->t
		HalfEdge{Origin: n, Twin: m2, Next: h2, Face: f0}, // m1: n->k
		HalfEdge{Origin: k, Twin: m1, Next: y, Face: f2},  // m2: k->n
		HalfEdge{Origin: n, Twin: q2, Next: t2, Face: f1}, // q1: n->l
		HalfEdge{Origin: l, Twin: q1, Next: x, Face: f3},  // q2: l->n
	)

	m.hes[h].Twin = x
	m.hes[h].Next = m1
	m.hes[t0].Twin = y
	m.hes[t0].Next = q1
	m.hes[h1].Next = m2
	m.hes[h1].Face = f2
	m.hes[t1].Next = q2
	m.hes[t1].Face = f3

	m.faces[f0].he = h
	m.faces[f1].he = t0
	m.faces[f2].he = y
	m.faces[f3].he = x
	m.verts[n].out = y

	m.numVerts++
	m.numHEs += 6
	m.numFaces += 2
	return n
}

// Validate checks every structural invariant of a live mesh: twin symmetry,
// triangular face cycles, manifold vertex fans, closedness and the
// correspondence partition of the input vertex ids.
func (m *Mesh) Validate() error {
	for h := range m.hes {
		e := m.hes[h]
		if e.removed {
			continue
		}
		if m.hes[e.Twin].removed || m.hes[e.Twin].Twin != h {
			return errors.Wrapf(ErrNotManifold, "half-edge %d: broken twin %d", h, e.Twin)
		}
		if m.Target(e.Twin) != e.Origin || m.Target(h) != m.hes[e.Twin].Origin {
			return errors.Wrapf(ErrNotManifold, "half-edge %d: twin endpoints disagree", h)
		}
		if m.hes[e.Next].removed || m.hes[m.hes[e.Next].Next].Next != h {
			return errors.Wrapf(ErrNotManifold, "half-edge %d: face cycle is not a triangle", h)
		}
		if m.hes[e.Next].Face != e.Face || m.faces[e.Face].removed {
			return errors.Wrapf(ErrNotManifold, "half-edge %d: face mismatch", h)
		}
		if m.verts[e.Origin].removed {
			return errors.Wrapf(ErrNotManifold, "half-edge %d: removed origin %d", h, e.Origin)
		}
	}

	outCount := make(map[int]int, m.numVerts)
	for h := range m.hes {
		if !m.hes[h].removed {
			outCount[m.hes[h].Origin]++
		}
	}
	seen := make(map[int]bool, m.numVerts)
	for _, v := range m.Vertices() {
		out := m.verts[v].out
		if out < 0 || m.hes[out].removed || m.hes[out].Origin != v {
			return errors.Wrapf(ErrNotManifold, "vertex %d: stale outgoing half-edge", v)
		}
		if n := len(m.fan(v, outCount[v]+1)); n != outCount[v] {
			return errors.Wrapf(ErrNotManifold, "vertex %d: fan of %d edges, %d incident", v, n, outCount[v])
		}
		for _, id := range m.verts[v].Corr {
			if id < 0 || id >= m.original || seen[id] {
				return errors.Errorf("mesh: vertex %d: correspondence id %d duplicated or out of range", v, id)
			}
			seen[id] = true
		}
	}
	if len(seen) != m.original {
		return errors.Errorf("mesh: correspondence covers %d of %d input vertices", len(seen), m.original)
	}
	if chi := m.numVerts - m.numHEs/2 + m.numFaces; chi != m.euler {
		return errors.Wrapf(ErrNotManifold, "euler characteristic changed from %d to %d", m.euler, chi)
	}
	return nil
}
