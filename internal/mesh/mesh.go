// Package mesh holds the working surface of the skeletonizer: a closed,
// oriented, 2-manifold triangle mesh stored as arena-indexed half-edges.
//
// Vertices, half-edges and faces live in flat slices and are addressed by
// stable integer ids. Removed elements stay in place with a removed flag so
// ids never shift during a run. Vertex ids below OriginalCount() are the
// ids of the input surface.
package mesh

import (
	"github.com/pkg/errors"

	"mcf-skeleton/internal/mathutil"
)

var (
	ErrEmpty        = errors.New("mesh: no vertices or triangles")
	ErrNotManifold  = errors.New("mesh: not a 2-manifold")
	ErrNotClosed    = errors.New("mesh: surface has a border")
	ErrDisconnected = errors.New("mesh: more than one connected component")
)

// Vertex is a surface point plus the per-vertex state of the contraction.
type Vertex struct {
	ID    int
	Pos   mathutil.Vec3
	Fixed bool          // frozen; never reverts
	Pole  mathutil.Vec3 // medial attraction target
	Corr  []int         // input vertex ids merged into this vertex

	out     int // one outgoing half-edge
	removed bool
}

// HalfEdge is one oriented side of an edge. Faces are always triangles, so
// prev(h) == next(next(h)).
type HalfEdge struct {
	Origin int
	Twin   int
	Next   int
	Face   int

	removed bool
}

type face struct {
	he      int
	removed bool
}

// Mesh is the working surface.
type Mesh struct {
	verts []Vertex
	hes   []HalfEdge
	faces []face

	numVerts int
	numHEs   int
	numFaces int
	original int
	euler    int
}

// New copies points and triangles into a half-edge mesh. The input must be a
// single closed, consistently oriented 2-manifold; anything else returns one of
// ErrEmpty, ErrNotManifold, ErrNotClosed or ErrDisconnected.
func New(points []mathutil.Vec3, tris [][3]int) (*Mesh, error) {
	if len(points) == 0 || len(tris) == 0 {
		return nil, ErrEmpty
	}

	m := &Mesh{
		verts:    make([]Vertex, len(points)),
		hes:      make([]HalfEdge, 0, 3*len(tris)),
		faces:    make([]face, 0, len(tris)),
		original: len(points),
	}
	for i, p := range points {
		m.verts[i] = Vertex{ID: i, Pos: p, Pole: p, Corr: []int{i}, out: -1}
	}

	directed := make(map[[2]int]int, 3*len(tris))
	for f, t := range tris {
		for k := 0; k < 3; k++ {
			if t[k] < 0 || t[k] >= len(points) {
				return nil, errors.Wrapf(ErrNotManifold, "triangle %d references vertex %d", f, t[k])
			}
		}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			return nil, errors.Wrapf(ErrNotManifold, "triangle %d is degenerate %v", f, t)
		}
		base := len(m.hes)
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			key := [2]int{a, b}
			if _, dup := directed[key]; dup {
				return nil, errors.Wrapf(ErrNotManifold, "edge %d->%d used by more than one triangle", a, b)
			}
			directed[key] = base + k
			m.hes = append(m.hes, HalfEdge{Origin: a, Twin: -1, Next: base + (k+1)%3, Face: f})
			if m.verts[a].out < 0 {
				m.verts[a].out = base + k
			}
		}
		m.faces = append(m.faces, face{he: base})
	}

	outCount := make([]int, len(points))
	for key, h := range directed {
		t, ok := directed[[2]int{key[1], key[0]}]
		if !ok {
			return nil, errors.Wrapf(ErrNotClosed, "edge %d->%d has no opposite", key[0], key[1])
		}
		m.hes[h].Twin = t
		outCount[key[0]]++
	}

	m.numVerts = len(m.verts)
	m.numHEs = len(m.hes)
	m.numFaces = len(m.faces)
	m.euler = m.numVerts - m.numHEs/2 + m.numFaces

	for v := range m.verts {
		if m.verts[v].out < 0 {
			return nil, errors.Wrapf(ErrDisconnected, "vertex %d is isolated", v)
		}
		if n := len(m.fan(v, outCount[v]+1)); n != outCount[v] {
			return nil, errors.Wrapf(ErrNotManifold, "vertex %d: fan of %d edges, %d incident", v, n, outCount[v])
		}
	}

	if n := m.componentSize(0); n != len(m.verts) {
		return nil, errors.Wrapf(ErrDisconnected, "reached %d of %d vertices", n, len(m.verts))
	}
	return m, nil
}

// fan walks the outgoing half-edges of v, giving up after limit steps.
func (m *Mesh) fan(v, limit int) []int {
	start := m.verts[v].out
	var out []int
	h := start
	for len(out) < limit {
		out = append(out, h)
		h = m.hes[m.prev(h)].Twin
		if h == start {
			return out
		}
	}
	return out
}

func (m *Mesh) componentSize(root int) int {
	seen := make([]bool, len(m.verts))
	seen[root] = true
	queue := []int{root}
	n := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		n++
		for _, w := range m.Neighbors(v) {
			if !seen[w] {
				seen[w] = true
				queue = append(queue, w)
			}
		}
	}
	return n
}

func (m *Mesh) prev(h int) int { return m.hes[m.hes[h].Next].Next }

// OriginalCount is the number of vertices in the input surface.
func (m *Mesh) OriginalCount() int { return m.original }

func (m *Mesh) NumVertices() int { return m.numVerts }
func (m *Mesh) NumEdges() int    { return m.numHEs / 2 }
func (m *Mesh) NumFaces() int    { return m.numFaces }

// MaxVertexID is one past the largest vertex id ever allocated.
func (m *Mesh) MaxVertexID() int { return len(m.verts) }

// NumHalfEdgeIDs is one past the largest half-edge id ever allocated.
func (m *Mesh) NumHalfEdgeIDs() int { return len(m.hes) }

// Vertex returns the record for id. The pointer is invalidated by SplitEdge.
func (m *Mesh) Vertex(id int) *Vertex { return &m.verts[id] }

// HalfEdge returns a copy of the half-edge record.
func (m *Mesh) HalfEdge(h int) HalfEdge { return m.hes[h] }

func (m *Mesh) IsRemoved(v int) bool         { return m.verts[v].removed }
func (m *Mesh) IsHalfEdgeRemoved(h int) bool { return m.hes[h].removed }

func (m *Mesh) Source(h int) int { return m.hes[h].Origin }
func (m *Mesh) Target(h int) int { return m.hes[m.hes[h].Next].Origin }
func (m *Mesh) Next(h int) int   { return m.hes[h].Next }
func (m *Mesh) Prev(h int) int   { return m.prev(h) }
func (m *Mesh) Twin(h int) int   { return m.hes[h].Twin }
func (m *Mesh) Face(h int) int   { return m.hes[h].Face }

// Vertices returns live vertex ids in ascending order.
func (m *Mesh) Vertices() []int {
	out := make([]int, 0, m.numVerts)
	for i := range m.verts {
		if !m.verts[i].removed {
			out = append(out, i)
		}
	}
	return out
}

// Edges returns one half-edge per live edge, the smaller id of each pair, ascending.
func (m *Mesh) Edges() []int {
	out := make([]int, 0, m.numHEs/2)
	for h := range m.hes {
		if !m.hes[h].removed && h < m.hes[h].Twin {
			out = append(out, h)
		}
	}
	return out
}

// Faces returns live face ids in ascending order.
func (m *Mesh) Faces() []int {
	out := make([]int, 0, m.numFaces)
	for f := range m.faces {
		if !m.faces[f].removed {
			out = append(out, f)
		}
	}
	return out
}

// FaceHalfEdge returns the first half-edge of face f.
func (m *Mesh) FaceHalfEdge(f int) int { return m.faces[f].he }

// FaceVertices returns the three corners of f in orientation order.
func (m *Mesh) FaceVertices(f int) [3]int {
	h := m.faces[f].he
	n := m.hes[h].Next
	return [3]int{m.hes[h].Origin, m.hes[n].Origin, m.hes[m.hes[n].Next].Origin}
}

// Outgoing returns the half-edges leaving v in fan order.
func (m *Mesh) Outgoing(v int) []int {
	return m.fan(v, m.numHEs)
}

// Neighbors returns the one-ring of v in fan order.
func (m *Mesh) Neighbors(v int) []int {
	out := m.Outgoing(v)
	nb := make([]int, len(out))
	for i, h := range out {
		nb[i] = m.Target(h)
	}
	return nb
}

// Valence is the number of edges incident to v.
func (m *Mesh) Valence(v int) int { return len(m.Outgoing(v)) }

// Points returns the positions of live vertices in Vertices() order.
func (m *Mesh) Points() []mathutil.Vec3 {
	ids := m.Vertices()
	pts := make([]mathutil.Vec3, len(ids))
	for i, v := range ids {
		pts[i] = m.verts[v].Pos
	}
	return pts
}

// Triangles exports the live surface with compact indices. ids maps a compact
// index back to the vertex id.
func (m *Mesh) Triangles() (points []mathutil.Vec3, tris [][3]int, ids []int) {
	ids = m.Vertices()
	compact := make(map[int]int, len(ids))
	points = make([]mathutil.Vec3, len(ids))
	for i, v := range ids {
		compact[v] = i
		points[i] = m.verts[v].Pos
	}
	for _, f := range m.Faces() {
		fv := m.FaceVertices(f)
		tris = append(tris, [3]int{compact[fv[0]], compact[fv[1]], compact[fv[2]]})
	}
	return points, tris, ids
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.verts = make([]Vertex, len(m.verts))
	copy(c.verts, m.verts)
	for i := range c.verts {
		c.verts[i].Corr = append([]int(nil), m.verts[i].Corr...)
	}
	c.hes = append([]HalfEdge(nil), m.hes...)
	c.faces = append([]face(nil), m.faces...)
	return &c
}
