package mcf

import (
	"math"

	"mcf-skeleton/internal/mathutil"
)

// Remesh runs CollapseEdges then SplitFaces and returns both counts.
func (e *Engine) Remesh() (collapses, splits int) {
	collapses = e.CollapseEdges()
	splits = e.SplitFaces()
	return collapses, splits
}

// CollapseEdges collapses edges shorter than MinEdgeLength, in passes over a
// snapshot of the edges, until a pass collapses nothing. Edges failing the
// link condition, edges between two fixed vertices and edges touched by an
// earlier collapse of the same pass are skipped.
func (e *Engine) CollapseEdges() int {
	total := 0
	for {
		n := e.collapsePass()
		if n == 0 {
			return total
		}
		total += n
	}
}

func (e *Engine) collapsePass() int {
	m := e.m
	limit := e.params.MinEdgeLength * e.params.MinEdgeLength
	excluded := make([]bool, m.NumHalfEdgeIDs())
	exclude := func(h int) {
		excluded[h] = true
		excluded[m.Twin(h)] = true
	}
	for _, h := range m.Edges() {
		if m.Vertex(m.Source(h)).Fixed && m.Vertex(m.Target(h)).Fixed {
			exclude(h)
		}
	}

	n := 0
	for _, h := range m.Edges() {
		if m.IsHalfEdgeRemoved(h) || excluded[h] {
			continue
		}
		if m.EdgeLengthSq(h) >= limit {
			continue
		}
		if !m.SatisfiesLinkCondition(h) {
			continue
		}

		a, b := m.Source(h), m.Target(h)
		mid := mathutil.Midpoint(m.Pos(a), m.Pos(b))
		poleA := m.Vertex(a).Pole
		// These two survive the collapse as the merged side edges.
		o1 := m.Twin(m.Next(h))
		p1 := m.Twin(m.Next(m.Twin(h)))

		kept := m.CollapseEdge(h)
		m.SetPos(kept, mid)
		if e.params.MediallyCentered {
			kv := m.Vertex(kept)
			if mathutil.DistSq(poleA, mid) < mathutil.DistSq(kv.Pole, mid) {
				kv.Pole = poleA
			}
		}
		exclude(o1)
		exclude(p1)
		n++
	}
	return n
}

// SplitFaces splits edges facing an obtuse angle of at least MaxTriangleAngle,
// in passes, until a pass splits nothing or the mesh has three vertices or fewer.
//
// A split is refused when a corner it creates at the new vertex reaches
// MaxTriangleAngle. Each split then lowers the number of wide angles in the
// mesh, so the passes end.
func (e *Engine) SplitFaces() int {
	total := 0
	for e.m.NumVertices() > 3 {
		n := e.splitPass()
		if n == 0 {
			break
		}
		total += n
	}
	return total
}

// oppositeAngles returns, per half-edge id, the angle facing the half-edge in
// its face, or -1 where a side of that face is shorter than ZeroThreshold.
func (e *Engine) oppositeAngles() []float64 {
	m := e.m
	zt := e.params.ZeroThreshold
	out := make([]float64, m.NumHalfEdgeIDs())
	for i := range out {
		out[i] = -1
	}
	for _, f := range m.Faces() {
		h := m.FaceHalfEdge(f)
		for j := 0; j < 3; j++ {
			s, t, k := m.Source(h), m.Target(h), m.Target(m.Next(h))
			dst := mathutil.Dist(m.Pos(s), m.Pos(t))
			dsk := mathutil.Dist(m.Pos(s), m.Pos(k))
			dtk := mathutil.Dist(m.Pos(t), m.Pos(k))
			if dst >= zt && dsk >= zt && dtk >= zt {
				out[h] = cornerAngle(dst, dsk, dtk)
			}
			h = m.Next(h)
		}
	}
	return out
}

// cornerAngle is the angle facing side a in a triangle with sides a, b, c.
func cornerAngle(a, b, c float64) float64 {
	cos := (b*b + c*c - a*a) / (2 * b * c)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// widensAt reports whether splitting s-t at p leaves a corner of at least
// limit at p in one of the four new triangles.
func widensAt(p, s, t, k, l mathutil.Vec3, limit float64) bool {
	ps, pt := mathutil.Dist(p, s), mathutil.Dist(p, t)
	for _, apex := range [...]mathutil.Vec3{k, l} {
		pa := mathutil.Dist(p, apex)
		if cornerAngle(mathutil.Dist(s, apex), ps, pa) >= limit ||
			cornerAngle(mathutil.Dist(t, apex), pt, pa) >= limit {
			return true
		}
	}
	return false
}

func (e *Engine) splitPass() int {
	m := e.m
	zt := e.params.ZeroThreshold
	limit := e.params.MaxTriangleAngle
	angles := e.oppositeAngles()
	touched := make([]bool, m.NumHalfEdgeIDs())
	isTouched := func(h int) bool { return h >= len(touched) || touched[h] }

	n := 0
	for _, h := range m.Edges() {
		if m.IsHalfEdgeRemoved(h) {
			continue
		}
		t := m.Twin(h)
		if isTouched(h) || isTouched(t) {
			continue
		}
		ai, aj := angles[h], angles[t]
		if ai < 0 || aj < 0 || (ai < limit && aj < limit) {
			continue
		}

		s, tv := m.Source(h), m.Target(h)
		k := m.Target(m.Next(h))
		l := m.Target(m.Next(t))
		apex := k
		if aj > ai {
			apex = l
		}

		ps, pt := m.Pos(s), m.Pos(tv)
		seg := pt.Sub(ps)
		length := seg.Len()
		dir := seg.Scale(1 / length)
		along := dir.Dot(m.Pos(apex).Sub(ps))
		p := ps.Add(dir.Scale(along))
		if along < zt || length-along < zt ||
			mathutil.Dist(p, m.Pos(k)) < zt || mathutil.Dist(p, m.Pos(l)) < zt {
			continue
		}
		if widensAt(p, ps, pt, m.Pos(k), m.Pos(l), limit) {
			continue
		}

		for _, x := range [...]int{h, m.Next(h), m.Prev(h), t, m.Next(t), m.Prev(t)} {
			touched[x] = true
		}
		poleS, poleT := m.Vertex(s).Pole, m.Vertex(tv).Pole

		nv := m.SplitEdge(h)
		m.SetPos(nv, p)
		if e.params.MediallyCentered {
			m.Vertex(nv).Pole = mathutil.Lerp(poleS, poleT, along/length)
		}
		n++
	}
	return n
}
