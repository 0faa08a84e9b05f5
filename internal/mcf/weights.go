package mcf

import (
	"math"

	"mcf-skeleton/internal/mathutil"
)

// cosLimit keeps the cotangent finite on needle triangles.
const cosLimit = 0.999

// secureCot returns cot of the angle between a and b with the cosine clamped
// to ±cosLimit, floored at zero. Zero-length vectors give zero.
func secureCot(a, b mathutil.Vec3) float64 {
	den := math.Sqrt(a.LenSq() * b.LenSq())
	if den == 0 {
		return 0
	}
	c := a.Dot(b) / den
	c = math.Max(-cosLimit, math.Min(cosLimit, c))
	cot := c / math.Sqrt(1-c*c)
	return math.Max(0, cot)
}

// oppositeCot is the cotangent of the angle facing half-edge h in its face.
func (e *Engine) oppositeCot(h int) float64 {
	m := e.m
	s, t := m.Source(h), m.Target(h)
	k := m.Target(m.Next(h))
	pk := m.Pos(k)
	return secureCot(m.Pos(s).Sub(pk), m.Pos(t).Sub(pk))
}

// computeWeights returns the cotangent weight of every live edge, indexed by
// half-edge id; both halves carry the same value.
func (e *Engine) computeWeights() []float64 {
	w := make([]float64, e.m.NumHalfEdgeIDs())
	for _, h := range e.m.Edges() {
		t := e.m.Twin(h)
		v := (e.oppositeCot(h) + e.oppositeCot(t)) / 2
		w[h], w[t] = v, v
	}
	return w
}
