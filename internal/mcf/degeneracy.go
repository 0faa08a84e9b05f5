package mcf

import "mcf-skeleton/internal/mathutil"

// DetectDegeneracies freezes every non-fixed vertex whose neighborhood within
// MinEdgeLength has collapsed, and returns how many were frozen.
func (e *Engine) DetectDegeneracies() int {
	n := 0
	for _, v := range e.m.Vertices() {
		if e.m.Vertex(v).Fixed {
			continue
		}
		if e.degenerate(e.m, v, e.params.MinEdgeLength) {
			e.m.Vertex(v).Fixed = true
			n++
		}
	}
	return n
}

// FixedPoints returns the positions of the frozen vertices, in ascending id order.
func (e *Engine) FixedPoints() []mathutil.Vec3 { return e.points(true) }

// NonFixedPoints returns the positions of the moving vertices.
func (e *Engine) NonFixedPoints() []mathutil.Vec3 { return e.points(false) }

func (e *Engine) points(fixed bool) []mathutil.Vec3 {
	var out []mathutil.Vec3
	for _, v := range e.m.Vertices() {
		if vx := e.m.Vertex(v); vx.Fixed == fixed {
			out = append(out, vx.Pos)
		}
	}
	return out
}
