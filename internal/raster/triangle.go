package raster

import (
	"math"

	"mcf-skeleton/internal/mathutil"
)

// FillTriangle rasterizes one flat-shaded triangle given in screen space.
// The face normal is taken from view-space positions so that shading does not
// depend on the projection scale.
func FillTriangle(fb *FrameBuffer, screen, view [3]mathutil.Vec3, color [3]uint8, lc *LightConfig) {
	n := view[1].Sub(view[0]).Cross(view[2].Sub(view[0]))
	if n.Len() < 1e-12 {
		return
	}
	rgb := lc.Apply(color, lc.ComputeShade(n.Normalize()))

	x0, y0, z0 := screen[0][0], screen[0][1], screen[0][2]
	x1, y1, z1 := screen[1][0], screen[1][1], screen[1][2]
	x2, y2, z2 := screen[2][0], screen[2][1], screen[2][2]

	minX := max(int(math.Min(math.Min(x0, x1), x2)), 0)
	maxX := min(int(math.Max(math.Max(x0, x1), x2))+1, fb.Width-1)
	minY := max(int(math.Min(math.Min(y0, y1), y2)), 0)
	maxY := min(int(math.Max(math.Max(y0, y1), y2))+1, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12, dx21 := y1-y2, x2-x1
	dy20, dx02 := y2-y0, x0-x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zi := sy*fb.Width + sx
			if z <= fb.ZBuf[zi] {
				continue
			}
			fb.ZBuf[zi] = z
			fb.set(sx, sy, rgb[0], rgb[1], rgb[2], 255)
		}
	}
}
