package raster

import (
	"math"

	"mcf-skeleton/internal/mathutil"
)

// Overlay drawing ignores and leaves the z-buffer alone: skeleton lines sit
// inside the surface and must stay visible.

// Dot fills a disc of the given pixel radius around p.
func Dot(fb *FrameBuffer, p mathutil.Vec3, radius float64, color [4]uint8) {
	r := int(math.Ceil(radius))
	cx, cy := int(math.Round(p[0])), int(math.Round(p[1]))
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if !fb.inside(x, y) {
				continue
			}
			dx, dy := float64(x)-p[0], float64(y)-p[1]
			if dx*dx+dy*dy <= radius*radius {
				fb.set(x, y, color[0], color[1], color[2], color[3])
			}
		}
	}
}

// Line draws a segment of the given pixel width from a to b.
func Line(fb *FrameBuffer, a, b mathutil.Vec3, width float64, color [4]uint8) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		Dot(fb, a, width/2, color)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		Dot(fb, mathutil.Vec3{a[0] + dx*t, a[1] + dy*t, 0}, width/2, color)
	}
}
