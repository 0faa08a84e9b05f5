// Package preview renders a snapshot of a meso-skeleton with its curve
// skeleton drawn on top, and writes it as WebP.
package preview

import (
	"image"
	"math"

	"mcf-skeleton/internal/mathutil"
	"mcf-skeleton/internal/mesh"
	"mcf-skeleton/internal/raster"
	"mcf-skeleton/internal/skeleton"
)

// Options control the camera and output size.
type Options struct {
	Size        int     // output edge in pixels
	Supersample int     // render at Size*Supersample, then downsample
	Yaw, Pitch  float64 // degrees
}

func DefaultOptions() Options {
	return Options{Size: 256, Supersample: 2, Yaw: 30, Pitch: 20}
}

var (
	surfaceColor = [3]uint8{170, 170, 180}
	fixedColor   = [4]uint8{40, 120, 255, 255}
	edgeColor    = [4]uint8{230, 40, 40, 255}
	nodeColor    = [4]uint8{255, 210, 0, 255}
)

type projection struct {
	rot    mathutil.Mat3
	center mathutil.Vec3
	scale  float64
	half   float64
}

func (p projection) view(v mathutil.Vec3) mathutil.Vec3 { return p.rot.MulVec3(v) }

func (p projection) screen(v mathutil.Vec3) mathutil.Vec3 {
	r := p.rot.MulVec3(v).Sub(p.center)
	return mathutil.Vec3{p.half + r[0]*p.scale, p.half - r[1]*p.scale, r[2] * p.scale}
}

// Render draws m flat-shaded, marks its fixed vertices, and overlays g when
// it is not nil.
func Render(m *mesh.Mesh, g *skeleton.Graph, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	renderSize := opts.Size * opts.Supersample
	rot := mathutil.Orbit(opts.Yaw, opts.Pitch)

	points, tris, ids := m.Triangles()
	var bounds []mathutil.Vec3
	for _, p := range points {
		bounds = append(bounds, rot.MulVec3(p))
	}
	if g != nil {
		for _, n := range g.Nodes {
			bounds = append(bounds, rot.MulVec3(n.Point))
		}
	}
	box := mathutil.BoundPoints(bounds)
	span := math.Max(box.Max[0]-box.Min[0], box.Max[1]-box.Min[1])
	if span < 0.001 {
		span = 0.001
	}
	margin := 16 * opts.Supersample
	proj := projection{
		rot:    rot,
		center: box.Center(),
		scale:  float64(renderSize-2*margin) / span,
		half:   float64(renderSize) / 2,
	}

	fb := raster.NewFrameBuffer(renderSize, renderSize)
	lc := raster.DefaultLightConfig()
	for _, t := range tris {
		var screen, view [3]mathutil.Vec3
		for k, i := range t {
			screen[k] = proj.screen(points[i])
			view[k] = proj.view(points[i])
		}
		raster.FillTriangle(fb, screen, view, surfaceColor, &lc)
	}

	ss := float64(opts.Supersample)
	for i, id := range ids {
		if m.Vertex(id).Fixed {
			raster.Dot(fb, proj.screen(points[i]), 1.5*ss, fixedColor)
		}
	}
	if g != nil {
		for _, e := range g.Edges {
			raster.Line(fb, proj.screen(g.Nodes[e[0]].Point), proj.screen(g.Nodes[e[1]].Point), 2*ss, edgeColor)
		}
		for _, n := range g.Nodes {
			raster.Dot(fb, proj.screen(n.Point), 3*ss, nodeColor)
		}
	}

	img := fb.Image()
	if opts.Supersample > 1 {
		img = Downsample(img, opts.Size)
	}
	return img
}
