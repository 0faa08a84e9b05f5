package mathutil

import "math"

// BBox is an axis-aligned bounding box. The zero value is not valid; use EmptyBBox.
type BBox struct {
	Min Vec3
	Max Vec3
}

// EmptyBBox returns a box that any point extends.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}

// Extend grows the box to contain p.
func (b *BBox) Extend(p Vec3) {
	for k := 0; k < 3; k++ {
		if p[k] < b.Min[k] {
			b.Min[k] = p[k]
		}
		if p[k] > b.Max[k] {
			b.Max[k] = p[k]
		}
	}
}

// Diagonal returns the length of the box diagonal, 0 for an empty box.
func (b BBox) Diagonal() float64 {
	if b.Min[0] > b.Max[0] {
		return 0
	}
	return b.Max.Sub(b.Min).Len()
}

func (b BBox) Center() Vec3 {
	return Midpoint(b.Min, b.Max)
}

// BoundPoints returns the bounding box of pts.
func BoundPoints(pts []Vec3) BBox {
	b := EmptyBBox()
	for _, p := range pts {
		b.Extend(p)
	}
	return b
}
