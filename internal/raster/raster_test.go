package raster

import (
	"testing"

	"mcf-skeleton/internal/mathutil"
)

func opaque(fb *FrameBuffer) int {
	n := 0
	for i := 3; i < len(fb.Color); i += 4 {
		if fb.Color[i] != 0 {
			n++
		}
	}
	return n
}

func TestFillTriangle(t *testing.T) {
	fb := NewFrameBuffer(32, 32)
	lc := DefaultLightConfig()
	tri := [3]mathutil.Vec3{{2, 2, 0}, {30, 2, 0}, {2, 30, 0}}
	FillTriangle(fb, tri, tri, [3]uint8{200, 100, 50}, &lc)

	// Half of a 28x28 square, give or take the edges.
	if n := opaque(fb); n < 350 || n > 480 {
		t.Errorf("filled %d pixels", n)
	}
	if fb.Color[(3*32+3)*4+3] != 255 {
		t.Error("pixel inside the triangle is empty")
	}
	if fb.Color[(29*32+29)*4+3] != 0 {
		t.Error("pixel outside the triangle is filled")
	}
}

func TestFillTriangleDepth(t *testing.T) {
	fb := NewFrameBuffer(16, 16)
	lc := DefaultLightConfig()
	near := [3]mathutil.Vec3{{0, 0, 1}, {15, 0, 1}, {0, 15, 1}}
	far := [3]mathutil.Vec3{{0, 0, -1}, {15, 0, -1}, {0, 15, -1}}

	FillTriangle(fb, near, near, [3]uint8{255, 0, 0}, &lc)
	FillTriangle(fb, far, far, [3]uint8{0, 0, 255}, &lc)
	i := (2*16 + 2) * 4
	if fb.Color[i] == 0 || fb.Color[i+2] != 0 {
		t.Errorf("far triangle overwrote near one: %v", fb.Color[i:i+4])
	}
}

func TestFillTriangleDegenerate(t *testing.T) {
	fb := NewFrameBuffer(8, 8)
	lc := DefaultLightConfig()
	line := [3]mathutil.Vec3{{0, 0, 0}, {4, 4, 0}, {7, 7, 0}}
	FillTriangle(fb, line, line, [3]uint8{255, 255, 255}, &lc)
	if n := opaque(fb); n != 0 {
		t.Errorf("degenerate triangle filled %d pixels", n)
	}
}

func TestLineAndDot(t *testing.T) {
	fb := NewFrameBuffer(20, 20)
	red := [4]uint8{255, 0, 0, 255}
	Line(fb, mathutil.Vec3{2, 10, 0}, mathutil.Vec3{17, 10, 0}, 1, red)
	for x := 2; x <= 17; x++ {
		if fb.Color[(10*20+x)*4] != 255 {
			t.Fatalf("pixel (%d,10) not drawn", x)
		}
	}

	fb = NewFrameBuffer(20, 20)
	Dot(fb, mathutil.Vec3{-5, -5, 0}, 3, red)
	if n := opaque(fb); n != 0 {
		t.Errorf("off-screen dot drew %d pixels", n)
	}
	Dot(fb, mathutil.Vec3{10, 10, 0}, 2, red)
	if n := opaque(fb); n != 13 {
		t.Errorf("dot of radius 2 drew %d pixels, want 13", n)
	}
}

func TestACESTonemap(t *testing.T) {
	if ACESTonemap(0) != 0 {
		t.Error("black is not preserved")
	}
	prev := 0.0
	for x := 0.1; x < 4; x += 0.1 {
		y := ACESTonemap(x)
		if y <= prev {
			t.Fatalf("not increasing at %v", x)
		}
		prev = y
	}
}
