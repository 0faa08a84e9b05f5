package delaunay

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mcf-skeleton/internal/mathutil"
	"mcf-skeleton/internal/shapes"
)

func randomPoints(n int, seed uint64) []mathutil.Vec3 {
	rng := rand.New(rand.NewPCG(seed, 7))
	pts := make([]mathutil.Vec3, n)
	for i := range pts {
		pts[i] = mathutil.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
	}
	return pts
}

func TestSingleTetrahedron(t *testing.T) {
	pts := []mathutil.Vec3{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
	tr, err := Build(pts)
	if err != nil {
		t.Fatal(err)
	}
	if tr.NumCells() != 1 {
		t.Fatalf("got %d cells, want 1", tr.NumCells())
	}
	if d := cmp.Diff(mathutil.Vec3{}, tr.Dual(0), cmpopts.EquateApprox(0, 1e-6)); d != "" {
		t.Error(d)
	}
}

func checkEmptyCircumspheres(t *testing.T, pts []mathutil.Vec3) {
	t.Helper()
	tr, err := Build(pts)
	if err != nil {
		t.Fatal(err)
	}
	used := make([]bool, len(pts))
	for c := 0; c < tr.NumCells(); c++ {
		cell := tr.Cell(c)
		center := tr.Dual(c)
		r := mathutil.Dist(center, pts[cell[0]])
		for _, v := range cell {
			used[v] = true
			if d := math.Abs(mathutil.Dist(center, pts[v]) - r); d > 1e-6*(1+r) {
				t.Fatalf("cell %d: vertex %d off the circumsphere by %g", c, v, d)
			}
		}
		for i, p := range pts {
			if mathutil.Dist(center, p) < r*(1-1e-6) {
				t.Fatalf("cell %d: point %d inside circumsphere", c, i)
			}
		}
	}
	for i, u := range used {
		if !u {
			t.Errorf("point %d belongs to no cell", i)
		}
	}
}

func TestEmptyCircumsphere(t *testing.T) {
	tests := []struct {
		name string
		pts  []mathutil.Vec3
	}{
		{"random", randomPoints(60, 3)},
		{"icosphere", shapes.Icosphere(1, 2).Points},
		{"cylinder", shapes.Cylinder(0.5, 6, 12, 24).Points},
		// Rings of coplanar, cocircular points produce many near-flat cells.
		{"torus", shapes.Torus(2, 0.5, 32, 12).Points},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkEmptyCircumspheres(t, tt.pts)
		})
	}
}

func TestCosphericalPoints(t *testing.T) {
	// Cube corners share one circumsphere and have no unique tetrahedralization.
	var pts []mathutil.Vec3
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				pts = append(pts, mathutil.Vec3{x, y, z})
			}
		}
	}
	tr, err := Build(pts)
	if err != nil {
		t.Fatal(err)
	}
	for c := 0; c < tr.NumCells(); c++ {
		for _, v := range tr.Cell(c) {
			if v < 0 || v >= len(pts) {
				t.Fatalf("cell %d references %d", c, v)
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	pts := randomPoints(40, 11)
	a, err := Build(pts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(pts)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(a.cells, b.cells); d != "" {
		t.Error(d)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(randomPoints(3, 1)); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("got %v, want ErrTooFewPoints", err)
	}
	same := []mathutil.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	if _, err := Build(same); !errors.Is(err, ErrDegenerate) {
		t.Errorf("got %v, want ErrDegenerate", err)
	}
}
