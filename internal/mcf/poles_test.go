package mcf

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcf-skeleton/internal/delaunay"
	"mcf-skeleton/internal/mathutil"
	"mcf-skeleton/internal/shapes"
)

type fakeTriangulation struct {
	cells [][4]int
	duals []mathutil.Vec3
}

func (f fakeTriangulation) NumCells() int            { return len(f.cells) }
func (f fakeTriangulation) Cell(i int) [4]int        { return f.cells[i] }
func (f fakeTriangulation) Dual(i int) mathutil.Vec3 { return f.duals[i] }

func TestComputePolesPicksFarthestInward(t *testing.T) {
	tri := TriangulatorFunc(func(pts []mathutil.Vec3) (Triangulation, error) {
		return fakeTriangulation{
			cells: [][4]int{{0, 1, 2, 3}, {0, 4, 5, 1}},
			duals: []mathutil.Vec3{{}, {0.5, 0, 0}},
		}, nil
	})
	e := newEngine(t, shapes.Octahedron(1), WithTriangulator(tri))
	if err := e.ComputePoles(); err != nil {
		t.Fatalf("ComputePoles: %v", err)
	}
	want := []mathutil.Vec3{{}, {0.5, 0, 0}, {}, {}, {0.5, 0, 0}, {0.5, 0, 0}}
	if d := cmp.Diff(want, e.Poles()); d != "" {
		t.Errorf("Poles: %s", d)
	}
}

func TestComputePolesFallsBackToPosition(t *testing.T) {
	tri := TriangulatorFunc(func(pts []mathutil.Vec3) (Triangulation, error) {
		// Only outward circumcenters.
		return fakeTriangulation{
			cells: [][4]int{{0, 2, 4, 1}},
			duals: []mathutil.Vec3{{5, 5, 5}},
		}, nil
	})
	s := shapes.Octahedron(1)
	e := newEngine(t, s, WithTriangulator(tri))
	if err := e.ComputePoles(); err != nil {
		t.Fatalf("ComputePoles: %v", err)
	}
	got := e.Poles()
	for _, v := range []int{0, 2, 4} {
		if got[v] != s.Points[v] {
			t.Errorf("vertex %d: pole %v, want its position %v", v, got[v], s.Points[v])
		}
	}
	// -x sees (5,5,5) behind its normal.
	if got[1] != (mathutil.Vec3{5, 5, 5}) {
		t.Errorf("vertex 1: pole %v", got[1])
	}
}

func TestPolesAreLazyAndComputedOnce(t *testing.T) {
	builds := 0
	tri := TriangulatorFunc(func(pts []mathutil.Vec3) (Triangulation, error) {
		builds++
		return Delaunay.Build(pts)
	})
	e := newEngine(t, shapes.Icosphere(1, 1), WithTriangulator(tri))
	if builds != 0 {
		t.Fatal("poles computed at construction")
	}
	for i := 0; i < 3; i++ {
		if err := e.ContractGeometry(); err != nil {
			t.Fatalf("ContractGeometry: %v", err)
		}
	}
	if builds != 1 {
		t.Errorf("triangulator ran %d times, want 1", builds)
	}

	e = newEngine(t, shapes.Icosphere(1, 1), WithTriangulator(tri))
	e.SetMediallyCentered(false)
	builds = 0
	if err := e.ContractGeometry(); err != nil {
		t.Fatalf("ContractGeometry: %v", err)
	}
	if builds != 0 {
		t.Error("poles computed without medial attraction")
	}
}

func TestComputePolesError(t *testing.T) {
	tri := TriangulatorFunc(func(pts []mathutil.Vec3) (Triangulation, error) {
		return nil, delaunay.ErrDegenerate
	})
	e := newEngine(t, shapes.Icosphere(1, 1), WithTriangulator(tri))
	before := positions(e.MesoSkeleton())
	if err := e.ContractGeometry(); !errors.Is(err, delaunay.ErrDegenerate) {
		t.Fatalf("got %v, want ErrDegenerate", err)
	}
	if d := cmp.Diff(before, positions(e.MesoSkeleton())); d != "" {
		t.Errorf("positions changed: %s", d)
	}
}

func TestComputePolesSphere(t *testing.T) {
	e := newEngine(t, shapes.Icosphere(1, 2))
	if err := e.ComputePoles(); err != nil {
		t.Fatalf("ComputePoles: %v", err)
	}
	poles := e.Poles()
	if len(poles) != e.MesoSkeleton().NumVertices() {
		t.Fatalf("%d poles for %d vertices", len(poles), e.MesoSkeleton().NumVertices())
	}
	central := 0
	for _, p := range poles {
		if p.Len() < 0.5 {
			central++
		}
	}
	if central < len(poles)*9/10 {
		t.Errorf("only %d of %d poles near the center", central, len(poles))
	}
}

func TestComputePolesTorus(t *testing.T) {
	const R, r = 2.0, 0.5
	e := newEngine(t, shapes.Torus(R, r, 32, 12))
	if err := e.ComputePoles(); err != nil {
		t.Fatalf("ComputePoles: %v", err)
	}
	for i, p := range e.Poles() {
		core := math.Hypot(math.Hypot(p[0], p[1])-R, p[2])
		if core > r/2 {
			t.Errorf("pole %d at %v is %.3f from the tube core", i, p, core)
		}
	}
}
