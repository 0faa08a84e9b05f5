package mcf

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mcf-skeleton/internal/linalg"
	"mcf-skeleton/internal/mathutil"
	"mcf-skeleton/internal/mesh"
	"mcf-skeleton/internal/shapes"
	"mcf-skeleton/internal/skeleton"
)

func newEngine(t *testing.T, s shapes.Surface, opts ...Option) *Engine {
	t.Helper()
	e, err := New(s.Points, s.Tris, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func positions(m *mesh.Mesh) map[int]mathutil.Vec3 {
	out := make(map[int]mathutil.Vec3)
	for _, v := range m.Vertices() {
		out[v] = m.Pos(v)
	}
	return out
}

// failingSolver fails on the given axis; axis -1 fails Prefactor.
type failingSolver struct {
	inner linalg.Solver
	axis  int
	calls int
}

func (f *failingSolver) Prefactor(a *linalg.Matrix) error {
	if f.axis < 0 {
		return linalg.ErrSingular
	}
	return f.inner.Prefactor(a)
}

func (f *failingSolver) Solve(b []float64) ([]float64, error) {
	axis := f.calls
	f.calls++
	if axis == f.axis {
		return nil, linalg.ErrNoConvergence
	}
	return f.inner.Solve(b)
}

func TestNewPreconditionViolation(t *testing.T) {
	oct := shapes.Octahedron(1)
	tests := []struct {
		name string
		tris [][3]int
		want error
	}{
		{"open", oct.Tris[1:], mesh.ErrNotClosed},
		{"empty", nil, mesh.ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(oct.Points, tt.tris)
			if !errors.Is(err, ErrPreconditionViolation) {
				t.Errorf("got %v, want ErrPreconditionViolation", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewDerivesMinEdgeLength(t *testing.T) {
	e := newEngine(t, shapes.Octahedron(1))
	want := minEdgeFactor * math.Sqrt(12)
	if got := e.Params().MinEdgeLength; math.Abs(got-want) > 1e-12 {
		t.Errorf("MinEdgeLength = %v, want %v", got, want)
	}

	p := DefaultParams()
	p.MinEdgeLength = 0.25
	e = newEngine(t, shapes.Octahedron(1), WithParams(p))
	if got := e.Params().MinEdgeLength; got != 0.25 {
		t.Errorf("explicit MinEdgeLength = %v, want 0.25", got)
	}
}

func TestSetters(t *testing.T) {
	e := newEngine(t, shapes.Octahedron(1))
	e.SetQualitySpeedTradeoff(0.3)
	e.SetMediallyCenteredSpeedTradeoff(0.4)
	e.SetMediallyCentered(false)
	e.SetMinEdgeLength(0)
	e.SetMaxTriangleAngle(90)
	e.SetZeroThreshold(1e-5)
	e.SetAreaVariationFactor(1e-3)
	e.SetMaxIterations(7)

	want := Params{
		QualitySpeedTradeoff:          0.3,
		MediallyCenteredSpeedTradeoff: 0.4,
		MediallyCentered:              false,
		MinEdgeLength:                 0,
		MaxTriangleAngle:              mathutil.Deg2Rad(90),
		ZeroThreshold:                 1e-5,
		AreaVariationFactor:           1e-3,
		MaxIterations:                 7,
	}
	if d := cmp.Diff(want, e.Params()); d != "" {
		t.Errorf("Params: %s", d)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Running:        "running",
		Converged:      "converged",
		MaxIterReached: "max-iterations",
		State(9):       "State(9)",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(s), got, want)
		}
	}
}

func TestContractGeometryKeepsCounts(t *testing.T) {
	e := newEngine(t, shapes.Icosphere(1, 1))
	m := e.MesoSkeleton()
	v, ed, f := m.NumVertices(), m.NumEdges(), m.NumFaces()
	area := m.Area()

	for i := 0; i < 3; i++ {
		if err := e.ContractGeometry(); err != nil {
			t.Fatalf("ContractGeometry: %v", err)
		}
		if m.NumVertices() != v || m.NumEdges() != ed || m.NumFaces() != f {
			t.Fatalf("step %d: counts changed to V=%d E=%d F=%d", i, m.NumVertices(), m.NumEdges(), m.NumFaces())
		}
	}
	if m.Area() >= area {
		t.Errorf("area did not shrink: %v -> %v", area, m.Area())
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestContractGeometrySolverFailure(t *testing.T) {
	for _, axis := range []int{-1, 0, 2} {
		e := newEngine(t, shapes.Icosphere(1, 1), WithSolverFactory(func(n int) linalg.Solver {
			return &failingSolver{inner: &linalg.Cholesky{}, axis: axis}
		}))
		before := positions(e.MesoSkeleton())

		err := e.ContractGeometry()
		if !errors.Is(err, ErrLinearSolverFailure) {
			t.Fatalf("axis %d: got %v, want ErrLinearSolverFailure", axis, err)
		}
		if d := cmp.Diff(before, positions(e.MesoSkeleton())); d != "" {
			t.Errorf("axis %d: positions changed: %s", axis, d)
		}

		state, err := e.ContractUntilConvergence(context.Background())
		if !errors.Is(err, ErrLinearSolverFailure) || state != Running {
			t.Errorf("axis %d: controller returned %v, %v", axis, state, err)
		}
	}
}

func TestFixedVerticesNeverMove(t *testing.T) {
	e := newEngine(t, shapes.Icosphere(1, 2))
	m := e.MesoSkeleton()
	fixed := map[int]mathutil.Vec3{}
	for _, v := range m.Vertices() {
		if v%7 == 0 {
			m.Vertex(v).Fixed = true
			fixed[v] = m.Pos(v)
		}
	}

	for i := 0; i < 5; i++ {
		if err := e.ContractGeometry(); err != nil {
			t.Fatalf("ContractGeometry: %v", err)
		}
		for v, p := range fixed {
			if got := m.Pos(v); got != p {
				t.Fatalf("step %d: fixed vertex %d moved from %v to %v", i, v, p, got)
			}
		}
	}
	if got := len(e.FixedPoints()); got != len(fixed) {
		t.Errorf("FixedPoints: %d, want %d", got, len(fixed))
	}
	if got := len(e.FixedPoints()) + len(e.NonFixedPoints()); got != m.NumVertices() {
		t.Errorf("fixed + non-fixed = %d, want %d", got, m.NumVertices())
	}
}

func TestPoleRowsOnlyForInputVertices(t *testing.T) {
	e := newEngine(t, flatBipyramid())
	m := e.MesoSkeleton()
	orig := m.OriginalCount()
	if n := e.SplitFaces(); n == 0 {
		t.Fatal("fixture produced no split vertices")
	}
	pole := mathutil.Vec3{0.01, 0, 0}
	for _, v := range m.Vertices() {
		m.Vertex(v).Pole = pole
	}

	s := e.assemble()
	n := len(s.ids)
	wp := e.Params().MediallyCenteredSpeedTradeoff
	for i, v := range s.ids {
		want := wp
		if v >= orig {
			want = 0
		}
		if got := s.a.At(2*n+i, i); got != want {
			t.Errorf("vertex %d: pole weight %g, want %g", v, got, want)
		}
		if got := s.b[0][2*n+i]; got != want*pole[0] {
			t.Errorf("vertex %d: pole target %g, want %g", v, got, want*pole[0])
		}
	}
}

func TestDetectDegeneracies(t *testing.T) {
	var seen []int
	pred := func(m *mesh.Mesh, v int, threshold float64) bool {
		seen = append(seen, v)
		return v == 2 || v == 4
	}
	e := newEngine(t, shapes.Octahedron(1), WithDegeneracyPredicate(pred))

	if got := e.DetectDegeneracies(); got != 2 {
		t.Fatalf("first pass froze %d, want 2", got)
	}
	if d := cmp.Diff([]int{0, 1, 2, 3, 4, 5}, seen); d != "" {
		t.Errorf("visit order: %s", d)
	}
	seen = nil
	if got := e.DetectDegeneracies(); got != 0 {
		t.Errorf("second pass froze %d, want 0", got)
	}
	if d := cmp.Diff([]int{0, 1, 3, 5}, seen); d != "" {
		t.Errorf("fixed vertices should not be re-tested: %s", d)
	}
	want := []mathutil.Vec3{{0, 1, 0}, {0, 0, 1}}
	if d := cmp.Diff(want, e.FixedPoints()); d != "" {
		t.Errorf("FixedPoints: %s", d)
	}
}

func TestContractUntilConvergenceMaxIterations(t *testing.T) {
	p := DefaultParams()
	p.MediallyCentered = false
	p.AreaVariationFactor = 0
	p.MaxIterations = 3
	e := newEngine(t, shapes.Icosphere(1, 1), WithParams(p))

	state, err := e.ContractUntilConvergence(context.Background())
	if err != nil {
		t.Fatalf("ContractUntilConvergence: %v", err)
	}
	if state != MaxIterReached || e.State() != MaxIterReached {
		t.Errorf("state = %v, want %v", state, MaxIterReached)
	}
	if e.Iterations() != 3 {
		t.Errorf("iterations = %d, want 3", e.Iterations())
	}
}

func TestContractUntilConvergenceZeroIterations(t *testing.T) {
	p := DefaultParams()
	p.MaxIterations = 0
	e := newEngine(t, shapes.Octahedron(1), WithParams(p), WithSolverFactory(func(int) linalg.Solver {
		t.Fatal("solver used with MaxIterations = 0")
		return nil
	}))
	state, err := e.ContractUntilConvergence(context.Background())
	if err != nil || state != MaxIterReached {
		t.Errorf("got %v, %v; want %v", state, err, MaxIterReached)
	}
}

func TestContractUntilConvergenceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, shapes.Icosphere(1, 1))
	before := positions(e.MesoSkeleton())

	_, err := e.ContractUntilConvergence(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if d := cmp.Diff(before, positions(e.MesoSkeleton())); d != "" {
		t.Errorf("cancelled run moved vertices: %s", d)
	}
}

func TestCorrespondencePartitionDuringRun(t *testing.T) {
	p := DefaultParams()
	p.MaxIterations = 6
	e := newEngine(t, shapes.Cylinder(0.5, 3, 10, 12), WithParams(p))
	m := e.MesoSkeleton()
	for i := 0; i < p.MaxIterations; i++ {
		if err := e.Contract(); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if err := m.Validate(); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
	}
}

func TestExtractorOption(t *testing.T) {
	var gotLen float64
	e := newEngine(t, shapes.Octahedron(1), WithExtractor(func(m *mesh.Mesh, l float64) *skeleton.Graph {
		gotLen = l
		return &skeleton.Graph{}
	}))
	e.SetMinEdgeLength(0.125)
	if g := e.ConvertToSkeleton(); g == nil {
		t.Fatal("nil graph")
	}
	if gotLen != 0.125 {
		t.Errorf("extractor saw min edge length %v, want 0.125", gotLen)
	}
}
