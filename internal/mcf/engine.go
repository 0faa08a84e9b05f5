// Package mcf contracts a closed triangle surface towards its curve skeleton
// by mean curvature flow. Each iteration solves a sparse least-squares system
// that smooths the surface while anchoring it and, optionally, pulling it
// towards medial poles; a local remesher then collapses short edges and
// splits obtuse triangles, and vertices whose neighborhood has collapsed are
// frozen. The loop stops once the surface area stops changing.
//
// An Engine is single-threaded; run independent engines concurrently instead.
package mcf

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mcf-skeleton/internal/linalg"
	"mcf-skeleton/internal/mathutil"
	"mcf-skeleton/internal/mesh"
	"mcf-skeleton/internal/skeleton"
)

var (
	ErrPreconditionViolation = errors.New("mcf: input is not a closed connected 2-manifold")
	ErrLinearSolverFailure   = errors.New("mcf: linear solver failed")
)

// State is the convergence status of an engine.
type State int

const (
	Running State = iota
	Converged
	MaxIterReached
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max-iterations"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine owns the working mesh of one skeletonization.
type Engine struct {
	m      *mesh.Mesh
	params Params
	inside *mesh.InsideTester
	log    *zap.Logger

	newSolver  linalg.Factory
	triangles  Triangulator
	degenerate DegeneracyPredicate
	extract    Extractor

	originalArea  float64
	polesComputed bool
	iterations    int
	state         State
}

// New copies the surface into a working mesh. A surface that is not a single
// closed, oriented 2-manifold returns an error matching both
// ErrPreconditionViolation and the mesh sentinel that was hit.
func New(points []mathutil.Vec3, tris [][3]int, opts ...Option) (*Engine, error) {
	o := options{
		params:     DefaultParams(),
		logger:     zap.NewNop(),
		newSolver:  linalg.Auto,
		triangles:  Delaunay,
		degenerate: mesh.IsDegenerate,
		extract:    DefaultExtractor,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := mesh.New(points, tris)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreconditionViolation, err)
	}

	p := o.params
	if p.MinEdgeLength == 0 {
		p.MinEdgeLength = minEdgeFactor * m.BoundingBox().Diagonal()
	}
	e := &Engine{
		m:            m,
		params:       p,
		inside:       mesh.NewInsideTester(m),
		log:          o.logger,
		newSolver:    o.newSolver,
		triangles:    o.triangles,
		degenerate:   o.degenerate,
		extract:      o.extract,
		originalArea: m.Area(),
	}
	e.log.Debug("engine ready",
		zap.Int("vertices", m.NumVertices()),
		zap.Int("faces", m.NumFaces()),
		zap.Float64("area", e.originalArea),
		zap.Float64("min_edge_length", p.MinEdgeLength))
	return e, nil
}

func (e *Engine) Params() Params        { return e.params }
func (e *Engine) State() State          { return e.state }
func (e *Engine) Iterations() int       { return e.iterations }
func (e *Engine) OriginalArea() float64 { return e.originalArea }

// MesoSkeleton returns the working mesh. Callers must not modify it.
func (e *Engine) MesoSkeleton() *mesh.Mesh { return e.m }

func (e *Engine) SetQualitySpeedTradeoff(w float64) { e.params.QualitySpeedTradeoff = w }
func (e *Engine) SetMediallyCenteredSpeedTradeoff(w float64) {
	e.params.MediallyCenteredSpeedTradeoff = w
}
func (e *Engine) SetMediallyCentered(on bool)      { e.params.MediallyCentered = on }
func (e *Engine) SetMinEdgeLength(l float64)       { e.params.MinEdgeLength = l }
func (e *Engine) SetZeroThreshold(z float64)       { e.params.ZeroThreshold = z }
func (e *Engine) SetAreaVariationFactor(f float64) { e.params.AreaVariationFactor = f }
func (e *Engine) SetMaxIterations(n int)           { e.params.MaxIterations = n }

// SetMaxTriangleAngle takes degrees.
func (e *Engine) SetMaxTriangleAngle(deg float64) { e.params.MaxTriangleAngle = mathutil.Deg2Rad(deg) }

// Contract runs one full iteration without the convergence test.
func (e *Engine) Contract() error {
	_, err := e.iterate()
	return err
}

type iteration struct {
	collapses, splits, fixed int
}

func (e *Engine) iterate() (iteration, error) {
	var it iteration
	if err := e.ContractGeometry(); err != nil {
		return it, err
	}
	it.collapses, it.splits = e.Remesh()
	it.fixed = e.DetectDegeneracies()
	return it, nil
}

// ContractUntilConvergence iterates until the area change between two
// iterations, relative to the original area, falls below AreaVariationFactor
// or MaxIterations is reached. A solver failure or a cancelled context stops
// the loop with the state reached so far.
func (e *Engine) ContractUntilConvergence(ctx context.Context) (State, error) {
	e.state = Running
	e.iterations = 0
	lastArea := 0.0

	for {
		if err := ctx.Err(); err != nil {
			return e.state, errors.Wrapf(err, "mcf: stopped after %d iterations", e.iterations)
		}
		if e.iterations >= e.params.MaxIterations {
			e.state = MaxIterReached
			break
		}

		it, err := e.iterate()
		if err != nil {
			e.log.Warn("contraction failed", zap.Int("iteration", e.iterations), zap.Error(err))
			return e.state, err
		}

		area := e.m.Area()
		ratio := math.Abs(lastArea-area) / e.originalArea
		e.log.Debug("iteration",
			zap.Int("iteration", e.iterations),
			zap.Float64("area", area),
			zap.Float64("area_ratio", ratio),
			zap.Int("collapses", it.collapses),
			zap.Int("splits", it.splits),
			zap.Int("fixed", it.fixed),
			zap.Int("vertices", e.m.NumVertices()))

		if ratio < e.params.AreaVariationFactor {
			e.state = Converged
			break
		}
		lastArea = area
		e.iterations++
	}

	e.log.Info("contraction finished",
		zap.Stringer("state", e.state),
		zap.Int("iterations", e.iterations),
		zap.Int("vertices", e.m.NumVertices()),
		zap.Int("fixed", len(e.FixedPoints())))
	return e.state, nil
}

// ConvertToSkeleton extracts the curve skeleton of the current meso-skeleton.
func (e *Engine) ConvertToSkeleton() *skeleton.Graph {
	return e.extract(e.m, e.params.MinEdgeLength)
}

// Run contracts until convergence and extracts the skeleton.
func (e *Engine) Run(ctx context.Context) (*skeleton.Graph, error) {
	if _, err := e.ContractUntilConvergence(ctx); err != nil {
		return nil, err
	}
	return e.ConvertToSkeleton(), nil
}
