package mcf

import (
	"math"

	"go.uber.org/zap"

	"mcf-skeleton/internal/linalg"
	"mcf-skeleton/internal/mesh"
	"mcf-skeleton/internal/skeleton"
)

// Params are the tunables of a contraction run.
type Params struct {
	// QualitySpeedTradeoff is the anchor weight ωH of non-fixed vertices.
	// Larger values keep vertices near their previous position.
	QualitySpeedTradeoff float64 `json:"quality_speed_tradeoff"`
	// MediallyCenteredSpeedTradeoff is the pole weight ωP.
	MediallyCenteredSpeedTradeoff float64 `json:"medially_centered_speed_tradeoff"`
	MediallyCentered              bool    `json:"medially_centered"`
	// MinEdgeLength drives edge collapse and the degeneracy radius. Zero in
	// the Params given to New means 0.002 times the bounding-box diagonal.
	MinEdgeLength float64 `json:"min_edge_length"`
	// MaxTriangleAngle is in radians.
	MaxTriangleAngle    float64 `json:"max_triangle_angle"`
	ZeroThreshold       float64 `json:"zero_threshold"`
	AreaVariationFactor float64 `json:"area_variation_factor"`
	MaxIterations       int     `json:"max_iterations"`
}

// minEdgeFactor scales the bounding-box diagonal into the default MinEdgeLength.
const minEdgeFactor = 0.002

func DefaultParams() Params {
	return Params{
		QualitySpeedTradeoff:          0.1,
		MediallyCenteredSpeedTradeoff: 0.2,
		MediallyCentered:              true,
		MaxTriangleAngle:              110 * math.Pi / 180,
		ZeroThreshold:                 1e-7,
		AreaVariationFactor:           1e-4,
		MaxIterations:                 500,
	}
}

// DegeneracyPredicate decides whether vertex v has collapsed onto the skeleton.
type DegeneracyPredicate func(m *mesh.Mesh, v int, threshold float64) bool

// Extractor turns the meso-skeleton into a curve skeleton.
type Extractor func(m *mesh.Mesh, minEdgeLength float64) *skeleton.Graph

// DefaultExtractor thins the mesh and merges skeleton edges shorter than four
// minimum edge lengths.
func DefaultExtractor(m *mesh.Mesh, minEdgeLength float64) *skeleton.Graph {
	return skeleton.Extract(m, skeleton.Options{MergeLength: 4 * minEdgeLength})
}

type options struct {
	params     Params
	logger     *zap.Logger
	newSolver  linalg.Factory
	triangles  Triangulator
	degenerate DegeneracyPredicate
	extract    Extractor
}

// Option configures New.
type Option func(*options)

func WithParams(p Params) Option {
	return func(o *options) { o.params = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithSolverFactory(f linalg.Factory) Option {
	return func(o *options) { o.newSolver = f }
}

func WithTriangulator(t Triangulator) Option {
	return func(o *options) { o.triangles = t }
}

func WithDegeneracyPredicate(p DegeneracyPredicate) Option {
	return func(o *options) { o.degenerate = p }
}

func WithExtractor(e Extractor) Option {
	return func(o *options) { o.extract = e }
}
