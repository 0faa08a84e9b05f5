// Package delaunay builds 3D Delaunay tetrahedralizations by incremental
// Bowyer–Watson insertion and exposes their finite cells and dual points.
package delaunay

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"mcf-skeleton/internal/mathutil"
)

var (
	ErrTooFewPoints = errors.New("delaunay: need at least 4 points")
	ErrDegenerate   = errors.New("delaunay: points span no volume")
)

// jitterScale is relative to the bounding-box diagonal. Cospherical inputs
// (every vertex of a sphere, rings of a cylinder) have no unique Delaunay
// tetrahedralization; a fixed-seed perturbation far below any mesh feature
// picks one deterministically.
const jitterScale = 1e-9

// tet keeps its vertices in negative orient3d order; nbr[k] is the cell
// across the face opposite v[k], or -1 on the outer hull.
type tet struct {
	v    [4]int
	nbr  [4]int
	dead bool
}

// Triangulation is the finished tetrahedralization. Only cells whose four
// vertices are input points are kept.
type Triangulation struct {
	points  []mathutil.Vec3
	cells   [][4]int
	centers []mathutil.Vec3
}

// Build tetrahedralizes points. The result is deterministic for a given input.
func Build(points []mathutil.Vec3) (*Triangulation, error) {
	n := len(points)
	if n < 4 {
		return nil, errors.Wrapf(ErrTooFewPoints, "got %d", n)
	}
	box := mathutil.BoundPoints(points)
	diag := box.Diagonal()
	if diag == 0 || math.IsNaN(diag) || math.IsInf(diag, 0) {
		return nil, errors.Wrapf(ErrDegenerate, "bounding diagonal %g", diag)
	}

	rng := rand.New(rand.NewPCG(0x5eed, uint64(n)))
	pts := make([]mathutil.Vec3, n, n+4)
	for i, p := range points {
		for k := 0; k < 3; k++ {
			p[k] += (rng.Float64()*2 - 1) * jitterScale * diag
		}
		pts[i] = p
	}

	// Enclosing tetrahedron, far enough that its vertices do not bias the hull.
	c := box.Center()
	s := 100 * diag
	pts = append(pts,
		c.Add(mathutil.Vec3{s, s, s}),
		c.Add(mathutil.Vec3{s, -s, -s}),
		c.Add(mathutil.Vec3{-s, s, -s}),
		c.Add(mathutil.Vec3{-s, -s, s}),
	)

	b := &builder{pts: pts}
	if !b.seed([4]int{n, n + 1, n + 2, n + 3}) {
		return nil, errors.Wrap(ErrDegenerate, "enclosing tetrahedron")
	}
	for i := 0; i < n; i++ {
		b.insert(i)
	}

	t := &Triangulation{points: points}
	for _, tt := range b.tets {
		if tt.dead || tt.v[0] >= n || tt.v[1] >= n || tt.v[2] >= n || tt.v[3] >= n {
			continue
		}
		center, ok := circumcenter(pts[tt.v[0]], pts[tt.v[1]], pts[tt.v[2]], pts[tt.v[3]])
		if !ok {
			continue
		}
		t.cells = append(t.cells, tt.v)
		t.centers = append(t.centers, center)
	}
	if len(t.cells) == 0 {
		return nil, errors.Wrap(ErrDegenerate, "no finite cells")
	}
	return t, nil
}

// NumCells is the number of finite cells.
func (t *Triangulation) NumCells() int { return len(t.cells) }

// Cell returns the four input-point indices of cell i.
func (t *Triangulation) Cell(i int) [4]int { return t.cells[i] }

// Dual returns the circumcenter of cell i, its Voronoi vertex.
func (t *Triangulation) Dual(i int) mathutil.Vec3 { return t.centers[i] }

type builder struct {
	pts   []mathutil.Vec3
	tets  []tet
	last  int
	mark  []int
	stamp int
	edges map[[2]int][2]int
}

func (b *builder) seed(v [4]int) bool {
	o := b.orient(v)
	if o == 0 || math.IsNaN(o) {
		return false
	}
	if o > 0 {
		v[0], v[1] = v[1], v[0]
	}
	b.push(v)
	return true
}

func (b *builder) push(v [4]int) int {
	b.tets = append(b.tets, tet{v: v, nbr: [4]int{-1, -1, -1, -1}})
	b.mark = append(b.mark, 0)
	return len(b.tets) - 1
}

func (b *builder) orient(v [4]int) float64 {
	return orient3d(b.pts[v[0]], b.pts[v[1]], b.pts[v[2]], b.pts[v[3]])
}

// side is the orientation of cell t with its k-th vertex moved to p. It is
// negative while p is on the same side of face k as the vertex it replaces.
func (b *builder) side(t, k int, p mathutil.Vec3) float64 {
	v := b.tets[t].v
	q := [4]mathutil.Vec3{b.pts[v[0]], b.pts[v[1]], b.pts[v[2]], b.pts[v[3]]}
	q[k] = p
	return orient3d(q[0], q[1], q[2], q[3])
}

func (b *builder) conflicts(t int, p mathutil.Vec3) bool {
	v := b.tets[t].v
	a, c, d, e := b.pts[v[0]], b.pts[v[1]], b.pts[v[2]], b.pts[v[3]]
	return insphere(a, c, d, e, p)*orient3d(a, c, d, e) > 0
}

// locate walks from the last created cell towards p, crossing the face p is
// most clearly beyond. If the walk leaves the hull or runs too long it falls
// back to the live cell p is deepest inside.
func (b *builder) locate(p mathutil.Vec3) int {
	t := b.last
	for step := 0; step <= len(b.tets); step++ {
		next, worst := -1, 0.0
		for k := 0; k < 4; k++ {
			if s := b.side(t, k, p); s > worst {
				next, worst = k, s
			}
		}
		if next < 0 {
			return t
		}
		if b.tets[t].nbr[next] < 0 {
			break
		}
		t = b.tets[t].nbr[next]
	}

	best, bestDepth := -1, math.Inf(-1)
	for i := range b.tets {
		if b.tets[i].dead {
			continue
		}
		depth := math.Inf(1)
		for k := 0; k < 4; k++ {
			depth = math.Min(depth, -b.side(i, k, p))
		}
		if depth > bestDepth {
			best, bestDepth = i, depth
		}
	}
	return best
}

// cavity collects the cells whose circumsphere holds p, grown face by face
// from the cell containing p, then widened until every boundary face sees p.
func (b *builder) cavity(p mathutil.Vec3) []int {
	b.stamp++
	start := b.locate(p)
	b.mark[start] = b.stamp
	cells := []int{start}
	for k := 0; k < len(cells); k++ {
		for _, n := range b.tets[cells[k]].nbr {
			if n >= 0 && b.mark[n] != b.stamp && b.conflicts(n, p) {
				b.mark[n] = b.stamp
				cells = append(cells, n)
			}
		}
	}
	for grew := true; grew; {
		grew = false
		for k := 0; k < len(cells); k++ {
			t := cells[k]
			for f, n := range b.tets[t].nbr {
				if n < 0 || b.mark[n] == b.stamp {
					continue
				}
				if b.side(t, f, p) >= 0 {
					b.mark[n] = b.stamp
					cells = append(cells, n)
					grew = true
				}
			}
		}
	}
	return cells
}

func (b *builder) insert(i int) {
	p := b.pts[i]
	cells := b.cavity(p)
	for _, t := range cells {
		b.tets[t].dead = true
	}
	if b.edges == nil {
		b.edges = make(map[[2]int][2]int)
	}
	for _, t := range cells {
		for f := 0; f < 4; f++ {
			n := b.tets[t].nbr[f]
			if n >= 0 && b.mark[n] == b.stamp {
				continue
			}
			v := b.tets[t].v
			v[f] = i
			nt := b.push(v)
			b.tets[nt].nbr[f] = n
			if n >= 0 {
				for k, x := range b.tets[n].nbr {
					if x == t {
						b.tets[n].nbr[k] = nt
					}
				}
			}
			for k := 0; k < 4; k++ {
				if k == f {
					continue
				}
				key := edgeKey(v, f, k)
				if other, ok := b.edges[key]; ok {
					delete(b.edges, key)
					b.tets[nt].nbr[k] = other[0]
					b.tets[other[0]].nbr[other[1]] = nt
				} else {
					b.edges[key] = [2]int{nt, k}
				}
			}
			b.last = nt
		}
	}
}

// edgeKey names the face of v opposite v[k] by the two vertices it shares
// with the cavity boundary face opposite v[f].
func edgeKey(v [4]int, f, k int) [2]int {
	var e [2]int
	j := 0
	for x := 0; x < 4; x++ {
		if x != f && x != k {
			e[j] = v[x]
			j++
		}
	}
	if e[0] > e[1] {
		e[0], e[1] = e[1], e[0]
	}
	return e
}

func det3(a, b, c mathutil.Vec3) float64 {
	return a[0]*(b[1]*c[2]-b[2]*c[1]) - a[1]*(b[0]*c[2]-b[2]*c[0]) + a[2]*(b[0]*c[1]-b[1]*c[0])
}

func orient3d(a, b, c, d mathutil.Vec3) float64 {
	return det3(a.Sub(d), b.Sub(d), c.Sub(d))
}

// insphere has the sign of orient3d(a, b, c, d) when e lies strictly inside
// the sphere through a, b, c, d.
func insphere(a, b, c, d, e mathutil.Vec3) float64 {
	ae, be, ce, de := a.Sub(e), b.Sub(e), c.Sub(e), d.Sub(e)
	return -ae.LenSq()*det3(be, ce, de) +
		be.LenSq()*det3(ae, ce, de) -
		ce.LenSq()*det3(ae, be, de) +
		de.LenSq()*det3(ae, be, ce)
}

func circumcenter(a, b, c, d mathutil.Vec3) (mathutil.Vec3, bool) {
	m := mathutil.Mat3Rows(b.Sub(a), c.Sub(a), d.Sub(a))
	rhs := mathutil.Vec3{b.Sub(a).LenSq() / 2, c.Sub(a).LenSq() / 2, d.Sub(a).LenSq() / 2}
	off, ok := m.Solve(rhs)
	if !ok || math.IsNaN(off.LenSq()) || math.IsInf(off.LenSq(), 0) {
		return mathutil.Vec3{}, false
	}
	return a.Add(off), true
}
