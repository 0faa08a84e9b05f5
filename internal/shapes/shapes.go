// Package shapes builds closed, oriented triangle surfaces procedurally.
// Every generator returns outward-facing counter-clockwise triangles.
package shapes

import (
	"fmt"
	"math"
	"sort"

	"mcf-skeleton/internal/mathutil"
)

// Surface is an indexed triangle surface.
type Surface struct {
	Points []mathutil.Vec3
	Tris   [][3]int
}

// Tetrahedron returns a regular tetrahedron inscribed in the cube [-s, s]³.
func Tetrahedron(s float64) Surface {
	return Surface{
		Points: []mathutil.Vec3{{s, s, s}, {s, -s, -s}, {-s, s, -s}, {-s, -s, s}},
		Tris:   [][3]int{{0, 1, 2}, {1, 3, 2}, {0, 2, 3}, {0, 3, 1}},
	}
}

// Octahedron returns the octahedron with vertices at distance s on each axis.
func Octahedron(s float64) Surface {
	// +x, -x, +y, -y, +z, -z
	return Surface{
		Points: []mathutil.Vec3{{s, 0, 0}, {-s, 0, 0}, {0, s, 0}, {0, -s, 0}, {0, 0, s}, {0, 0, -s}},
		Tris: [][3]int{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		},
	}
}

// Icosphere returns an icosahedron subdivided `level` times and projected onto a sphere.
// Level 0 has 12 vertices, each level multiplies the face count by 4.
func Icosphere(radius float64, level int) Surface {
	t := (1 + math.Sqrt(5)) / 2
	pts := []mathutil.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	tris := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	for i := range pts {
		pts[i] = pts[i].Normalize()
	}

	for l := 0; l < level; l++ {
		mid := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if idx, ok := mid[key]; ok {
				return idx
			}
			pts = append(pts, mathutil.Midpoint(pts[a], pts[b]).Normalize())
			mid[key] = len(pts) - 1
			return len(pts) - 1
		}
		next := make([][3]int, 0, len(tris)*4)
		for _, tri := range tris {
			a := midpoint(tri[0], tri[1])
			b := midpoint(tri[1], tri[2])
			c := midpoint(tri[2], tri[0])
			next = append(next,
				[3]int{tri[0], a, c},
				[3]int{tri[1], b, a},
				[3]int{tri[2], c, b},
				[3]int{a, b, c},
			)
		}
		tris = next
	}

	for i := range pts {
		pts[i] = pts[i].Scale(radius)
	}
	return Surface{Points: pts, Tris: tris}
}

// Cylinder returns a capped cylinder along the X axis centered at the origin.
// segments is the number of vertices per ring, rings the number of axial subdivisions.
// Each cap is a triangle fan around a center vertex.
func Cylinder(radius, length float64, segments, rings int) Surface {
	var s Surface
	for i := 0; i <= rings; i++ {
		x := -length/2 + length*float64(i)/float64(rings)
		for j := 0; j < segments; j++ {
			th := 2 * math.Pi * float64(j) / float64(segments)
			s.Points = append(s.Points, mathutil.Vec3{x, radius * math.Cos(th), radius * math.Sin(th)})
		}
	}
	idx := func(i, j int) int { return i*segments + (j % segments) }
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a, b := idx(i, j), idx(i+1, j)
			c, d := idx(i+1, j+1), idx(i, j+1)
			s.Tris = append(s.Tris, [3]int{a, c, b}, [3]int{a, d, c})
		}
	}

	c0 := len(s.Points)
	s.Points = append(s.Points, mathutil.Vec3{-length / 2, 0, 0})
	c1 := len(s.Points)
	s.Points = append(s.Points, mathutil.Vec3{length / 2, 0, 0})
	for j := 0; j < segments; j++ {
		s.Tris = append(s.Tris, [3]int{c0, idx(0, j+1), idx(0, j)})
		s.Tris = append(s.Tris, [3]int{c1, idx(rings, j), idx(rings, j+1)})
	}
	return s
}

// Torus returns a torus around the Z axis with major radius R and tube radius r.
func Torus(R, r float64, nu, nv int) Surface {
	var s Surface
	for i := 0; i < nu; i++ {
		u := 2 * math.Pi * float64(i) / float64(nu)
		for j := 0; j < nv; j++ {
			v := 2 * math.Pi * float64(j) / float64(nv)
			w := R + r*math.Cos(v)
			s.Points = append(s.Points, mathutil.Vec3{w * math.Cos(u), w * math.Sin(u), r * math.Sin(v)})
		}
	}
	idx := func(i, j int) int { return (i%nu)*nv + (j % nv) }
	for i := 0; i < nu; i++ {
		for j := 0; j < nv; j++ {
			a, b := idx(i, j), idx(i+1, j)
			c, d := idx(i+1, j+1), idx(i, j+1)
			s.Tris = append(s.Tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return s
}

// Names lists the shapes understood by ByName.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var registry = map[string]func() Surface{
	"tetrahedron": func() Surface { return Tetrahedron(1) },
	"octahedron":  func() Surface { return Octahedron(1) },
	"sphere":      func() Surface { return Icosphere(1, 2) },
	"cylinder":    func() Surface { return Cylinder(0.5, 6, 12, 24) },
	"torus":       func() Surface { return Torus(2, 0.5, 32, 12) },
}

// ByName returns one of the default shapes.
func ByName(name string) (Surface, error) {
	gen, ok := registry[name]
	if !ok {
		return Surface{}, fmt.Errorf("shapes: unknown shape %q (known: %v)", name, Names())
	}
	return gen(), nil
}
