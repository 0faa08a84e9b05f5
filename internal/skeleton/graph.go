// Package skeleton turns a contracted meso-skeleton into a curve skeleton
// graph and provides small queries over the result.
package skeleton

import (
	"sort"

	"mcf-skeleton/internal/mathutil"
)

// Node is one skeleton vertex.
type Node struct {
	Point    mathutil.Vec3 `json:"point"`
	Vertices []int         `json:"vertices"` // input surface vertex ids, ascending
}

// Graph is an undirected curve skeleton. Edges are stored once with the
// smaller node index first, sorted.
type Graph struct {
	Nodes []Node   `json:"nodes"`
	Edges [][2]int `json:"edges"`
}

// Adjacency returns the sorted neighbor list of every node.
func (g *Graph) Adjacency() [][]int {
	adj := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	for i := range adj {
		sort.Ints(adj[i])
	}
	return adj
}

func (g *Graph) Degree(i int) int {
	d := 0
	for _, e := range g.Edges {
		if e[0] == i || e[1] == i {
			d++
		}
	}
	return d
}

// IsConnected reports whether every node is reachable from node 0.
// An empty graph is connected.
func (g *Graph) IsConnected() bool {
	if len(g.Nodes) == 0 {
		return true
	}
	adj := g.Adjacency()
	seen := make([]bool, len(g.Nodes))
	seen[0] = true
	stack := []int{0}
	n := 1
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range adj[v] {
			if !seen[w] {
				seen[w] = true
				n++
				stack = append(stack, w)
			}
		}
	}
	return n == len(g.Nodes)
}

// Endpoints returns the nodes of degree at most one.
func (g *Graph) Endpoints() []int {
	adj := g.Adjacency()
	var out []int
	for i, nb := range adj {
		if len(nb) <= 1 {
			out = append(out, i)
		}
	}
	return out
}

// TotalLength sums the Euclidean lengths of all edges.
func (g *Graph) TotalLength() float64 {
	var l float64
	for _, e := range g.Edges {
		l += mathutil.Dist(g.Nodes[e[0]].Point, g.Nodes[e[1]].Point)
	}
	return l
}

// CoveredVertices returns the union of all node correspondence lists, ascending.
func (g *Graph) CoveredVertices() []int {
	var out []int
	for _, n := range g.Nodes {
		out = append(out, n.Vertices...)
	}
	sort.Ints(out)
	return out
}
