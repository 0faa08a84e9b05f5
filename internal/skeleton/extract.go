package skeleton

import (
	"container/heap"
	"sort"

	"mcf-skeleton/internal/mathutil"
	"mcf-skeleton/internal/mesh"
)

// Options tune Extract.
type Options struct {
	// MergeLength contracts skeleton edges shorter than this after thinning.
	// Zero keeps every edge.
	MergeLength float64
}

// Extract thins a contracted meso-skeleton into a curve skeleton. Edges that
// still bound a triangle are collapsed shortest first until no triangle is
// left; each collapse merges the two nodes into their centroid and unions
// their input vertex lists. The mesh is not modified.
func Extract(m *mesh.Mesh, opts Options) *Graph {
	t := newThinning(m)
	t.thin()
	if opts.MergeLength > 0 {
		t.merge(opts.MergeLength)
	}
	return t.graph()
}

type thinning struct {
	sum   []mathutil.Vec3
	cnt   []int
	corr  [][]int
	alive []bool

	faces     [][3]int
	faceAlive []bool
	nodeFaces []map[int]bool
	nbrs      []map[int]bool

	pq edgeHeap
}

func newThinning(m *mesh.Mesh) *thinning {
	ids := m.Vertices()
	index := make(map[int]int, len(ids))
	t := &thinning{
		sum:       make([]mathutil.Vec3, len(ids)),
		cnt:       make([]int, len(ids)),
		corr:      make([][]int, len(ids)),
		alive:     make([]bool, len(ids)),
		nodeFaces: make([]map[int]bool, len(ids)),
		nbrs:      make([]map[int]bool, len(ids)),
	}
	for i, id := range ids {
		index[id] = i
		t.sum[i] = m.Pos(id)
		t.cnt[i] = 1
		t.corr[i] = append([]int(nil), m.Vertex(id).Corr...)
		t.alive[i] = true
		t.nodeFaces[i] = make(map[int]bool)
		t.nbrs[i] = make(map[int]bool)
	}
	for _, f := range m.Faces() {
		fv := m.FaceVertices(f)
		tri := [3]int{index[fv[0]], index[fv[1]], index[fv[2]]}
		fi := len(t.faces)
		t.faces = append(t.faces, tri)
		t.faceAlive = append(t.faceAlive, true)
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			t.nodeFaces[a][fi] = true
			t.nbrs[a][b] = true
			t.nbrs[b][a] = true
		}
	}
	return t
}

func (t *thinning) point(i int) mathutil.Vec3 {
	return t.sum[i].Scale(1 / float64(t.cnt[i]))
}

func (t *thinning) length(u, v int) float64 {
	return mathutil.Dist(t.point(u), t.point(v))
}

func (t *thinning) push(u, v int) {
	if u > v {
		u, v = v, u
	}
	heap.Push(&t.pq, edgeItem{u: u, v: v, length: t.length(u, v)})
}

// pushAll queues the edges of every live node in ascending order.
func (t *thinning) pushAll() {
	t.pq = t.pq[:0]
	for u := range t.nbrs {
		if !t.alive[u] {
			continue
		}
		for _, v := range sortedKeys(t.nbrs[u]) {
			if u < v {
				t.push(u, v)
			}
		}
	}
}

func (t *thinning) hasFace(u, v int) bool {
	a, b := u, v
	if len(t.nodeFaces[b]) < len(t.nodeFaces[a]) {
		a, b = b, a
	}
	for f := range t.nodeFaces[a] {
		tri := t.faces[f]
		if tri[0] == b || tri[1] == b || tri[2] == b {
			return true
		}
	}
	return false
}

// pop returns the shortest current edge accepted by keep. Entries made stale
// by earlier collapses are dropped or requeued with their current length.
func (t *thinning) pop(keep func(u, v int, length float64) bool) (int, int, bool) {
	for t.pq.Len() > 0 {
		it := heap.Pop(&t.pq).(edgeItem)
		if !t.alive[it.u] || !t.alive[it.v] || !t.nbrs[it.u][it.v] {
			continue
		}
		if l := t.length(it.u, it.v); l != it.length {
			t.push(it.u, it.v)
			continue
		}
		if !keep(it.u, it.v, it.length) {
			continue
		}
		return it.u, it.v, true
	}
	return 0, 0, false
}

func (t *thinning) thin() {
	t.pushAll()
	for {
		u, v, ok := t.pop(func(u, v int, _ float64) bool { return t.hasFace(u, v) })
		if !ok {
			return
		}
		t.collapse(u, v)
	}
}

func (t *thinning) merge(limit float64) {
	t.pushAll()
	for t.pq.Len() > 0 && t.pq[0].length < limit {
		u, v, ok := t.pop(func(_, _ int, l float64) bool { return l < limit })
		if !ok {
			return
		}
		t.collapse(u, v)
	}
}

// collapse merges v into u.
func (t *thinning) collapse(u, v int) {
	for _, f := range sortedKeys(t.nodeFaces[v]) {
		tri := &t.faces[f]
		if tri[0] == u || tri[1] == u || tri[2] == u {
			t.faceAlive[f] = false
			for _, w := range tri {
				delete(t.nodeFaces[w], f)
			}
			continue
		}
		for k := range tri {
			if tri[k] == v {
				tri[k] = u
			}
		}
		t.nodeFaces[u][f] = true
	}
	t.nodeFaces[v] = nil

	for _, w := range sortedKeys(t.nbrs[v]) {
		delete(t.nbrs[w], v)
		if w != u {
			t.nbrs[w][u] = true
			t.nbrs[u][w] = true
		}
	}
	t.nbrs[v] = nil

	t.sum[u] = t.sum[u].Add(t.sum[v])
	t.cnt[u] += t.cnt[v]
	t.corr[u] = append(t.corr[u], t.corr[v]...)
	t.alive[v] = false

	for _, w := range sortedKeys(t.nbrs[u]) {
		t.push(u, w)
	}
}

func (t *thinning) graph() *Graph {
	g := &Graph{}
	index := make([]int, len(t.alive))
	for i, ok := range t.alive {
		if !ok {
			continue
		}
		index[i] = len(g.Nodes)
		vs := append([]int(nil), t.corr[i]...)
		sort.Ints(vs)
		g.Nodes = append(g.Nodes, Node{Point: t.point(i), Vertices: vs})
	}
	for u, ok := range t.alive {
		if !ok {
			continue
		}
		for _, w := range sortedKeys(t.nbrs[u]) {
			if u < w {
				g.Edges = append(g.Edges, [2]int{index[u], index[w]})
			}
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i][0] != g.Edges[j][0] {
			return g.Edges[i][0] < g.Edges[j][0]
		}
		return g.Edges[i][1] < g.Edges[j][1]
	})
	return g
}

func sortedKeys(s map[int]bool) []int {
	out := make([]int, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

type edgeItem struct {
	u, v   int
	length float64
}

// edgeHeap orders by length, then by endpoints, so equal lengths pop in a
// fixed order.
type edgeHeap []edgeItem

func (h edgeHeap) Len() int { return len(h) }
func (h edgeHeap) Less(i, j int) bool {
	if h[i].length != h[j].length {
		return h[i].length < h[j].length
	}
	if h[i].u != h[j].u {
		return h[i].u < h[j].u
	}
	return h[i].v < h[j].v
}
func (h edgeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x any)   { *h = append(*h, x.(edgeItem)) }
func (h *edgeHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}
