package mesh

import "mcf-skeleton/internal/mathutil"

// IsDegenerate reports whether the neighborhood of v has collapsed. The disk
// is every vertex reachable from v through vertices closer than threshold to
// v; it is degenerate when its Euler characteristic V - E + F is not 1.
func IsDegenerate(m *Mesh, v int, threshold float64) bool {
	root := m.verts[v].Pos
	disk := map[int]bool{v: true}
	visited := map[int]bool{v: true}
	queue := []int{v}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range m.Neighbors(u) {
			if visited[w] {
				continue
			}
			visited[w] = true
			if mathutil.Dist(root, m.verts[w].Pos) < threshold {
				disk[w] = true
				queue = append(queue, w)
			}
		}
	}

	edges, faces := 0, 0
	seenFace := make(map[int]bool)
	for u := range disk {
		for _, h := range m.Outgoing(u) {
			w := m.Target(h)
			if !disk[w] {
				continue
			}
			if u < w {
				edges++
			}
			f := m.hes[h].Face
			if seenFace[f] {
				continue
			}
			seenFace[f] = true
			fv := m.FaceVertices(f)
			if disk[fv[0]] && disk[fv[1]] && disk[fv[2]] {
				faces++
			}
		}
	}
	return len(disk)-edges+faces != 1
}
