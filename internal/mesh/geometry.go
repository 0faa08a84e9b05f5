package mesh

import "mcf-skeleton/internal/mathutil"

// Pos returns the position of vertex v.
func (m *Mesh) Pos(v int) mathutil.Vec3 { return m.verts[v].Pos }

// SetPos moves vertex v.
func (m *Mesh) SetPos(v int, p mathutil.Vec3) { m.verts[v].Pos = p }

// EdgeLengthSq returns the squared length of the edge of h.
func (m *Mesh) EdgeLengthSq(h int) float64 {
	return mathutil.DistSq(m.verts[m.Source(h)].Pos, m.verts[m.Target(h)].Pos)
}

// FaceNormal returns the unnormalized normal of f; its length is twice the face area.
func (m *Mesh) FaceNormal(f int) mathutil.Vec3 {
	fv := m.FaceVertices(f)
	a, b, c := m.verts[fv[0]].Pos, m.verts[fv[1]].Pos, m.verts[fv[2]].Pos
	return b.Sub(a).Cross(c.Sub(a))
}

func (m *Mesh) FaceArea(f int) float64 {
	return m.FaceNormal(f).Len() / 2
}

// Area is the total surface area.
func (m *Mesh) Area() float64 {
	var area float64
	for f := range m.faces {
		if !m.faces[f].removed {
			area += m.FaceArea(f)
		}
	}
	return area
}

// SignedVolume is the enclosed volume, positive for outward orientation.
func (m *Mesh) SignedVolume() float64 {
	var vol float64
	for f := range m.faces {
		if m.faces[f].removed {
			continue
		}
		fv := m.FaceVertices(f)
		a, b, c := m.verts[fv[0]].Pos, m.verts[fv[1]].Pos, m.verts[fv[2]].Pos
		vol += a.Dot(b.Cross(c)) / 6
	}
	return vol
}

// VertexNormal is the area-weighted average of the normals of the faces around v.
func (m *Mesh) VertexNormal(v int) mathutil.Vec3 {
	var n mathutil.Vec3
	for _, h := range m.Outgoing(v) {
		n = n.Add(m.FaceNormal(m.hes[h].Face))
	}
	return n.Normalize()
}

// BoundingBox returns the bounds of the live vertices.
func (m *Mesh) BoundingBox() mathutil.BBox {
	b := mathutil.EmptyBBox()
	for i := range m.verts {
		if !m.verts[i].removed {
			b.Extend(m.verts[i].Pos)
		}
	}
	return b
}
