// SPDX-License-Identifier: GPL-2.0-or-later

package vtx

import (
	"github.com/pkg/errors"

	"gostudio/studioerr"
)

// Triangles expands every strip of g into a triangle list of strip group
// vertex indices. Strips without a topology flag are read as lists.
func (g *StripGroup) Triangles() ([]int, error) {
	var out []int
	if len(g.Strips) == 0 {
		out = appendList(out, g.Indices)
	}
	for i := range g.Strips {
		s := &g.Strips[i]
		idx := g.Indices[s.IndexOffset : s.IndexOffset+s.NumIndices]
		if s.Flags&StripIsTriStrip != 0 && s.Flags&StripIsTriList == 0 {
			out = appendStrip(out, idx)
		} else {
			out = appendList(out, idx)
		}
	}
	for _, v := range out {
		if v >= len(g.Vertices) {
			return nil, errors.Wrapf(studioerr.ErrInvalidVertexReference, "index %d of %d strip group vertices", v, len(g.Vertices))
		}
	}
	return out, nil
}

func appendList(out []int, idx []uint16) []int {
	for i := 0; i+2 < len(idx); i += 3 {
		out = append(out, int(idx[i]), int(idx[i+1]), int(idx[i+2]))
	}
	return out
}

// appendStrip converts a triangle strip, flipping every second triangle to
// keep the winding and dropping degenerate ones.
func appendStrip(out []int, idx []uint16) []int {
	for i := 0; i+2 < len(idx); i++ {
		a, b, c := int(idx[i]), int(idx[i+1]), int(idx[i+2])
		if a == b || b == c || a == c {
			continue
		}
		if i%2 == 1 {
			a, b = b, a
		}
		out = append(out, a, b, c)
	}
	return out
}

// VertexRef names a mesh vertex reached through a strip group.
type VertexRef struct {
	BodyPart, Model, LOD, Mesh int
	OrigMeshVertID             int
}

// A Remapper maps a mesh vertex to the id used in the output.
type Remapper func(VertexRef) (int, error)

type MeshIndices struct {
	Flags   MeshFlags
	Indices []int
}

type LODIndices struct {
	SwitchPoint float32
	Meshes      []MeshIndices
}

// Topology returns triangle lists indexed by body part, model and lod.
// Without remap the indices are mesh relative vertex ids.
func (f *File) Topology(remap Remapper) ([][][]LODIndices, error) {
	bps := make([][][]LODIndices, len(f.BodyParts))
	for bi := range f.BodyParts {
		bp := &f.BodyParts[bi]
		bps[bi] = make([][]LODIndices, len(bp.Models))
		for mi := range bp.Models {
			m := &bp.Models[mi]
			lods := make([]LODIndices, len(m.LODs))
			for li := range m.LODs {
				lod := &m.LODs[li]
				lods[li].SwitchPoint = lod.SwitchPoint
				lods[li].Meshes = make([]MeshIndices, len(lod.Meshes))
				for ei := range lod.Meshes {
					ref := VertexRef{BodyPart: bi, Model: mi, LOD: li, Mesh: ei}
					mesh := &lod.Meshes[ei]
					idx, err := mesh.Triangles(ref, remap)
					if err != nil {
						return nil, errors.Wrapf(err, "vtx: body part %d model %d lod %d mesh %d", bi, mi, li, ei)
					}
					lods[li].Meshes[ei] = MeshIndices{Flags: mesh.Flags, Indices: idx}
				}
			}
			bps[bi][mi] = lods
		}
	}
	return bps, nil
}

// Triangles returns the triangle list of all strip groups of m. ref names
// the mesh and is passed to remap with the vertex filled in.
func (m *Mesh) Triangles(ref VertexRef, remap Remapper) ([]int, error) {
	var out []int
	for gi := range m.StripGroups {
		g := &m.StripGroups[gi]
		tris, err := g.Triangles()
		if err != nil {
			return nil, errors.Wrapf(err, "strip group %d", gi)
		}
		for _, t := range tris {
			ref.OrigMeshVertID = int(g.Vertices[t].OrigMeshVertID)
			id := ref.OrigMeshVertID
			if remap != nil {
				if id, err = remap(ref); err != nil {
					return nil, errors.Wrapf(err, "strip group %d", gi)
				}
			}
			out = append(out, id)
		}
	}
	return out, nil
}

// DecodeMeshTopology decodes a .vtx buffer into per lod triangle lists.
// remap may be nil.
func DecodeMeshTopology(data []byte, opts Options, remap Remapper) ([][][]LODIndices, error) {
	f, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}
	return f.Topology(remap)
}
