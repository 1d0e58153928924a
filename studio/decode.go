// SPDX-License-Identifier: GPL-2.0-or-later

package studio

import (
	"sort"

	"github.com/pkg/errors"

	"gostudio/math/vec"
	"gostudio/mdl"
	"gostudio/studioerr"
	"gostudio/vtx"
	"gostudio/vvd"
)

type Options struct {
	// MaxLODs limits the number of lods assembled per model, 0 means all.
	MaxLODs int
	// IgnoreChecksums accepts files whose checksums disagree.
	IgnoreChecksums bool
}

// DecodeModel decodes a studio model from the contents of its .mdl, .vvd
// and .vtx files. vvdData and vtxData may both be nil for models without
// geometry.
func DecodeModel(mdlData, vvdData, vtxData []byte, opts Options) (*Model, error) {
	mf, err := mdl.Decode(mdlData)
	if err != nil {
		return nil, err
	}
	m := &Model{
		Header:        mf.Header,
		Skeleton:      Skeleton{Bones: mf.Bones},
		Sequences:     mf.Sequences,
		Animations:    mf.Animations,
		HitboxSets:    mf.HitboxSets,
		Attachments:   mf.Attachments,
		Textures:      mf.Textures,
		TextureDirs:   mf.TextureDirs,
		SkinFamilies:  mf.SkinFamilies,
		PoseParams:    mf.PoseParams,
		IncludeModels: mf.IncludeModels,
		KeyValues:     mf.KeyValues,
	}
	if vvdData == nil && vtxData == nil {
		if n := vertexCount(mf); n > 0 {
			return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "studio: %d vertices without vertex data", n)
		}
		m.BodyParts = emptyBodyParts(mf)
		return m, nil
	}

	vf, err := vvd.Decode(vvdData)
	if err != nil {
		return nil, err
	}
	tf, err := vtx.Decode(vtxData, vtx.OptionsFor(mf.Header.Version))
	if err != nil {
		return nil, err
	}
	if err := validate(mf, vf, tf, opts); err != nil {
		return nil, err
	}
	if m.BodyParts, err = assemble(mf, vf, tf, opts); err != nil {
		return nil, err
	}
	return m, nil
}

func vertexCount(mf *mdl.File) int {
	n := 0
	for _, bp := range mf.BodyParts {
		for _, md := range bp.Models {
			n += md.NumVertices
		}
	}
	return n
}

func emptyBodyParts(mf *mdl.File) []BodyPart {
	bps := make([]BodyPart, len(mf.BodyParts))
	for i, bp := range mf.BodyParts {
		bps[i].Name = bp.Name
		bps[i].Models = make([]SubModel, len(bp.Models))
		for j, md := range bp.Models {
			bps[i].Models[j] = SubModel{Name: md.Name, Blank: md.NumVertices == 0}
		}
	}
	return bps
}

// lodTables caches the lod orders of the vertex file.
type lodTables struct {
	order0 []int
	remap  [][]int
}

func newLODTables(vf *vvd.File, n int) (*lodTables, error) {
	t := &lodTables{remap: make([][]int, n)}
	var err error
	if t.order0, err = vf.LODOrder(0); err != nil {
		return nil, err
	}
	for k := range t.remap {
		if t.remap[k], err = vf.Remap(k); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func assemble(mf *mdl.File, vf *vvd.File, tf *vtx.File, opts Options) ([]BodyPart, error) {
	numLODs := vf.Header.NumLODs
	if opts.MaxLODs > 0 && opts.MaxLODs < numLODs {
		numLODs = opts.MaxLODs
	}
	tables, err := newLODTables(vf, numLODs)
	if err != nil {
		return nil, errors.Wrap(err, "studio")
	}
	bps := emptyBodyParts(mf)
	for bi := range mf.BodyParts {
		for mi := range mf.BodyParts[bi].Models {
			md := &mf.BodyParts[bi].Models[mi]
			vm := &tf.BodyParts[bi].Models[mi]
			n := min(numLODs, len(vm.LODs))
			sm := &bps[bi].Models[mi]
			sm.LODs = make([]LOD, n)
			for k := 0; k < n; k++ {
				if err := assembleLOD(&sm.LODs[k], md, &vm.LODs[k], vf, tables, k); err != nil {
					return nil, errors.Wrapf(err, "studio: body part %d model %d lod %d", bi, mi, k)
				}
			}
		}
	}
	return bps, nil
}

// assembleLOD collects the vertices of model md present in lod k, in lod
// order, and rewrites the strip indices onto them.
func assembleLOD(out *LOD, md *mdl.Model, vl *vtx.ModelLOD, vf *vvd.File, t *lodTables, k int) error {
	first := md.FirstVertex()
	if first+md.NumVertices > len(t.order0) {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "model vertices %d+%d of %d", first, md.NumVertices, len(t.order0))
	}
	type entry struct{ lodID, src int }
	var present []entry
	for id := first; id < first+md.NumVertices; id++ {
		src := t.order0[id]
		if l := t.remap[k][src]; l >= 0 {
			present = append(present, entry{l, src})
		}
	}
	sort.Slice(present, func(i, j int) bool { return present[i].lodID < present[j].lodID })

	local := make(map[int]int, len(present))
	out.SwitchPoint = vl.SwitchPoint
	out.Vertices = make([]vvd.Vertex, len(present))
	out.SourceIDs = make([]int, len(present))
	if vf.Tangents != nil {
		out.Tangents = make([]vec.Vec4, len(present))
	}
	for i, e := range present {
		local[e.src] = i
		out.SourceIDs[i] = e.src
		out.Vertices[i] = vf.Vertices[e.src]
		if out.Tangents != nil {
			out.Tangents[i] = vf.Tangents[e.src]
		}
	}

	if len(vl.Meshes) > len(md.Meshes) {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "%d strip meshes for %d model meshes", len(vl.Meshes), len(md.Meshes))
	}
	out.Meshes = make([]Mesh, len(vl.Meshes))
	for ei := range vl.Meshes {
		mesh := &md.Meshes[ei]
		remap := func(r vtx.VertexRef) (int, error) {
			rel := mesh.VertexOffset + r.OrigMeshVertID
			if r.OrigMeshVertID >= mesh.NumVertices || rel >= md.NumVertices {
				return 0, errors.Wrapf(studioerr.ErrInvalidVertexReference, "mesh vertex %d of %d", r.OrigMeshVertID, mesh.NumVertices)
			}
			src := t.order0[first+rel]
			l, ok := local[src]
			if !ok {
				return 0, errors.Wrapf(studioerr.ErrInvalidVertexReference, "vertex %d is not part of lod %d", src, k)
			}
			return l, nil
		}
		vm := &vl.Meshes[ei]
		idx, err := vm.Triangles(vtx.VertexRef{LOD: k, Mesh: ei}, remap)
		if err != nil {
			return errors.Wrapf(err, "mesh %d", ei)
		}
		out.Meshes[ei] = Mesh{Material: mesh.Material, Flags: vm.Flags, Indices: idx}
	}
	return nil
}
