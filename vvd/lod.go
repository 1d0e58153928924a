// SPDX-License-Identifier: GPL-2.0-or-later

package vvd

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"gostudio/studioerr"
)

// LODOrder returns the stored vertex ids making up lod, in lod order. lod
// k is the concatenation of all fixups with a LOD of at least k. Without
// fixups every lod uses all stored vertices.
func (f *File) LODOrder(lod int) ([]int, error) {
	if lod < 0 || lod >= f.Header.NumLODs {
		return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "vvd: lod %d of %d", lod, f.Header.NumLODs)
	}
	if len(f.Fixups) == 0 {
		ids := make([]int, len(f.Vertices))
		for i := range ids {
			ids[i] = i
		}
		return ids, nil
	}
	var ids []int
	for _, x := range f.Fixups {
		if x.LOD < lod {
			continue
		}
		for i := 0; i < x.NumVertices; i++ {
			ids = append(ids, x.SourceVertexID+i)
		}
	}
	return ids, nil
}

// LODVertices returns the vertices of lod in lod order.
func (f *File) LODVertices(lod int) ([]Vertex, error) {
	ids, err := f.LODOrder(lod)
	if err != nil {
		return nil, err
	}
	v := make([]Vertex, len(ids))
	for i, id := range ids {
		v[i] = f.Vertices[id]
	}
	return v, nil
}

// Remap returns a table from stored vertex id to the id inside lod, -1 for
// vertices lod does not use.
func (f *File) Remap(lod int) ([]int, error) {
	ids, err := f.LODOrder(lod)
	if err != nil {
		return nil, err
	}
	r := make([]int, len(f.Vertices))
	for i := range r {
		r[i] = -1
	}
	for i, id := range ids {
		if r[id] < 0 {
			r[id] = i
		}
	}
	return r, nil
}

// ValidateBones checks every vertex against a skeleton of boneCount bones.
func (f *File) ValidateBones(boneCount int) error {
	for i := range f.Vertices {
		v := &f.Vertices[i]
		var sum float32
		for j := 0; j < v.NumBones; j++ {
			if int(v.Bones[j]) >= boneCount {
				return errors.Wrapf(studioerr.ErrInvalidBoneReference, "vvd: vertex %d uses bone %d of %d", i, v.Bones[j], boneCount)
			}
			sum += v.Weights[j]
		}
		if v.NumBones > 0 && math32.Abs(sum-1) > 1e-3 {
			return errors.Wrapf(studioerr.ErrInvalidBoneReference, "vvd: vertex %d weights sum to %v", i, sum)
		}
	}
	return nil
}

// DecodeVertices returns the vertices of every lod of a .vvd buffer
// skinned to a skeleton of boneCount bones.
func DecodeVertices(data []byte, boneCount int) ([][]Vertex, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := f.ValidateBones(boneCount); err != nil {
		return nil, err
	}
	lods := make([][]Vertex, f.Header.NumLODs)
	for i := range lods {
		if lods[i], err = f.LODVertices(i); err != nil {
			return nil, err
		}
	}
	return lods, nil
}
