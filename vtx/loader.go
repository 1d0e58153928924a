// SPDX-License-Identifier: GPL-2.0-or-later

package vtx

import (
	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/studioerr"
)

func ParseHeader(data []byte) (*Header, error) {
	c := cursor.New(data)
	h := &Header{}
	f := c.Fields()
	h.Version = f.Int32()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "vtx: truncated header")
	}
	if h.Version != Version {
		return nil, errors.Wrapf(studioerr.ErrUnsupportedVersion, "vtx: version %d", h.Version)
	}
	if err := c.CheckRange(0, HeaderSize); err != nil {
		return nil, errors.Wrap(err, "vtx: truncated header")
	}
	h.VertCacheSize = f.Int32()
	h.MaxBonesPerStrip = f.Uint16()
	h.MaxBonesPerTri = f.Uint16()
	h.MaxBonesPerVert = f.Int32()
	h.Checksum = f.Int32()
	h.NumLODs = f.Int()
	h.MaterialReplacementOffset = f.Int()
	h.NumBodyParts = f.Int()
	h.BodyPartOffset = f.Int()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "vtx: header")
	}
	if h.NumLODs < 0 || h.NumLODs > 8 {
		return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "vtx: %d lods", h.NumLODs)
	}
	return h, nil
}

type reader struct {
	c    *cursor.Cursor
	opts Options
}

// sub returns the (count, offset) pair at the cursor with the offset made
// absolute against base.
func sub(f *cursor.Fields, base int) (int, int) {
	n := f.Int()
	return n, base + f.Int()
}

func Decode(data []byte, opts Options) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	r := &reader{c: cursor.New(data), opts: opts}
	f := &File{Header: *h}
	if f.BodyParts, err = r.bodyParts(h.NumBodyParts, h.BodyPartOffset); err != nil {
		return nil, errors.Wrap(err, "vtx")
	}
	if h.MaterialReplacementOffset != 0 {
		if f.Replacements, err = r.replacements(h.NumLODs, h.MaterialReplacementOffset); err != nil {
			return nil, errors.Wrap(err, "vtx: material replacements")
		}
	}
	return f, nil
}

func (r *reader) bodyParts(n, off int) ([]BodyPart, error) {
	c := r.c
	parts, err := cursor.MakeTable[BodyPart](c, n, off, bodyPartSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, bodyPartSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		cnt, at := sub(f, base)
		if err := f.Err(); err != nil {
			return err
		}
		var err error
		parts[i].Models, err = r.models(cnt, at)
		return errors.Wrapf(err, "body part %d", i)
	})
	return parts, err
}

func (r *reader) models(n, off int) ([]Model, error) {
	c := r.c
	models, err := cursor.MakeTable[Model](c, n, off, modelSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, modelSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		cnt, at := sub(f, base)
		if err := f.Err(); err != nil {
			return err
		}
		var err error
		models[i].LODs, err = r.lods(cnt, at)
		return errors.Wrapf(err, "model %d", i)
	})
	return models, err
}

func (r *reader) lods(n, off int) ([]ModelLOD, error) {
	c := r.c
	lods, err := cursor.MakeTable[ModelLOD](c, n, off, modelLODSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, modelLODSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		cnt, at := sub(f, base)
		lods[i].SwitchPoint = f.Float32()
		if err := f.Err(); err != nil {
			return err
		}
		var err error
		lods[i].Meshes, err = r.meshes(cnt, at)
		return errors.Wrapf(err, "lod %d", i)
	})
	return lods, err
}

func (r *reader) meshes(n, off int) ([]Mesh, error) {
	c := r.c
	meshes, err := cursor.MakeTable[Mesh](c, n, off, meshSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, meshSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		cnt, at := sub(f, base)
		meshes[i].Flags = MeshFlags(f.Uint8())
		if err := f.Err(); err != nil {
			return err
		}
		var err error
		meshes[i].StripGroups, err = r.stripGroups(cnt, at)
		return errors.Wrapf(err, "mesh %d", i)
	})
	return meshes, err
}

func (r *reader) stripGroups(n, off int) ([]StripGroup, error) {
	c := r.c
	size := stripGroupSize
	if r.opts.Extended {
		size = stripGroupSizeExt
	}
	groups, err := cursor.MakeTable[StripGroup](c, n, off, size)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, size, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		g := &groups[i]
		nv, vOff := sub(f, base)
		ni, iOff := sub(f, base)
		ns, sOff := sub(f, base)
		g.Flags = StripGroupFlags(f.Uint8())
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "strip group %d", i)
		}
		var err error
		if g.Vertices, err = r.vertices(nv, vOff); err != nil {
			return errors.Wrapf(err, "strip group %d vertices", i)
		}
		if ni < 0 {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "strip group %d has %d indices", i, ni)
		}
		if ni > 0 {
			err = c.At(iOff, func() error {
				var err error
				g.Indices, err = c.ReadUint16s(ni)
				return err
			})
			if err != nil {
				return errors.Wrapf(err, "strip group %d indices", i)
			}
		}
		if g.Strips, err = r.strips(ns, sOff, len(g.Indices), len(g.Vertices)); err != nil {
			return errors.Wrapf(err, "strip group %d", i)
		}
		return nil
	})
	return groups, err
}

func (r *reader) vertices(n, off int) ([]Vertex, error) {
	c := r.c
	verts, err := cursor.MakeTable[Vertex](c, n, off, vertexSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, vertexSize, func(i int) error {
		f := c.Fields()
		v := &verts[i]
		for j := range v.BoneWeightIndex {
			v.BoneWeightIndex[j] = f.Uint8()
		}
		v.NumBones = f.Uint8()
		v.OrigMeshVertID = f.Uint16()
		for j := range v.BoneID {
			v.BoneID[j] = f.Uint8()
		}
		return f.Err()
	})
	return verts, err
}

func (r *reader) strips(n, off, numIndices, numVertices int) ([]Strip, error) {
	c := r.c
	size := stripSize
	if r.opts.Extended {
		size = stripSizeExt
	}
	strips, err := cursor.MakeTable[Strip](c, n, off, size)
	if err != nil {
		return nil, err
	}
	err = c.Table(n, off, size, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		s := &strips[i]
		s.NumIndices = f.Int()
		s.IndexOffset = f.Int()
		s.NumVertices = f.Int()
		s.VertexOffset = f.Int()
		s.NumBones = int(f.Int16())
		s.Flags = StripFlags(f.Uint8())
		nc, cOff := sub(f, base)
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "strip %d", i)
		}
		if s.IndexOffset < 0 || s.NumIndices < 0 || s.IndexOffset+s.NumIndices > numIndices {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "strip %d indices %d+%d of %d", i, s.IndexOffset, s.NumIndices, numIndices)
		}
		if s.VertexOffset < 0 || s.NumVertices < 0 || s.VertexOffset+s.NumVertices > numVertices {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "strip %d vertices %d+%d of %d", i, s.VertexOffset, s.NumVertices, numVertices)
		}
		var err error
		if s.BoneStateChanges, err = cursor.MakeTable[BoneStateChange](c, nc, cOff, boneStateChangeSize); err != nil {
			return errors.Wrapf(err, "strip %d bone state changes", i)
		}
		err = c.Table(nc, cOff, boneStateChangeSize, func(j int) error {
			f := c.Fields()
			s.BoneStateChanges[j] = BoneStateChange{HardwareID: f.Int(), NewBoneID: f.Int()}
			return f.Err()
		})
		return errors.Wrapf(err, "strip %d bone state changes", i)
	})
	return strips, err
}

func (r *reader) replacements(numLODs, off int) ([][]MaterialReplacement, error) {
	c := r.c
	lists, err := cursor.MakeTable[[]MaterialReplacement](c, numLODs, off, replacementListSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(numLODs, off, replacementListSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		n, at := sub(f, base)
		if err := f.Err(); err != nil {
			return err
		}
		var err error
		if lists[i], err = cursor.MakeTable[MaterialReplacement](c, n, at, replacementSize); err != nil {
			return errors.Wrapf(err, "lod %d", i)
		}
		return c.Table(n, at, replacementSize, func(j int) error {
			rb := c.Offset()
			f := c.Fields()
			lists[i][j].Material = int(f.Int16())
			nameOff := f.Int()
			if err := f.Err(); err != nil {
				return err
			}
			var err error
			lists[i][j].Name, err = c.StringAt(rb + nameOff)
			return errors.Wrapf(err, "lod %d replacement %d", i, j)
		})
	})
	return lists, err
}
