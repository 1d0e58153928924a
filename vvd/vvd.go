// SPDX-License-Identifier: GPL-2.0-or-later

// Package vvd reads Source studio vertex files.
package vvd

import (
	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/math/vec"
	"gostudio/studioerr"
)

const (
	Magic      = 'V'<<24 | 'S'<<16 | 'D'<<8 | 'I' // "IDSV"
	Version    = 4
	HeaderSize = 64
	MaxLODs    = 8
	VertexSize = 48

	fixupSize   = 12
	tangentSize = 16
	maxBones    = 3
)

type Header struct {
	ID       int32
	Version  int32
	Checksum int32
	NumLODs  int
	// NumLODVertices[0] is the number of stored vertices.
	NumLODVertices [MaxLODs]int

	NumFixups     int
	FixupOffset   int
	VertexOffset  int
	TangentOffset int
}

type BoneWeight struct {
	Weights  [maxBones]float32
	Bones    [maxBones]uint8
	NumBones int
}

type Vertex struct {
	BoneWeight
	Position vec.Vec3
	Normal   vec.Vec3
	TexCoord vec.Vec2
}

// Fixup selects NumVertices stored vertices starting at SourceVertexID for
// every LOD up to and including LOD.
type Fixup struct {
	LOD            int
	SourceVertexID int
	NumVertices    int
}

type File struct {
	Header   Header
	Fixups   []Fixup
	Vertices []Vertex
	Tangents []vec.Vec4 // nil if the file has none
}

func ParseHeader(data []byte) (*Header, error) {
	c := cursor.New(data)
	h := &Header{}
	if err := c.CheckRange(0, 4); err != nil {
		return nil, errors.Wrap(err, "vvd: truncated header")
	}
	f := c.Fields()
	if h.ID = f.Int32(); h.ID != Magic {
		return nil, errors.Wrapf(studioerr.ErrBadMagic, "vvd: id %#08x", uint32(h.ID))
	}
	h.Version = f.Int32()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "vvd: truncated header")
	}
	if h.Version != Version {
		return nil, errors.Wrapf(studioerr.ErrUnsupportedVersion, "vvd: version %d", h.Version)
	}
	if err := c.CheckRange(0, HeaderSize); err != nil {
		return nil, errors.Wrap(err, "vvd: truncated header")
	}
	h.Checksum = f.Int32()
	h.NumLODs = f.Int()
	for i := range h.NumLODVertices {
		h.NumLODVertices[i] = f.Int()
	}
	h.NumFixups = f.Int()
	h.FixupOffset = f.Int()
	h.VertexOffset = f.Int()
	h.TangentOffset = f.Int()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "vvd: header")
	}
	if h.NumLODs < 1 || h.NumLODs > MaxLODs {
		return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "vvd: %d lods", h.NumLODs)
	}
	return h, nil
}

func Decode(data []byte) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	c := cursor.New(data)
	f := &File{Header: *h}

	if f.Fixups, err = cursor.MakeTable[Fixup](c, h.NumFixups, h.FixupOffset, fixupSize); err != nil {
		return nil, errors.Wrap(err, "vvd: fixups")
	}
	err = c.Table(h.NumFixups, h.FixupOffset, fixupSize, func(i int) error {
		r := c.Fields()
		x := &f.Fixups[i]
		x.LOD = r.Int()
		x.SourceVertexID = r.Int()
		x.NumVertices = r.Int()
		if err := r.Err(); err != nil {
			return err
		}
		if x.LOD < 0 || x.LOD >= MaxLODs || x.SourceVertexID < 0 || x.NumVertices < 0 ||
			x.SourceVertexID+x.NumVertices > h.NumLODVertices[0] {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "fixup %d (lod %d, %d+%d) of %d vertices",
				i, x.LOD, x.SourceVertexID, x.NumVertices, h.NumLODVertices[0])
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "vvd: fixups")
	}

	n := h.NumLODVertices[0]
	if f.Vertices, err = cursor.MakeTable[Vertex](c, n, h.VertexOffset, VertexSize); err != nil {
		return nil, errors.Wrap(err, "vvd: vertices")
	}
	err = c.Table(n, h.VertexOffset, VertexSize, func(i int) error {
		r := c.Fields()
		v := &f.Vertices[i]
		for j := range v.Weights {
			v.Weights[j] = r.Float32()
		}
		for j := range v.Bones {
			v.Bones[j] = r.Uint8()
		}
		v.NumBones = int(r.Uint8())
		v.Position = r.Vec3()
		v.Normal = r.Vec3()
		v.TexCoord = r.Vec2()
		if err := r.Err(); err != nil {
			return err
		}
		if v.NumBones > maxBones {
			return errors.Wrapf(studioerr.ErrInvalidBoneReference, "vertex %d has %d bones", i, v.NumBones)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "vvd: vertices")
	}

	if h.TangentOffset != 0 {
		if err := c.CheckRange(h.TangentOffset, n*tangentSize); err != nil {
			return nil, errors.Wrap(err, "vvd: tangents")
		}
		f.Tangents = make([]vec.Vec4, n)
		err = c.Table(n, h.TangentOffset, tangentSize, func(i int) error {
			var err error
			f.Tangents[i], err = c.ReadVec4()
			return err
		})
		if err != nil {
			return nil, errors.Wrap(err, "vvd: tangents")
		}
	}
	return f, nil
}
