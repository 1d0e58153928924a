// SPDX-License-Identifier: GPL-2.0-or-later

package studiotest

import (
	"os"
	"path/filepath"

	"gostudio/math/vec"
	"gostudio/mdl"
	"gostudio/vtx"
	"gostudio/vvd"
)

// Fixture describes a two bone model with one body part holding a quad.
// LOD 0 draws the quad as two triangles over stored vertices 0..3, LOD 1
// drops vertex 0 and draws one triangle.
type Fixture struct {
	Version     int32
	Checksum    int32
	VVDChecksum int32
	VTXChecksum int32
	// VertexBone is the second bone of vertex 3.
	VertexBone uint8
	// Indices0 is the LOD 0 triangle list of strip group vertices.
	Indices0 []uint16
}

func New() *Fixture {
	return &Fixture{
		Version:     48,
		Checksum:    0x5eed,
		VVDChecksum: 0x5eed,
		VTXChecksum: 0x5eed,
		VertexBone:  1,
		Indices0:    []uint16{0, 1, 2, 2, 1, 3},
	}
}

type Files struct {
	MDL, VVD, VTX []byte
}

func (f *Fixture) Build() Files {
	return Files{MDL: f.mdl(), VVD: f.vvd(), VTX: f.vtx()}
}

// Positions of the stored vertices.
var Positions = []vec.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}}

const (
	boneSize       = 216
	animDescSize   = 100
	seqDescSize    = 212
	hitboxSetSize  = 12
	hitboxSize     = 68
	textureSize    = 64
	bodyPartSize   = 16
	modelSize      = 148
	meshSize       = 116
	attachmentSize = 92
)

func (f *Fixture) mdl() []byte {
	w := &Writer{}
	w.Reserve(mdl.HeaderSize)
	w.I32(0, mdl.Magic)
	w.I32(4, f.Version)
	w.I32(8, f.Checksum)
	w.Str(12, "test/quad.mdl")
	table := func(hdr, count, off int) {
		w.I32(hdr, int32(count))
		w.I32(hdr+4, int32(off))
	}

	bones := w.Reserve(2 * boneSize)
	table(156, 2, bones)
	for i, name := range []string{"root", "arm"} {
		b := bones + i*boneSize
		w.I32(b, w.Name(b, name))
		w.I32(b+4, int32(i-1))
		if i == 1 {
			w.Vec3(b+32, vec.Vec3{X: 0, Y: 0, Z: 10})
		}
		w.F32(b+56, 1)
		w.Vec3(b+72, vec.Vec3{X: 1, Y: 1, Z: 1})
		w.Vec3(b+84, vec.Vec3{X: 0.001, Y: 0.001, Z: 0.001})
	}

	set := w.Reserve(hitboxSetSize)
	table(172, 1, set)
	box := w.Reserve(hitboxSize)
	w.I32(set, w.Name(set, "default"))
	w.I32(set+4, 1)
	w.Rel(set+8, set, box)
	w.I32(box, 1)
	w.Vec3(box+8, vec.Vec3{X: -1, Y: -1, Z: -1})
	w.Vec3(box+20, vec.Vec3{X: 1, Y: 1, Z: 1})
	w.I32(box+32, w.Name(box, "arm_box"))

	anim := w.Reserve(animDescSize)
	table(180, 1, anim)
	w.I32(anim+4, w.Name(anim, "idle"))
	w.F32(anim+8, 30)
	w.I32(anim+12, int32(mdl.SeqLooping))
	w.I32(anim+16, 2)
	tracks := w.Reserve(0)
	w.Bytes(tracks, []byte{
		1, byte(mdl.AnimAnimRot), 0, 0, // bone 1, last track
		0, 0, 0, 0, 6, 0, // z only
		2, 2, 0, 0, 100, 0, // frames 0 and 100
	})
	w.Rel(anim+56, anim, tracks)

	seq := w.Reserve(seqDescSize)
	table(188, 1, seq)
	w.I32(seq+4, w.Name(seq, "idle"))
	w.I32(seq+8, w.Name(seq, "ACT_IDLE"))
	w.I32(seq+12, int32(mdl.SeqLooping))
	w.I32(seq+68, 1)
	w.I32(seq+72, 1)
	blend := w.Reserve(2)
	w.Rel(seq+60, seq, blend)

	tex := w.Reserve(textureSize)
	table(204, 1, tex)
	w.I32(tex, w.Name(tex, "quad_skin"))
	dirs := w.Reserve(4)
	table(212, 1, dirs)
	w.I32(dirs, w.Name(0, "models/test/"))
	skins := w.Reserve(2)
	w.I32(220, 1)
	w.I32(224, 1)
	w.I32(228, int32(skins))

	bp := w.Reserve(bodyPartSize)
	table(232, 1, bp)
	md := w.Reserve(modelSize)
	mesh := w.Reserve(meshSize)
	w.I32(bp, w.Name(bp, "body"))
	w.I32(bp+4, 1)
	w.I32(bp+8, 1)
	w.Rel(bp+12, bp, md)
	w.Str(md, "quad")
	w.F32(md+68, 1.5)
	w.I32(md+72, 1)
	w.Rel(md+76, md, mesh)
	w.I32(md+80, int32(len(Positions)))
	w.I32(mesh+8, int32(len(Positions)))
	w.I32(mesh+52, 4)
	w.I32(mesh+56, 3)

	att := w.Reserve(attachmentSize)
	table(240, 1, att)
	w.I32(att, w.Name(att, "hand"))
	w.I32(att+8, 1)
	w.F32(att+12, 1)
	w.F32(att+32, 1)
	w.F32(att+52, 1)
	w.F32(att+56, 5)

	w.I32(76, int32(len(w.B)))
	return w.B
}

func (f *Fixture) vvd() []byte {
	w := &Writer{}
	w.Reserve(vvd.HeaderSize)
	w.I32(0, vvd.Magic)
	w.I32(4, vvd.Version)
	w.I32(8, f.VVDChecksum)
	w.I32(12, 2)
	w.I32(16, 4)
	w.I32(20, 3)

	fix := w.Reserve(2 * 12)
	w.I32(48, 2)
	w.I32(52, int32(fix))
	for i, x := range [][3]int32{{0, 0, 1}, {1, 1, 3}} {
		for j, v := range x {
			w.I32(fix+12*i+4*j, v)
		}
	}

	verts := w.Reserve(len(Positions) * vvd.VertexSize)
	w.I32(56, int32(verts))
	for i, p := range Positions {
		v := verts + i*vvd.VertexSize
		if i == 3 {
			w.F32(v, 0.5)
			w.F32(v+4, 0.5)
			w.U8(v+13, f.VertexBone)
			w.U8(v+15, 2)
		} else {
			w.F32(v, 1)
			w.U8(v+15, 1)
		}
		w.Vec3(v+16, p)
		w.Vec3(v+28, vec.Vec3{X: 0, Y: 0, Z: 1})
		w.F32(v+40, p.X)
		w.F32(v+44, p.Y)
	}

	tan := w.Reserve(len(Positions) * 16)
	w.I32(60, int32(tan))
	for i := range Positions {
		w.F32(tan+16*i, 1)
		w.F32(tan+16*i+12, 1)
	}
	return w.B
}

func (f *Fixture) vtx() []byte {
	ext := vtx.OptionsFor(f.Version).Extended
	groupSize, stripSize := 25, 27
	if ext {
		groupSize, stripSize = 33, 35
	}

	w := &Writer{}
	w.Reserve(vtx.HeaderSize)
	w.I32(0, vtx.Version)
	w.I32(16, f.VTXChecksum)
	w.I32(20, 2)
	w.I32(28, 1)
	bp := w.Reserve(8)
	w.I32(32, int32(bp))
	md := w.Reserve(8)
	w.I32(bp, 1)
	w.Rel(bp+4, bp, md)
	lods := w.Reserve(2 * 12)
	w.I32(md, 2)
	w.Rel(md+4, md, lods)

	lodData := []struct {
		orig    []uint16
		indices []uint16
		switchP float32
	}{
		{[]uint16{0, 1, 2, 3}, f.Indices0, 0},
		{[]uint16{1, 2, 3}, []uint16{0, 1, 2}, 12},
	}
	for i, l := range lodData {
		lod := lods + 12*i
		mesh := w.Reserve(9)
		w.I32(lod, 1)
		w.Rel(lod+4, lod, mesh)
		w.F32(lod+8, l.switchP)
		sg := w.Reserve(groupSize)
		w.I32(mesh, 1)
		w.Rel(mesh+4, mesh, sg)

		verts := w.Reserve(9 * len(l.orig))
		for j, o := range l.orig {
			w.U8(verts+9*j+3, 1)
			w.U16(verts+9*j+4, o)
		}
		idx := w.Reserve(2 * len(l.indices))
		for j, x := range l.indices {
			w.U16(idx+2*j, x)
		}
		strip := w.Reserve(stripSize)
		w.I32(strip, int32(len(l.indices)))
		w.I32(strip+8, int32(len(l.orig)))
		w.U8(strip+18, byte(vtx.StripIsTriList))

		w.I32(sg, int32(len(l.orig)))
		w.Rel(sg+4, sg, verts)
		w.I32(sg+8, int32(len(l.indices)))
		w.Rel(sg+12, sg, idx)
		w.I32(sg+16, 1)
		w.Rel(sg+20, sg, strip)
	}
	return w.B
}

// WriteDir stores the files as dir/base.mdl, dir/base.vvd and
// dir/base.dx90.vtx.
func (fs Files) WriteDir(dir, base string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for ext, b := range map[string][]byte{".mdl": fs.MDL, ".vvd": fs.VVD, ".dx90.vtx": fs.VTX} {
		if err := os.WriteFile(filepath.Join(dir, base+ext), b, 0o644); err != nil {
			return err
		}
	}
	return nil
}
