// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"encoding/binary"
	"math"
)

// writer assembles test buffers at explicit offsets, growing as needed.
type writer struct {
	b []byte
}

func (w *writer) grow(n int) {
	if len(w.b) < n {
		w.b = append(w.b, make([]byte, n-len(w.b))...)
	}
}

func (w *writer) u8(off int, v uint8) {
	w.grow(off + 1)
	w.b[off] = v
}

func (w *writer) i16(off int, v int16) {
	w.grow(off + 2)
	binary.LittleEndian.PutUint16(w.b[off:], uint16(v))
}

func (w *writer) i32(off int, v int32) {
	w.grow(off + 4)
	binary.LittleEndian.PutUint32(w.b[off:], uint32(v))
}

func (w *writer) f32(off int, v float32) {
	w.i32(off, int32(math.Float32bits(v)))
}

func (w *writer) raw(off int, p []byte) {
	w.grow(off + len(p))
	copy(w.b[off:], p)
}

func (w *writer) str(off int, s string) {
	w.raw(off, append([]byte(s), 0))
}

// name appends s and returns its offset relative to base.
func (w *writer) name(base int, s string) int32 {
	off := len(w.b)
	w.str(off, s)
	return int32(off - base)
}

// reserve appends n zero bytes and returns their offset.
func (w *writer) reserve(n int) int {
	off := len(w.b)
	w.grow(off + n)
	return off
}

func newModel(version int32) *writer {
	w := &writer{}
	w.grow(HeaderSize)
	w.i32(0, Magic)
	w.i32(4, version)
	w.i32(8, 0x1234)
	w.str(12, "test.mdl")
	return w
}

func (w *writer) finish() []byte {
	w.i32(76, int32(len(w.b)))
	return w.b
}

type testBone struct {
	name   string
	parent int
}

// header offsets
const (
	hdrBones      = 156
	hdrHitboxSets = 172
	hdrAnims      = 180
	hdrSeqs       = 188
	hdrTextures   = 204
	hdrBodyParts  = 232
	hdrAttach     = 240
	hdrPoseParams = 300
	hdrKeyValues  = 312
)

func (w *writer) table(hdr, count, off int) {
	w.i32(hdr, int32(count))
	w.i32(hdr+4, int32(off))
}

func (w *writer) bones(bones ...testBone) {
	off := w.reserve(len(bones) * boneSize)
	w.table(hdrBones, len(bones), off)
	for i, b := range bones {
		base := off + i*boneSize
		w.i32(base, w.name(base, b.name))
		w.i32(base+4, int32(b.parent))
		w.f32(base+56, 1) // quat w
		for a := 0; a < 3; a++ {
			w.f32(base+72+4*a, 1) // position scale
			w.f32(base+84+4*a, 1) // rotation scale
		}
	}
}

// anim adds an animation descriptor with the given track stream.
func (w *writer) anim(name string, numFrames int, flags SeqFlags, tracks []byte) {
	off := w.reserve(animDescSize)
	w.table(hdrAnims, 1, off)
	w.i32(off+4, w.name(off, name))
	w.f32(off+8, 30)
	w.i32(off+12, int32(flags))
	w.i32(off+16, int32(numFrames))
	if tracks != nil {
		data := w.reserve(len(tracks))
		w.raw(data, tracks)
		w.i32(off+56, int32(data-off))
	}
}

func (w *writer) sequence(label string, anim int16) {
	off := w.reserve(seqDescSize)
	w.table(hdrSeqs, 1, off)
	w.i32(off+4, w.name(off, label))
	w.i32(off+68, 1)
	w.i32(off+72, 1)
	blend := w.reserve(2)
	w.i16(blend, anim)
	w.i32(off+60, int32(blend-off))
}

// track encodes a track header followed by its payload.
func track(bone uint8, flags AnimFlags, next int16, payload ...[]byte) []byte {
	b := []byte{bone, byte(flags), byte(next), byte(uint16(next) >> 8)}
	for _, p := range payload {
		b = append(b, p...)
	}
	return b
}

// le encodes int16 values.
func le(vals ...int16) []byte {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

// run encodes one RLE run.
func run(valid, total uint8, vals ...int16) []byte {
	return append([]byte{valid, total}, le(vals...)...)
}
