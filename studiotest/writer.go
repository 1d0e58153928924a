// SPDX-License-Identifier: GPL-2.0-or-later

// Package studiotest builds small synthetic studio models for tests.
package studiotest

import (
	"encoding/binary"
	"math"

	"gostudio/math/vec"
)

// Writer assembles a buffer at explicit offsets, growing as needed.
type Writer struct {
	B []byte
}

func (w *Writer) grow(n int) {
	if len(w.B) < n {
		w.B = append(w.B, make([]byte, n-len(w.B))...)
	}
}

// Reserve appends n zero bytes and returns their offset.
func (w *Writer) Reserve(n int) int {
	off := len(w.B)
	w.grow(off + n)
	return off
}

func (w *Writer) U8(off int, v uint8) {
	w.grow(off + 1)
	w.B[off] = v
}

func (w *Writer) U16(off int, v uint16) {
	w.grow(off + 2)
	binary.LittleEndian.PutUint16(w.B[off:], v)
}

func (w *Writer) I32(off int, v int32) {
	w.grow(off + 4)
	binary.LittleEndian.PutUint32(w.B[off:], uint32(v))
}

func (w *Writer) F32(off int, v float32) {
	w.I32(off, int32(math.Float32bits(v)))
}

func (w *Writer) Vec3(off int, v vec.Vec3) {
	w.F32(off, v.X)
	w.F32(off+4, v.Y)
	w.F32(off+8, v.Z)
}

func (w *Writer) Bytes(off int, p []byte) {
	w.grow(off + len(p))
	copy(w.B[off:], p)
}

// Str writes s with a terminating NUL.
func (w *Writer) Str(off int, s string) {
	w.Bytes(off, append([]byte(s), 0))
}

// Name appends s and returns its offset relative to base.
func (w *Writer) Name(base int, s string) int32 {
	off := len(w.B)
	w.Str(off, s)
	return int32(off - base)
}

// Rel stores the offset of target relative to base at off.
func (w *Writer) Rel(off, base, target int) {
	w.I32(off, int32(target-base))
}
