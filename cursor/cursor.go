// SPDX-License-Identifier: GPL-2.0-or-later

// Package cursor implements a bounded little-endian reader over an in-memory
// buffer. Reads never go past the end of the buffer; a failed read leaves the
// position unchanged and returns an error wrapping studioerr.ErrOutOfBounds.
package cursor

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"gostudio/math/vec"
	"gostudio/studioerr"
)

type Cursor struct {
	data []byte
	off  int
}

func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the absolute read position.
func (c *Cursor) Offset() int {
	return c.off
}

// Size returns the length of the whole buffer.
func (c *Cursor) Size() int {
	return len(c.data)
}

// Len returns the number of bytes of the unread portion of the buffer.
func (c *Cursor) Len() int {
	return len(c.data) - c.off
}

// CheckRange verifies that n bytes starting at the absolute offset off are
// inside the buffer.
func (c *Cursor) CheckRange(off, n int) error {
	if off < 0 || n < 0 || int64(off)+int64(n) > int64(len(c.data)) {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "%d bytes at %d (size %d)", n, off, len(c.data))
	}
	return nil
}

func (c *Cursor) need(n int) ([]byte, error) {
	if err := c.CheckRange(c.off, n); err != nil {
		return nil, err
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Seek moves to the absolute offset off. Seeking to the end is allowed.
func (c *Cursor) Seek(off int) error {
	if err := c.CheckRange(off, 0); err != nil {
		return err
	}
	c.off = off
	return nil
}

func (c *Cursor) Skip(n int) error {
	return c.Seek(c.off + n)
}

// At runs fn with the cursor at the absolute offset off and restores the
// previous position afterwards, also when fn fails.
func (c *Cursor) At(off int, fn func() error) error {
	saved := c.off
	defer func() { c.off = saved }()
	if err := c.Seek(off); err != nil {
		return err
	}
	return fn()
}

// Table reads count records of size bytes starting at the absolute offset
// off. fn is called once per record with the cursor at the record start.
// The whole table is checked against the buffer before the first call and
// the cursor position is restored afterwards.
func (c *Cursor) Table(count, off, size int, fn func(i int) error) error {
	if count == 0 {
		return nil
	}
	if count < 0 || size <= 0 {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "table with %d records of %d bytes", count, size)
	}
	if err := c.CheckRange(off, count*size); err != nil {
		return errors.Wrapf(err, "table of %d records", count)
	}
	return c.At(off, func() error {
		for i := 0; i < count; i++ {
			c.off = off + i*size
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cursor) ReadInt8() (int8, error) {
	b, err := c.need(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadByte() (byte, error) {
	return c.ReadUint8()
}

func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.need(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.need(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.need(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	return math.Float32frombits(v), err
}

func (c *Cursor) ReadVec2() (vec.Vec2, error) {
	b, err := c.need(8)
	if err != nil {
		return vec.Vec2{}, err
	}
	return vec.Vec2{X: f32(b[0:]), Y: f32(b[4:])}, nil
}

func (c *Cursor) ReadVec3() (vec.Vec3, error) {
	b, err := c.need(12)
	if err != nil {
		return vec.Vec3{}, err
	}
	return vec.Vec3{X: f32(b[0:]), Y: f32(b[4:]), Z: f32(b[8:])}, nil
}

func (c *Cursor) ReadVec4() (vec.Vec4, error) {
	b, err := c.need(16)
	if err != nil {
		return vec.Vec4{}, err
	}
	return vec.Vec4{X: f32(b[0:]), Y: f32(b[4:]), Z: f32(b[8:]), W: f32(b[12:])}, nil
}

// ReadQuat reads x, y, z, w as four float32.
func (c *Cursor) ReadQuat() (vec.Quat, error) {
	v, err := c.ReadVec4()
	return vec.Quat{X: v.X, Y: v.Y, Z: v.Z, W: v.W}, err
}

// ReadMatrix3x4 reads twelve float32 in row major order.
func (c *Cursor) ReadMatrix3x4() (vec.Matrix3x4, error) {
	var m vec.Matrix3x4
	b, err := c.need(48)
	if err != nil {
		return m, err
	}
	for r := 0; r < 3; r++ {
		for col := 0; col < 4; col++ {
			m[r][col] = f32(b[(r*4+col)*4:])
		}
	}
	return m, nil
}

func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.need(n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// ReadFixedString reads n bytes and truncates at the first zero byte.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	b, err := c.need(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// ReadString reads a zero terminated string. A missing terminator is an
// out of bounds read.
func (c *Cursor) ReadString() (string, error) {
	n := bytes.IndexByte(c.data[c.off:], 0)
	if n < 0 {
		return "", errors.Wrapf(studioerr.ErrOutOfBounds, "unterminated string at %d", c.off)
	}
	s := string(c.data[c.off : c.off+n])
	c.off += n + 1
	return s, nil
}

// StringAt reads the zero terminated string at the absolute offset off
// without moving the cursor.
func (c *Cursor) StringAt(off int) (string, error) {
	var s string
	err := c.At(off, func() error {
		var err error
		s, err = c.ReadString()
		return err
	})
	return s, err
}

// reserve checks that n elements of size bytes are left before anything is
// allocated for them.
func (c *Cursor) reserve(n, size int) error {
	if n < 0 {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "negative count %d", n)
	}
	return c.CheckRange(c.off, n*size)
}

func (c *Cursor) ReadInt16s(n int) ([]int16, error) {
	if err := c.reserve(n, 2); err != nil {
		return nil, err
	}
	r := make([]int16, n)
	return r, c.Read(r)
}

func (c *Cursor) ReadUint16s(n int) ([]uint16, error) {
	if err := c.reserve(n, 2); err != nil {
		return nil, err
	}
	r := make([]uint16, n)
	return r, c.Read(r)
}

func (c *Cursor) ReadInt32s(n int) ([]int32, error) {
	if err := c.reserve(n, 4); err != nil {
		return nil, err
	}
	r := make([]int32, n)
	return r, c.Read(r)
}

func (c *Cursor) ReadFloat32s(n int) ([]float32, error) {
	if err := c.reserve(n, 4); err != nil {
		return nil, err
	}
	r := make([]float32, n)
	return r, c.Read(r)
}

// Read decodes a fixed-size value or a slice of fixed-size values with
// encoding/binary. Nothing is consumed on failure.
func (c *Cursor) Read(data any) error {
	n := binary.Size(data)
	if n < 0 {
		return errors.Errorf("cursor: %T has no fixed size", data)
	}
	b, err := c.need(n)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, data)
}

// MakeTable allocates the destination slice for a Table call after checking
// that count records of size bytes at off fit in the buffer.
func MakeTable[T any](c *Cursor, count, off, size int) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	if count < 0 || size <= 0 {
		return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "table with %d records of %d bytes", count, size)
	}
	if err := c.CheckRange(off, count*size); err != nil {
		return nil, errors.Wrapf(err, "table of %d records", count)
	}
	return make([]T, count), nil
}
