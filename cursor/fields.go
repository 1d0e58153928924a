// SPDX-License-Identifier: GPL-2.0-or-later

package cursor

import (
	"gostudio/math/vec"
)

// Fields reads a fixed record field by field and keeps the first error, so a
// record decoder can read every field and check once at the end.
type Fields struct {
	c   *Cursor
	err error
}

func (c *Cursor) Fields() *Fields {
	return &Fields{c: c}
}

func (f *Fields) Err() error {
	return f.err
}

func (f *Fields) Skip(n int) {
	if f.err == nil {
		f.err = f.c.Skip(n)
	}
}

func (f *Fields) Uint8() uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadUint8()
	f.err = err
	return v
}

func (f *Fields) Int16() int16 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadInt16()
	f.err = err
	return v
}

func (f *Fields) Uint16() uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadUint16()
	f.err = err
	return v
}

func (f *Fields) Int32() int32 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadInt32()
	f.err = err
	return v
}

// Int reads an int32 and widens it.
func (f *Fields) Int() int {
	return int(f.Int32())
}

func (f *Fields) Uint32() uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadUint32()
	f.err = err
	return v
}

func (f *Fields) Float32() float32 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadFloat32()
	f.err = err
	return v
}

func (f *Fields) Vec2() vec.Vec2 {
	if f.err != nil {
		return vec.Vec2{}
	}
	v, err := f.c.ReadVec2()
	f.err = err
	return v
}

func (f *Fields) Vec3() vec.Vec3 {
	if f.err != nil {
		return vec.Vec3{}
	}
	v, err := f.c.ReadVec3()
	f.err = err
	return v
}

func (f *Fields) Vec4() vec.Vec4 {
	if f.err != nil {
		return vec.Vec4{}
	}
	v, err := f.c.ReadVec4()
	f.err = err
	return v
}

func (f *Fields) Quat() vec.Quat {
	if f.err != nil {
		return vec.Quat{}
	}
	v, err := f.c.ReadQuat()
	f.err = err
	return v
}

func (f *Fields) Matrix3x4() vec.Matrix3x4 {
	if f.err != nil {
		return vec.Matrix3x4{}
	}
	v, err := f.c.ReadMatrix3x4()
	f.err = err
	return v
}

func (f *Fields) FixedString(n int) string {
	if f.err != nil {
		return ""
	}
	v, err := f.c.ReadFixedString(n)
	f.err = err
	return v
}

// Read decodes one fixed-size array, see Cursor.Read.
func (f *Fields) Read(data any) {
	if f.err == nil {
		f.err = f.c.Read(data)
	}
}
