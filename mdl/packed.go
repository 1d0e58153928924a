// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"encoding/binary"

	"github.com/chewxy/math32"

	"gostudio/math/vec"
)

// Quaternion48 is a unit quaternion packed into 48 bits: x and y with 16
// bits, z with 15 bits and the sign of w in the top bit. w is recovered
// from the unit length.
type Quaternion48 [6]byte

// Quaternion64 packs x, y and z into 21 bits each; bit 63 is the sign of w.
type Quaternion64 [8]byte

// Vector48 holds three IEEE 754 half precision floats.
type Vector48 [6]byte

func quatW(x, y, z float32, neg bool) float32 {
	w := math32.Sqrt(math32.Max(0, 1-x*x-y*y-z*z))
	if neg {
		return -w
	}
	return w
}

func (p Quaternion48) Quat() vec.Quat {
	ux := binary.LittleEndian.Uint16(p[0:])
	uy := binary.LittleEndian.Uint16(p[2:])
	uz := binary.LittleEndian.Uint16(p[4:])
	x := (float32(ux) - 32768) / 32768
	y := (float32(uy) - 32768) / 32768
	z := (float32(uz&0x7fff) - 16384) / 16384
	return vec.Quat{X: x, Y: y, Z: z, W: quatW(x, y, z, uz&0x8000 != 0)}
}

func quantize(v float32, scale, offset float64, max uint64) uint64 {
	f := float64(v)*scale + offset + 0.5
	if f < 0 {
		return 0
	}
	if u := uint64(f); u < max {
		return u
	}
	return max
}

// PackQuaternion48 encodes a unit quaternion.
func PackQuaternion48(q vec.Quat) Quaternion48 {
	q = q.Normalize()
	var p Quaternion48
	z := uint16(quantize(q.Z, 16384, 16384, 0x7fff))
	if q.W < 0 {
		z |= 0x8000
	}
	binary.LittleEndian.PutUint16(p[0:], uint16(quantize(q.X, 32768, 32768, 0xffff)))
	binary.LittleEndian.PutUint16(p[2:], uint16(quantize(q.Y, 32768, 32768, 0xffff)))
	binary.LittleEndian.PutUint16(p[4:], z)
	return p
}

const (
	q64Mask   = 1<<21 - 1
	q64Offset = 1048576
	q64Scale  = 1048576.5
)

func (p Quaternion64) Quat() vec.Quat {
	u := binary.LittleEndian.Uint64(p[:])
	x := float32((float64(u&q64Mask) - q64Offset) / q64Scale)
	y := float32((float64((u>>21)&q64Mask) - q64Offset) / q64Scale)
	z := float32((float64((u>>42)&q64Mask) - q64Offset) / q64Scale)
	return vec.Quat{X: x, Y: y, Z: z, W: quatW(x, y, z, u>>63 != 0)}
}

// PackQuaternion64 encodes a unit quaternion.
func PackQuaternion64(q vec.Quat) Quaternion64 {
	q = q.Normalize()
	u := quantize(q.X, q64Scale, q64Offset, q64Mask) |
		quantize(q.Y, q64Scale, q64Offset, q64Mask)<<21 |
		quantize(q.Z, q64Scale, q64Offset, q64Mask)<<42
	if q.W < 0 {
		u |= 1 << 63
	}
	var p Quaternion64
	binary.LittleEndian.PutUint64(p[:], u)
	return p
}

func (p Vector48) Vec3() vec.Vec3 {
	return vec.Vec3{
		X: HalfToFloat32(binary.LittleEndian.Uint16(p[0:])),
		Y: HalfToFloat32(binary.LittleEndian.Uint16(p[2:])),
		Z: HalfToFloat32(binary.LittleEndian.Uint16(p[4:])),
	}
}

func PackVector48(v vec.Vec3) Vector48 {
	var p Vector48
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint16(p[2*i:], Float32ToHalf(v.Idx(i)))
	}
	return p
}

// HalfToFloat32 widens an IEEE 754 binary16 value.
func HalfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)
	switch exp {
	case 0:
		// zero or subnormal
		v := float32(mant) / (1 << 24)
		if sign != 0 {
			return -v
		}
		return v
	case 0x1f:
		return math32.Float32frombits(sign | 0xff<<23 | mant<<13)
	}
	return math32.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
}

// Float32ToHalf narrows f to binary16, rounding half away from zero.
func Float32ToHalf(f float32) uint16 {
	bits := math32.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	rawExp := int((bits >> 23) & 0xff)
	mant := bits & 0x7fffff
	if rawExp == 0xff {
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	}
	exp := rawExp - 127 + 15
	switch {
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		h := uint16(mant >> shift)
		if (mant>>(shift-1))&1 != 0 {
			h++
		}
		return sign | h
	}
	h := uint16(exp<<10) | uint16(mant>>13)
	if mant&0x1000 != 0 {
		// a carry into the exponent is still the correctly rounded value
		h++
	}
	return sign | h
}
