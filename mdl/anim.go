// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/math/vec"
	"gostudio/studioerr"
)

// AnimFlags select the encodings present in one bone track.
type AnimFlags uint8

const (
	AnimRawPos  AnimFlags = 0x01 // Vector48
	AnimRawRot  AnimFlags = 0x02 // Quaternion48
	AnimAnimPos AnimFlags = 0x04 // per axis RLE
	AnimAnimRot AnimFlags = 0x08 // per axis RLE
	AnimDelta   AnimFlags = 0x10
	AnimRawRot2 AnimFlags = 0x20 // Quaternion64
)

func (f AnimFlags) Has(o AnimFlags) bool {
	return f&o == o
}

// noBone terminates a track stream.
const noBone = 255

type Movement struct {
	EndFrame    int
	MotionFlags int32
	V0, V1      float32
	Angle       float32
	Vector      vec.Vec3
	Position    vec.Vec3
}

// Track is the decoded data of one bone in one animation.
//
// Rotation and Position hold one entry per frame when the matching RLE
// group is present and are nil otherwise. A group whose axes carry no data
// is constant and holds a single entry. Their values are in stored units:
// multiply by the bone's rotation/position scale to get radians/units.
// With AnimDelta the entries are already accumulated.
type Track struct {
	Bone  int
	Flags AnimFlags

	RawRotation vec.Quat // AnimRawRot or AnimRawRot2
	RawPosition vec.Vec3 // AnimRawPos

	Rotation []vec.Vec3
	Position []vec.Vec3
}

func (t *Track) HasRawRotation() bool {
	return t.Flags&(AnimRawRot|AnimRawRot2) != 0
}

type Animation struct {
	Name      string
	FPS       float32
	Flags     SeqFlags
	NumFrames int
	Movements []Movement

	AnimBlock     int
	SectionFrames int
	NumIKRules    int
	// External data lives in a separate .ani block, Sectioned data is split
	// into frame sections. Neither is decoded into Tracks.
	External  bool
	Sectioned bool

	Tracks []Track
}

// Track returns the track of bone or nil.
func (a *Animation) Track(bone int) *Track {
	for i := range a.Tracks {
		if a.Tracks[i].Bone == bone {
			return &a.Tracks[i]
		}
	}
	return nil
}

func readAnimations(c *cursor.Cursor, t Table, bones []Bone) ([]Animation, error) {
	anims, err := cursor.MakeTable[Animation](c, t.Count, t.Offset, animDescSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, animDescSize, func(i int) error {
		base := c.Offset()
		a := &anims[i]
		f := c.Fields()
		f.Skip(4) // baseptr
		nameIndex := f.Int32()
		a.FPS = f.Float32()
		a.Flags = SeqFlags(f.Uint32())
		a.NumFrames = f.Int()
		movements := Table{Count: f.Int()}
		movements.Offset = base + f.Int()
		f.Skip(6 * 4)
		a.AnimBlock = f.Int()
		animIndex := f.Int()
		a.NumIKRules = f.Int()
		f.Skip(4 * 4) // ik rule indexes, local hierarchy
		f.Skip(4)     // sectionindex
		a.SectionFrames = f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "animation %d", i)
		}
		var err error
		if a.Name, err = nameAt(c, base, nameIndex); err != nil {
			return errors.Wrapf(err, "animation %d", i)
		}
		if a.NumFrames < 0 {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "animation %d %q has %d frames", i, a.Name, a.NumFrames)
		}
		if a.Movements, err = readMovements(c, movements); err != nil {
			return errors.Wrapf(err, "animation %d %q", i, a.Name)
		}
		switch {
		case a.AnimBlock != 0:
			a.External = true
		case a.SectionFrames != 0:
			a.Sectioned = true
		case animIndex != 0:
			a.Tracks, err = decodeTracks(c, base+animIndex, a.NumFrames, bones)
			return errors.Wrapf(err, "animation %d %q", i, a.Name)
		}
		return nil
	})
	return anims, err
}

func readMovements(c *cursor.Cursor, t Table) ([]Movement, error) {
	mv, err := cursor.MakeTable[Movement](c, t.Count, t.Offset, movementSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, movementSize, func(i int) error {
		f := c.Fields()
		m := &mv[i]
		m.EndFrame = f.Int()
		m.MotionFlags = f.Int32()
		m.V0 = f.Float32()
		m.V1 = f.Float32()
		m.Angle = f.Float32()
		m.Vector = f.Vec3()
		m.Position = f.Vec3()
		return errors.Wrapf(f.Err(), "movement %d", i)
	})
	return mv, err
}

// decodeTracks walks the linked track list starting at off.
func decodeTracks(c *cursor.Cursor, off, numFrames int, bones []Bone) ([]Track, error) {
	var tracks []Track
	for {
		var t Track
		var next int16
		end := false
		err := c.At(off, func() error {
			f := c.Fields()
			bone := f.Uint8()
			t.Flags = AnimFlags(f.Uint8())
			next = f.Int16()
			if err := f.Err(); err != nil {
				return err
			}
			if bone == noBone {
				end = true
				return nil
			}
			t.Bone = int(bone)
			if t.Bone >= len(bones) {
				return errors.Wrapf(studioerr.ErrInvalidBoneReference, "track references bone %d of %d", t.Bone, len(bones))
			}
			return readTrack(c, &t, numFrames, &bones[t.Bone])
		})
		if err != nil {
			return nil, errors.Wrapf(err, "track at %d", off)
		}
		if end {
			return tracks, nil
		}
		tracks = append(tracks, t)
		if next == 0 {
			return tracks, nil
		}
		if next < 0 {
			return nil, errors.Wrapf(studioerr.ErrTruncatedAnimation, "track at %d links backwards by %d", off, next)
		}
		off += int(next)
	}
}

// readTrack decodes the rotation group then the position group following
// the track header the cursor sits behind.
func readTrack(c *cursor.Cursor, t *Track, numFrames int, bone *Bone) error {
	delta := t.Flags.Has(AnimDelta)
	if t.Flags.Has(AnimRawRot) {
		var p Quaternion48
		if err := c.Read(&p); err != nil {
			return errors.Wrap(err, "quaternion48")
		}
		t.RawRotation = p.Quat()
	}
	if t.Flags.Has(AnimRawRot2) {
		var p Quaternion64
		if err := c.Read(&p); err != nil {
			return errors.Wrap(err, "quaternion64")
		}
		t.RawRotation = p.Quat()
	}
	if t.Flags.Has(AnimAnimRot) {
		var p0 vec.Vec3
		if delta && t.HasRawRotation() {
			p0 = unscale(vec.QuatToEuler(t.RawRotation), bone.RotationScale)
		}
		var err error
		if t.Rotation, err = readAxes(c, numFrames, delta, p0); err != nil {
			return errors.Wrap(err, "rotation")
		}
	}
	if t.Flags.Has(AnimRawPos) {
		var p Vector48
		if err := c.Read(&p); err != nil {
			return errors.Wrap(err, "vector48")
		}
		t.RawPosition = p.Vec3()
	}
	if t.Flags.Has(AnimAnimPos) {
		var p0 vec.Vec3
		if delta && t.Flags.Has(AnimRawPos) {
			p0 = unscale(t.RawPosition, bone.PositionScale)
		}
		var err error
		if t.Position, err = readAxes(c, numFrames, delta, p0); err != nil {
			return errors.Wrap(err, "position")
		}
	}
	return nil
}

// unscale converts v into stored units, axes with a zero scale are kept.
func unscale(v, scale vec.Vec3) vec.Vec3 {
	for i := 0; i < 3; i++ {
		if s := scale.Idx(i); s != 0 {
			v.SetIdx(i, v.Idx(i)/s)
		}
	}
	return v
}

// readAxes reads a block of three int16 offsets, relative to the block,
// and expands the RLE stream of every axis. The cursor ends up behind the
// offset block. When no axis carries data the group is constant and a
// single frame is returned.
func readAxes(c *cursor.Cursor, numFrames int, delta bool, p0 vec.Vec3) ([]vec.Vec3, error) {
	block := c.Offset()
	offsets, err := c.ReadInt16s(3)
	if err != nil {
		return nil, err
	}
	var values [3][]int16
	n := min(numFrames, 1)
	for axis, off := range offsets {
		if off == 0 {
			continue
		}
		if values[axis], err = readRLE(c, block+int(off), numFrames); err != nil {
			return nil, errors.Wrapf(err, "axis %d", axis)
		}
		n = numFrames
	}
	frames := make([]vec.Vec3, n)
	for axis := range values {
		acc := p0.Idx(axis)
		for f := range frames {
			var v float32
			if values[axis] != nil {
				v = float32(values[axis][f])
			}
			if delta {
				acc += v
				v = acc
			}
			frames[f].SetIdx(axis, v)
		}
	}
	return frames, nil
}

// maxRunFrames is the most frames n bytes of runs can describe. The
// smallest run is four bytes and covers up to 255 frames.
func maxRunFrames(n int) int {
	return n / 4 * 255
}

// readRLE expands runs starting at off until numFrames values exist. A run
// is (valid u8, total u8) followed by valid int16 values; frames past
// valid repeat the last value.
func readRLE(c *cursor.Cursor, off, numFrames int) ([]int16, error) {
	if numFrames == 0 {
		return nil, nil
	}
	if err := c.CheckRange(off, 2); err != nil {
		return nil, errors.Wrapf(studioerr.ErrTruncatedAnimation, "axis data at %d", off)
	}
	if numFrames > maxRunFrames(c.Size()-off) {
		return nil, errors.Wrapf(studioerr.ErrTruncatedAnimation,
			"%d frames cannot fit in %d bytes of axis data at %d", numFrames, c.Size()-off, off)
	}
	out := make([]int16, 0, numFrames)
	err := c.At(off, func() error {
		for len(out) < numFrames {
			runStart := c.Offset()
			valid, err := c.ReadUint8()
			if err != nil {
				return errors.Wrapf(studioerr.ErrTruncatedAnimation, "run header at %d", runStart)
			}
			total, err := c.ReadUint8()
			if err != nil {
				return errors.Wrapf(studioerr.ErrTruncatedAnimation, "run header at %d", runStart)
			}
			if total == 0 || valid == 0 {
				return errors.Wrapf(studioerr.ErrTruncatedAnimation,
					"empty run (%d/%d) at %d with %d frames missing", valid, total, runStart, numFrames-len(out))
			}
			values, err := c.ReadInt16s(int(valid))
			if err != nil {
				return errors.Wrapf(studioerr.ErrTruncatedAnimation, "run at %d declares %d values", runStart, valid)
			}
			for k := 0; k < int(total) && len(out) < numFrames; k++ {
				out = append(out, values[min(k, len(values)-1)])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
