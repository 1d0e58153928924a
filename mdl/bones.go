// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/studioerr"
)

// nameAt resolves a name index relative to the record starting at base.
// Index 0 means no name.
func nameAt(c *cursor.Cursor, base int, index int32) (string, error) {
	if index == 0 {
		return "", nil
	}
	s, err := c.StringAt(base + int(index))
	return s, errors.Wrapf(err, "name at %d+%d", base, index)
}

func readBones(c *cursor.Cursor, t Table) ([]Bone, error) {
	bones, err := cursor.MakeTable[Bone](c, t.Count, t.Offset, boneSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, boneSize, func(i int) error {
		base := c.Offset()
		b := &bones[i]
		f := c.Fields()
		nameIndex := f.Int32()
		b.Parent = f.Int()
		for j := range b.BoneControllers {
			b.BoneControllers[j] = f.Int()
		}
		b.Position = f.Vec3()
		b.Quat = f.Quat()
		b.Rotation = f.Vec3()
		b.PositionScale = f.Vec3()
		b.RotationScale = f.Vec3()
		b.PoseToBone = f.Matrix3x4()
		b.Alignment = f.Quat()
		b.Flags = BoneFlags(f.Uint32())
		b.ProcType = f.Int()
		b.ProcIndex = f.Int()
		b.PhysicsBone = f.Int()
		surfacePropIndex := f.Int32()
		b.Contents = f.Int32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "bone %d", i)
		}
		if b.Parent < -1 || b.Parent >= i {
			return errors.Wrapf(studioerr.ErrMalformedHierarchy, "bone %d has parent %d", i, b.Parent)
		}
		var err error
		if b.Name, err = nameAt(c, base, nameIndex); err != nil {
			return errors.Wrapf(err, "bone %d", i)
		}
		if b.SurfaceProp, err = nameAt(c, base, surfacePropIndex); err != nil {
			return errors.Wrapf(err, "bone %d surface prop", i)
		}
		return nil
	})
	return bones, err
}

// Roots returns the indices of all bones without a parent.
func Roots(bones []Bone) []int {
	var r []int
	for i := range bones {
		if bones[i].Parent < 0 {
			r = append(r, i)
		}
	}
	return r
}

// Children returns the direct children of bone p in declaration order.
func Children(bones []Bone, p int) []int {
	var r []int
	for i := p + 1; i < len(bones); i++ {
		if bones[i].Parent == p {
			r = append(r, i)
		}
	}
	return r
}

// FindBone returns the index of the bone called name or -1.
func FindBone(bones []Bone, name string) int {
	for i := range bones {
		if bones[i].Name == name {
			return i
		}
	}
	return -1
}

func readBoneControllers(c *cursor.Cursor, t Table, numBones int) ([]BoneController, error) {
	bc, err := cursor.MakeTable[BoneController](c, t.Count, t.Offset, boneControllerSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, boneControllerSize, func(i int) error {
		f := c.Fields()
		b := &bc[i]
		b.Bone = f.Int()
		b.Type = f.Int()
		b.Start = f.Float32()
		b.End = f.Float32()
		b.Rest = f.Int()
		b.InputField = f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "bone controller %d", i)
		}
		if b.Bone < -1 || b.Bone >= numBones {
			return errors.Wrapf(studioerr.ErrInvalidBoneReference, "bone controller %d references bone %d", i, b.Bone)
		}
		return nil
	})
	return bc, err
}
