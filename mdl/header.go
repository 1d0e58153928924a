// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/studioerr"
)

// ParseHeader decodes and checks the 392 byte studio header at the start of
// data. All table offsets of the returned header are absolute.
func ParseHeader(data []byte) (*Header, error) {
	c := cursor.New(data)
	h := &Header{}
	f := c.Fields()
	h.ID = f.Int32()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "mdl: truncated header")
	}
	if h.ID != Magic {
		return nil, errors.Wrapf(studioerr.ErrBadMagic, "mdl: id %#08x", uint32(h.ID))
	}
	h.Version = f.Int32()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "mdl: truncated header")
	}
	if h.Version < MinVersion || h.Version > MaxVersion {
		return nil, errors.Wrapf(studioerr.ErrUnsupportedVersion, "mdl: version %d (want %d..%d)", h.Version, MinVersion, MaxVersion)
	}
	if err := c.CheckRange(0, HeaderSize); err != nil {
		return nil, errors.Wrap(err, "mdl: truncated header")
	}
	h.Checksum = f.Int32()
	h.Name = f.FixedString(64)
	h.DataLength = f.Int()

	h.EyePosition = f.Vec3()
	h.IllumPosition = f.Vec3()
	h.HullMin = f.Vec3()
	h.HullMax = f.Vec3()
	h.ViewBBMin = f.Vec3()
	h.ViewBBMax = f.Vec3()

	h.Flags = Flags(f.Uint32())

	// The header sits at offset 0, so relative offsets are already absolute.
	table := func() Table {
		return Table{Count: f.Int(), Offset: f.Int()}
	}
	h.Bones = table()
	h.BoneControllers = table()
	h.HitboxSets = table()
	h.LocalAnims = table()
	h.LocalSeqs = table()
	h.ActivityListVersion = f.Int32()
	h.EventsIndexed = f.Int32()
	h.Textures = table()
	h.TextureDirs = table()
	h.SkinReferenceCount = f.Int()
	h.SkinFamilyCount = f.Int()
	h.SkinReferenceOffset = f.Int()
	h.BodyParts = table()
	h.Attachments = table()
	h.LocalNodes = table()
	h.LocalNodeNameOffset = f.Int()
	h.FlexDescs = table()
	h.FlexControllers = table()
	h.FlexRules = table()
	h.IKChains = table()
	h.Mouths = table()
	h.PoseParams = table()
	h.SurfacePropOffset = f.Int()
	// stored as index, count
	h.KeyValues.Offset = f.Int()
	h.KeyValues.Count = f.Int()
	h.IKLocks = table()
	h.Mass = f.Float32()
	h.Contents = f.Int32()
	h.IncludeModels = table()
	h.VirtualModel = f.Int32()
	h.AnimBlocksNameOffset = f.Int()
	h.AnimBlocks = table()
	h.AnimBlockModel = f.Int32()
	h.BoneTableByNameOffset = f.Int()
	h.VertexBase = f.Int32()
	h.OffsetBase = f.Int32()
	h.DirectionalDotProduct = f.Uint8()
	h.RootLOD = f.Uint8()
	h.NumAllowedRootLODs = f.Uint8()
	f.Skip(1 + 4) // unused, unused2
	h.FlexControllerUI = table()
	if err := f.Err(); err != nil {
		return nil, errors.Wrap(err, "mdl: header")
	}
	return h, nil
}

// Validate checks every table of the header against a buffer of size bytes.
func (h *Header) Validate(size int) error {
	if h.DataLength > size {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "mdl: data length %d exceeds buffer of %d bytes", h.DataLength, size)
	}
	check := func(name string, t Table, recSize int) error {
		if t.Count == 0 {
			return nil
		}
		if t.Count < 0 {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "mdl: %s count %d", name, t.Count)
		}
		if t.Offset < 0 || int64(t.Offset)+int64(t.Count)*int64(recSize) > int64(size) {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "mdl: %s table (%d x %d bytes at %d) exceeds buffer of %d bytes",
				name, t.Count, recSize, t.Offset, size)
		}
		return nil
	}
	tables := []struct {
		name string
		t    Table
		size int
	}{
		{"bone", h.Bones, boneSize},
		{"bone controller", h.BoneControllers, boneControllerSize},
		{"hitbox set", h.HitboxSets, hitboxSetSize},
		{"animation", h.LocalAnims, animDescSize},
		{"sequence", h.LocalSeqs, seqDescSize},
		{"texture", h.Textures, textureSize},
		{"texture dir", h.TextureDirs, 4},
		{"skin reference", Table{h.SkinReferenceCount * h.SkinFamilyCount, h.SkinReferenceOffset}, 2},
		{"body part", h.BodyParts, bodyPartSize},
		{"attachment", h.Attachments, attachmentSize},
		{"flex descriptor", h.FlexDescs, flexDescSize},
		{"flex controller", h.FlexControllers, flexControllerSize},
		{"ik chain", h.IKChains, ikChainSize},
		{"pose parameter", h.PoseParams, poseParamSize},
		{"key values", h.KeyValues, 1},
		{"include model", h.IncludeModels, includeModelSize},
	}
	for _, t := range tables {
		if err := check(t.name, t.t, t.size); err != nil {
			return err
		}
	}
	if h.SkinReferenceCount < 0 || h.SkinFamilyCount < 0 {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "mdl: skin table %d x %d", h.SkinFamilyCount, h.SkinReferenceCount)
	}
	return nil
}
