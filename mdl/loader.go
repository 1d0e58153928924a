// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"github.com/pkg/errors"

	"gostudio/cursor"
)

// Decode parses a complete .mdl buffer. The returned File does not
// reference data.
func Decode(data []byte) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(len(data)); err != nil {
		return nil, err
	}
	c := cursor.New(data)
	f := &File{Header: *h}

	if f.Bones, err = readBones(c, h.Bones); err != nil {
		return nil, errors.Wrap(err, "mdl")
	}
	nb := len(f.Bones)
	steps := []struct {
		name string
		fn   func() error
	}{
		{"bone controllers", func() (err error) {
			f.BoneControllers, err = readBoneControllers(c, h.BoneControllers, nb)
			return
		}},
		{"hitbox sets", func() (err error) {
			f.HitboxSets, err = readHitboxSets(c, h.HitboxSets, nb)
			return
		}},
		{"animations", func() (err error) {
			f.Animations, err = readAnimations(c, h.LocalAnims, f.Bones)
			return
		}},
		{"sequences", func() (err error) {
			f.Sequences, err = readSequences(c, h.LocalSeqs, len(f.Animations), nb)
			return
		}},
		{"textures", func() (err error) {
			f.Textures, err = readTextures(c, h.Textures)
			return
		}},
		{"texture dirs", func() (err error) {
			f.TextureDirs, err = readTextureDirs(c, h.TextureDirs)
			return
		}},
		{"skins", func() (err error) {
			f.SkinFamilies, err = readSkinFamilies(c, h)
			return
		}},
		{"body parts", func() (err error) {
			f.BodyParts, err = readBodyParts(c, h.BodyParts)
			return
		}},
		{"attachments", func() (err error) {
			f.Attachments, err = readAttachments(c, h.Attachments, nb)
			return
		}},
		{"flex descriptors", func() (err error) {
			f.FlexDescs, err = readFlexDescs(c, h.FlexDescs)
			return
		}},
		{"flex controllers", func() (err error) {
			f.FlexControllers, err = readFlexControllers(c, h.FlexControllers)
			return
		}},
		{"ik chains", func() (err error) {
			f.IKChains, err = readIKChains(c, h.IKChains, nb)
			return
		}},
		{"pose parameters", func() (err error) {
			f.PoseParams, err = readPoseParams(c, h.PoseParams)
			return
		}},
		{"include models", func() (err error) {
			f.IncludeModels, err = readIncludeModels(c, h.IncludeModels)
			return
		}},
		{"surface prop", func() (err error) {
			f.SurfaceProp, err = readSurfaceProp(c, h.SurfacePropOffset)
			return
		}},
		{"key values", func() (err error) {
			f.KeyValues, err = readKeyValues(c, h.KeyValues)
			return
		}},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return nil, errors.Wrapf(err, "mdl %s", s.name)
		}
	}
	return f, nil
}
