// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"strings"

	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/studioerr"
)

func readHitboxSets(c *cursor.Cursor, t Table, numBones int) ([]HitboxSet, error) {
	sets, err := cursor.MakeTable[HitboxSet](c, t.Count, t.Offset, hitboxSetSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, hitboxSetSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		nameIndex := f.Int32()
		boxes := Table{Count: f.Int()}
		boxes.Offset = base + f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "hitbox set %d", i)
		}
		var err error
		if sets[i].Name, err = nameAt(c, base, nameIndex); err != nil {
			return errors.Wrapf(err, "hitbox set %d", i)
		}
		sets[i].Hitboxes, err = readHitboxes(c, boxes, numBones)
		return errors.Wrapf(err, "hitbox set %d", i)
	})
	return sets, err
}

func readHitboxes(c *cursor.Cursor, t Table, numBones int) ([]Hitbox, error) {
	boxes, err := cursor.MakeTable[Hitbox](c, t.Count, t.Offset, hitboxSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, hitboxSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		h := &boxes[i]
		h.Bone = f.Int()
		h.Group = f.Int()
		h.Min = f.Vec3()
		h.Max = f.Vec3()
		nameIndex := f.Int32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "hitbox %d", i)
		}
		if h.Bone < 0 || h.Bone >= numBones {
			return errors.Wrapf(studioerr.ErrInvalidBoneReference, "hitbox %d references bone %d", i, h.Bone)
		}
		var err error
		h.Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "hitbox %d", i)
	})
	return boxes, err
}

func readAttachments(c *cursor.Cursor, t Table, numBones int) ([]Attachment, error) {
	att, err := cursor.MakeTable[Attachment](c, t.Count, t.Offset, attachmentSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, attachmentSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		a := &att[i]
		nameIndex := f.Int32()
		a.Flags = f.Uint32()
		a.Bone = f.Int()
		a.Local = f.Matrix3x4()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "attachment %d", i)
		}
		if a.Bone < 0 || a.Bone >= numBones {
			return errors.Wrapf(studioerr.ErrInvalidBoneReference, "attachment %d references bone %d", i, a.Bone)
		}
		var err error
		a.Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "attachment %d", i)
	})
	return att, err
}

func readTextures(c *cursor.Cursor, t Table) ([]Texture, error) {
	tex, err := cursor.MakeTable[Texture](c, t.Count, t.Offset, textureSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, textureSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		nameIndex := f.Int32()
		tex[i].Flags = f.Int32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "texture %d", i)
		}
		var err error
		tex[i].Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "texture %d", i)
	})
	return tex, err
}

// texture dirs are a list of absolute string offsets
func readTextureDirs(c *cursor.Cursor, t Table) ([]string, error) {
	dirs, err := cursor.MakeTable[string](c, t.Count, t.Offset, 4)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, 4, func(i int) error {
		off, err := c.ReadInt32()
		if err != nil {
			return err
		}
		dirs[i], err = c.StringAt(int(off))
		return errors.Wrapf(err, "texture dir %d", i)
	})
	return dirs, err
}

func readSkinFamilies(c *cursor.Cursor, h *Header) ([][]int16, error) {
	// families without references still take a byte each
	stride := max(h.SkinReferenceCount*2, 1)
	fams, err := cursor.MakeTable[[]int16](c, h.SkinFamilyCount, h.SkinReferenceOffset, stride)
	if err != nil {
		return nil, errors.Wrap(err, "skin families")
	}
	err = c.Table(h.SkinFamilyCount, h.SkinReferenceOffset, stride, func(i int) error {
		var err error
		fams[i], err = c.ReadInt16s(h.SkinReferenceCount)
		return errors.Wrapf(err, "skin family %d", i)
	})
	return fams, err
}

func readBodyParts(c *cursor.Cursor, t Table) ([]BodyPart, error) {
	parts, err := cursor.MakeTable[BodyPart](c, t.Count, t.Offset, bodyPartSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, bodyPartSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		nameIndex := f.Int32()
		models := Table{Count: f.Int()}
		parts[i].Base = f.Int()
		models.Offset = base + f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "body part %d", i)
		}
		var err error
		if parts[i].Name, err = nameAt(c, base, nameIndex); err != nil {
			return errors.Wrapf(err, "body part %d", i)
		}
		parts[i].Models, err = readModels(c, models)
		return errors.Wrapf(err, "body part %d", i)
	})
	return parts, err
}

func readModels(c *cursor.Cursor, t Table) ([]Model, error) {
	models, err := cursor.MakeTable[Model](c, t.Count, t.Offset, modelSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, modelSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		m := &models[i]
		m.Name = f.FixedString(64)
		m.Type = f.Int()
		m.BoundingRadius = f.Float32()
		meshes := Table{Count: f.Int()}
		meshes.Offset = base + f.Int()
		m.NumVertices = f.Int()
		m.VertexIndex = f.Int()
		m.TangentsIndex = f.Int()
		m.NumAttachments = f.Int()
		f.Skip(4) // attachmentindex
		m.NumEyeballs = f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "model %d", i)
		}
		if m.NumVertices < 0 || m.VertexIndex < 0 || m.VertexIndex%VertexSize != 0 {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "model %d vertex range %d+%d", i, m.VertexIndex, m.NumVertices)
		}
		var err error
		m.Meshes, err = readMeshes(c, meshes, m.NumVertices)
		return errors.Wrapf(err, "model %d", i)
	})
	return models, err
}

func readMeshes(c *cursor.Cursor, t Table, modelVertices int) ([]Mesh, error) {
	meshes, err := cursor.MakeTable[Mesh](c, t.Count, t.Offset, meshSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, meshSize, func(i int) error {
		f := c.Fields()
		m := &meshes[i]
		m.Material = f.Int()
		m.ModelIndex = f.Int()
		m.NumVertices = f.Int()
		m.VertexOffset = f.Int()
		m.NumFlexes = f.Int()
		f.Skip(4) // flexindex
		m.MaterialType = f.Int()
		m.MaterialParam = f.Int()
		m.ID = f.Int()
		m.Center = f.Vec3()
		f.Skip(4) // modelvertexdata, a runtime pointer
		for j := range m.NumLODVertices {
			m.NumLODVertices[j] = f.Int()
		}
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "mesh %d", i)
		}
		if m.VertexOffset < 0 || m.NumVertices < 0 || m.VertexOffset+m.NumVertices > modelVertices {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "mesh %d vertex range %d+%d outside model's %d vertices",
				i, m.VertexOffset, m.NumVertices, modelVertices)
		}
		return nil
	})
	return meshes, err
}

func readFlexDescs(c *cursor.Cursor, t Table) ([]string, error) {
	names, err := cursor.MakeTable[string](c, t.Count, t.Offset, flexDescSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, flexDescSize, func(i int) error {
		base := c.Offset()
		idx, err := c.ReadInt32()
		if err != nil {
			return err
		}
		names[i], err = nameAt(c, base, idx)
		return errors.Wrapf(err, "flex descriptor %d", i)
	})
	return names, err
}

func readFlexControllers(c *cursor.Cursor, t Table) ([]FlexController, error) {
	fc, err := cursor.MakeTable[FlexController](c, t.Count, t.Offset, flexControllerSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, flexControllerSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		typeIndex := f.Int32()
		nameIndex := f.Int32()
		fc[i].LocalToGlobal = f.Int()
		fc[i].Min = f.Float32()
		fc[i].Max = f.Float32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "flex controller %d", i)
		}
		var err error
		if fc[i].Type, err = nameAt(c, base, typeIndex); err != nil {
			return errors.Wrapf(err, "flex controller %d", i)
		}
		fc[i].Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "flex controller %d", i)
	})
	return fc, err
}

func readIKChains(c *cursor.Cursor, t Table, numBones int) ([]IKChain, error) {
	chains, err := cursor.MakeTable[IKChain](c, t.Count, t.Offset, ikChainSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, ikChainSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		nameIndex := f.Int32()
		chains[i].LinkType = f.Int()
		links := Table{Count: f.Int()}
		links.Offset = base + f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "ik chain %d", i)
		}
		var err error
		if chains[i].Name, err = nameAt(c, base, nameIndex); err != nil {
			return errors.Wrapf(err, "ik chain %d", i)
		}
		if chains[i].Links, err = cursor.MakeTable[IKLink](c, links.Count, links.Offset, ikLinkSize); err != nil {
			return errors.Wrapf(err, "ik chain %d", i)
		}
		err = c.Table(links.Count, links.Offset, ikLinkSize, func(j int) error {
			l := &chains[i].Links[j]
			f := c.Fields()
			l.Bone = f.Int()
			l.KneeDir = f.Vec3()
			if err := f.Err(); err != nil {
				return err
			}
			if l.Bone < 0 || l.Bone >= numBones {
				return errors.Wrapf(studioerr.ErrInvalidBoneReference, "link %d references bone %d", j, l.Bone)
			}
			return nil
		})
		return errors.Wrapf(err, "ik chain %d", i)
	})
	return chains, err
}

func readPoseParams(c *cursor.Cursor, t Table) ([]PoseParam, error) {
	pp, err := cursor.MakeTable[PoseParam](c, t.Count, t.Offset, poseParamSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, poseParamSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		nameIndex := f.Int32()
		pp[i].Flags = f.Int32()
		pp[i].Start = f.Float32()
		pp[i].End = f.Float32()
		pp[i].Loop = f.Float32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "pose parameter %d", i)
		}
		var err error
		pp[i].Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "pose parameter %d", i)
	})
	return pp, err
}

func readIncludeModels(c *cursor.Cursor, t Table) ([]IncludeModel, error) {
	im, err := cursor.MakeTable[IncludeModel](c, t.Count, t.Offset, includeModelSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, includeModelSize, func(i int) error {
		base := c.Offset()
		f := c.Fields()
		labelIndex := f.Int32()
		nameIndex := f.Int32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "include model %d", i)
		}
		var err error
		if im[i].Label, err = nameAt(c, base, labelIndex); err != nil {
			return errors.Wrapf(err, "include model %d", i)
		}
		im[i].Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "include model %d", i)
	})
	return im, err
}

func readKeyValues(c *cursor.Cursor, t Table) (string, error) {
	if t.Count <= 0 {
		return "", nil
	}
	var s string
	err := c.At(t.Offset, func() error {
		var err error
		s, err = c.ReadFixedString(t.Count)
		return err
	})
	return strings.TrimSpace(s), errors.Wrap(err, "key values")
}

func readSurfaceProp(c *cursor.Cursor, off int) (string, error) {
	if off == 0 {
		return "", nil
	}
	s, err := c.StringAt(off)
	return s, errors.Wrap(err, "surface prop")
}
