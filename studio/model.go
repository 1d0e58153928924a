// SPDX-License-Identifier: GPL-2.0-or-later

// Package studio merges the .mdl, .vvd and .vtx files of a Source studio
// model into renderable per lod buffers.
package studio

import (
	"gostudio/math/vec"
	"gostudio/mdl"
	"gostudio/vtx"
	"gostudio/vvd"
)

type Skeleton struct {
	Bones []mdl.Bone
}

func (s *Skeleton) Roots() []int {
	return mdl.Roots(s.Bones)
}

func (s *Skeleton) ChildrenOf(bone int) []int {
	return mdl.Children(s.Bones, bone)
}

func (s *Skeleton) Find(name string) int {
	return mdl.FindBone(s.Bones, name)
}

// BindPose returns the model space rest pose of every bone.
func (s *Skeleton) BindPose() ([]vec.Vec3, []vec.Quat) {
	pos := make([]vec.Vec3, len(s.Bones))
	rot := make([]vec.Quat, len(s.Bones))
	for i := range s.Bones {
		pos[i], rot[i] = s.Bones[i].Position, s.Bones[i].Quat
	}
	return mdl.WorldPose(s.Bones, pos, rot)
}

type Mesh struct {
	Material int
	Flags    vtx.MeshFlags
	// Indices is a triangle list into the lod's Vertices.
	Indices []int
}

type LOD struct {
	SwitchPoint float32
	Vertices    []vvd.Vertex
	Tangents    []vec.Vec4 // nil without tangent data
	// SourceIDs[i] is the stored .vvd vertex of Vertices[i].
	SourceIDs []int
	Meshes    []Mesh
}

type SubModel struct {
	Name  string
	Blank bool
	LODs  []LOD
}

type BodyPart struct {
	Name   string
	Models []SubModel
}

// Model is the merged, engine independent form of a studio model.
type Model struct {
	Header   mdl.Header
	Skeleton Skeleton

	Sequences   []mdl.Sequence
	Animations  []mdl.Animation
	HitboxSets  []mdl.HitboxSet
	Attachments []mdl.Attachment
	Textures    []mdl.Texture
	TextureDirs []string
	// SkinFamilies[family][slot] is an index into Textures.
	SkinFamilies  [][]int16
	PoseParams    []mdl.PoseParam
	IncludeModels []mdl.IncludeModel
	KeyValues     string

	BodyParts []BodyPart
}

// Material resolves a mesh material slot through skin family 0.
func (m *Model) Material(slot int) (mdl.Texture, bool) {
	t := slot
	if len(m.SkinFamilies) > 0 && slot >= 0 && slot < len(m.SkinFamilies[0]) {
		t = int(m.SkinFamilies[0][slot])
	}
	if t < 0 || t >= len(m.Textures) {
		return mdl.Texture{}, false
	}
	return m.Textures[t], true
}
