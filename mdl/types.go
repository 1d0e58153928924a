// SPDX-License-Identifier: GPL-2.0-or-later
package mdl

import (
	"gostudio/math/vec"
)

const (
	Magic      = 'T'<<24 | 'S'<<16 | 'D'<<8 | 'I' // "IDST"
	MinVersion = 44
	MaxVersion = 49
)

// on-disk record sizes
const (
	HeaderSize         = 392
	boneSize           = 216
	boneControllerSize = 56
	hitboxSetSize      = 12
	hitboxSize         = 68
	animDescSize       = 100
	movementSize       = 44
	seqDescSize        = 212
	eventSize          = 80
	textureSize        = 64
	bodyPartSize       = 16
	modelSize          = 148
	meshSize           = 116
	attachmentSize     = 92
	flexDescSize       = 4
	flexControllerSize = 20
	ikChainSize        = 16
	ikLinkSize         = 28
	poseParamSize      = 20
	includeModelSize   = 8

	// VertexSize is the size of one VVD vertex; model vertex indices are
	// byte offsets in units of it.
	VertexSize = 48
)

// Flags is the studiohdr_t flag set.
type Flags uint32

const (
	FlagAutogeneratedHitbox Flags = 1 << iota
	FlagUsesEnvCubemap
	FlagForceOpaque
	FlagTranslucentTwoPass
	FlagStaticProp
	FlagUsesFBTexture
	FlagHasShadowLOD
	FlagUsesBumpMapping
	FlagUseShadowLODMaterials
	FlagObsolete
	FlagUnused
	FlagNoForcedFade
	FlagForcePhonemeCrossfade
	FlagConstantDirectionalLightDot
	FlagFlexesConverted
	FlagBuiltInPreviewMode
	FlagAmbientBoost
	FlagDoNotCastShadows
	FlagCastTextureShadows
	_
	_
	FlagVertAnimFixedPointScale // 0x00200000
)

func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// Table is a (count, offset) pair. Offset is absolute in the buffer.
type Table struct {
	Count  int
	Offset int
}

type Header struct {
	ID         int32
	Version    int32
	Checksum   int32
	Name       string
	DataLength int

	EyePosition   vec.Vec3
	IllumPosition vec.Vec3
	HullMin       vec.Vec3
	HullMax       vec.Vec3
	ViewBBMin     vec.Vec3
	ViewBBMax     vec.Vec3

	Flags Flags

	Bones           Table
	BoneControllers Table
	HitboxSets      Table
	LocalAnims      Table
	LocalSeqs       Table

	ActivityListVersion int32
	EventsIndexed       int32

	Textures    Table
	TextureDirs Table

	SkinReferenceCount  int
	SkinFamilyCount     int
	SkinReferenceOffset int

	BodyParts   Table
	Attachments Table

	LocalNodes          Table
	LocalNodeNameOffset int

	FlexDescs       Table
	FlexControllers Table
	FlexRules       Table
	IKChains        Table
	Mouths          Table
	PoseParams      Table

	SurfacePropOffset int
	// KeyValues.Count is the size of the text block in bytes.
	KeyValues Table
	IKLocks   Table

	Mass     float32
	Contents int32

	IncludeModels Table
	VirtualModel  int32

	AnimBlocksNameOffset int
	AnimBlocks           Table
	AnimBlockModel       int32

	BoneTableByNameOffset int

	VertexBase int32
	OffsetBase int32

	DirectionalDotProduct uint8
	RootLOD               uint8
	NumAllowedRootLODs    uint8

	FlexControllerUI Table
}

// BoneFlags are the mstudiobone_t flags.
type BoneFlags uint32

const (
	BonePhysicallySimulated BoneFlags = 0x00000001
	BonePhysicsProcedural   BoneFlags = 0x00000002
	BoneAlwaysProcedural    BoneFlags = 0x00000004
	BoneScreenAlignSphere   BoneFlags = 0x00000008
	BoneScreenAlignCylinder BoneFlags = 0x00000010
	BoneUsedByHitbox        BoneFlags = 0x00000100
	BoneUsedByAttachment    BoneFlags = 0x00000200
	BoneUsedByVertexLOD0    BoneFlags = 0x00000400 // LOD n is BoneUsedByVertexLOD0 << n
	BoneUsedByBoneMerge     BoneFlags = 0x00040000
	BoneFixedAlignment      BoneFlags = 0x00100000
	BoneHasSaveframePos     BoneFlags = 0x00200000
	BoneHasSaveframeRot     BoneFlags = 0x00400000
)

type Bone struct {
	Name   string
	Parent int // -1 for a root

	BoneControllers [6]int

	Position vec.Vec3
	Quat     vec.Quat
	Rotation vec.Vec3 // RadianEuler, same rotation as Quat

	PositionScale vec.Vec3
	RotationScale vec.Vec3

	PoseToBone vec.Matrix3x4
	Alignment  vec.Quat

	Flags       BoneFlags
	ProcType    int
	ProcIndex   int
	PhysicsBone int
	SurfaceProp string
	Contents    int32
}

type BoneController struct {
	Bone       int
	Type       int
	Start      float32
	End        float32
	Rest       int
	InputField int
}

type Hitbox struct {
	Name  string
	Bone  int
	Group int
	Min   vec.Vec3
	Max   vec.Vec3
}

type HitboxSet struct {
	Name     string
	Hitboxes []Hitbox
}

type Attachment struct {
	Name  string
	Flags uint32
	Bone  int
	Local vec.Matrix3x4
}

type Texture struct {
	Name  string
	Flags int32
}

type BodyPart struct {
	Name   string
	Base   int
	Models []Model
}

// Model is one choice of a body part.
type Model struct {
	Name           string
	Type           int
	BoundingRadius float32
	Meshes         []Mesh

	NumVertices int
	// VertexIndex is a byte offset into the vertex data, divide by
	// VertexSize to get the first vertex.
	VertexIndex   int
	TangentsIndex int

	NumAttachments int
	NumEyeballs    int
}

// FirstVertex returns the index of the model's first vertex in the LOD 0
// vertex order.
func (m *Model) FirstVertex() int {
	return m.VertexIndex / VertexSize
}

type Mesh struct {
	Material      int
	ModelIndex    int
	NumVertices   int
	VertexOffset  int // relative to the model's first vertex
	NumFlexes     int
	MaterialType  int
	MaterialParam int
	ID            int
	Center        vec.Vec3

	NumLODVertices [8]int
}

type FlexController struct {
	Type          string
	Name          string
	LocalToGlobal int
	Min, Max      float32
}

type IKLink struct {
	Bone    int
	KneeDir vec.Vec3
}

type IKChain struct {
	Name     string
	LinkType int
	Links    []IKLink
}

type PoseParam struct {
	Name  string
	Flags int32
	Start float32
	End   float32
	Loop  float32
}

type IncludeModel struct {
	Label string
	Name  string
}

// File is a decoded .mdl container.
type File struct {
	Header Header

	Bones           []Bone
	BoneControllers []BoneController
	HitboxSets      []HitboxSet
	Animations      []Animation
	Sequences       []Sequence
	Textures        []Texture
	TextureDirs     []string
	// SkinFamilies[family][reference] is a texture index.
	SkinFamilies    [][]int16
	BodyParts       []BodyPart
	Attachments     []Attachment
	FlexDescs       []string
	FlexControllers []FlexController
	IKChains        []IKChain
	PoseParams      []PoseParam
	IncludeModels   []IncludeModel
	SurfaceProp     string
	KeyValues       string
}
