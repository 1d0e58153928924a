// SPDX-License-Identifier: GPL-2.0-or-later

// Package vtx reads Source optimized model (.vtx) strip data.
package vtx

const (
	Version    = 7
	HeaderSize = 36

	bodyPartSize        = 8
	modelSize           = 8
	modelLODSize        = 12
	meshSize            = 9
	stripGroupSize      = 25
	stripGroupSizeExt   = 33
	stripSize           = 27
	stripSizeExt        = 35
	vertexSize          = 9
	boneStateChangeSize = 8
	replacementListSize = 8
	replacementSize     = 6
)

type MeshFlags uint8

const (
	MeshIsTeeth MeshFlags = 0x01
	MeshIsEyes  MeshFlags = 0x02
)

type StripGroupFlags uint8

const (
	StripGroupIsFlexed      StripGroupFlags = 0x01
	StripGroupIsHWSkinned   StripGroupFlags = 0x02
	StripGroupIsDeltaFlexed StripGroupFlags = 0x04
	StripGroupSuppressMorph StripGroupFlags = 0x08
)

type StripFlags uint8

const (
	StripIsTriList  StripFlags = 0x01
	StripIsTriStrip StripFlags = 0x02
)

type Header struct {
	Version          int32
	VertCacheSize    int32
	MaxBonesPerStrip uint16
	MaxBonesPerTri   uint16
	MaxBonesPerVert  int32
	Checksum         int32
	NumLODs          int

	MaterialReplacementOffset int
	NumBodyParts              int
	BodyPartOffset            int
}

// Vertex is a strip group vertex pointing back at a mesh vertex.
type Vertex struct {
	BoneWeightIndex [3]uint8
	NumBones        uint8
	OrigMeshVertID  uint16
	BoneID          [3]uint8
}

type BoneStateChange struct {
	HardwareID int
	NewBoneID  int
}

// Strip ranges are element offsets into the strip group's index and vertex
// lists.
type Strip struct {
	Flags        StripFlags
	IndexOffset  int
	NumIndices   int
	VertexOffset int
	NumVertices  int
	NumBones     int

	BoneStateChanges []BoneStateChange
}

type StripGroup struct {
	Flags    StripGroupFlags
	Vertices []Vertex
	Indices  []uint16
	Strips   []Strip
}

type Mesh struct {
	Flags       MeshFlags
	StripGroups []StripGroup
}

type ModelLOD struct {
	SwitchPoint float32
	Meshes      []Mesh
}

type Model struct {
	LODs []ModelLOD
}

type BodyPart struct {
	Models []Model
}

type MaterialReplacement struct {
	Material int
	Name     string
}

type File struct {
	Header    Header
	BodyParts []BodyPart
	// Replacements[lod] lists the materials swapped in for that lod.
	Replacements [][]MaterialReplacement
}

// Options control layout differences of the strip records.
type Options struct {
	// Extended strip groups and strips carry topology fields, used with
	// studio models of version 49.
	Extended bool
}

// OptionsFor returns the options matching a studio model version.
func OptionsFor(mdlVersion int32) Options {
	return Options{Extended: mdlVersion >= 49}
}
