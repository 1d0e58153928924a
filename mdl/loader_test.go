// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"gostudio/math/vec"
	"gostudio/studioerr"
)

func TestDecodeRootBone(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	f, err := Decode(w.finish())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Bones) != 1 {
		t.Fatalf("got %d bones", len(f.Bones))
	}
	b := f.Bones[0]
	if b.Name != "root" || b.Parent != -1 {
		t.Errorf("bone = %q parent %d", b.Name, b.Parent)
	}
	if r := Roots(f.Bones); !reflect.DeepEqual(r, []int{0}) {
		t.Errorf("Roots = %v", r)
	}
}

func TestHierarchy(t *testing.T) {
	tests := []struct {
		bones []testBone
		want  error
	}{
		{[]testBone{{"a", -1}, {"b", 0}, {"c", 0}, {"d", 2}}, nil},
		{[]testBone{{"a", -1}, {"b", -1}}, nil},
		{[]testBone{{"a", 1}, {"b", -1}}, studioerr.ErrMalformedHierarchy},
		{[]testBone{{"a", -1}, {"b", 1}}, studioerr.ErrMalformedHierarchy},
		{[]testBone{{"a", -2}}, studioerr.ErrMalformedHierarchy},
	}
	for i, tc := range tests {
		w := newModel(48)
		w.bones(tc.bones...)
		f, err := Decode(w.finish())
		if tc.want != nil {
			if !errors.Is(err, tc.want) {
				t.Errorf("Testcase %d: got %v, want %v", i, err, tc.want)
			}
			continue
		}
		if err != nil {
			t.Errorf("Testcase %d: %v", i, err)
			continue
		}
		for j, b := range tc.bones {
			if f.Bones[j].Name != b.name {
				t.Errorf("Testcase %d: bone %d name %q", i, j, f.Bones[j].Name)
			}
		}
	}

	w := newModel(48)
	w.bones(testBone{"a", -1}, testBone{"b", 0}, testBone{"c", 0}, testBone{"d", 2})
	f, err := Decode(w.finish())
	if err != nil {
		t.Fatal(err)
	}
	if c := Children(f.Bones, 0); !reflect.DeepEqual(c, []int{1, 2}) {
		t.Errorf("Children(0) = %v", c)
	}
	if i := FindBone(f.Bones, "d"); i != 3 {
		t.Errorf("FindBone(d) = %d", i)
	}
	if i := FindBone(f.Bones, "x"); i != -1 {
		t.Errorf("FindBone(x) = %d", i)
	}
}

func hitboxModel(bone int32) []byte {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	set := w.reserve(hitboxSetSize)
	w.table(hdrHitboxSets, 1, set)
	box := w.reserve(hitboxSize)
	w.i32(set, w.name(set, "default"))
	w.i32(set+4, 1)
	w.i32(set+8, int32(box-set))
	w.i32(box, bone)
	w.f32(box+8, -1)
	w.f32(box+20, 1)
	w.i32(box+32, w.name(box, "head"))
	return w.finish()
}

func TestHitboxes(t *testing.T) {
	f, err := Decode(hitboxModel(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.HitboxSets) != 1 || len(f.HitboxSets[0].Hitboxes) != 1 {
		t.Fatalf("hitbox sets = %+v", f.HitboxSets)
	}
	set := f.HitboxSets[0]
	h := set.Hitboxes[0]
	if set.Name != "default" || h.Name != "head" || h.Min.X != -1 || h.Max.X != 1 {
		t.Errorf("hitbox = %+v in %q", h, set.Name)
	}
	if _, err := Decode(hitboxModel(1)); !errors.Is(err, studioerr.ErrInvalidBoneReference) {
		t.Errorf("hitbox with bone 1: %v", err)
	}
}

func TestAttachmentBone(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	a := w.reserve(attachmentSize)
	w.table(hdrAttach, 1, a)
	w.i32(a, w.name(a, "muzzle"))
	w.i32(a+8, 3)
	if _, err := Decode(w.finish()); !errors.Is(err, studioerr.ErrInvalidBoneReference) {
		t.Errorf("attachment with bone 3: %v", err)
	}
}

func TestBodyParts(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	bp := w.reserve(bodyPartSize)
	w.table(hdrBodyParts, 1, bp)
	m := w.reserve(modelSize)
	mesh := w.reserve(meshSize)
	w.i32(bp, w.name(bp, "body"))
	w.i32(bp+4, 1)
	w.i32(bp+8, 1)
	w.i32(bp+12, int32(m-bp))
	w.str(m, "body_ref")
	w.i32(m+72, 1)             // nummeshes
	w.i32(m+76, int32(mesh-m)) // meshindex
	w.i32(m+80, 4)             // numvertices
	w.i32(m+84, 2*VertexSize)  // vertexindex
	w.i32(mesh, 2)             // material
	w.i32(mesh+8, 4)           // numvertices
	w.i32(mesh+52, 4)          // lod 0 vertices
	data := w.finish()
	f, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.BodyParts) != 1 || len(f.BodyParts[0].Models) != 1 {
		t.Fatalf("body parts = %+v", f.BodyParts)
	}
	md := f.BodyParts[0].Models[0]
	if md.Name != "body_ref" || md.FirstVertex() != 2 || md.NumVertices != 4 {
		t.Errorf("model = %+v", md)
	}
	if len(md.Meshes) != 1 || md.Meshes[0].Material != 2 || md.Meshes[0].NumLODVertices[0] != 4 {
		t.Errorf("meshes = %+v", md.Meshes)
	}

	// mesh range past the model's vertices
	w.i32(mesh+8, 5)
	if _, err := Decode(w.b); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("mesh with too many vertices: %v", err)
	}
}

func TestAuxTables(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	tex := w.reserve(textureSize)
	w.table(hdrTextures, 1, tex)
	w.i32(tex, w.name(tex, "skin01"))
	pp := w.reserve(poseParamSize)
	w.table(hdrPoseParams, 1, pp)
	w.i32(pp, w.name(pp, "aim_yaw"))
	w.f32(pp+8, -45)
	w.f32(pp+12, 45)
	kv := w.reserve(0)
	w.str(kv, "mdlkeyvalue{}")
	w.i32(hdrKeyValues, int32(kv))
	w.i32(hdrKeyValues+4, int32(len("mdlkeyvalue{}")))
	f, err := Decode(w.finish())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Textures) != 1 || f.Textures[0].Name != "skin01" {
		t.Errorf("textures = %+v", f.Textures)
	}
	if len(f.PoseParams) != 1 || f.PoseParams[0].Name != "aim_yaw" || f.PoseParams[0].End != 45 {
		t.Errorf("pose params = %+v", f.PoseParams)
	}
	if f.KeyValues != "mdlkeyvalue{}" {
		t.Errorf("key values = %q", f.KeyValues)
	}
}

func animModel() []byte {
	w := newModel(48)
	w.bones(testBone{"root", -1}, testBone{"arm", 0})
	w.anim("idle", 3, SeqLooping, track(1, AnimAnimRot, 0, le(6, 0, 0), run(1, 3, 10)))
	w.sequence("idle_seq", 0)
	return w.finish()
}

func TestDecodeAnimation(t *testing.T) {
	f, err := Decode(animModel())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Animations) != 1 {
		t.Fatalf("got %d animations", len(f.Animations))
	}
	a := f.Animations[0]
	if a.Name != "idle" || a.NumFrames != 3 || a.FPS != 30 || !a.Flags.Has(SeqLooping) {
		t.Errorf("animation = %+v", a)
	}
	if len(a.Tracks) != 1 || a.Tracks[0].Bone != 1 || len(a.Tracks[0].Rotation) != 3 {
		t.Fatalf("tracks = %+v", a.Tracks)
	}
	for i, r := range a.Tracks[0].Rotation {
		if r.X != 10 {
			t.Errorf("frame %d: x = %v", i, r.X)
		}
	}
	if a.Track(0) != nil || a.Track(1) == nil {
		t.Errorf("Track lookup failed")
	}
	if len(f.Sequences) != 1 {
		t.Fatalf("got %d sequences", len(f.Sequences))
	}
	s := f.Sequences[0]
	if s.Label != "idle_seq" || s.Animation != 0 || len(s.Blends) != 1 {
		t.Errorf("sequence = %+v", s)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	data := animModel()
	a, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("decoding the same buffer twice differs")
	}
}

func TestExternalAnimation(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	w.anim("ext", 10, 0, track(0, AnimAnimRot, 0, le(6, 0, 0), run(1, 10, 1)))
	w.i32(HeaderSize+boneSize+len("root")+1+52, 1) // animblock
	f, err := Decode(w.finish())
	if err != nil {
		t.Fatal(err)
	}
	if a := f.Animations[0]; !a.External || a.Tracks != nil {
		t.Errorf("animation = %+v", a)
	}
}

func TestSequenceBadBlend(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	w.sequence("s", 2)
	if _, err := Decode(w.finish()); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("sequence referencing a missing animation: %v", err)
	}
}

func TestTruncatedModel(t *testing.T) {
	data := animModel()
	for n := 0; n < len(data); n++ {
		if _, err := Decode(data[:n]); err == nil {
			t.Errorf("Decode of %d of %d bytes succeeded", n, len(data))
		} else if n < HeaderSize && !errors.Is(err, studioerr.ErrOutOfBounds) {
			t.Errorf("Decode of %d bytes: %v", n, err)
		}
	}
}

func TestHugeBlendGrid(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	w.anim("idle", 1, 0, nil)
	w.sequence("s", 0)
	seq := int(binary.LittleEndian.Uint32(w.b[hdrSeqs+4:]))
	w.i32(seq+68, 1<<30)
	w.i32(seq+72, 1<<30)
	if _, err := Decode(w.finish()); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("got %v, want ErrOutOfBounds", err)
	}
}

func TestHugeSkinFamilies(t *testing.T) {
	w := newModel(48)
	w.bones(testBone{"root", -1})
	w.i32(224, 1<<30) // families without references
	if _, err := Decode(w.finish()); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("got %v, want ErrOutOfBounds", err)
	}
}

func TestHugeFrameCount(t *testing.T) {
	tests := []struct {
		tracks []byte
		err    error
		keys   int
	}{
		// no axis carries data, the rotation is constant
		{track(0, AnimAnimRot, 0, le(0, 0, 0)), nil, 1},
		{track(0, AnimAnimRot|AnimDelta, 0, le(0, 0, 0)), nil, 1},
		// one run cannot back the frame count
		{track(0, AnimAnimRot, 0, le(6, 0, 0), run(1, 255, 3)), studioerr.ErrTruncatedAnimation, 0},
	}
	for i, tc := range tests {
		w := newModel(48)
		w.bones(testBone{"root", -1})
		w.anim("long", 1<<24, 0, tc.tracks)
		f, err := Decode(w.finish())
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("Testcase %d: got %v, want %v", i, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Testcase %d: %v", i, err)
			continue
		}
		a := f.Animations[0]
		if a.NumFrames != 1<<24 || len(a.Tracks) != 1 || len(a.Tracks[0].Rotation) != tc.keys {
			t.Errorf("Testcase %d: %d frames, tracks %+v", i, a.NumFrames, a.Tracks)
			continue
		}
		if _, q := a.Tracks[0].Pose(&f.Bones[0], 1<<20); !vec.Equivalent(q, vec.IdentityQuat, 1e-6) {
			t.Errorf("Testcase %d: pose %v", i, q)
		}
	}
}
