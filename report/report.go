// SPDX-License-Identifier: GPL-2.0-or-later

// Package report summarizes a decoded model as a protobuf Struct, printed
// as JSON by the inspect command.
package report

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	qmath "gostudio/math"
	"gostudio/math/vec"
	"gostudio/mdl"
	"gostudio/studio"
)

func v3(v vec.Vec3) []any {
	return []any{v.X, v.Y, v.Z}
}

// degrees converts a RadianEuler to angles in [0, 360).
func degrees(v vec.Vec3) []any {
	d := func(r float32) any { return qmath.AngleMod(float64(qmath.Degrees(r))) }
	return []any{d(v.X), d(v.Y), d(v.Z)}
}

// New builds the summary of m, which was loaded from name.
func New(name string, m *studio.Model) (*structpb.Struct, error) {
	h := &m.Header
	r := map[string]any{
		"file":     name,
		"name":     h.Name,
		"version":  h.Version,
		"checksum": h.Checksum,
		"flags":    int64(h.Flags),
		"mass":     h.Mass,
		"hull":     map[string]any{"min": v3(h.HullMin), "max": v3(h.HullMax)},
		"view_bb":  map[string]any{"min": v3(h.ViewBBMin), "max": v3(h.ViewBBMax)},
		"eye":      v3(h.EyePosition),

		"bones":          bones(m.Skeleton.Bones),
		"sequences":      sequences(m.Sequences),
		"animations":     animations(m.Animations),
		"hitbox_sets":    hitboxSets(m.HitboxSets),
		"attachments":    attachments(m.Attachments, m.Skeleton.Bones),
		"materials":      materials(m),
		"pose_params":    poseParams(m.PoseParams),
		"include_models": includeModels(m.IncludeModels),
		"body_parts":     bodyParts(m.BodyParts),
	}
	if m.KeyValues != "" {
		r["key_values"] = m.KeyValues
	}
	s, err := structpb.NewStruct(r)
	return s, errors.Wrap(err, "report")
}

// Marshal renders s as indented JSON.
func Marshal(s *structpb.Struct) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
}

// Unmarshal parses a report written by Marshal.
func Unmarshal(b []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "report")
	}
	return &s, nil
}

func bones(bs []mdl.Bone) []any {
	r := make([]any, len(bs))
	for i, b := range bs {
		r[i] = map[string]any{
			"name":     b.Name,
			"parent":   b.Parent,
			"position": v3(b.Position),
			"rotation": v3(b.Rotation),
			"angles":   degrees(b.Rotation),
			"flags":    int64(b.Flags),
		}
	}
	return r
}

func sequences(ss []mdl.Sequence) []any {
	r := make([]any, len(ss))
	for i, s := range ss {
		blends := make([]any, len(s.Blends))
		for k, b := range s.Blends {
			blends[k] = b
		}
		e := map[string]any{
			"label":   s.Label,
			"flags":   int64(s.Flags),
			"looping": s.Flags.Has(mdl.SeqLooping),
			"blends":  blends,
			"events":  len(s.Events),
		}
		if s.Activity != "" {
			e["activity"] = s.Activity
			e["activity_weight"] = s.ActivityWeight
		}
		r[i] = e
	}
	return r
}

func animations(as []mdl.Animation) []any {
	r := make([]any, len(as))
	for i, a := range as {
		e := map[string]any{
			"name":   a.Name,
			"fps":    a.FPS,
			"frames": a.NumFrames,
			"tracks": len(a.Tracks),
			"delta":  a.Flags.Has(mdl.SeqDelta),
		}
		switch {
		case a.External:
			e["storage"] = "external"
		case a.Sectioned:
			e["storage"] = "sectioned"
		default:
			e["storage"] = "local"
		}
		r[i] = e
	}
	return r
}

func hitboxSets(hs []mdl.HitboxSet) []any {
	r := make([]any, len(hs))
	for i, s := range hs {
		boxes := make([]any, len(s.Hitboxes))
		for k, h := range s.Hitboxes {
			boxes[k] = map[string]any{
				"name":  h.Name,
				"bone":  h.Bone,
				"group": h.Group,
				"min":   v3(h.Min),
				"max":   v3(h.Max),
			}
		}
		r[i] = map[string]any{"name": s.Name, "hitboxes": boxes}
	}
	return r
}

func attachments(as []mdl.Attachment, bs []mdl.Bone) []any {
	r := make([]any, len(as))
	for i, a := range as {
		e := map[string]any{
			"name":   a.Name,
			"bone":   a.Bone,
			"origin": v3(a.Local.Translation()),
		}
		if a.Bone >= 0 && a.Bone < len(bs) {
			e["bone_name"] = bs[a.Bone].Name
		}
		r[i] = e
	}
	return r
}

func materials(m *studio.Model) map[string]any {
	dirs := make([]any, len(m.TextureDirs))
	for i, d := range m.TextureDirs {
		dirs[i] = d
	}
	names := make([]any, len(m.Textures))
	for i, t := range m.Textures {
		names[i] = t.Name
	}
	families := make([]any, len(m.SkinFamilies))
	for i, f := range m.SkinFamilies {
		slots := make([]any, len(f))
		for k, s := range f {
			slots[k] = int(s)
		}
		families[i] = slots
	}
	return map[string]any{"dirs": dirs, "textures": names, "skin_families": families}
}

func poseParams(ps []mdl.PoseParam) []any {
	r := make([]any, len(ps))
	for i, p := range ps {
		r[i] = map[string]any{"name": p.Name, "start": p.Start, "end": p.End, "loop": p.Loop}
	}
	return r
}

func includeModels(is []mdl.IncludeModel) []any {
	r := make([]any, len(is))
	for i, im := range is {
		r[i] = map[string]any{"label": im.Label, "name": im.Name}
	}
	return r
}

func bodyParts(bps []studio.BodyPart) []any {
	r := make([]any, len(bps))
	for i, bp := range bps {
		models := make([]any, len(bp.Models))
		for k, sm := range bp.Models {
			lods := make([]any, len(sm.LODs))
			for l, lod := range sm.LODs {
				tris := 0
				for _, mesh := range lod.Meshes {
					tris += len(mesh.Indices) / 3
				}
				lods[l] = map[string]any{
					"switch_point": lod.SwitchPoint,
					"vertices":     len(lod.Vertices),
					"triangles":    tris,
					"meshes":       len(lod.Meshes),
					"tangents":     lod.Tangents != nil,
				}
			}
			models[k] = map[string]any{"name": sm.Name, "blank": sm.Blank, "lods": lods}
		}
		r[i] = map[string]any{"name": bp.Name, "models": models}
	}
	return r
}
