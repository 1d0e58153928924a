// SPDX-License-Identifier: GPL-2.0-or-later

// Package glb converts a decoded studio model to a binary glTF 2.0 document.
// Every bone becomes a node, every sub model of the chosen LOD a skinned
// mesh and every local, non delta animation a glTF animation.
package glb

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	qmath "gostudio/math"
	"gostudio/math/vec"
	"gostudio/mdl"
	"gostudio/studio"
)

type Options struct {
	// LOD selects the level of detail, clamped to the available ones.
	LOD int
	// YUp adds a root node rotating the Z up model into glTF's Y up frame.
	YUp bool
	// NoAnimations skips animation export.
	NoAnimations bool
}

// ErrNoBones is returned for models without a skeleton.
var ErrNoBones = errors.New("model has no bones")

type exporter struct {
	doc  *gltf.Document
	m    *studio.Model
	opts Options

	// bone i is node boneNode+i
	boneNode int
	skin     int
}

// Convert builds the glTF document of m.
func Convert(m *studio.Model, opts Options) (*gltf.Document, error) {
	if len(m.Skeleton.Bones) == 0 {
		return nil, ErrNoBones
	}
	e := &exporter{doc: gltf.NewDocument(), m: m, opts: opts}
	e.doc.Asset.Generator = "gostudio"
	e.materials()
	e.skeleton()
	if err := e.meshes(); err != nil {
		return nil, err
	}
	if !opts.NoAnimations {
		e.animations()
	}
	return e.doc, nil
}

// Encode writes m as a .glb stream.
func Encode(w io.Writer, m *studio.Model, opts Options) error {
	doc, err := Convert(m, opts)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return errors.Wrap(enc.Encode(doc), "glb")
}

// Save writes m to the .glb file name.
func Save(name string, m *studio.Model, opts Options) error {
	doc, err := Convert(m, opts)
	if err != nil {
		return err
	}
	return errors.Wrapf(gltf.SaveBinary(doc, name), "glb %s", name)
}

func (e *exporter) materials() {
	for _, t := range e.m.Textures {
		e.doc.Materials = append(e.doc.Materials, &gltf.Material{
			Name: t.Name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{1, 1, 1, 1},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
			AlphaMode: gltf.AlphaOpaque,
		})
	}
}

// material maps a mesh material slot to a texture through skin family 0.
func (e *exporter) material(slot int) *int {
	t := slot
	if f := e.m.SkinFamilies; len(f) > 0 && slot >= 0 && slot < len(f[0]) {
		t = int(f[0][slot])
	}
	if t < 0 || t >= len(e.doc.Materials) {
		return nil
	}
	return gltf.Index(t)
}

func (e *exporter) skeleton() {
	bones := e.m.Skeleton.Bones
	scene := e.doc.Scenes[0]
	var root *gltf.Node
	if e.opts.YUp {
		// -90 degrees around X
		s := math.Sqrt2 / 2
		root = &gltf.Node{Name: "root", Rotation: [4]float64{-s, 0, 0, s}, Scale: unitScale}
		e.doc.Nodes = append(e.doc.Nodes, root)
		scene.Nodes = append(scene.Nodes, 0)
	}
	e.boneNode = len(e.doc.Nodes)
	ibm := make([][4][4]float32, len(bones))
	joints := make([]int, len(bones))
	for i, b := range bones {
		e.doc.Nodes = append(e.doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: f64x3(b.Position.Array()),
			Rotation:    f64x4(b.Quat.Normalize().Array()),
			Scale:       unitScale,
		})
		ibm[i] = b.PoseToBone.ColumnMajor4x4()
		joints[i] = e.boneNode + i
	}
	for i, b := range bones {
		n := e.boneNode + i
		switch {
		case b.Parent >= 0:
			p := e.doc.Nodes[e.boneNode+b.Parent]
			p.Children = append(p.Children, n)
		case root != nil:
			root.Children = append(root.Children, n)
		default:
			scene.Nodes = append(scene.Nodes, n)
		}
	}
	e.skin = len(e.doc.Skins)
	e.doc.Skins = append(e.doc.Skins, &gltf.Skin{
		Name:                e.m.Header.Name,
		InverseBindMatrices: gltf.Index(modeler.WriteInverseBindMatrices(e.doc, ibm)),
		Joints:              joints,
		Skeleton:            gltf.Index(e.boneNode),
	})
}

func (e *exporter) meshes() error {
	scene := e.doc.Scenes[0]
	for _, bp := range e.m.BodyParts {
		for _, sm := range bp.Models {
			if sm.Blank || len(sm.LODs) == 0 {
				continue
			}
			lod := min(max(e.opts.LOD, 0), len(sm.LODs)-1)
			mesh, err := e.mesh(sm.Name, &sm.LODs[lod])
			if err != nil {
				return errors.Wrapf(err, "body part %s model %s", bp.Name, sm.Name)
			}
			if mesh == nil {
				continue
			}
			e.doc.Meshes = append(e.doc.Meshes, mesh)
			node := &gltf.Node{
				Name:     sm.Name,
				Mesh:     gltf.Index(len(e.doc.Meshes) - 1),
				Skin:     gltf.Index(e.skin),
				Rotation: f64x4(vec.IdentityQuat.Array()),
				Scale:    unitScale,
			}
			e.doc.Nodes = append(e.doc.Nodes, node)
			n := len(e.doc.Nodes) - 1
			if e.opts.YUp {
				e.doc.Nodes[0].Children = append(e.doc.Nodes[0].Children, n)
			} else {
				scene.Nodes = append(scene.Nodes, n)
			}
		}
	}
	return nil
}

func (e *exporter) mesh(name string, l *studio.LOD) (*gltf.Mesh, error) {
	if len(l.Vertices) == 0 {
		return nil, nil
	}
	nb := len(e.m.Skeleton.Bones)
	pos := make([][3]float32, len(l.Vertices))
	nor := make([][3]float32, len(l.Vertices))
	uv := make([][2]float32, len(l.Vertices))
	jnt := make([][4]uint16, len(l.Vertices))
	wgt := make([][4]float32, len(l.Vertices))
	for i, v := range l.Vertices {
		pos[i] = v.Position.Array()
		nor[i] = v.Normal.Normalize().Array()
		uv[i] = v.TexCoord.Array()
		for k := 0; k < v.NumBones && k < len(v.Bones); k++ {
			if int(v.Bones[k]) >= nb {
				return nil, errors.Errorf("vertex %d: bone %d out of %d", i, v.Bones[k], nb)
			}
			jnt[i][k] = uint16(v.Bones[k])
			wgt[i][k] = qmath.Saturate(v.Weights[k])
		}
		if v.NumBones == 0 {
			wgt[i][0] = 1
		}
	}
	attr := gltf.PrimitiveAttributes{
		gltf.POSITION:   modeler.WritePosition(e.doc, pos),
		gltf.NORMAL:     modeler.WriteNormal(e.doc, nor),
		gltf.TEXCOORD_0: modeler.WriteTextureCoord(e.doc, uv),
		gltf.JOINTS_0:   modeler.WriteJoints(e.doc, jnt),
		gltf.WEIGHTS_0:  modeler.WriteWeights(e.doc, wgt),
	}
	if len(l.Tangents) == len(l.Vertices) {
		tan := make([][4]float32, len(l.Tangents))
		for i, t := range l.Tangents {
			tan[i] = t.Array()
		}
		attr[gltf.TANGENT] = modeler.WriteTangent(e.doc, tan)
	}
	mesh := &gltf.Mesh{Name: name}
	for _, m := range l.Meshes {
		if len(m.Indices) == 0 {
			continue
		}
		idx := make([]uint32, len(m.Indices))
		for i, v := range m.Indices {
			idx[i] = uint32(v)
		}
		mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
			Attributes: attr,
			Indices:    gltf.Index(modeler.WriteIndices(e.doc, idx)),
			Material:   e.material(m.Material),
		})
	}
	if len(mesh.Primitives) == 0 {
		return nil, nil
	}
	return mesh, nil
}

func (e *exporter) animations() {
	bones := e.m.Skeleton.Bones
	for i := range e.m.Animations {
		a := &e.m.Animations[i]
		if a.External || a.Sectioned || a.Flags.Has(mdl.SeqDelta) || a.NumFrames <= 0 || len(a.Tracks) == 0 {
			continue
		}
		fps := a.FPS
		if fps <= 0 {
			fps = 30
		}
		n := keyCount(a)
		times := make([]float32, n)
		for f := range times {
			times[f] = float32(f) / fps
		}
		input := modeler.WriteAccessor(e.doc, gltf.TargetNone, times)
		acc := e.doc.Accessors[input]
		acc.Min = []float64{0}
		acc.Max = []float64{float64(times[n-1])}

		anim := &gltf.Animation{Name: a.Name}
		for ti := range a.Tracks {
			t := &a.Tracks[ti]
			if t.Bone >= len(bones) {
				continue
			}
			tr := make([][3]float32, n)
			rot := make([][4]float32, n)
			var lo, hi vec.Vec3
			for f := 0; f < n; f++ {
				p, q := t.Pose(&bones[t.Bone], f)
				tr[f] = p.Array()
				rot[f] = q.Normalize().Array()
				if f == 0 {
					lo, hi = p, p
				} else {
					lo, _ = vec.MinMax(lo, p)
					_, hi = vec.MinMax(hi, p)
				}
			}
			trOut := modeler.WriteAccessor(e.doc, gltf.TargetNone, tr)
			e.doc.Accessors[trOut].Min = f64s(lo.Array())
			e.doc.Accessors[trOut].Max = f64s(hi.Array())
			node := gltf.Index(e.boneNode + t.Bone)
			for _, ch := range []struct {
				path   gltf.TRSProperty
				output int
			}{
				{gltf.TRSTranslation, trOut},
				{gltf.TRSRotation, modeler.WriteAccessor(e.doc, gltf.TargetNone, rot)},
			} {
				anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
					Input:         input,
					Output:        ch.output,
					Interpolation: gltf.InterpolationLinear,
				})
				anim.Channels = append(anim.Channels, &gltf.AnimationChannel{
					Sampler: len(anim.Samplers) - 1,
					Target:  gltf.AnimationChannelTarget{Node: node, Path: ch.path},
				})
			}
		}
		if len(anim.Channels) > 0 {
			e.doc.Animations = append(e.doc.Animations, anim)
		}
	}
}

// keyCount is the number of key frames worth exporting: the longest
// decoded channel, or a single key when every channel is constant.
func keyCount(a *mdl.Animation) int {
	n := 1
	for i := range a.Tracks {
		n = max(n, len(a.Tracks[i].Rotation), len(a.Tracks[i].Position))
	}
	return min(n, a.NumFrames)
}

var unitScale = [3]float64{1, 1, 1}

func f64x3(v [3]float32) [3]float64 {
	return [3]float64{float64(v[0]), float64(v[1]), float64(v[2])}
}

func f64x4(v [4]float32) [4]float64 {
	return [4]float64{float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])}
}

func f64s(v [3]float32) []float64 {
	a := f64x3(v)
	return a[:]
}
