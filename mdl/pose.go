// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"gostudio/math/vec"
)

// Pose returns the local position and rotation of bone at frame. Frames
// outside the animation are clamped. Animated axes are base + value*scale
// where base is the rest pose, or zero for delta tracks. Channels the track
// does not carry keep the rest pose, or the identity for delta tracks.
func (t *Track) Pose(bone *Bone, frame int) (vec.Vec3, vec.Quat) {
	delta := t.Flags.Has(AnimDelta)

	pos, rot := bone.Position, bone.Quat
	basePos, baseRot := bone.Position, bone.Rotation
	if delta {
		pos, rot = vec.Vec3{}, vec.IdentityQuat
		basePos, baseRot = vec.Vec3{}, vec.Vec3{}
	}

	switch {
	case t.Rotation != nil:
		e := t.Rotation[clampFrame(frame, len(t.Rotation))]
		rot = vec.EulerToQuat(vec.Add(baseRot, vec.Mul(e, bone.RotationScale)))
	case t.HasRawRotation():
		rot = t.RawRotation
	}
	switch {
	case t.Position != nil:
		p := t.Position[clampFrame(frame, len(t.Position))]
		pos = vec.Add(basePos, vec.Mul(p, bone.PositionScale))
	case t.Flags.Has(AnimRawPos):
		pos = t.RawPosition
	}
	return pos, rot
}

func clampFrame(f, n int) int {
	if f >= n {
		f = n - 1
	}
	if f < 0 {
		f = 0
	}
	return f
}

// Pose returns the local pose of every bone at frame. Bones without a track
// keep their rest pose, for delta animations the identity.
func (a *Animation) Pose(bones []Bone, frame int) ([]vec.Vec3, []vec.Quat) {
	pos := make([]vec.Vec3, len(bones))
	rot := make([]vec.Quat, len(bones))
	delta := a.Flags.Has(SeqDelta)
	for i := range bones {
		if delta {
			rot[i] = vec.IdentityQuat
		} else {
			pos[i], rot[i] = bones[i].Position, bones[i].Quat
		}
	}
	for i := range a.Tracks {
		t := &a.Tracks[i]
		if t.Bone < len(bones) {
			pos[t.Bone], rot[t.Bone] = t.Pose(&bones[t.Bone], frame)
		}
	}
	return pos, rot
}

// WorldPose concatenates local poses down the hierarchy. Parents always
// precede their children.
func WorldPose(bones []Bone, pos []vec.Vec3, rot []vec.Quat) ([]vec.Vec3, []vec.Quat) {
	wp := make([]vec.Vec3, len(bones))
	wr := make([]vec.Quat, len(bones))
	for i := range bones {
		p := bones[i].Parent
		if p < 0 {
			wp[i], wr[i] = pos[i], rot[i]
			continue
		}
		wr[i] = vec.QMul(wr[p], rot[i]).Normalize()
		wp[i] = vec.Add(wp[p], vec.Rotate(wr[p], pos[i]))
	}
	return wp, wr
}
