// SPDX-License-Identifier: GPL-2.0-or-later

package studio

import (
	"github.com/pkg/errors"

	"gostudio/mdl"
	"gostudio/studioerr"
	"gostudio/vtx"
	"gostudio/vvd"
)

// validate cross checks the three files of one model.
func validate(mf *mdl.File, vf *vvd.File, tf *vtx.File, opts Options) error {
	if !opts.IgnoreChecksums {
		if vf.Header.Checksum != mf.Header.Checksum {
			return errors.Wrapf(studioerr.ErrChecksumMismatch, "studio: vvd checksum %#x, mdl %#x", vf.Header.Checksum, mf.Header.Checksum)
		}
		if tf.Header.Checksum != mf.Header.Checksum {
			return errors.Wrapf(studioerr.ErrChecksumMismatch, "studio: vtx checksum %#x, mdl %#x", tf.Header.Checksum, mf.Header.Checksum)
		}
	}
	if len(tf.BodyParts) != len(mf.BodyParts) {
		return errors.Wrapf(studioerr.ErrOutOfBounds, "studio: vtx has %d body parts, mdl %d", len(tf.BodyParts), len(mf.BodyParts))
	}
	for i := range mf.BodyParts {
		if a, b := len(tf.BodyParts[i].Models), len(mf.BodyParts[i].Models); a != b {
			return errors.Wrapf(studioerr.ErrOutOfBounds, "studio: body part %d has %d vtx models, mdl %d", i, a, b)
		}
	}
	return errors.Wrap(vf.ValidateBones(len(mf.Bones)), "studio")
}
