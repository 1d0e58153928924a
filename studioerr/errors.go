// SPDX-License-Identifier: GPL-2.0-or-later

// Package studioerr holds the error taxonomy shared by the mdl, vvd, vtx and
// studio decoders. Every error is terminal for the model being decoded.
// Decoders wrap these values with context, test them with errors.Is.
package studioerr

import (
	"github.com/pkg/errors"
)

var (
	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrOutOfBounds is returned for any offset or count that reaches past
	// the end of the buffer, including a truncated header.
	ErrOutOfBounds        = errors.New("out of bounds")
	ErrMalformedHierarchy = errors.New("malformed bone hierarchy")
	// ErrInvalidBoneReference marks a bone index (vertex weight, hitbox,
	// attachment or animation track) outside the bone table.
	ErrInvalidBoneReference = errors.New("invalid bone reference")
	// ErrTruncatedAnimation marks an RLE run that declares more data than
	// the stream holds.
	ErrTruncatedAnimation = errors.New("truncated animation stream")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	// ErrInvalidVertexReference marks a strip index that does not resolve
	// to a vertex of the same LOD.
	ErrInvalidVertexReference = errors.New("invalid vertex reference")
)
