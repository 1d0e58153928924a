// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"gostudio/math/vec"
)

// Model is what a registered loader returns.
type Model interface {
	Name() string
	Mins() vec.Vec3
	Maxs() vec.Vec3
	Flags() int
}

// Options are handed to every loader.
type Options struct {
	// MaxLODs limits the number of assembled LODs, 0 means all.
	MaxLODs         int
	IgnoreChecksums bool
}
