// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"gostudio/conlog"
	"gostudio/filesystem"
)

var (
	loaders map[uint32]LoadFunc
)

func init() {
	loaders = make(map[uint32]LoadFunc)
}

// ErrUnknownFormat is returned for files whose magic has no loader.
var ErrUnknownFormat = errors.New("unknown file format")

// Loader reads models through a filesystem. Cache may be nil.
type Loader struct {
	FS      *filesystem.FS
	Options Options
	Cache   *Cache
}

// LoadFunc decodes the file name whose content is data. It may read
// companion files through l.FS.
type LoadFunc func(l *Loader, name string, data []byte) (Model, error)

func Register(magic uint32, f LoadFunc) {
	loaders[magic] = f
}

func (l *Loader) Load(name string) (Model, error) {
	data, err := l.FS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, errors.Wrapf(ErrUnknownFormat, "file %s", name)
	}
	magic := binary.LittleEndian.Uint32(data)
	f, ok := loaders[magic]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "file %s (magic %#08x)", name, magic)
	}
	conlog.DPrintf("loading %s from %v\n", name, l.FS.Mounts(name))
	return f(l, name, data)
}
