// SPDX-License-Identifier: GPL-2.0-or-later

package studio

import (
	"github.com/pkg/errors"

	"gostudio/math/vec"
	"gostudio/mdl"
	"gostudio/model"
)

func init() {
	model.Register(mdl.Magic, load)
}

// Name, Mins, Maxs and Flags make a decoded model a model.Model.

func (m *Model) Name() string   { return m.Header.Name }
func (m *Model) Mins() vec.Vec3 { return m.Header.HullMin }
func (m *Model) Maxs() vec.Vec3 { return m.Header.HullMax }
func (m *Model) Flags() int     { return int(m.Header.Flags) }

func load(l *model.Loader, name string, data []byte) (model.Model, error) {
	t := model.Locate(l.FS, name)
	vvdData, vtxData, err := t.Companions(l.FS)
	if err != nil {
		return nil, err
	}
	opts := Options{MaxLODs: l.Options.MaxLODs, IgnoreChecksums: l.Options.IgnoreChecksums}
	var key uint64
	if l.Cache != nil {
		key = model.Key(l.Options, data, vvdData, vtxData)
		if m, ok := l.Cache.Get(key); ok {
			return m, nil
		}
	}
	m, err := DecodeModel(data, vvdData, vtxData, opts)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	if l.Cache != nil {
		l.Cache.Put(key, m)
	}
	return m, nil
}
