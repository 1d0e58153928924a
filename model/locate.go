// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"gostudio/filesystem"
)

// VTXSuffixes are tried in order to find the strip file of a model.
var VTXSuffixes = []string{".dx90.vtx", ".dx80.vtx", ".sw.vtx", ".vtx"}

// Triplet names the three files of a studio model. VVD and VTX are empty
// when no such file exists.
type Triplet struct {
	MDL string
	VVD string
	VTX string
}

func exists(fs *filesystem.FS, name string) bool {
	for _, n := range []string{name, name + ".gz", name + ".zst"} {
		if _, err := fs.Stat(n); err == nil {
			return true
		}
	}
	return false
}

// Locate finds the companion files of the .mdl file name.
func Locate(fs *filesystem.FS, name string) Triplet {
	t := Triplet{MDL: name}
	base := filesystem.StripExt(name)
	if exists(fs, base+".vvd") {
		t.VVD = base + ".vvd"
	}
	for _, s := range VTXSuffixes {
		if exists(fs, base+s) {
			t.VTX = base + s
			break
		}
	}
	return t
}

// Read returns the content of the triplet, nil for missing companions.
func (t Triplet) Read(fs *filesystem.FS) (mdlData, vvdData, vtxData []byte, err error) {
	if mdlData, err = fs.ReadFile(t.MDL); err != nil {
		return
	}
	vvdData, vtxData, err = t.Companions(fs)
	return
}

// Companions reads only the VVD and VTX files.
func (t Triplet) Companions(fs *filesystem.FS) (vvdData, vtxData []byte, err error) {
	if t.VVD != "" {
		if vvdData, err = fs.ReadFile(t.VVD); err != nil {
			return
		}
	}
	if t.VTX != "" {
		vtxData, err = fs.ReadFile(t.VTX)
	}
	return
}
