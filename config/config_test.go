// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	name := filepath.Join(t.TempDir(), "gostudio.json")
	data := `{"base_dir": "/games/hl2", "vpks": ["hl2/extra_dir.vpk"], "max_lods": 2, "workers": 3}`
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(name)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{BaseDir: "/games/hl2", VPKs: []string{"hl2/extra_dir.vpk"}, MaxLODs: 2, Workers: 3}
	if !reflect.DeepEqual(c, want) {
		t.Errorf("got %+v, want %+v", c, want)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Errorf("missing file: no error")
	}
	if err := os.WriteFile(name, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(name); err == nil {
		t.Errorf("bad json: no error")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		file  Config
		flags Flags
		want  Config
	}{
		{
			Config{},
			Flags{},
			Config{BaseDir: ".", Game: "hl2", OutputDir: ".", Workers: 1},
		},
		{
			Config{BaseDir: "/a", Game: "ep2", MaxLODs: 2, Workers: 2, VPKs: []string{"x_dir.vpk"}},
			Flags{BaseDir: "/b", MaxLODs: 1, Debug: true, VPKs: []string{"/abs_dir.vpk"}},
			Config{BaseDir: "/b", Game: "ep2", MaxLODs: 1, Workers: 2, Debug: true, OutputDir: ".",
				VPKs: []string{"/b/x_dir.vpk", "/abs_dir.vpk"}},
		},
		{
			Config{CompressManifest: true, OutputDir: "out"},
			Flags{Workers: 1, IgnoreChecksums: true},
			Config{BaseDir: ".", Game: "hl2", OutputDir: "out", Workers: 1, CompressManifest: true, IgnoreChecksums: true},
		},
	}
	for i, tc := range tests {
		c := tc.file
		c.Resolve(tc.flags)
		if !reflect.DeepEqual(c, tc.want) {
			t.Errorf("Testcase %d: got %+v, want %+v", i, c, tc.want)
		}
	}
}
