// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"gostudio/filesystem"
	"gostudio/math/vec"
)

type box struct {
	name string
	size int
}

func (b *box) Name() string   { return b.name }
func (b *box) Mins() vec.Vec3 { return vec.Vec3{} }
func (b *box) Maxs() vec.Vec3 { return vec.Vec3{X: 1, Y: 1, Z: 1} }
func (b *box) Flags() int     { return b.size }

const boxMagic = 'X'<<24 | 'O'<<16 | 'B'<<8 | 'T' // "TBOX"

func init() {
	Register(boxMagic, func(l *Loader, name string, data []byte) (Model, error) {
		return &box{name, len(data)}, nil
	})
}

func gameFS(t *testing.T, files ...string) *filesystem.FS {
	t.Helper()
	base := t.TempDir()
	for _, f := range files {
		p := filepath.Join(base, filesystem.DefaultGame, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		// only .box files carry the registered magic
		data := []byte("TBOX" + f)
		if filesystem.Ext(f) != ".box" {
			data = []byte("text " + f)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs := filesystem.New()
	t.Cleanup(func() { fs.Close() })
	if err := fs.UseBaseDir(base); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLocate(t *testing.T) {
	tests := []struct {
		files []string
		want  Triplet
	}{
		{
			[]string{"m/a.mdl", "m/a.vvd", "m/a.dx80.vtx", "m/a.dx90.vtx"},
			Triplet{"m/a.mdl", "m/a.vvd", "m/a.dx90.vtx"},
		},
		{
			[]string{"m/a.mdl", "m/a.sw.vtx"},
			Triplet{"m/a.mdl", "", "m/a.sw.vtx"},
		},
		{
			[]string{"m/a.mdl", "m/a.vvd.gz", "m/a.vtx.zst"},
			Triplet{"m/a.mdl", "m/a.vvd", "m/a.vtx"},
		},
		{
			[]string{"m/a.mdl"},
			Triplet{MDL: "m/a.mdl"},
		},
	}
	for i, tc := range tests {
		if got := Locate(gameFS(t, tc.files...), "m/a.mdl"); got != tc.want {
			t.Errorf("Testcase %d: got %+v, want %+v", i, got, tc.want)
		}
	}
}

func TestLoadRegistry(t *testing.T) {
	l := &Loader{FS: gameFS(t, "m/a.box", "m/b.txt")}
	m, err := l.Load("m/a.box")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "m/a.box" || m.Flags() != len("TBOXm/a.box") {
		t.Errorf("got %+v", m)
	}
	if _, err := l.Load("m/b.txt"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("unregistered magic: %v", err)
	}
	if _, err := l.Load("m/none.box"); !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("missing file: %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	a := Key(Options{}, []byte("ab"), []byte("c"))
	tests := []struct {
		key  uint64
		same bool
	}{
		{Key(Options{}, []byte("ab"), []byte("c")), true},
		{Key(Options{}, []byte("a"), []byte("bc")), false},
		{Key(Options{MaxLODs: 1}, []byte("ab"), []byte("c")), false},
		{Key(Options{IgnoreChecksums: true}, []byte("ab"), []byte("c")), false},
		{Key(Options{}, []byte("ab"), []byte("c"), nil), false},
	}
	for i, tc := range tests {
		if (tc.key == a) != tc.same {
			t.Errorf("Testcase %d: key %x vs %x", i, tc.key, a)
		}
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	m := &box{name: "x"}
	if _, ok := c.Get(1); ok {
		t.Errorf("empty cache hit")
	}
	c.Put(1, m)
	if got, ok := c.Get(1); !ok || got != m {
		t.Errorf("got %v %v", got, ok)
	}
	if h, ms, n := c.Stats(); h != 1 || ms != 1 || n != 1 {
		t.Errorf("stats %d %d %d", h, ms, n)
	}
	c.Clear()
	if _, _, n := c.Stats(); n != 0 {
		t.Errorf("%d after Clear", n)
	}
}
