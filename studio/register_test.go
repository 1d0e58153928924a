// SPDX-License-Identifier: GPL-2.0-or-later

package studio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"gostudio/filesystem"
	"gostudio/model"
	"gostudio/studioerr"
	"gostudio/studiotest"
)

func loader(t *testing.T, f *studiotest.Fixture) *model.Loader {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, filesystem.DefaultGame, "models", "test")
	if err := f.Build().WriteDir(dir, "quad"); err != nil {
		t.Fatal(err)
	}
	fs := filesystem.New()
	t.Cleanup(func() { fs.Close() })
	if err := fs.UseBaseDir(base); err != nil {
		t.Fatal(err)
	}
	return &model.Loader{FS: fs, Cache: model.NewCache()}
}

func TestLoad(t *testing.T) {
	l := loader(t, studiotest.New())
	m, err := l.Load("models/test/quad.mdl")
	if err != nil {
		t.Fatal(err)
	}
	sm, ok := m.(*Model)
	if !ok {
		t.Fatalf("got %T", m)
	}
	if sm.Name() != "test/quad.mdl" {
		t.Errorf("name %q", sm.Name())
	}
	if got := len(sm.BodyParts[0].Models[0].LODs); got != 2 {
		t.Errorf("%d LODs", got)
	}
	again, err := l.Load("models/test/quad.mdl")
	if err != nil {
		t.Fatal(err)
	}
	if again != m {
		t.Errorf("second load was not served from the cache")
	}
	if hits, misses, size := l.Cache.Stats(); hits != 1 || misses != 1 || size != 1 {
		t.Errorf("cache stats %d %d %d", hits, misses, size)
	}
}

func TestLoadOptionsKey(t *testing.T) {
	l := loader(t, studiotest.New())
	a, err := l.Load("models/test/quad.mdl")
	if err != nil {
		t.Fatal(err)
	}
	l.Options.MaxLODs = 1
	b, err := l.Load("models/test/quad.mdl")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("options did not change the cache key")
	}
	if got := len(b.(*Model).BodyParts[0].Models[0].LODs); got != 1 {
		t.Errorf("%d LODs", got)
	}
}

func TestLoadChecksum(t *testing.T) {
	f := studiotest.New()
	f.VTXChecksum = 1
	l := loader(t, f)
	if _, err := l.Load("models/test/quad.mdl"); !errors.Is(err, studioerr.ErrChecksumMismatch) {
		t.Errorf("got %v, want ErrChecksumMismatch", err)
	}
	l.Options.IgnoreChecksums = true
	if _, err := l.Load("models/test/quad.mdl"); err != nil {
		t.Errorf("ignoring checksums: %v", err)
	}
}

func TestLoadMissingVertices(t *testing.T) {
	l := loader(t, studiotest.New())
	if err := os.Remove(filepath.Join(l.FS.GameDir(), "models", "test", "quad.vvd")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load("models/test/quad.mdl"); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("got %v, want ErrOutOfBounds", err)
	}
}
