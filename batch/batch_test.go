// SPDX-License-Identifier: GPL-2.0-or-later

package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"gostudio/filesystem"
	"gostudio/model"
	"gostudio/studiotest"
)

func setup(t *testing.T) *model.Loader {
	t.Helper()
	base := t.TempDir()
	files := studiotest.New().Build()
	for _, dir := range []string{"models/a", "models/b"} {
		if err := files.WriteDir(filepath.Join(base, filesystem.DefaultGame, dir), "quad"); err != nil {
			t.Fatal(err)
		}
	}
	fs := filesystem.New()
	t.Cleanup(func() { fs.Close() })
	if err := fs.UseBaseDir(base); err != nil {
		t.Fatal(err)
	}
	return &model.Loader{FS: fs, Cache: model.NewCache()}
}

var names = []string{"models/a/quad.mdl", "models/missing.mdl", "models/b/quad.mdl", "models/a/quad.mdl"}

func TestRun(t *testing.T) {
	out := t.TempDir()
	cfg := Config{Loader: setup(t), OutputDir: out, Export: true, Workers: 3}
	m := Run(context.Background(), cfg, names)
	if m.RunID == uuid.Nil || m.RunID.Version() != 7 {
		t.Errorf("run id %v", m.RunID)
	}
	if len(m.Results) != len(names) {
		t.Fatalf("%d results", len(m.Results))
	}
	ids := map[uuid.UUID]bool{}
	for i, r := range m.Results {
		if r.Name != names[i] {
			t.Errorf("Testcase %d: result for %q", i, r.Name)
		}
		if ids[r.ID] {
			t.Errorf("Testcase %d: duplicate id", i)
		}
		ids[r.ID] = true
		if wantOK := i != 1; r.Success != wantOK {
			t.Errorf("Testcase %d: success %v (%s)", i, r.Success, r.Error)
			continue
		}
		if !r.Success {
			continue
		}
		if r.Bones != 2 || r.BodyParts != 1 || r.Vertices != 4 || r.Triangles != 2 || r.Animations != 1 {
			t.Errorf("Testcase %d: %+v", i, r)
		}
		if _, err := os.Stat(r.Output); err != nil {
			t.Errorf("Testcase %d: %v", i, err)
		}
	}
	if got := m.Failed(); got != 1 {
		t.Errorf("%d failed", got)
	}
	// both directories hold the same bytes
	if _, _, size := cfg.Loader.Cache.Stats(); size != 1 {
		t.Errorf("cache size %d", size)
	}
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := Run(ctx, Config{Loader: setup(t), Workers: 1}, names)
	for i, r := range m.Results {
		// a job may still win the race against the closed context
		if !r.Success && r.Error != context.Canceled.Error() && i != 1 {
			t.Errorf("Testcase %d: %q", i, r.Error)
		}
	}
	if len(m.Results) != len(names) {
		t.Errorf("%d results", len(m.Results))
	}
}

func TestManifest(t *testing.T) {
	m := Run(context.Background(), Config{Loader: setup(t), Workers: 2}, names)
	for _, name := range []string{"manifest.json", "manifest.json.zst"} {
		p := filepath.Join(t.TempDir(), name)
		if err := WriteManifest(p, m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		got, err := ReadManifest(p)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.RunID != m.RunID || len(got.Results) != len(m.Results) || got.Failed() != m.Failed() {
			t.Errorf("%s: got %+v", name, got)
		}
		if got.Results[2].Vertices != m.Results[2].Vertices || !got.Finished.Equal(m.Finished) {
			t.Errorf("%s: result mismatch", name)
		}
	}
}
