// SPDX-License-Identifier: GPL-2.0-or-later

// Package batch decodes many models with a bounded worker pool. Each job
// reads its own buffers, so workers share nothing but the loader cache.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gostudio/conlog"
	"gostudio/filesystem"
	"gostudio/glb"
	"gostudio/model"
	"gostudio/studio"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Loader *model.Loader
	// OutputDir receives one .glb per model when Export is set.
	OutputDir string
	Export    bool
	GLB       glb.Options
	Workers   int
	// Progress is the interval of progress lines, 0 disables them.
	Progress time.Duration
}

// Result holds the outcome of processing one model.
type Result struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Output  string    `json:"output,omitempty"`

	Bones      int `json:"bones"`
	Sequences  int `json:"sequences"`
	Animations int `json:"animations"`
	BodyParts  int `json:"body_parts"`
	Vertices   int `json:"vertices"`
	Triangles  int `json:"triangles"`

	Duration time.Duration `json:"duration_ns"`
}

// Run processes all names and returns one result per name in input order.
// After ctx is done no new jobs start; the remaining results carry the
// context error.
func Run(ctx context.Context, cfg Config, names []string) *Manifest {
	m := &Manifest{Started: time.Now().UTC()}
	m.RunID = newID()
	total := len(names)
	results := make([]Result, total)
	var processed atomic.Int64

	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(m.Started).Seconds()
						conlog.Printf("  [%d/%d] %.1f models/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	workers := max(cfg.Workers, 1)
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = process(cfg, names[idx])
				processed.Add(1)
			}
		}()
	}

	sent := 0
send:
	for ; sent < total; sent++ {
		select {
		case <-ctx.Done():
			break send
		case jobs <- sent:
		}
	}
	close(jobs)
	wg.Wait()
	close(done)

	for i := sent; i < total; i++ {
		results[i] = Result{ID: newID(), Name: names[i], Error: ctx.Err().Error()}
	}
	m.Finished = time.Now().UTC()
	m.Results = results
	return m
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func process(cfg Config, name string) (r Result) {
	start := time.Now()
	r = Result{ID: newID(), Name: name}
	defer func() { r.Duration = time.Since(start) }()

	mod, err := cfg.Loader.Load(name)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	if sm, ok := mod.(*studio.Model); ok {
		count(&r, sm)
		if cfg.Export {
			out := filepath.Join(cfg.OutputDir, filepath.FromSlash(filesystem.StripExt(name))+".glb")
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				r.Error = err.Error()
				return r
			}
			if err := glb.Save(out, sm, cfg.GLB); err != nil {
				r.Error = err.Error()
				return r
			}
			r.Output = out
		}
	}
	r.Success = true
	return r
}

func count(r *Result, m *studio.Model) {
	r.Bones = len(m.Skeleton.Bones)
	r.Sequences = len(m.Sequences)
	r.Animations = len(m.Animations)
	r.BodyParts = len(m.BodyParts)
	for _, bp := range m.BodyParts {
		for _, sm := range bp.Models {
			if len(sm.LODs) == 0 {
				continue
			}
			l := &sm.LODs[0]
			r.Vertices += len(l.Vertices)
			for _, mesh := range l.Meshes {
				r.Triangles += len(mesh.Indices) / 3
			}
		}
	}
}
