// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"gostudio/batch"
	"gostudio/commandline"
	"gostudio/conlog"
	"gostudio/config"
	"gostudio/filesystem"
	"gostudio/glb"
	"gostudio/model"
	"gostudio/report"
	"gostudio/studio"
)

const usage = `usage: gostudio [flags] command args...

commands:
  inspect <model.mdl>...        print a JSON summary of each model
  export <model.mdl> [out.glb]  convert a model to binary glTF
  batch <model.mdl>...          decode models in parallel and write a manifest
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	cfg, err := loadConfig()
	if err == nil {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = run(ctx, cfg, flag.Args(), os.Stdout)
		stop()
	}
	if err != nil {
		conlog.Printf("%v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	var cfg config.Config
	if p := commandline.Config(); p != "" {
		c, err := config.Load(p)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	flags := config.Flags{
		BaseDir:          commandline.BaseDirectory(),
		Game:             commandline.Game(),
		VPKs:             commandline.VPKs(),
		OutputDir:        commandline.Out(),
		MaxLODs:          commandline.LOD(),
		IgnoreChecksums:  commandline.IgnoreChecksums(),
		CompressManifest: commandline.Compress(),
		Debug:            commandline.Debug(),
	}
	if commandline.Parallel() {
		flags.Workers = commandline.ParallelNum()
	}
	cfg.Resolve(flags)
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, args []string, w io.Writer) error {
	if len(args) < 2 {
		return errors.New(usage)
	}
	if cfg.Debug {
		conlog.SetDebugPrintf(log.Printf)
	}
	fs := filesystem.New()
	defer fs.Close()
	if err := fs.UseBaseDir(cfg.BaseDir); err != nil {
		return err
	}
	if err := fs.UseGameDir(cfg.Game); err != nil {
		return err
	}
	for _, v := range cfg.VPKs {
		if err := fs.AddVPK(v); err != nil {
			return err
		}
	}
	l := &model.Loader{
		FS:      fs,
		Options: model.Options{MaxLODs: cfg.MaxLODs, IgnoreChecksums: cfg.IgnoreChecksums},
		Cache:   model.NewCache(),
	}

	switch args[0] {
	case "inspect":
		return inspect(l, args[1:], w)
	case "export":
		return export(l, cfg, args[1:], w)
	case "batch":
		return runBatch(ctx, l, cfg, args[1:], w)
	}
	return errors.Errorf("unknown command %q\n%s", args[0], usage)
}

func loadStudio(l *model.Loader, name string) (*studio.Model, error) {
	m, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	sm, ok := m.(*studio.Model)
	if !ok {
		return nil, errors.Errorf("%s is not a studio model", name)
	}
	return sm, nil
}

func inspect(l *model.Loader, names []string, w io.Writer) error {
	for _, n := range names {
		m, err := loadStudio(l, n)
		if err != nil {
			return err
		}
		s, err := report.New(n, m)
		if err != nil {
			return err
		}
		b, err := report.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}

func export(l *model.Loader, cfg config.Config, args []string, w io.Writer) error {
	m, err := loadStudio(l, args[0])
	if err != nil {
		return err
	}
	out := filepath.Join(cfg.OutputDir, filepath.Base(filesystem.StripExt(args[0]))+".glb")
	if len(args) > 1 {
		out = args[1]
	}
	if err := glb.Save(out, m, glb.Options{YUp: true}); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "wrote %s\n", out)
	return err
}

func runBatch(ctx context.Context, l *model.Loader, cfg config.Config, names []string, w io.Writer) error {
	m := batch.Run(ctx, batch.Config{
		Loader:    l,
		OutputDir: cfg.OutputDir,
		Export:    true,
		GLB:       glb.Options{YUp: true},
		Workers:   cfg.Workers,
		Progress:  2 * time.Second,
	}, names)
	name := filepath.Join(cfg.OutputDir, "manifest.json")
	if cfg.CompressManifest {
		name += ".zst"
	}
	if err := batch.WriteManifest(name, m); err != nil {
		return err
	}
	hits, misses, _ := l.Cache.Stats()
	conlog.DPrintf("cache: %d hits, %d misses\n", hits, misses)
	fmt.Fprintf(w, "run %s: %d models, %d failed, manifest %s\n", m.RunID, len(m.Results), m.Failed(), name)
	if n := m.Failed(); n > 0 {
		return errors.Errorf("%d of %d models failed", n, len(m.Results))
	}
	return nil
}
