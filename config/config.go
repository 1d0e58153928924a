// SPDX-License-Identifier: GPL-2.0-or-later

// Package config reads the optional JSON configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"gostudio/filesystem"
)

// Config holds the settings shared by all subcommands.
type Config struct {
	// Paths
	BaseDir   string   `json:"base_dir"`
	Game      string   `json:"game"`
	VPKs      []string `json:"vpks"`
	OutputDir string   `json:"output_dir"`

	// Decode settings
	MaxLODs         int  `json:"max_lods"`
	IgnoreChecksums bool `json:"ignore_checksums"`

	// Batch settings
	Workers          int  `json:"workers"`
	CompressManifest bool `json:"compress_manifest"`
	Debug            bool `json:"debug"`
}

// Flags holds command line values that override config file settings.
// Zero values leave the file setting alone.
type Flags struct {
	BaseDir          string
	Game             string
	VPKs             []string
	OutputDir        string
	MaxLODs          int
	IgnoreChecksums  bool
	Workers          int
	CompressManifest bool
	Debug            bool
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// Resolve applies flags and fills in defaults. Relative VPK and output paths
// are taken relative to the base dir.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.Game != "" {
		c.Game = flags.Game
	}
	c.VPKs = append(c.VPKs, flags.VPKs...)
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.MaxLODs > 0 {
		c.MaxLODs = flags.MaxLODs
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	c.IgnoreChecksums = c.IgnoreChecksums || flags.IgnoreChecksums
	c.CompressManifest = c.CompressManifest || flags.CompressManifest
	c.Debug = c.Debug || flags.Debug

	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	if c.Game == "" {
		c.Game = filesystem.DefaultGame
	}
	for i, v := range c.VPKs {
		if !filepath.IsAbs(v) {
			c.VPKs[i] = filepath.Join(c.BaseDir, v)
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Workers > runtime.NumCPU()*4 {
		c.Workers = runtime.NumCPU() * 4
	}
}
