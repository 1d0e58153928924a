// SPDX-License-Identifier: GPL-2.0-or-later

package batch

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"gostudio/filesystem"
)

// Manifest records one batch run.
type Manifest struct {
	RunID    uuid.UUID `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`
}

// Failed returns the number of unsuccessful results.
func (m *Manifest) Failed() int {
	n := 0
	for _, r := range m.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// WriteManifest writes m as indented JSON to path, zstd compressed when
// path ends in .zst.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if filesystem.Ext(path) == ".zst" {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "manifest %s", path)
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = filesystem.Decompress(path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return &m, nil
}
