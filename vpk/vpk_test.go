// SPDX-License-Identifier: GPL-2.0-or-later

package vpk

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

type testFile struct {
	dir, base, ext string
	preload        []byte
	data           []byte
	archive        uint16
	crc            uint32
}

// writeVPK writes dir.vpk and the numbered archives referenced by files
// below a temp dir and returns the directory file path.
func writeVPK(t *testing.T, version uint32, files []testFile) string {
	t.Helper()
	root := t.TempDir()
	var tree, dirData bytes.Buffer
	archives := map[uint16]*bytes.Buffer{}
	str := func(s string) {
		tree.WriteString(s)
		tree.WriteByte(0)
	}
	// one extension / directory block per file keeps the writer simple
	for _, f := range files {
		str(f.ext)
		str(f.dir)
		str(f.base)
		crc := f.crc
		if crc == 0 {
			crc = crc32.ChecksumIEEE(append(append([]byte{}, f.preload...), f.data...))
		}
		dst := &dirData
		if f.archive != dirArchive {
			if archives[f.archive] == nil {
				archives[f.archive] = &bytes.Buffer{}
			}
			dst = archives[f.archive]
		}
		binary.Write(&tree, binary.LittleEndian, struct {
			CRC        uint32
			Preload    uint16
			Archive    uint16
			Offset     uint32
			Length     uint32
			Terminator uint16
		}{crc, uint16(len(f.preload)), f.archive, uint32(dst.Len()), uint32(len(f.data)), terminator})
		tree.Write(f.preload)
		dst.Write(f.data)
		str("")
		str("")
	}
	str("")

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header{Signature, version, uint32(tree.Len())})
	if version == 2 {
		out.Write(make([]byte, headerSizeV2-headerSizeV1))
	}
	out.Write(tree.Bytes())
	out.Write(dirData.Bytes())
	name := filepath.Join(root, "pak01_dir.vpk")
	if err := os.WriteFile(name, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	for i, b := range archives {
		n := filepath.Join(root, "pak01_"+[]string{"000", "001"}[i]+".vpk")
		if err := os.WriteFile(n, b.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return name
}

func TestOpen(t *testing.T) {
	files := []testFile{
		{dir: "models/props", base: "crate", ext: "mdl", data: []byte("IDST-crate"), archive: dirArchive},
		{dir: "models/props", base: "crate", ext: "vvd", preload: []byte("ID"), data: []byte("SV-crate"), archive: 0},
		{dir: " ", base: "readme", ext: "txt", preload: []byte("hello"), archive: dirArchive},
		{dir: "materials", base: "LICENSE", ext: " ", data: []byte("gpl"), archive: 1},
	}
	for _, version := range []uint32{1, 2} {
		p, err := NewPackReader(writeVPK(t, version, files))
		if err != nil {
			t.Fatalf("v%d: %v", version, err)
		}
		tests := []struct {
			name string
			want string
		}{
			{"models/props/crate.mdl", "IDST-crate"},
			{"/Models/Props/Crate.VVD", "IDSV-crate"},
			{"readme.txt", "hello"},
			{"materials/license", "gpl"},
		}
		for i, tc := range tests {
			r, err := p.Open(tc.name)
			if err != nil {
				t.Errorf("Testcase %d (v%d): %v", i, version, err)
				continue
			}
			b, _ := io.ReadAll(r)
			r.Close()
			if string(b) != tc.want {
				t.Errorf("Testcase %d (v%d): got %q, want %q", i, version, b, tc.want)
			}
			if n, ok := p.Size(tc.name); !ok || n != int64(len(tc.want)) {
				t.Errorf("Testcase %d (v%d): size %d %v", i, version, n, ok)
			}
		}
		if _, err := p.Open("models/props/missing.mdl"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("v%d: missing file: %v", version, err)
		}
		if got := len(p.Names()); got != len(files) {
			t.Errorf("v%d: %d names", version, got)
		}
		if err := p.Close(); err != nil {
			t.Errorf("v%d: close %v", version, err)
		}
	}
}

func TestBadCRC(t *testing.T) {
	p, err := NewPackReader(writeVPK(t, 2, []testFile{
		{dir: "a", base: "b", ext: "c", data: []byte("data"), archive: dirArchive, crc: 1},
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if _, err := p.Open("a/b.c"); !errors.Is(err, ErrBadCRC) {
		t.Errorf("got %v, want ErrBadCRC", err)
	}
}

func TestNotVPK(t *testing.T) {
	name := filepath.Join(t.TempDir(), "x_dir.vpk")
	tests := [][]byte{
		{},
		[]byte("PACK\x00\x00\x00\x00\x00\x00\x00\x00"),
	}
	for i, tc := range tests {
		if err := os.WriteFile(name, tc, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewPackReader(name); !errors.Is(err, ErrNotVPK) {
			t.Errorf("Testcase %d: got %v, want ErrNotVPK", i, err)
		}
	}
}
