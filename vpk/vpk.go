// SPDX-License-Identifier: GPL-2.0-or-later

// Package vpk reads Valve pack files. Only the directory file (*_dir.vpk) is
// opened eagerly; numbered archives are opened on first use.
package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"gostudio/cursor"
)

const (
	Signature = 0x55aa1234

	headerSizeV1 = 12
	headerSizeV2 = 28

	// dirArchive marks entries stored in the directory file itself.
	dirArchive = 0x7fff
	terminator = 0xffff
)

var (
	ErrNotVPK     = errors.New("not a vpk")
	ErrBadCRC     = errors.New("crc mismatch")
	errDuplicated = errors.New("files in vpk are not unique")
)

type header struct {
	Signature uint32
	Version   uint32
	TreeSize  uint32
}

type entry struct {
	crc     uint32
	preload []byte
	archive uint16
	offset  int64
	size    int64
}

// Pack is an opened VPK directory. It is safe for concurrent use.
type Pack struct {
	name     string
	prefix   string
	dataBase int64
	files    map[string]*entry

	mu       sync.Mutex
	archives map[uint16]*os.File
}

// Open returns the content of name or os.ErrNotExist. Names are matched
// case insensitively with '/' separators.
func (p *Pack) Open(name string) (io.ReadSeekCloser, error) {
	e, ok := p.files[key(name)]
	if !ok {
		return nil, os.ErrNotExist
	}
	b, err := p.read(e)
	if err != nil {
		return nil, errors.Wrapf(err, "vpk %s: %s", p.name, name)
	}
	return nopCloser{bytes.NewReader(b)}, nil
}

// Size returns the unpacked size of name.
func (p *Pack) Size(name string) (int64, bool) {
	e, ok := p.files[key(name)]
	if !ok {
		return 0, false
	}
	return int64(len(e.preload)) + e.size, true
}

// Names lists every file in the pack, sorted.
func (p *Pack) Names() []string {
	r := make([]string, 0, len(p.files))
	for n := range p.files {
		r = append(r, n)
	}
	sort.Strings(r)
	return r
}

func (p *Pack) String() string {
	return p.name
}

func (p *Pack) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	for i, f := range p.archives {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(p.archives, i)
	}
	return err
}

func (p *Pack) archive(i uint16) (*os.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.archives[i]; ok {
		return f, nil
	}
	name := p.name
	if i != dirArchive {
		name = fmt.Sprintf("%s_%03d.vpk", p.prefix, i)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	p.archives[i] = f
	return f, nil
}

func (p *Pack) read(e *entry) ([]byte, error) {
	b := make([]byte, int64(len(e.preload))+e.size)
	copy(b, e.preload)
	if e.size > 0 {
		f, err := p.archive(e.archive)
		if err != nil {
			return nil, err
		}
		off := e.offset
		if e.archive == dirArchive {
			off += p.dataBase
		}
		if _, err := f.ReadAt(b[len(e.preload):], off); err != nil {
			return nil, err
		}
	}
	if crc32.ChecksumIEEE(b) != e.crc {
		return nil, ErrBadCRC
	}
	return b, nil
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Clean("/"+name), "/"))
}

// NewPackReader opens the directory file name, which must end in _dir.vpk
// for numbered archives to be found.
func NewPackReader(name string) (*Pack, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	p := &Pack{
		name:     name,
		prefix:   strings.TrimSuffix(name, "_dir.vpk"),
		archives: map[uint16]*os.File{dirArchive: f},
	}
	if err := p.init(f); err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "vpk %s", name)
	}
	return p, nil
}

func (p *Pack) init(f *os.File) error {
	var h header
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return errors.Wrap(ErrNotVPK, err.Error())
	}
	if h.Signature != Signature {
		return ErrNotVPK
	}
	var hs int64
	switch h.Version {
	case 1:
		hs = headerSizeV1
	case 2:
		hs = headerSizeV2
	default:
		return errors.Errorf("unsupported version %d", h.Version)
	}
	tree := make([]byte, h.TreeSize)
	if _, err := f.ReadAt(tree, hs); err != nil {
		return errors.Wrap(err, "reading tree")
	}
	p.dataBase = hs + int64(h.TreeSize)
	files, err := readTree(cursor.New(tree))
	if err != nil {
		return err
	}
	p.files = files
	return nil
}

// readTree walks the extension / directory / name string loops.
func readTree(c *cursor.Cursor) (map[string]*entry, error) {
	files := make(map[string]*entry)
	for {
		ext, err := c.ReadString()
		if err != nil || ext == "" {
			return files, err
		}
		for {
			dir, err := c.ReadString()
			if err != nil {
				return nil, err
			}
			if dir == "" {
				break
			}
			for {
				base, err := c.ReadString()
				if err != nil {
					return nil, err
				}
				if base == "" {
					break
				}
				e, err := readEntry(c)
				if err != nil {
					return nil, errors.Wrapf(err, "entry %s/%s.%s", dir, base, ext)
				}
				n := key(joinName(dir, base, ext))
				if files[n] != nil {
					return nil, errors.Wrap(errDuplicated, n)
				}
				files[n] = e
			}
		}
	}
}

func joinName(dir, base, ext string) string {
	n := base
	if ext != " " {
		n += "." + ext
	}
	if dir != " " {
		n = dir + "/" + n
	}
	return n
}

func readEntry(c *cursor.Cursor) (*entry, error) {
	var raw struct {
		CRC        uint32
		Preload    uint16
		Archive    uint16
		Offset     uint32
		Length     uint32
		Terminator uint16
	}
	if err := c.Read(&raw); err != nil {
		return nil, err
	}
	if raw.Terminator != terminator {
		return nil, errors.Errorf("bad entry terminator %#x", raw.Terminator)
	}
	pre, err := c.ReadBytes(int(raw.Preload))
	if err != nil {
		return nil, err
	}
	return &entry{
		crc:     raw.CRC,
		preload: pre,
		archive: raw.Archive,
		offset:  int64(raw.Offset),
		size:    int64(raw.Length),
	}, nil
}
