// SPDX-License-Identifier: GPL-2.0-or-later

// Package filesystem resolves game relative paths against a base game
// directory, an optional mod directory and the VPK archives inside them.
// Files stored with a .gz or .zst suffix are decompressed on open.
package filesystem

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"gostudio/filesystem/vfs"
	"gostudio/vpk"
)

// DefaultGame is the game directory used when no other is selected.
const DefaultGame = "hl2"

type File interface {
	io.ReadSeekCloser
	io.ReaderAt
}

// FS is a lookup namespace. The zero value is not usable; call New.
type FS struct {
	mutex   sync.RWMutex
	baseDir string
	gameDir string
	ns      vfs.NameSpace
	packs   []*vpk.Pack
}

func New() *FS {
	return &FS{ns: vfs.NameSpace{}}
}

type packFileSystem struct {
	p *vpk.Pack
}

type fileInfo struct {
	name string
	size int64
}

func (f *fileInfo) Name() string       { return f.name }
func (f *fileInfo) Size() int64        { return f.size }
func (f *fileInfo) Mode() fs.FileMode  { return 0 }
func (f *fileInfo) ModTime() time.Time { return time.Time{} }
func (f *fileInfo) IsDir() bool        { return false }
func (f *fileInfo) Sys() any           { return nil }

func (p packFileSystem) Open(path string) (io.ReadSeekCloser, error) {
	// inside a pack file there is no 'root'. all files are relative to '.'
	return p.p.Open(strings.TrimPrefix(path, "/"))
}

func (p packFileSystem) Stat(name string) (os.FileInfo, error) {
	name = strings.TrimPrefix(name, "/")
	n, ok := p.p.Size(name)
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return &fileInfo{name: path.Base(name), size: n}, nil
}

func (p packFileSystem) String() string {
	return p.p.String()
}

func (f *FS) GameDir() string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.gameDir
}

func (f *FS) BaseDir() string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.baseDir
}

// UseBaseDir discards all bindings and mounts dir/DefaultGame together with
// its VPK archives.
func (f *FS) UseBaseDir(dir string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closePacks()
	f.baseDir = dir
	f.gameDir = filepath.Join(dir, DefaultGame)
	f.ns = vfs.NameSpace{}
	f.ns.Bind("/", vfs.OS(f.gameDir), "/", vfs.BindReplace)
	return f.useDir(f.gameDir)
}

// UseGameDir mounts the mod directory game of the base dir in front of the
// default game.
func (f *FS) UseGameDir(game string) error {
	if game == "" || game == DefaultGame {
		return f.UseBaseDir(f.BaseDir())
	}
	if err := f.UseBaseDir(f.BaseDir()); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.gameDir = filepath.Join(f.baseDir, game)
	f.ns.Bind("/", vfs.OS(f.gameDir), "/", vfs.BindBefore)
	return f.useDir(f.gameDir)
}

// AddVPK mounts a single directory file with the highest priority.
func (f *FS) AddVPK(name string) error {
	p, err := vpk.NewPackReader(name)
	if err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.packs = append(f.packs, p)
	f.ns.Bind("/", packFileSystem{p}, "/", vfs.BindBefore)
	return nil
}

func (f *FS) useDir(dir string) error {
	// Directory files are bound in name order so that pak02 beats pak01.
	names, err := filepath.Glob(filepath.Join(dir, "*_dir.vpk"))
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, n := range names {
		p, err := vpk.NewPackReader(n)
		if err != nil {
			return err
		}
		f.packs = append(f.packs, p)
		f.ns.Bind("/", packFileSystem{p}, "/", vfs.BindBefore)
	}
	return nil
}

func (f *FS) closePacks() {
	for _, p := range f.packs {
		p.Close()
	}
	f.packs = nil
}

// Close releases every opened archive.
func (f *FS) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closePacks()
	f.ns = vfs.NameSpace{}
	return nil
}

// Mounts lists the file systems consulted for name, for diagnostics.
func (f *FS) Mounts(name string) []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.ns.Mounts(name)
}

func (f *FS) Stat(name string) (os.FileInfo, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.ns.Stat(path.Join("/", strings.ReplaceAll(name, "\\", "/")))
}

// Open returns name, or its decompressed name.gz or name.zst sibling.
func (f *FS) Open(name string) (File, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	name = path.Join("/", strings.ReplaceAll(name, "\\", "/"))
	nf, err := f.ns.Open(name)
	if err == nil {
		return asFile(nf)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	for _, ext := range []string{".gz", ".zst"} {
		cf, cerr := f.ns.Open(name + ext)
		if cerr != nil {
			continue
		}
		b, cerr := Decompress(name+ext, cf)
		cf.Close()
		if cerr != nil {
			return nil, cerr
		}
		return nopCloser{bytes.NewReader(b)}, nil
	}
	return nil, err
}

func asFile(nf io.ReadSeekCloser) (File, error) {
	if f, ok := nf.(File); ok {
		return f, nil
	}
	defer nf.Close()
	b, err := io.ReadAll(nf)
	if err != nil {
		return nil, err
	}
	return nopCloser{bytes.NewReader(b)}, nil
}

func (f *FS) ReadFile(name string) ([]byte, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// Decompress reads r fully, inflating it when name ends in .gz or .zst.
func Decompress(name string, r io.Reader) ([]byte, error) {
	switch Ext(name) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip %s", name)
		}
		defer zr.Close()
		b, err := io.ReadAll(zr)
		return b, errors.Wrapf(err, "gzip %s", name)
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "zstd %s", name)
		}
		defer zr.Close()
		b, err := io.ReadAll(zr)
		return b, errors.Wrapf(err, "zstd %s", name)
	}
	return io.ReadAll(r)
}

func isSep(c uint8) bool {
	return c == '/' || c == '\\'
}

func Ext(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func StripExt(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
