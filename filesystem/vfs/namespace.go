// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import (
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"strings"
)

// A NameSpace is a file system made up of other file systems mounted at
// specific locations. Several file systems may share a mount point; lookups
// try them in order and the first one holding the path wins.
//
//	ns := NameSpace{}
//	ns.Bind("/", OS(`hl2`), "/", BindReplace)
//	ns.Bind("/", vpkFS, "/", BindBefore)
//
// Here a file is first looked up in the pack and then in the directory.
// A mount entry (old, fs, new) means that a path beginning with old has
// that prefix replaced by new before it is passed to fs. ns[mtpt][i].old is
// always mtpt.
type NameSpace map[string][]mountedFS

type mountedFS struct {
	old string
	fs  FileSystem
	new string
}

// hasPathPrefix reports whether x == y or x == y + "/" + more.
func hasPathPrefix(x, y string) bool {
	if !strings.HasPrefix(x, y) {
		return false
	}
	return len(x) == len(y) || strings.HasSuffix(y, "/") || x[len(y)] == '/'
}

// translate maps path, which must lie below m.old, into m.fs.
func (m mountedFS) translate(path string) string {
	path = clean(path)
	if !hasPathPrefix(path, m.old) {
		panic("translate " + path + " but old=" + m.old)
	}
	return pathpkg.Join(m.new, path[len(m.old):])
}

func clean(path string) string {
	return pathpkg.Clean("/" + path)
}

func (NameSpace) String() string {
	return "ns"
}

type BindMode int

const (
	// BindReplace discards earlier bindings at the mount point.
	BindReplace BindMode = iota
	// BindBefore consults the new file system first.
	BindBefore
	// BindAfter consults the new file system only if the existing ones
	// fail.
	BindAfter
)

// Bind makes old refer to the path new in newfs.
func (ns NameSpace) Bind(old string, newfs FileSystem, new string, mode BindMode) {
	old, new = clean(old), clean(new)
	m := mountedFS{old, newfs, new}
	var inherited []mountedFS
	if mode != BindReplace {
		// Entries of a parent mount point are rewritten for old.
		for _, p := range ns.resolve(old) {
			if p.old != old {
				if !hasPathPrefix(old, p.old) {
					panic(fmt.Sprintf("invalid Bind: old=%q m={%q, %s, %q}", old, p.old, p.fs.String(), p.new))
				}
				suffix := old[len(p.old):]
				p.old = pathpkg.Join(p.old, suffix)
				p.new = pathpkg.Join(p.new, suffix)
			}
			inherited = append(inherited, p)
		}
	}
	switch mode {
	case BindBefore:
		ns[old] = append([]mountedFS{m}, inherited...)
	case BindAfter:
		ns[old] = append(inherited, m)
	default:
		ns[old] = []mountedFS{m}
	}
}

// resolve returns the mount entries of the longest mount point above path.
func (ns NameSpace) resolve(path string) []mountedFS {
	for path = clean(path); ; path = pathpkg.Dir(path) {
		if m := ns[path]; m != nil {
			return m
		}
		if path == "/" {
			return nil
		}
	}
}

// Open implements the FileSystem Open method.
func (ns NameSpace) Open(path string) (io.ReadSeekCloser, error) {
	var err error
	for _, m := range ns.resolve(path) {
		r, err1 := m.fs.Open(m.translate(path))
		if err1 == nil {
			return r, nil
		}
		// A missing file in one layer must not hide a real error in another.
		if err == nil || os.IsNotExist(err) {
			err = err1
		}
	}
	if err == nil {
		err = &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return nil, err
}

// Stat implements the FileSystem Stat method.
func (ns NameSpace) Stat(path string) (os.FileInfo, error) {
	var err error
	for _, m := range ns.resolve(path) {
		fi, err1 := m.fs.Stat(m.translate(path))
		if err1 == nil {
			return fi, nil
		}
		if err == nil {
			err = err1
		}
	}
	if err == nil {
		err = &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	return nil, err
}

// Mounts returns the names of the file systems consulted for path, in
// lookup order.
func (ns NameSpace) Mounts(path string) []string {
	var r []string
	for _, m := range ns.resolve(path) {
		r = append(r, m.fs.String())
	}
	return r
}
