// SPDX-License-Identifier: GPL-2.0-or-later

package studiotest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path"
	"sort"
	"strings"
)

// WriteVPK writes a version 2 directory file holding files, with all data
// stored in the directory file itself. Keys are slash separated paths.
func WriteVPK(name string, files map[string][]byte) error {
	var w, data bytes.Buffer
	str := func(s string) {
		w.WriteString(s)
		w.WriteByte(0)
	}
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dir, base := path.Split(k)
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			dir = " "
		}
		ext := " "
		if i := strings.LastIndexByte(base, '.'); i >= 0 {
			base, ext = base[:i], base[i+1:]
		}
		str(ext)
		str(dir)
		str(base)
		b := files[k]
		binary.Write(&w, binary.LittleEndian, struct {
			CRC        uint32
			Preload    uint16
			Archive    uint16
			Offset     uint32
			Length     uint32
			Terminator uint16
		}{crc32.ChecksumIEEE(b), 0, 0x7fff, uint32(data.Len()), uint32(len(b)), 0xffff})
		data.Write(b)
		str("")
		str("")
	}
	str("")

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, [7]uint32{0x55aa1234, 2, uint32(w.Len())})
	out.Write(w.Bytes())
	out.Write(data.Bytes())
	return os.WriteFile(name, out.Bytes(), 0o644)
}
