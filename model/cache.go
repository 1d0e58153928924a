// SPDX-License-Identifier: GPL-2.0-or-later

package model

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Cache holds decoded models keyed by the hash of their input files. It is
// safe for concurrent use.
type Cache struct {
	mutex  sync.Mutex
	models map[uint64]Model
	hits   int
	misses int
}

func NewCache() *Cache {
	return &Cache{models: make(map[uint64]Model)}
}

// Key hashes the options together with every input buffer. Buffers are
// length prefixed so that moving bytes between them changes the key.
func Key(opts Options, data ...[]byte) uint64 {
	d := xxhash.New()
	var b [8]byte
	binary.LittleEndian.PutUint32(b[:], uint32(opts.MaxLODs))
	if opts.IgnoreChecksums {
		b[4] = 1
	}
	d.Write(b[:])
	for _, p := range data {
		binary.LittleEndian.PutUint64(b[:], uint64(len(p)))
		d.Write(b[:])
		d.Write(p)
	}
	return d.Sum64()
}

func (c *Cache) Get(key uint64) (Model, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	m, ok := c.models[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

func (c *Cache) Put(key uint64, m Model) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.models[key] = m
}

// Stats returns the number of hits and misses and the cached model count.
func (c *Cache) Stats() (hits, misses, size int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.hits, c.misses, len(c.models)
}

func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.models = make(map[uint64]Model)
}
