// SPDX-License-Identifier: GPL-2.0-or-later

package vvd

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"gostudio/studioerr"
)

type testVertex struct {
	bones   []uint8
	weights []float32
	x       float32
}

// build writes a vvd file with the given vertices and fixups
// (lod, source, count triples).
func build(numLODs int, verts []testVertex, fixups ...[3]int32) []byte {
	b := make([]byte, HeaderSize)
	le := binary.LittleEndian
	put := func(off int, v uint32) { le.PutUint32(b[off:], v) }
	put(0, Magic)
	put(4, Version)
	put(8, 0x1234)
	put(12, uint32(numLODs))
	for i := 0; i < numLODs; i++ {
		put(16+4*i, uint32(len(verts)))
	}
	put(48, uint32(len(fixups)))
	put(52, uint32(len(b)))
	for _, x := range fixups {
		for _, v := range x {
			b = le.AppendUint32(b, uint32(v))
		}
	}
	put(56, uint32(len(b)))
	for _, v := range verts {
		r := make([]byte, VertexSize)
		for j, w := range v.weights {
			le.PutUint32(r[4*j:], math.Float32bits(w))
		}
		copy(r[12:], v.bones)
		r[15] = byte(len(v.bones))
		le.PutUint32(r[16:], math.Float32bits(v.x))
		b = append(b, r...)
	}
	return b
}

func plain(n int) []testVertex {
	v := make([]testVertex, n)
	for i := range v {
		v[i] = testVertex{bones: []uint8{0}, weights: []float32{1}, x: float32(i)}
	}
	return v
}

func TestFixups(t *testing.T) {
	data := build(2, plain(8), [3]int32{0, 0, 5}, [3]int32{1, 5, 3})
	f, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	lod0, err := f.LODOrder(0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lod0, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("lod 0 = %v", lod0)
	}
	lod1, err := f.LODVertices(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lod1) != 3 || lod1[0].Position.X != 5 || lod1[2].Position.X != 7 {
		t.Errorf("lod 1 = %+v", lod1)
	}
	r, err := f.Remap(1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r, []int{-1, -1, -1, -1, -1, 0, 1, 2}) {
		t.Errorf("remap 1 = %v", r)
	}
	if _, err := f.LODOrder(2); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("lod 2: %v", err)
	}

	lods, err := DecodeVertices(data, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(lods) != 2 || len(lods[0]) != 8 || len(lods[1]) != 3 {
		t.Errorf("DecodeVertices lengths %d", len(lods))
	}
}

func TestNoFixups(t *testing.T) {
	f, err := Decode(build(3, plain(4)))
	if err != nil {
		t.Fatal(err)
	}
	for lod := 0; lod < 3; lod++ {
		ids, err := f.LODOrder(lod)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids, []int{0, 1, 2, 3}) {
			t.Errorf("lod %d = %v", lod, ids)
		}
	}
	if f.Tangents != nil {
		t.Errorf("unexpected tangents")
	}
}

func TestHeaderErrors(t *testing.T) {
	good := build(1, plain(1))
	badMagic := append([]byte("IDST"), good[4:]...)
	badVersion := append([]byte{}, good...)
	badVersion[4] = 6
	noLODs := append([]byte{}, good...)
	noLODs[12] = 0
	tests := []struct {
		data []byte
		want error
	}{
		{badMagic, studioerr.ErrBadMagic},
		{badVersion, studioerr.ErrUnsupportedVersion},
		{noLODs, studioerr.ErrOutOfBounds},
		{good[:3], studioerr.ErrOutOfBounds},
		{good[:40], studioerr.ErrOutOfBounds},
		{good[:len(good)-1], studioerr.ErrOutOfBounds},
		{build(1, plain(4), [3]int32{0, 2, 3}), studioerr.ErrOutOfBounds},
		{build(1, []testVertex{{bones: []uint8{0, 0, 0, 0}}}), studioerr.ErrInvalidBoneReference},
	}
	for i, tc := range tests {
		if _, err := Decode(tc.data); !errors.Is(err, tc.want) {
			t.Errorf("Testcase %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestValidateBones(t *testing.T) {
	tests := []struct {
		v    testVertex
		want error
	}{
		{testVertex{bones: []uint8{0, 1}, weights: []float32{0.25, 0.75}}, nil},
		{testVertex{}, nil},
		{testVertex{bones: []uint8{2}, weights: []float32{1}}, studioerr.ErrInvalidBoneReference},
		{testVertex{bones: []uint8{0, 1}, weights: []float32{0.5, 0.2}}, studioerr.ErrInvalidBoneReference},
	}
	for i, tc := range tests {
		f, err := Decode(build(1, []testVertex{tc.v}))
		if err != nil {
			t.Fatalf("Testcase %d: %v", i, err)
		}
		err = f.ValidateBones(2)
		if tc.want == nil && err != nil || tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("Testcase %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestDecodeVerticesBones(t *testing.T) {
	data := build(1, []testVertex{
		{bones: []uint8{0}, weights: []float32{1}},
		{bones: []uint8{0, 2}, weights: []float32{0.5, 0.5}},
	})
	tests := []struct {
		bones int
		want  error
	}{
		{3, nil},
		{2, studioerr.ErrInvalidBoneReference},
		{0, studioerr.ErrInvalidBoneReference},
	}
	for i, tc := range tests {
		lods, err := DecodeVertices(data, tc.bones)
		if tc.want != nil {
			if !errors.Is(err, tc.want) || lods != nil {
				t.Errorf("Testcase %d: got %v, want %v", i, err, tc.want)
			}
			continue
		}
		if err != nil || len(lods) != 1 || len(lods[0]) != 2 {
			t.Errorf("Testcase %d: %d lods, %v", i, len(lods), err)
		}
	}
}
