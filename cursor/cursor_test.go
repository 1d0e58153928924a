// SPDX-License-Identifier: GPL-2.0-or-later

package cursor

import (
	"testing"

	"github.com/pkg/errors"

	"gostudio/studioerr"
)

func TestReadString(t *testing.T) {
	tests := []struct {
		reader     *Cursor
		shouldFail bool
		result     string
	}{
		{
			New([]byte{'h', 'e', 'l', 'l', 'o', 0, 's', 't', 'u', 'f', 'f'}),
			false,
			string([]byte{'h', 'e', 'l', 'l', 'o'}),
		},
		{
			New([]byte{'h', 'e', 'l', 'l', 'o'}),
			true,
			"",
		},
	}
	for i, tc := range tests {
		s, err := tc.reader.ReadString()
		if err != nil {
			if !tc.shouldFail {
				t.Errorf("Testcase %d should not return error: %v", i, err)
			} else if !errors.Is(err, studioerr.ErrOutOfBounds) {
				t.Errorf("Testcase %d: got %v, want ErrOutOfBounds", i, err)
			}
			continue
		}
		if tc.shouldFail {
			t.Errorf("Testcase %d should return error", i)
			continue
		}
		if s != tc.result {
			t.Errorf("Testcase %d. got: %v, want %v", i, s, tc.result)
		}
	}
}

func TestReadFixedString(t *testing.T) {
	c := New([]byte{'r', 'o', 'o', 't', 0, 'x', 'x', 'x', 7})
	s, err := c.ReadFixedString(8)
	if err != nil {
		t.Fatalf("ReadFixedString: %v", err)
	}
	if s != "root" {
		t.Errorf("got %q, want root", s)
	}
	if c.Offset() != 8 {
		t.Errorf("Offset = %d, want 8", c.Offset())
	}
}

func TestLittleEndian(t *testing.T) {
	c := New([]byte{0x49, 0x44, 0x53, 0x54, 0xfe, 0xff, 0x00, 0x00, 0x80, 0x3f})
	id, err := c.ReadInt32()
	if err != nil || id != 0x54534449 {
		t.Errorf("ReadInt32 = %x, %v", id, err)
	}
	s, err := c.ReadInt16()
	if err != nil || s != -2 {
		t.Errorf("ReadInt16 = %v, %v", s, err)
	}
	c.Seek(6)
	f, err := c.ReadFloat32()
	if err != nil || f != 1 {
		t.Errorf("ReadFloat32 = %v, %v", f, err)
	}
}

func TestOutOfBoundsKeepsPosition(t *testing.T) {
	c := New([]byte{1, 2, 3})
	c.Skip(1)
	if _, err := c.ReadInt32(); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("ReadInt32 past end: %v", err)
	}
	if c.Offset() != 1 {
		t.Errorf("Offset after failed read = %d, want 1", c.Offset())
	}
	if err := c.Seek(4); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("Seek past end: %v", err)
	}
	if err := c.Seek(3); err != nil {
		t.Errorf("Seek to end: %v", err)
	}
}

func TestAtRestores(t *testing.T) {
	c := New([]byte{1, 0, 2, 0, 3, 0})
	c.Skip(2)
	var v int16
	err := c.At(4, func() error {
		var err error
		v, err = c.ReadInt16()
		return err
	})
	if err != nil || v != 3 {
		t.Errorf("At read %v, %v", v, err)
	}
	if c.Offset() != 2 {
		t.Errorf("Offset after At = %d, want 2", c.Offset())
	}
	err = c.At(5, func() error {
		_, err := c.ReadInt16()
		return err
	})
	if !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("At past end: %v", err)
	}
	if c.Offset() != 2 {
		t.Errorf("Offset after failed At = %d, want 2", c.Offset())
	}
}

func TestTable(t *testing.T) {
	data := []byte{0xaa, 1, 0, 2, 0, 3, 0}
	c := New(data)
	var got []int16
	err := c.Table(3, 1, 2, func(i int) error {
		v, err := c.ReadInt16()
		got = append(got, v)
		return err
	})
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Table read %v", got)
	}
	if c.Offset() != 0 {
		t.Errorf("Offset after Table = %d", c.Offset())
	}
	calls := 0
	err = c.Table(4, 1, 2, func(i int) error {
		calls++
		return nil
	})
	if !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("Table past end: %v", err)
	}
	if calls != 0 {
		t.Errorf("Table past end called fn %d times", calls)
	}
	if err := c.Table(0, 1000, 2, nil); err != nil {
		t.Errorf("empty table: %v", err)
	}
}

func TestFieldsSticky(t *testing.T) {
	c := New([]byte{5, 0, 0, 0, 6})
	f := c.Fields()
	a := f.Int32()
	b := f.Int32()
	d := f.Uint8()
	if a != 5 {
		t.Errorf("first field = %v", a)
	}
	if b != 0 || d != 0 {
		t.Errorf("fields after failure = %v %v", b, d)
	}
	if !errors.Is(f.Err(), studioerr.ErrOutOfBounds) {
		t.Errorf("Err = %v", f.Err())
	}
}

func TestBulk(t *testing.T) {
	c := New([]byte{0xff, 0xff, 2, 0, 0, 0, 0x80, 0x3f})
	s, err := c.ReadInt16s(2)
	if err != nil || s[0] != -1 || s[1] != 2 {
		t.Errorf("ReadInt16s = %v, %v", s, err)
	}
	fl, err := c.ReadFloat32s(1)
	if err != nil || fl[0] != 1 {
		t.Errorf("ReadFloat32s = %v, %v", fl, err)
	}
	if _, err := c.ReadInt16s(1); !errors.Is(err, studioerr.ErrOutOfBounds) {
		t.Errorf("ReadInt16s past end: %v", err)
	}
}

func TestBulkCounts(t *testing.T) {
	c := New(make([]byte, 8))
	reads := []func(n int) error{
		func(n int) error { _, err := c.ReadInt16s(n); return err },
		func(n int) error { _, err := c.ReadUint16s(n); return err },
		func(n int) error { _, err := c.ReadInt32s(n); return err },
		func(n int) error { _, err := c.ReadFloat32s(n); return err },
	}
	// counts far beyond the buffer must fail before anything is allocated
	for i, read := range reads {
		for _, n := range []int{-1, 1 << 40, 1<<62 / 4} {
			if err := read(n); !errors.Is(err, studioerr.ErrOutOfBounds) {
				t.Errorf("Testcase %d: %d elements: %v", i, n, err)
			}
		}
		if c.Offset() != 0 {
			t.Errorf("Testcase %d: cursor moved to %d", i, c.Offset())
		}
		if err := read(2); err != nil {
			t.Errorf("Testcase %d: %v", i, err)
		}
		c.Seek(0)
	}
}
