// SPDX-License-Identifier: GPL-2.0-or-later

package mdl

import (
	"strings"

	"github.com/pkg/errors"

	"gostudio/cursor"
	"gostudio/math/vec"
	"gostudio/studioerr"
)

// SeqFlags are shared by sequence and animation descriptors.
type SeqFlags uint32

const (
	SeqLooping   SeqFlags = 0x0001
	SeqSnap      SeqFlags = 0x0002
	SeqDelta     SeqFlags = 0x0004
	SeqAutoplay  SeqFlags = 0x0008
	SeqPost      SeqFlags = 0x0010
	SeqAllZeros  SeqFlags = 0x0020
	SeqCyclePose SeqFlags = 0x0080
	SeqRealtime  SeqFlags = 0x0100
	SeqLocal     SeqFlags = 0x0200
	SeqHidden    SeqFlags = 0x0400
	SeqOverride  SeqFlags = 0x0800
	SeqActivity  SeqFlags = 0x1000
	SeqEvent     SeqFlags = 0x2000
	SeqWorld     SeqFlags = 0x4000
)

func (f SeqFlags) Has(o SeqFlags) bool {
	return f&o == o
}

type Event struct {
	Cycle   float32
	Event   int
	Type    int
	Options string
	Name    string
}

type Sequence struct {
	Label          string
	Activity       string
	Flags          SeqFlags
	ActivityID     int
	ActivityWeight int
	Events         []Event
	BBMin, BBMax   vec.Vec3

	NumBlends  int
	GroupSize  [2]int
	ParamIndex [2]int
	ParamStart [2]float32
	ParamEnd   [2]float32
	// Blends is the groupsize[0] x groupsize[1] grid of animation indices.
	Blends []int
	// Animation is the first entry of Blends or -1.
	Animation int

	FadeIn, FadeOut float32
	EntryNode       int
	ExitNode        int
	NodeFlags       int
	NextSequence    int

	// Weights holds one weight per bone, nil if the sequence has none.
	Weights   []float32
	KeyValues string
}

func readSequences(c *cursor.Cursor, t Table, numAnims, numBones int) ([]Sequence, error) {
	seqs, err := cursor.MakeTable[Sequence](c, t.Count, t.Offset, seqDescSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, seqDescSize, func(i int) error {
		base := c.Offset()
		s := &seqs[i]
		f := c.Fields()
		f.Skip(4) // baseptr
		labelIndex := f.Int32()
		activityIndex := f.Int32()
		s.Flags = SeqFlags(f.Uint32())
		s.ActivityID = f.Int()
		s.ActivityWeight = f.Int()
		events := Table{Count: f.Int()}
		events.Offset = base + f.Int()
		s.BBMin = f.Vec3()
		s.BBMax = f.Vec3()
		s.NumBlends = f.Int()
		animIndexIndex := f.Int()
		f.Skip(4) // movementindex
		s.GroupSize = [2]int{f.Int(), f.Int()}
		s.ParamIndex = [2]int{f.Int(), f.Int()}
		s.ParamStart = [2]float32{f.Float32(), f.Float32()}
		s.ParamEnd = [2]float32{f.Float32(), f.Float32()}
		f.Skip(4) // paramparent
		s.FadeIn = f.Float32()
		s.FadeOut = f.Float32()
		s.EntryNode = f.Int()
		s.ExitNode = f.Int()
		s.NodeFlags = f.Int()
		f.Skip(3 * 4) // entryphase, exitphase, lastframe
		s.NextSequence = f.Int()
		f.Skip(4 * 4) // pose, numikrules, numautolayers, autolayerindex
		weightListIndex := f.Int()
		f.Skip(3 * 4) // posekeyindex, numiklocks, iklockindex
		keyValues := Table{Offset: f.Int()}
		keyValues.Count = f.Int()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}
		var err error
		if s.Label, err = nameAt(c, base, labelIndex); err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}
		if s.Activity, err = nameAt(c, base, activityIndex); err != nil {
			return errors.Wrapf(err, "sequence %d %q", i, s.Label)
		}
		if s.Events, err = readEvents(c, events); err != nil {
			return errors.Wrapf(err, "sequence %d %q", i, s.Label)
		}
		if s.Blends, err = readBlends(c, base+animIndexIndex, s.GroupSize, numAnims); err != nil {
			return errors.Wrapf(err, "sequence %d %q", i, s.Label)
		}
		s.Animation = -1
		if len(s.Blends) > 0 {
			s.Animation = s.Blends[0]
		}
		if weightListIndex != 0 {
			err = c.At(base+weightListIndex, func() error {
				var err error
				s.Weights, err = c.ReadFloat32s(numBones)
				return err
			})
			if err != nil {
				return errors.Wrapf(err, "sequence %d %q weights", i, s.Label)
			}
		}
		if keyValues.Count > 0 {
			err = c.At(base+keyValues.Offset, func() error {
				kv, err := c.ReadFixedString(keyValues.Count)
				s.KeyValues = strings.TrimSpace(kv)
				return err
			})
			if err != nil {
				return errors.Wrapf(err, "sequence %d %q key values", i, s.Label)
			}
		}
		return nil
	})
	return seqs, err
}

func readBlends(c *cursor.Cursor, off int, size [2]int, numAnims int) ([]int, error) {
	if size[0] < 0 || size[1] < 0 {
		return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "blend grid %dx%d", size[0], size[1])
	}
	n := size[0] * size[1]
	if n == 0 {
		return nil, nil
	}
	var idx []int16
	err := c.At(off, func() error {
		var err error
		idx, err = c.ReadInt16s(n)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "blend grid")
	}
	blends := make([]int, n)
	for i, a := range idx {
		if a < 0 || int(a) >= numAnims {
			return nil, errors.Wrapf(studioerr.ErrOutOfBounds, "blend %d references animation %d of %d", i, a, numAnims)
		}
		blends[i] = int(a)
	}
	return blends, nil
}

func readEvents(c *cursor.Cursor, t Table) ([]Event, error) {
	ev, err := cursor.MakeTable[Event](c, t.Count, t.Offset, eventSize)
	if err != nil {
		return nil, err
	}
	err = c.Table(t.Count, t.Offset, eventSize, func(i int) error {
		base := c.Offset()
		e := &ev[i]
		f := c.Fields()
		e.Cycle = f.Float32()
		e.Event = f.Int()
		e.Type = f.Int()
		e.Options = f.FixedString(64)
		nameIndex := f.Int32()
		if err := f.Err(); err != nil {
			return errors.Wrapf(err, "event %d", i)
		}
		var err error
		e.Name, err = nameAt(c, base, nameIndex)
		return errors.Wrapf(err, "event %d", i)
	})
	return ev, err
}
