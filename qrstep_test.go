// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstep

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrstep/coding"
)

// buildGrid runs the first stage stages for text directly on a grid.
func buildGrid(t *testing.T, stage int, text string, mask int) *grid {
	t.Helper()
	s, err := coding.NewStream(coding.Latin1(text).Bytes)
	require.NoError(t, err)
	b := &build{g: newGrid(), stream: s, mask: mask}
	for _, f := range pipeline[:stage] {
		f(b)
	}
	return b.g
}

// readBits returns the bits of the cells in region in stream order,
// with the mask removed.
func readBits(s *Snapshot, region string) []byte {
	var cells []Cell
	for _, c := range s.Cells {
		if c.Reg == region {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].BitIndex < cells[j].BitIndex
	})
	bits := make([]byte, len(cells))
	for i, c := range cells {
		b := byte(c.BitValue)
		if s.Masked && coding.Mask(s.Mask, c.X, c.Y) {
			b ^= 1
		}
		bits[i] = b
	}
	return bits
}

// readByte returns the byte stored in region.
func readByte(t *testing.T, s *Snapshot, region string) byte {
	t.Helper()
	bits := readBits(s, region)
	require.Len(t, bits, 8, "region %s", region)
	var v byte
	for _, b := range bits {
		v = v<<1 | b
	}
	return v
}

func countKind(s *Snapshot, kinds ...Kind) int {
	n := 0
	for _, c := range s.Cells {
		for _, k := range kinds {
			if c.Kind == k {
				n++
				break
			}
		}
	}
	return n
}

func TestBuildEmpty(t *testing.T) {
	s := Build(StageEmpty, "Hi", 0)
	require.Len(t, s.Cells, Size*Size)
	assert.Equal(t, Size*Size, countKind(s, Empty))
	assert.Equal(t, map[string]Region{
		RegionEmpty: {RegionEmpty, "Empty", "Pixels not claimed yet."},
	}, s.Regions)
	for i, c := range s.Cells {
		require.Equal(t, i%Size, c.X)
		require.Equal(t, i/Size, c.Y)
		require.Equal(t, emptyCell(c.X, c.Y), c)
	}
}

func TestPatterns(t *testing.T) {
	s := Build(StagePatterns, "", NoMask)
	assert.Equal(t, 3*49, countKind(s, Finder))
	assert.Equal(t, 3*15, countKind(s, Separator))
	assert.Equal(t, 10, countKind(s, Timing))
	assert.Equal(t, 1, countKind(s, Dark))

	for _, tc := range []struct {
		x, y   int
		kind   Kind
		on     bool
		region string
	}{
		{0, 0, Finder, true, "finder:tl"},
		{1, 1, Finder, false, "finder:tl"},
		{3, 3, Finder, true, "finder:tl"},
		{20, 6, Finder, true, "finder:tr"},
		{14, 0, Finder, true, "finder:tr"},
		{0, 20, Finder, true, "finder:bl"},
		{7, 7, Separator, false, "separator:tl"},
		{13, 7, Separator, false, "separator:tr"},
		{7, 13, Separator, false, "separator:bl"},
		{8, 6, Timing, true, "timing"},
		{9, 6, Timing, false, "timing"},
		{6, 12, Timing, true, "timing"},
		{8, 13, Dark, true, "dark"},
		{8, 8, Empty, false, RegionEmpty},
	} {
		c := s.Cell(tc.x, tc.y)
		require.NotNil(t, c)
		assert.Equal(t, tc.kind, c.Kind, "(%d,%d)", tc.x, tc.y)
		assert.Equal(t, tc.on, c.On, "(%d,%d)", tc.x, tc.y)
		assert.Equal(t, tc.region, c.Reg, "(%d,%d)", tc.x, tc.y)
		assert.Contains(t, s.Regions, tc.region)
	}
}

func TestFormatReservations(t *testing.T) {
	s := Build(StageReserve, "", NoMask)
	assert.Equal(t, 2*coding.FormatLen, countKind(s, Format))
	for _, p := range append(coding.FormatA[:], coding.FormatB[:]...) {
		assert.Equal(t, Format, s.Cell(p.X, p.Y).Kind, "%v", p)
	}
	assert.Equal(t, Dark, s.Cell(8, 13).Kind)
}

func TestPathLength(t *testing.T) {
	g := buildGrid(t, StageReserve, "", NoMask)
	path := g.path()
	require.Len(t, path, coding.TotalBits)
	seen := make(map[coding.Point]bool)
	for _, p := range path {
		require.False(t, seen[p], "%v visited twice", p)
		seen[p] = true
	}
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			p := coding.Point{X: x, Y: y}
			assert.Equal(t, g.kind(x, y) == Empty, seen[p], "%v", p)
		}
	}

	// The path is the same once the data is written.
	g = buildGrid(t, StageCheck, "Hi", NoMask)
	assert.Empty(t, cmp.Diff(path, g.path()))
	assert.Equal(t, coding.TotalBits,
		countKind(Build(StageCheck, "Hi", NoMask), Data, Mode))
}

func TestModeBlock(t *testing.T) {
	s := Build(StageMode, "", NoMask)
	want := []struct {
		x, y int
		bit  int
	}{{20, 20, 0}, {19, 20, 1}, {20, 19, 0}, {19, 19, 0}}
	for i, w := range want {
		c := s.Cell(w.x, w.y)
		assert.Equal(t, Mode, c.Kind)
		assert.Equal(t, "mode", c.Reg)
		assert.Equal(t, i, c.BitIndex)
		assert.Equal(t, w.bit, c.BitValue)
		assert.Equal(t, w.bit == 1, c.On)
		assert.Equal(t, coding.Mode, c.BitGroup)
		assert.Equal(t, i == 0, c.IsHead)
	}
	assert.Equal(t, 4, countKind(s, Mode))
	// Stage 5 adds nothing.
	assert.Empty(t, cmp.Diff(s, Build(StageText, "", NoMask),
		cmpopts.IgnoreFields(Snapshot{}, "Stage", "Requested")))
}

func TestPreview(t *testing.T) {
	s := Build(StagePreview, "Hi", 0)
	assert.Equal(t, 3*8, countKind(s, DataPos))
	assert.Equal(t, 0, countKind(s, Data))
	heads, lengths := 0, 0
	for _, c := range s.Cells {
		if c.Kind != DataPos {
			continue
		}
		assert.False(t, c.On)
		assert.Equal(t, -1, c.BitValue)
		assert.Equal(t, "bytepos:"+strconv.Itoa(c.ByteIndex), c.Reg)
		assert.NotEqual(t, coding.NoDir, c.Dir)
		if c.IsHead {
			heads++
		}
		if c.IsLength {
			lengths++
			assert.Equal(t, 0, c.ByteIndex)
		}
	}
	assert.Equal(t, 3, heads)
	assert.Equal(t, 8, lengths)
	for _, id := range []string{"bytepos:0", "bytepos:1", "bytepos:2"} {
		assert.Contains(t, s.Regions, id)
	}
	assert.Equal(t, "Length (position)", s.Regions["bytepos:0"].Title)
	assert.Equal(t, "Byte 1 (position)", s.Regions["bytepos:2"].Title)

	// The length byte runs up the rightmost columns.
	head := s.Cell(20, 18)
	assert.True(t, head.IsHead)
	assert.True(t, head.IsLength)
	assert.Equal(t, coding.Up, head.Dir)

	// Previewed pixels are the ones written later.
	full := Build(StagePayload, "Hi", 0)
	for i, c := range s.Cells {
		if c.Kind == DataPos {
			f := full.Cells[i]
			assert.Equal(t, Data, f.Kind, "(%d,%d)", c.X, c.Y)
			assert.Equal(t, c.Dir, f.Dir)
			assert.Equal(t, c.IsHead, f.IsHead)
			assert.Equal(t, c.IsLength, f.IsLength)
		}
	}
}

func TestPreviewFull(t *testing.T) {
	// 17 bytes leave room for all previews.
	s := Build(StagePreview, strings.Repeat("x", MaxLen), NoMask)
	assert.Equal(t, (MaxLen+1)*8, countKind(s, DataPos))
}

func TestEmptyText(t *testing.T) {
	s := Build(StagePayload, "", NoMask)
	assert.Equal(t, StagePayload, s.Stage)
	assert.Equal(t, byte(0x00), readByte(t, s, "length"))
	for id := range s.Regions {
		assert.False(t, strings.HasPrefix(id, "payload:"), id)
	}
	for _, c := range s.Cells {
		assert.NotEqual(t, coding.Payload, c.BitGroup)
	}
	assert.Equal(t, 4+8, countKind(s, Data, Mode))
}

func TestHi(t *testing.T) {
	s := Build(StageFormatBits, "Hi", 0)
	require.Equal(t, StageFormatBits, s.Stage)
	assert.True(t, s.Masked)
	assert.Equal(t, 0, s.Mask)
	assert.Equal(t, "Hi", s.Text)
	assert.Equal(t, []byte("Hi"), s.Bytes)

	assert.Equal(t, byte(0x02), readByte(t, s, "length"))
	assert.Equal(t, byte(0x48), readByte(t, s, "payload:0"))
	assert.Equal(t, byte(0x69), readByte(t, s, "payload:1"))
	assert.Equal(t, []byte{0, 0, 0, 0}, readBits(s, "terminator"))
	assert.Equal(t, []byte{0, 1, 0, 0}, readBits(s, "mode"))

	st, err := coding.NewStream([]byte("Hi"))
	require.NoError(t, err)
	pads := st.Spans(coding.Pad)
	assert.Len(t, pads, coding.DataBytes-4)
	for _, sp := range pads {
		assert.Equal(t, byte(sp.Value),
			readByte(t, s, "pad:"+strconv.Itoa(sp.Index)))
	}
	for i, v := range st.CheckBytes() {
		assert.Equal(t, v, readByte(t, s, "check:"+strconv.Itoa(i)))
	}

	desc := s.Regions["formatString"].Description
	assert.True(t, strings.HasPrefix(desc, "01000"), desc)
	assert.Equal(t, "010001111010110: level L (01), mask 0 (000), "+
		"check bits 1111010110.", desc)
	assert.Equal(t, 2*coding.FormatLen, countKind(s, FormatBit))
	assert.Equal(t, 0, countKind(s, Format, Empty, DataPos))
	assert.Contains(t, s.Regions, "mask")
}

func TestFormatBitsPlaced(t *testing.T) {
	for mask := 0; mask < coding.Masks; mask++ {
		s := Build(StageFormatBits, "A", mask)
		for _, coords := range [][coding.FormatLen]coding.Point{
			coding.FormatA, coding.FormatB,
		} {
			var v uint16
			for i, p := range coords {
				c := s.Cell(p.X, p.Y)
				require.Equal(t, FormatBit, c.Kind)
				require.Equal(t, i, c.BitIndex)
				require.Equal(t, coding.Format, c.BitGroup)
				require.Equal(t, c.On, c.BitValue == 1)
				v |= uint16(c.BitValue) << i
			}
			assert.Equal(t, coding.FormatBits(mask), v)
			l, m, ok := coding.DecodeFormat(v)
			assert.True(t, ok)
			assert.Equal(t, coding.L, l)
			assert.Equal(t, mask, m)
		}
	}
}

func TestTooLong(t *testing.T) {
	text := strings.Repeat("A", MaxLen+1)
	s := Build(StageFormatBits, text, 0)
	assert.Equal(t, StageText, s.Stage)
	assert.Equal(t, StageFormatBits, s.Requested)
	assert.False(t, s.Masked)
	assert.Equal(t, NoMask, s.Mask)
	assert.Empty(t, cmp.Diff(Build(StageText, text, 0), s,
		cmpopts.IgnoreFields(Snapshot{}, "Requested")))
	assert.Equal(t, 0, countKind(s, Data, DataPos, FormatBit))
	assert.Equal(t, 2*coding.FormatLen, countKind(s, Format))

	assert.False(t, Fits(text))
	assert.ErrorIs(t, CheckText(text), ErrTooLong)
	assert.NoError(t, CheckText(text[1:]))
	assert.Equal(t, NoMask, SuggestMask(text))
}

func TestStageClamp(t *testing.T) {
	for _, tc := range []struct{ req, stage int }{
		{-5, StageEmpty}, {0, StageEmpty}, {1, StageEmpty},
		{12, StageFormatBits}, {13, StageFormatBits}, {99, StageFormatBits},
	} {
		s := Build(tc.req, "Hi", 2)
		assert.Equal(t, tc.stage, s.Stage, "stage %d", tc.req)
		assert.Equal(t, tc.req, s.Requested)
	}
}

func TestInvalidMask(t *testing.T) {
	for _, mask := range []int{NoMask, -7, 8, 100} {
		s := Build(StageFormatBits, "Hi", mask)
		assert.False(t, s.Masked)
		assert.Equal(t, NoMask, s.Mask)
		assert.NotContains(t, s.Regions, "mask")
		assert.NotContains(t, s.Regions, "formatString")
		assert.Equal(t, 0, countKind(s, FormatBit))
		assert.Empty(t, cmp.Diff(Build(StageCheck, "Hi", mask).Cells, s.Cells))
	}
}

// TestStagesRefine checks that each stage keeps what the previous one
// placed.
func TestStagesRefine(t *testing.T) {
	for _, text := range []string{"", "Hi", "HELLO WORLD", strings.Repeat("z", MaxLen)} {
		for mask := NoMask; mask < coding.Masks; mask++ {
			prev := Build(StageEmpty, text, mask)
			for stage := StageEmpty + 1; stage <= Stages; stage++ {
				s := Build(stage, text, mask)
				for i, p := range prev.Cells {
					c := s.Cells[i]
					switch p.Kind {
					case Empty:
						continue
					case Finder, Separator, Timing, Dark:
						require.Equal(t, p, c)
					case Format:
						require.Contains(t, []Kind{Format, FormatBit}, c.Kind)
					case DataPos:
						require.Contains(t, []Kind{DataPos, Data}, c.Kind)
						require.Equal(t, p.Dir, c.Dir)
					case Mode, Data, FormatBit:
						require.Equal(t, p.Kind, c.Kind)
						require.Equal(t, p.Reg, c.Reg)
						require.Equal(t, p.BitIndex, c.BitIndex)
					}
				}
				for id, r := range prev.Regions {
					require.Equal(t, r, s.Regions[id], "stage %d region %s", stage, id)
				}
				prev = s
			}
		}
	}
}

func TestMaskIdempotent(t *testing.T) {
	for mask := 0; mask < coding.Masks; mask++ {
		g := buildGrid(t, StageCheck, "Hi", mask)
		before := g.cells
		maskGrid(g, mask)
		assert.NotEqual(t, before, g.cells)
		for i, c := range g.cells {
			b := before[i]
			if c.Kind != Data && c.Kind != Mode {
				require.Equal(t, b, c)
				continue
			}
			require.Equal(t, b.Reg, c.Reg)
			flip := coding.Mask(mask, c.X, c.Y)
			require.Equal(t, b.On != flip, c.On)
			require.Equal(t, b.BitValue^btoi(flip), c.BitValue)
		}
		maskGrid(g, mask)
		assert.Equal(t, before, g.cells)
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestCheckDeterministic(t *testing.T) {
	read := func() []byte {
		s := Build(StageCheck, "A", 3)
		check := make([]byte, coding.CheckBytes)
		for i := range check {
			check[i] = readByte(t, s, "check:"+strconv.Itoa(i))
		}
		return check
	}
	a := read()
	assert.Equal(t, a, read())
	st, err := coding.NewStream([]byte{0x41})
	require.NoError(t, err)
	assert.Equal(t, st.CheckBytes(), a)

	// Check bytes start right after the data codewords.
	s := Build(StageCheck, "A", NoMask)
	for _, c := range s.Cells {
		if c.BitGroup == coding.Check {
			assert.GreaterOrEqual(t, c.BitIndex, coding.DataBits)
			assert.Less(t, c.BitIndex, coding.TotalBits)
		}
	}
}

func TestRegisterFirstWins(t *testing.T) {
	g := newGrid()
	g.register("x", "first", "one")
	g.register("x", "second", "two")
	assert.Equal(t, Region{"x", "first", "one"}, g.regions["x"])

	c := g.claim(3, 4, Data, "unnamed", true)
	assert.Equal(t, Region{"unnamed", "unnamed", ""}, g.regions["unnamed"])
	c.BitIndex, c.ByteIndex, c.IsHead = 9, 2, true
	c = g.claim(3, 4, Mode, "x", false)
	want := emptyCell(3, 4)
	want.Kind, want.Reg = Mode, "x"
	assert.Equal(t, want, *c)

	assert.Nil(t, g.at(-1, 0))
	assert.Nil(t, g.at(0, Size))
	assert.Panics(t, func() { g.claim(Size, 0, Data, "x", false) })
}

func TestEncodeText(t *testing.T) {
	e := EncodeText("Grüße, ☃!")
	assert.Equal(t, "Grüße, ?!", e.Text)
	assert.Equal(t, []byte{'G', 'r', 0xfc, 0xdf, 'e', ',', ' ', '?', '!'}, e.Bytes)
	assert.Equal(t, 9, e.Len)
	assert.Equal(t, 1, e.Replaced)

	s := Build(StageText, "☃☃", NoMask)
	assert.Equal(t, "??", s.Text)
	assert.Equal(t, 2, s.Replaced)
	assert.True(t, Fits(strings.Repeat("é", MaxLen)))
}

func TestSuggestMask(t *testing.T) {
	mask := SuggestMask("Hi")
	require.True(t, coding.ValidMask(mask))
	p := Build(Stages, "Hi", mask).Penalty()
	for m := 0; m < coding.Masks; m++ {
		assert.LessOrEqual(t, p, Build(Stages, "Hi", m).Penalty(), "mask %d", m)
	}
}

func TestSnapshotAccessors(t *testing.T) {
	s := Build(StagePatterns, "", NoMask)
	assert.Nil(t, s.Cell(-1, 0))
	assert.Nil(t, s.Cell(0, Size))
	assert.True(t, s.Black(0, 0))
	assert.False(t, s.Black(Size, 0))
	r, ok := s.Region(8, 13)
	assert.True(t, ok)
	assert.Equal(t, "Dark module", r.Title)
	_, ok = s.Region(0, -1)
	assert.False(t, ok)
}

func TestJSON(t *testing.T) {
	s := Build(Stages, "Hi", 5)
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"kind":"finder"`)
	assert.Contains(t, string(b), `"bitGroup":"length"`)
	assert.Contains(t, string(b), `"direction":"up"`)
	assert.Contains(t, string(b), `"regionId":"formatString"`)

	var d Snapshot
	require.NoError(t, json.Unmarshal(b, &d))
	assert.Empty(t, cmp.Diff(s, &d))
}

func TestLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf,
		&slog.HandlerOptions{Level: slog.LevelDebug})))
	Build(StageReserve, "", NoMask)
	out := buf.String()
	assert.Contains(t, out, "stage=1")
	assert.Contains(t, out, "stage=3")
	assert.NotContains(t, out, "stage=4")

	buf.Reset()
	Build(Stages, strings.Repeat("x", 20), 0)
	assert.Contains(t, buf.String(), "stage clamped")
	assert.Contains(t, buf.String(), "length=20")

	SetLogger(nil)
	buf.Reset()
	Build(Stages, "x", 0)
	assert.Empty(t, buf.String())
}
