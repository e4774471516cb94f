// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstep

import (
	"fmt"
	"strconv"

	"github.com/unixdj/qrstep/coding"
)

// modeSpan is the byte mode indicator at the start of every stream.
var modeSpan = coding.Span{
	Group: coding.Mode,
	Len:   coding.ModeBits,
	Value: coding.ModeIndicator,
}

// writeSpan writes the bits of sp, most significant first, onto the
// pixels of path starting at offset sp.Start.  If the path is too short
// nothing is written and writeSpan returns false.
func writeSpan(g *grid, path []coding.Point, sp coding.Span, k Kind, region string) bool {
	chunk := coding.Chunk(path, sp.Start, sp.Len)
	if chunk == nil {
		return false
	}
	dir := coding.Direction(chunk[0], chunk[len(chunk)-1])
	for i, p := range chunk {
		if !g.walkable(p.X, p.Y) {
			panic("qrstep: internal error: write to function pattern")
		}
		bit := sp.Bit(i)
		c := g.claim(p.X, p.Y, k, region, bit == 1)
		c.BitIndex = sp.Start + i
		c.BitValue = int(bit)
		c.BitGroup = sp.Group
		c.ByteIndex = sp.Index
		c.Dir = dir
		c.IsHead = i == 0
		c.IsLength = sp.Group == coding.Length
	}
	return true
}

// placeMode writes the mode indicator onto the first pixels of the path.
func placeMode(g *grid) {
	const region = "mode"
	g.register(region, "Mode indicator",
		fmt.Sprintf("The first %d bits along the path select the "+
			"encoding mode: %04b is byte mode.",
			coding.ModeBits, coding.ModeIndicator))
	writeSpan(g, g.path(), modeSpan, Mode, region)
}

// byteDesc describes a byte value, with the character if printable.
func byteDesc(b byte) string {
	s := fmt.Sprintf("0x%02X", b)
	if ' ' <= b && b <= '~' {
		s += " (" + strconv.QuoteRune(rune(b)) + ")"
	}
	return s
}

// previewBytes reserves the pixels of the length byte and payload
// bytes without committing their bits.  Byte k is the length byte
// for k == 0, payload byte k-1 otherwise.
func previewBytes(g *grid, s *coding.Stream) {
	path := g.path()
	for k, sp := range s.Spans(coding.Length, coding.Payload) {
		chunk := coding.Chunk(path, sp.Start, sp.Len)
		if chunk == nil {
			break
		}
		region := "bytepos:" + strconv.Itoa(k)
		isLength := sp.Group == coding.Length
		if isLength {
			g.register(region, "Length (position)",
				"This byte will hold the number of payload bytes.")
		} else {
			g.register(region, fmt.Sprintf("Byte %d (position)", k-1),
				"Position of the next 8 bits along the zigzag path.  "+
					"The arrow shows the reading direction of the byte.")
		}
		dir := coding.Direction(chunk[0], chunk[len(chunk)-1])
		for i, p := range chunk {
			c := g.claim(p.X, p.Y, DataPos, region, false)
			c.ByteIndex = k
			c.Dir = dir
			c.IsHead = i == 0
			c.IsLength = isLength
		}
	}
}

// writeLength commits the character count.
func writeLength(g *grid, s *coding.Stream) {
	const region = "length"
	path := g.path()
	for _, sp := range s.Spans(coding.Length) {
		g.register(region, "Length",
			fmt.Sprintf("The text is %d bytes long (%08b).",
				sp.Value, sp.Value))
		writeSpan(g, path, sp, Data, region)
	}
}

// writePayload commits the payload bytes.
func writePayload(g *grid, s *coding.Stream) {
	path := g.path()
	for _, sp := range s.Spans(coding.Payload) {
		region := "payload:" + strconv.Itoa(sp.Index)
		g.register(region, fmt.Sprintf("Byte %d", sp.Index),
			byteDesc(byte(sp.Value)))
		writeSpan(g, path, sp, Data, region)
	}
}

// writeTerminator commits the terminator and the zero fill up to the
// next byte boundary.
func writeTerminator(g *grid, s *coding.Stream) {
	const region = "terminator"
	g.register(region, "Terminator",
		"Zero bits marking the end of the data, "+
			"up to the next byte boundary.")
	path := g.path()
	for _, sp := range s.Spans(coding.Terminator, coding.Fill) {
		writeSpan(g, path, sp, Data, region)
	}
}

// writePad commits the pad codewords.
func writePad(g *grid, s *coding.Stream) {
	path := g.path()
	for _, sp := range s.Spans(coding.Pad) {
		region := "pad:" + strconv.Itoa(sp.Index)
		g.register(region, fmt.Sprintf("Pad byte %d", sp.Index),
			byteDesc(byte(sp.Value))+" fills the unused data capacity.")
		writeSpan(g, path, sp, Data, region)
	}
}

// writeCheck commits the error correction codewords.
func writeCheck(g *grid, s *coding.Stream) {
	path := g.path()
	for _, sp := range s.Spans(coding.Check) {
		region := "check:" + strconv.Itoa(sp.Index)
		g.register(region,
			fmt.Sprintf("Error correction byte %d", sp.Index),
			fmt.Sprintf("0x%02X, a Reed-Solomon codeword computed "+
				"from the %d data bytes.", sp.Value, coding.DataBytes))
		writeSpan(g, path, sp, Data, region)
	}
}

// maskGrid inverts the data and mode pixels for which the mask formula
// holds.  Other pixels are left alone.  Applying maskGrid twice with
// the same mask restores the grid.
func maskGrid(g *grid, mask int) {
	for i := range g.cells {
		c := &g.cells[i]
		if c.Kind != Data && c.Kind != Mode {
			continue
		}
		if !coding.Mask(mask, c.X, c.Y) {
			continue
		}
		c.On = !c.On
		if c.BitValue == 0 || c.BitValue == 1 {
			c.BitValue ^= 1
		}
	}
}

// applyMask masks the grid and records the mask in the "mask" region.
func applyMask(g *grid, mask int) {
	maskGrid(g, mask)
	g.register("mask", fmt.Sprintf("Mask %d", mask),
		fmt.Sprintf("Data pixels where %s holds are inverted.",
			coding.MaskFormula(mask)))
}

// writeFormat writes both copies of the format bits for mask onto the
// reserved pixels and records the bit string in the "formatString"
// region.
func writeFormat(g *grid, mask int) {
	const region = "formatString"
	v := coding.FormatBits(mask)
	s := coding.FormatString(v)
	g.register(region, "Format string",
		fmt.Sprintf("%s: level %s (%s), mask %d (%s), check bits %s.",
			s, coding.L, s[:2], mask, s[2:5], s[5:]))
	for _, coords := range [...]*[coding.FormatLen]coding.Point{
		&coding.FormatA, &coding.FormatB,
	} {
		for i, p := range coords {
			c := g.at(p.X, p.Y)
			if c == nil || (c.Kind != Format && c.Kind != FormatBit) {
				continue
			}
			bit := int(v >> i & 1)
			c = g.claim(p.X, p.Y, FormatBit, region, bit == 1)
			c.BitIndex = i
			c.BitValue = bit
			c.BitGroup = coding.Format
		}
	}
}
