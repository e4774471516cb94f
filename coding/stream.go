// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strconv"

	"github.com/unixdj/qrstep/gf256"
)

// A Group names the part of the code a bit belongs to.
type Group int8

const (
	NoGroup    Group = iota
	Mode             // mode indicator
	Length           // character count
	Payload          // encoded text
	Terminator       // terminator
	Fill             // zero bits up to a byte boundary
	Pad              // pad codewords
	Check            // error correction codewords
	Format           // format bits
)

var groupNames = [...]string{
	"", "mode", "length", "payload", "terminator", "fill", "pad",
	"check", "format",
}

func (g Group) String() string {
	if 0 <= g && int(g) < len(groupNames) {
		return groupNames[g]
	}
	return strconv.Itoa(int(g))
}

func (g Group) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Group) UnmarshalText(b []byte) error {
	for i, v := range groupNames {
		if v == string(b) {
			*g = Group(i)
			return nil
		}
	}
	return fmt.Errorf("qrstep: invalid bit group %q", b)
}

// A Span describes a run of bits in a Stream.
type Span struct {
	Group Group // part of the code
	Index int   // index of the span within its group
	Start int   // offset of the first bit
	Len   int   // number of bits
	Value uint32
}

// End returns the offset past the last bit of sp.
func (sp Span) End() int { return sp.Start + sp.Len }

// Bit returns bit i of sp, counting from the most significant, as 0 or 1.
func (sp Span) Bit(i int) byte {
	return byte(sp.Value >> (sp.Len - 1 - i) & 1)
}

// A Stream is the complete sequence of data and check codewords for
// a payload, with the spans making it up.
type Stream struct {
	Payload []byte
	bits    *Bits
	spans   []Span
}

// NewStream assembles the data codewords for payload: mode indicator,
// character count, payload, terminator, zero fill, pad codewords, and
// appends the check codewords.
func NewStream(payload []byte) (*Stream, error) {
	if len(payload) > MaxPayload {
		return nil, ErrTooLong
	}
	s := &Stream{
		Payload: payload,
		bits:    NewBits(),
		spans:   make([]Span, 0, TotalBytes+4),
	}
	s.write(Mode, 0, ModeIndicator, ModeBits)
	s.write(Length, 0, uint32(len(payload)), CountBits)
	for i, c := range payload {
		s.write(Payload, i, uint32(c), 8)
	}
	s.write(Terminator, 0, 0, min(TerminatorBits, DataBits-s.bits.Bits()))
	s.write(Fill, 0, 0, -s.bits.Bits()&7)
	for i := 0; s.bits.Bits() < DataBits; i++ {
		s.write(Pad, i, uint32(padBytes[i&1]), 8)
	}
	if s.bits.Bits() != DataBits {
		panic("qrstep: internal error: data length")
	}

	start := s.bits.Bits()
	data := s.bits.Bytes()
	check := s.bits.Add(CheckBytes)
	gf256.NewRSEncoder(Field, CheckBytes).ECC(data, check)
	for i, c := range check {
		s.spans = append(s.spans, Span{Check, i, start + i*8, 8, uint32(c)})
	}
	return s, nil
}

// write writes the low n bits of v and records the span.  Empty spans
// are not recorded.
func (s *Stream) write(g Group, i int, v uint32, n int) {
	if n <= 0 {
		return
	}
	s.spans = append(s.spans, Span{g, i, s.bits.Bits(), n, v})
	s.bits.Write(v, n)
}

// Bit returns bit i of the stream as 0 or 1.
func (s *Stream) Bit(i int) byte { return s.bits.Bit(i) }

// Codewords returns all data and check codewords.
func (s *Stream) Codewords() []byte { return s.bits.Bytes() }

// Data returns the data codewords.
func (s *Stream) Data() []byte { return s.bits.Bytes()[:DataBytes] }

// CheckBytes returns the error correction codewords.
func (s *Stream) CheckBytes() []byte { return s.bits.Bytes()[DataBytes:] }

// Spans returns the spans of the given groups in stream order, or all
// spans if no group is given.
func (s *Stream) Spans(groups ...Group) []Span {
	if len(groups) == 0 {
		return s.spans
	}
	var r []Span
	for _, sp := range s.spans {
		for _, g := range groups {
			if sp.Group == g {
				r = append(r, sp)
				break
			}
		}
	}
	return r
}
