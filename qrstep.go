// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qrstep builds the pixel layout of a version 1, level L QR code
one construction stage at a time.

Build returns a Snapshot of the 21x21 grid after a given stage, with
every pixel labelled by what it is for.  Stages run in a fixed order
and each one adds to the previous:

	 1  empty grid
	 2  finder, separator and timing patterns, dark module
	 3  format reservations
	 4  mode indicator
	 5  text accepted
	 6  byte position previews
	 7  length byte
	 8  payload bytes
	 9  terminator
	10  pad and error correction bytes
	11  mask
	12  format bits

The text is encoded as ISO 8859-1 in byte mode; it may be at most 17
bytes long.  The format bits are not masked with 0x5412, so codes built
by this package are not readable by standard decoders.
*/
package qrstep // import "github.com/unixdj/qrstep"

import (
	"log/slog"

	"github.com/unixdj/qrstep/coding"
)

// Construction stages.
const (
	StageEmpty      = iota + 1 // empty grid
	StagePatterns              // function patterns
	StageReserve               // format reservations
	StageMode                  // mode indicator
	StageText                  // text accepted
	StagePreview               // byte positions
	StageLength                // length byte
	StagePayload               // payload bytes
	StageTerminator            // terminator and fill
	StageCheck                 // pad and check bytes
	StageMask                  // mask
	StageFormatBits            // format bits

	Stages = StageFormatBits
)

// NoMask means no mask is applied.  Any mask outside 0..7 is treated
// the same way.
const NoMask = -1

// Size is the number of pixels on a side.
const Size = coding.Size

// MaxLen is the maximum text length in bytes.
const MaxLen = coding.MaxPayload

// ErrTooLong is returned by CheckText for text that does not fit.
var ErrTooLong = coding.ErrTooLong

// A build holds the state of one Build call.
type build struct {
	g      *grid
	stream *coding.Stream // nil before StagePreview
	mask   int
}

// pipeline[i] runs stage i+1.
var pipeline = [Stages]func(b *build){
	func(b *build) {},
	func(b *build) {
		for _, f := range finders {
			placeFinder(b.g, f.x, f.y, f.id)
		}
		placeTiming(b.g)
		placeDark(b.g)
	},
	func(b *build) { reserveFormat(b.g) },
	func(b *build) { placeMode(b.g) },
	func(b *build) {},
	func(b *build) { previewBytes(b.g, b.stream) },
	func(b *build) { writeLength(b.g, b.stream) },
	func(b *build) { writePayload(b.g, b.stream) },
	func(b *build) { writeTerminator(b.g, b.stream) },
	func(b *build) {
		writePad(b.g, b.stream)
		writeCheck(b.g, b.stream)
	},
	func(b *build) {
		if coding.ValidMask(b.mask) {
			applyMask(b.g, b.mask)
		}
	},
	func(b *build) {
		if coding.ValidMask(b.mask) {
			writeFormat(b.g, b.mask)
		}
	},
}

// A Snapshot is the state of the grid after a stage.
type Snapshot struct {
	Size      int               `json:"size"`
	Stage     int               `json:"stage"`     // stage built
	Requested int               `json:"requested"` // stage asked for
	Cells     []Cell            `json:"cells"`     // row by row
	Regions   map[string]Region `json:"regions"`
	Masked    bool              `json:"masked"`
	Mask      int               `json:"mask"` // NoMask if not masked
	Text      string            `json:"text"` // text after replacement
	Bytes     []byte            `json:"bytes"`
	Replaced  int               `json:"replaced"`
}

// Build returns the grid for text after stage, masked with mask if the
// stage is StageMask or later.  Stages outside 1..12 are clamped to
// that range.  If the text is longer than MaxLen bytes, stages after
// StageText are clamped to StageText; compare Stage with Requested to
// detect this.
func Build(stage int, text string, mask int) *Snapshot {
	req := stage
	stage = min(max(stage, StageEmpty), Stages)
	enc := coding.Latin1(text)
	log := Logger()
	if stage > StageText && len(enc.Bytes) > coding.MaxPayload {
		log.Info("qrstep: text too long, stage clamped",
			slog.Int("length", len(enc.Bytes)),
			slog.Int("max", coding.MaxPayload),
			slog.Int("requested", req),
			slog.Int("stage", StageText))
		stage = StageText
	}
	if !coding.ValidMask(mask) {
		mask = NoMask
	}

	b := &build{g: newGrid(), mask: mask}
	if stage >= StagePreview {
		s, err := coding.NewStream(enc.Bytes)
		if err != nil {
			panic("qrstep: internal error: " + err.Error())
		}
		b.stream = s
	}
	for i, f := range pipeline[:stage] {
		f(b)
		log.Debug("qrstep: stage",
			slog.Int("stage", i+1),
			slog.Int("claimed", b.g.claimed()),
			slog.Int("regions", len(b.g.regions)))
	}

	masked := stage >= StageMask && mask != NoMask
	if !masked {
		mask = NoMask
	}
	return &Snapshot{
		Size:      coding.Size,
		Stage:     stage,
		Requested: req,
		Cells:     append([]Cell(nil), b.g.cells[:]...),
		Regions:   b.g.regions,
		Masked:    masked,
		Mask:      mask,
		Text:      enc.Text,
		Bytes:     enc.Bytes,
		Replaced:  enc.Replaced,
	}
}

// Cell returns the cell at x, y, or nil outside the grid.
func (s *Snapshot) Cell(x, y int) *Cell {
	if x < 0 || x >= s.Size || y < 0 || y >= s.Size ||
		len(s.Cells) != s.Size*s.Size {
		return nil
	}
	return &s.Cells[y*s.Size+x]
}

// Black reports whether the pixel at x, y is black.  Pixels outside
// the grid are white.
func (s *Snapshot) Black(x, y int) bool {
	c := s.Cell(x, y)
	return c != nil && c.On
}

// Region returns the region of the cell at x, y.
func (s *Snapshot) Region(x, y int) (Region, bool) {
	c := s.Cell(x, y)
	if c == nil {
		return Region{}, false
	}
	r, ok := s.Regions[c.Reg]
	return r, ok
}

// Penalty returns the mask penalty score of the snapshot.  Lower is
// better.  It is meaningful for complete codes only.
func (s *Snapshot) Penalty() int {
	return coding.Penalty(s.Black)
}

// EncodeText returns the ISO 8859-1 encoding of text.  Characters
// outside ISO 8859-1 are replaced with '?' and counted.
func EncodeText(text string) coding.Encoding {
	return coding.Latin1(text)
}

// Fits reports whether text fits in the code.
func Fits(text string) bool {
	return EncodeText(text).Len <= coding.MaxPayload
}

// CheckText returns ErrTooLong if text does not fit in the code.
func CheckText(text string) error {
	if !Fits(text) {
		return ErrTooLong
	}
	return nil
}

// SuggestMask returns the mask with the lowest penalty for the
// complete code of text, or NoMask if the text does not fit.
func SuggestMask(text string) int {
	if !Fits(text) {
		return NoMask
	}
	best, bestP := NoMask, 0
	for m := 0; m < coding.Masks; m++ {
		p := Build(Stages, text, m).Penalty()
		if best == NoMask || p < bestP {
			best, bestP = m, p
		}
	}
	Logger().Debug("qrstep: mask chosen",
		slog.Int("mask", best), slog.Int("penalty", bestP))
	return best
}
