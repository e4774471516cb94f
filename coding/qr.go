// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level details of a version 1, level L
// QR code: the bit stream, Reed-Solomon check bytes, the zigzag scan
// path, mask patterns and format bits.
package coding // import "github.com/unixdj/qrstep/coding"

import (
	"errors"
	"strconv"

	"github.com/unixdj/qrstep/gf256"
)

var ErrTooLong = errors.New("qrstep: text too long")

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// Symbol geometry and capacity of a version 1, level L QR code.
const (
	Version     = 1              // QR version
	Size        = Version*4 + 17 // pixels on a side
	TimingIndex = 6              // row and column of timing strips
	Modules     = Size * Size    // total number of pixels
	DataBytes   = 19             // data codewords
	CheckBytes  = 7              // error correction codewords
	TotalBytes  = DataBytes + CheckBytes
	DataBits    = DataBytes * 8  // data capacity in bits
	TotalBits   = TotalBytes * 8 // length of the zigzag path

	ModeIndicator  = 0b0100 // byte mode
	ModeBits       = 4      // mode indicator length
	CountBits      = 8      // character count length, versions 1-9
	TerminatorBits = 4      // maximum terminator length

	// MaxPayload is the maximum number of bytes that fit.
	MaxPayload = (DataBits - ModeBits - CountBits) / 8
)

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
// Only L is encoded; the others are reported by DecodeFormat.
type Level int

const (
	L Level = iota
	M
	Q
	H
)

func (l Level) String() string {
	if L <= l && l <= H {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// A Point is a pixel coordinate: X is the column, Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// In reports whether p lies inside the symbol.
func (p Point) In() bool {
	return 0 <= p.X && p.X < Size && 0 <= p.Y && p.Y < Size
}
