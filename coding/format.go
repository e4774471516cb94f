// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"math/bits"
	"strconv"
)

const (
	FormatLen  = 15    // format bits
	FormatPoly = 0x537 // BCH(15,5) generator

	// StandardFormatXOR is the mask QR codes apply to format bits.
	StandardFormatXOR = 0x5412

	// FormatXOR is the mask applied by FormatBits.  It is zero: the
	// format bits are left unmasked, so that the string starts with
	// the level bits "01".  Codes built with it are not readable by
	// standard decoders.
	FormatXOR = 0
)

// calcFormat returns the 5 data bits of fb followed by the 10 bit
// BCH remainder.
func calcFormat(fb uint16) uint16 {
	rem := fb
	for i := 4; i >= 0; i-- {
		if rem&((1<<10)<<i) != 0 {
			rem ^= FormatPoly << i
		}
	}
	return fb | rem
}

// formatData returns the 5 data bits for level l and mask, shifted
// into place.
func formatData(l Level, mask int) uint16 {
	return uint16(l^1)<<13 | uint16(mask&7)<<10 // L=01, M=00, Q=11, H=10
}

// FormatBits returns the 15 format bits for level L and mask.
func FormatBits(mask int) uint16 {
	return calcFormat(formatData(L, mask)) ^ FormatXOR
}

// FormatString returns the format bits v as 15 binary digits, most
// significant first.
func FormatString(v uint16) string {
	s := strconv.FormatUint(uint64(v), 2)
	for len(s) < FormatLen {
		s = "0" + s
	}
	return s
}

// DecodeFormat returns the level and mask encoded in the format bits
// v, produced with FormatXOR.  Up to 3 flipped bits are corrected by
// choosing the nearest valid code.  ok is false if no code is within
// that distance.
func DecodeFormat(v uint16) (l Level, mask int, ok bool) {
	best := FormatLen + 1
	for ll := L; ll <= H; ll++ {
		for m := 0; m < Masks; m++ {
			fb := calcFormat(formatData(ll, m)) ^ FormatXOR
			if d := bits.OnesCount16(fb ^ v); d < best {
				best, l, mask = d, ll, m
			}
		}
	}
	if best > 3 {
		return 0, 0, false
	}
	return l, mask, true
}

// Format pixel coordinates, indexed by bit number, least significant
// first.  FormatA surrounds the top left finder, FormatB runs under
// the top right finder and beside the bottom left one.
var FormatA, FormatB = formatCoords()

func formatCoords() (a, b [FormatLen]Point) {
	for i := 0; i < FormatLen; i++ {
		switch {
		case i < 6:
			a[i] = Point{8, i}
		case i < 8:
			a[i] = Point{8, i + 1} // skip horizontal timing
		case i == 8:
			a[i] = Point{7, 8}
		default:
			a[i] = Point{14 - i, 8} // skip vertical timing
		}
		if i < 8 {
			b[i] = Point{Size - 1 - i, 8}
		} else {
			b[i] = Point{8, Size - 15 + i}
		}
	}
	return a, b
}
