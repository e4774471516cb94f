// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Penalty returns the penalty value of a code whose pixel in column x,
// row y is black if black(x, y) returns true.  The value is used for
// choosing the mask; lower is better.
//
// Total penalty is the sum of penalties for runs and boxes of
// same-colour pixels, finder patterns and colour balance.
//
//   - RunP: for non-overlapping runs of n pixels, n>=5 -> n-2
//   - BoxP: for possibly overlapping 2x2 boxes -> 3
//   - FindP: for finder-like patterns 1011101 with four light pixels
//     on either side, which may extend into the quiet zone -> 40
//   - BalP: for every full 5% deviation from 50% black pixels -> 10
func Penalty(black func(x, y int) bool) int {
	const (
		MinRun    = 5  // RunP:  minimum run length
		RunPDelta = -2 // RunP:  add to run length
		BoxPP     = 3  // BoxP:  points per box
		FindPP    = 40 // FindP: points per pattern
		BalPP     = 10 // BalP:  points per 5%
	)
	var px [Size][Size]bool // px[y][x]
	nblack := 0
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if px[y][x] = black(x, y); px[y][x] {
				nblack++
			}
		}
	}
	// at returns the pixel in line i at position j, light outside.
	at := func(vert bool, i, j int) bool {
		if j < 0 || j >= Size {
			return false
		}
		if vert {
			return px[j][i]
		}
		return px[i][j]
	}
	light := func(vert bool, i, j, n int) bool {
		for ; n > 0; n-- {
			if at(vert, i, j) {
				return false
			}
			j++
		}
		return true
	}

	p := 0
	for _, vert := range [2]bool{false, true} {
		for i := 0; i < Size; i++ {
			r := 1
			for j := 1; j < Size; j++ {
				if at(vert, i, j) == at(vert, i, j-1) {
					r++
					continue
				}
				if r >= MinRun {
					p += r + RunPDelta // RunP
				}
				r = 1
			}
			if r >= MinRun {
				p += r + RunPDelta // RunP
			}
			for j := 0; j+6 < Size; j++ {
				if at(vert, i, j) && !at(vert, i, j+1) &&
					at(vert, i, j+2) && at(vert, i, j+3) &&
					at(vert, i, j+4) && !at(vert, i, j+5) &&
					at(vert, i, j+6) &&
					(light(vert, i, j-4, 4) || light(vert, i, j+7, 4)) {
					p += FindPP // FindP
				}
			}
		}
	}
	for y := 1; y < Size; y++ {
		for x := 1; x < Size; x++ {
			c := px[y][x]
			if c == px[y][x-1] && c == px[y-1][x] && c == px[y-1][x-1] {
				p += BoxPP // BoxP
			}
		}
	}
	dev := nblack*2 - Modules
	if dev < 0 {
		dev = -dev
	}
	p += dev * 10 / Modules * BalPP // BalP
	return p
}
