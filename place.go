// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstep

import "github.com/unixdj/qrstep/coding"

// Finder pattern corners.
var finders = [3]struct {
	x, y int
	id   string
}{
	{0, 0, "tl"},
	{coding.Size - 7, 0, "tr"},
	{0, coding.Size - 7, "bl"},
}

// placeFinder draws a 7x7 finder pattern at x0, y0 and its separator.
func placeFinder(g *grid, x0, y0 int, id string) {
	region := "finder:" + id
	g.register(region, "Finder pattern",
		"The 7×7 pattern in three corners lets a scanner find the "+
			"code and determine its position, rotation and scale.")
	for dy := 0; dy < 7; dy++ {
		for dx := 0; dx < 7; dx++ {
			ring := dx == 0 || dy == 0 || dx == 6 || dy == 6
			core := 2 <= dx && dx <= 4 && 2 <= dy && dy <= 4
			g.claim(x0+dx, y0+dy, Finder, region, ring || core)
		}
	}

	region = "separator:" + id
	g.register(region, "Separator",
		"A light border one pixel wide sets the finder pattern apart "+
			"from the rest of the code.")
	for dy := -1; dy <= 7; dy++ {
		for dx := -1; dx <= 7; dx++ {
			x, y := x0+dx, y0+dy
			if c := g.at(x, y); c == nil || c.Kind == Finder {
				continue
			}
			g.claim(x, y, Separator, region, false)
		}
	}
}

// placeTiming draws the timing strips between the finder patterns.
func placeTiming(g *grid) {
	const region = "timing"
	g.register(region, "Timing pattern",
		"Alternating pixels let a scanner determine the pixel size, "+
			"even in distorted images.")
	for i := 8; i <= coding.Size-9; i++ {
		g.claim(i, coding.TimingIndex, Timing, region, i%2 == 0)
		g.claim(coding.TimingIndex, i, Timing, region, i%2 == 0)
	}
}

// placeDark sets the dark module beside the bottom left finder.
func placeDark(g *grid) {
	const region = "dark"
	g.register(region, "Dark module",
		"A single pixel that is always black, showing the scanner "+
			"what black looks like.")
	g.claim(8, coding.Size-8, Dark, region, true)
}

// reserveFormat reserves the pixels for both copies of the format bits.
// Only empty pixels are claimed.
func reserveFormat(g *grid) {
	const region = "format"
	g.register(region, "Format (reserved)",
		"Reserved for the format bits: error correction level and "+
			"mask pattern.  They are filled in last.")
	for _, coords := range [...]*[coding.FormatLen]coding.Point{
		&coding.FormatA, &coding.FormatB,
	} {
		for _, p := range coords {
			if c := g.at(p.X, p.Y); c != nil && c.Kind == Empty {
				g.claim(p.X, p.Y, Format, region, false)
			}
		}
	}
}
