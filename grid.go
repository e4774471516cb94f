// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstep

import (
	"fmt"
	"strconv"

	"github.com/unixdj/qrstep/coding"
)

// A Kind tells what a pixel is used for.
type Kind int8

const (
	Empty     Kind = iota // not claimed yet
	Finder                // finder pattern
	Separator             // light border around a finder pattern
	Timing                // timing strip
	Dark                  // the dark module
	Format                // reserved for format bits
	FormatBit             // format bit
	Mode                  // mode indicator bit
	DataPos               // reserved for a byte, not written yet
	Data                  // data or check bit
)

var kindNames = [...]string{
	"empty", "finder", "separator", "timing", "dark", "format",
	"formatBit", "mode", "dataPos", "data",
}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return strconv.Itoa(int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, v := range kindNames {
		if v == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("qrstep: invalid kind %q", b)
}

// Walkable reports whether the zigzag path may pass a pixel of kind k.
func (k Kind) Walkable() bool {
	switch k {
	case Empty, DataPos, Data, Mode:
		return true
	}
	return false
}

// Structural reports whether k is a function pattern or a format
// reservation.
func (k Kind) Structural() bool {
	switch k {
	case Finder, Separator, Timing, Dark, Format:
		return true
	}
	return false
}

// A Cell is the state of one pixel.  Fields not used by the pixel's
// Kind hold their zero value, or -1 for indices and bit values.
type Cell struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	On   bool   `json:"on"` // black
	Kind Kind   `json:"kind"`
	Reg  string `json:"regionId"`

	// BitIndex is the offset in the bit stream for data, check and
	// mode bits, or the bit number from 0 (least significant) to 14
	// for format bits.
	BitIndex  int          `json:"bitIndex"`
	BitValue  int          `json:"bitValue"` // 0 or 1, -1 if none
	BitGroup  coding.Group `json:"bitGroup,omitempty"`
	ByteIndex int          `json:"byteIndex"` // index within BitGroup
	Dir       coding.Dir   `json:"direction,omitempty"`
	IsHead    bool         `json:"isHead,omitempty"`   // first pixel of a chunk
	IsLength  bool         `json:"isLength,omitempty"` // character count
}

// emptyCell returns an unclaimed cell at x, y.
func emptyCell(x, y int) Cell {
	return Cell{
		X:         x,
		Y:         y,
		Reg:       RegionEmpty,
		BitIndex:  -1,
		BitValue:  -1,
		ByteIndex: -1,
	}
}

// A Region describes a group of pixels.
type Region struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RegionEmpty is the region of unclaimed pixels.
const RegionEmpty = "empty"

// grid holds the pixels and regions of one build.
type grid struct {
	cells   [coding.Modules]Cell
	regions map[string]Region
}

func newGrid() *grid {
	g := &grid{regions: make(map[string]Region)}
	for y := 0; y < coding.Size; y++ {
		for x := 0; x < coding.Size; x++ {
			g.cells[y*coding.Size+x] = emptyCell(x, y)
		}
	}
	g.register(RegionEmpty, "Empty", "Pixels not claimed yet.")
	return g
}

// at returns the cell at x, y, or nil outside the grid.
func (g *grid) at(x, y int) *Cell {
	if !(coding.Point{X: x, Y: y}).In() {
		return nil
	}
	return &g.cells[y*coding.Size+x]
}

// kind returns the kind of the cell at x, y.  Pixels outside the grid
// are not walkable and report Finder.
func (g *grid) kind(x, y int) Kind {
	if c := g.at(x, y); c != nil {
		return c.Kind
	}
	return Finder
}

// register adds a region.  The first registration of a key wins.
func (g *grid) register(id, title, desc string) {
	if _, ok := g.regions[id]; !ok {
		g.regions[id] = Region{id, title, desc}
	}
}

// claim resets the cell at x, y to its defaults and assigns it to
// region with the given kind and colour.  An unregistered region is
// registered with its key as the title.
func (g *grid) claim(x, y int, k Kind, region string, on bool) *Cell {
	c := g.at(x, y)
	if c == nil {
		panic("qrstep: internal error: claim outside grid")
	}
	*c = emptyCell(x, y)
	c.Kind, c.Reg, c.On = k, region, on
	g.register(region, region, "")
	return c
}

func (g *grid) walkable(x, y int) bool {
	return g.kind(x, y).Walkable()
}

// path returns the zigzag path over the current state of g.
func (g *grid) path() []coding.Point {
	return coding.Path(g.walkable)
}

// claimed returns the number of claimed pixels.
func (g *grid) claimed() int {
	n := 0
	for i := range g.cells {
		if g.cells[i].Kind != Empty {
			n++
		}
	}
	return n
}
