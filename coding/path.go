// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strconv"
)

// Path returns the pixels for which walkable returns true in zigzag
// scan order: pairs of columns from right to left, skipping the
// vertical timing strip, alternately upwards from the bottom row and
// downwards from the top, right column before left in each row.
func Path(walkable func(x, y int) bool) []Point {
	path := make([]Point, 0, TotalBits)
	up := true
	for x := Size - 1; x > 0; x -= 2 {
		if x == TimingIndex { // vertical timing strip
			x--
		}
		for i := 0; i < Size; i++ {
			y := i
			if up {
				y = Size - 1 - i
			}
			if walkable(x, y) {
				path = append(path, Point{x, y})
			}
			if walkable(x-1, y) {
				path = append(path, Point{x - 1, y})
			}
		}
		up = !up
	}
	return path
}

// Chunk returns n pixels of path starting at off, or nil if fewer
// than n are available.  A nil Chunk means the write must be skipped.
func Chunk(path []Point, off, n int) []Point {
	if off < 0 || n <= 0 || off+n > len(path) {
		return nil
	}
	return path[off : off+n : off+n]
}

// A Dir is the reading direction of a chunk.
type Dir int8

const (
	NoDir Dir = iota
	Up
	Down
	Left
	Right
)

var dirNames = [...]string{"", "up", "down", "left", "right"}

func (d Dir) String() string {
	if 0 <= d && int(d) < len(dirNames) {
		return dirNames[d]
	}
	return strconv.Itoa(int(d))
}

func (d Dir) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dir) UnmarshalText(b []byte) error {
	for i, v := range dirNames {
		if v == string(b) {
			*d = Dir(i)
			return nil
		}
	}
	return fmt.Errorf("qrstep: invalid direction %q", b)
}

// Direction returns the direction from first to last along the axis
// of greater displacement, preferring the vertical axis on ties.
func Direction(first, last Point) Dir {
	dx, dy := last.X-first.X, last.Y-first.Y
	if abs(dy) >= abs(dx) {
		if dy <= 0 {
			return Up
		}
		return Down
	}
	if dx <= 0 {
		return Left
	}
	return Right
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
