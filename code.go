// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstep

import (
	"bufio"
	"errors"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// ErrArgs is returned by renderers given an invalid Code.
var ErrArgs = errors.New("qrstep: invalid arguments")

// A Code is a square pixel grid.
// It implements image.Image and PBM encoding.
type Code struct {
	Bitmap  []byte // 1 is black, 0 is white
	Size    int    // number of pixels on a side
	Stride  int    // number of bytes per row
	Scale   int    // number of image pixels per QR pixel
	Border  int    // quiet zone width in QR pixels
	Reverse bool   // white on black
}

// Code returns the pixels of the snapshot as a Code with scale 8 and
// a border of 4.
func (s *Snapshot) Code() *Code {
	stride := (s.Size + 7) / 8
	c := &Code{
		Bitmap: make([]byte, stride*s.Size),
		Size:   s.Size,
		Stride: stride,
		Scale:  8,
		Border: 4,
	}
	for y := 0; y < s.Size; y++ {
		for x := 0; x < s.Size; x++ {
			if s.Black(x, y) {
				c.Bitmap[y*stride+x/8] |= 0x80 >> (x & 7)
			}
		}
	}
	return c
}

func (c *Code) isValid() bool {
	return c != nil && c.Size > 0 && c.Stride >= (c.Size+7)/8 &&
		len(c.Bitmap) >= c.Stride*c.Size &&
		c.Scale > 0 && c.Border >= 0 &&
		c.Scale*(c.Size+c.Border*2) <= 1<<16
}

// Black returns true if the pixel at (x,y) is black.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7-x&7)) != 0
}

// dark reports whether the pixel at (x,y), counted from the top left
// of the quiet zone, is drawn dark.
func (c *Code) dark(x, y int) bool {
	return c.Black(x-c.Border, y-c.Border) != c.Reverse
}

// Image returns an Image displaying the code.
func (c *Code) Image() image.Image {
	return &codeImage{c}
}

// codeImage implements image.Image
type codeImage struct {
	*Code
}

var (
	whiteColor color.Color = color.Gray{0xFF}
	blackColor color.Color = color.Gray{0x00}
)

func (c *codeImage) Bounds() image.Rectangle {
	d := (c.Size + c.Border*2) * c.Scale
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	if c.dark(x/c.Scale, y/c.Scale) {
		return blackColor
	}
	return whiteColor
}

func (c *codeImage) ColorModel() color.Model {
	return color.GrayModel
}

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	scale := c.Scale
	length := scale * (c.Size + c.Border*2)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	row := make([]byte, (length+7)/8)
	for y := 0; y < c.Size+c.Border*2; y++ {
		pbmRow(row, c, y)
		for i := 0; i < scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}

// pbmRow encodes row y of the code, including the quiet zone, in PBM
// format.
func pbmRow(row []byte, c *Code, y int) {
	for i := range row {
		row[i] = 0
	}
	j := 0
	for x := 0; x < c.Size+c.Border*2; x++ {
		dark := c.dark(x, y)
		for i := 0; i < c.Scale; i++ {
			if dark {
				row[j>>3] |= 0x80 >> (j & 7)
			}
			j++
		}
	}
}

// EncodeASCII writes the code to w as text, two characters per pixel,
// "##" for black and spaces for white, with the quiet zone.
func (c *Code) EncodeASCII(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	n := c.Size + c.Border*2
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			s := "  "
			if c.dark(x, y) {
				s = "##"
			}
			b.WriteString(s)
		}
		if err := b.WriteByte('\n'); err != nil {
			return err
		}
	}
	return b.Flush()
}

// String returns the code as lines of Unicode half blocks, two pixel
// rows per line, with the quiet zone.  White pixels are drawn filled,
// for terminals with light text on a dark background; set c.Reverse
// for the opposite.
func (c *Code) String() string {
	if !c.isValid() {
		return ""
	}
	blocks := [4]string{" ", "▀", "▄", "█"} // bit 0 upper, bit 1 lower
	n := c.Size + c.Border*2
	var sb strings.Builder
	for y := 0; y < n; y += 2 {
		for x := 0; x < n; x++ {
			i := 0
			if !c.dark(x, y) {
				i |= 1
			}
			if y+1 < n && !c.dark(x, y+1) {
				i |= 2
			}
			sb.WriteString(blocks[i])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
