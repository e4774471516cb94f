// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Masks is the number of mask patterns.
const Masks = 8

// Mask patterns:
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
var maskFunc = [Masks]func(x, y int) bool{
	func(x, y int) bool { return (x+y)%2 == 0 },
	func(x, y int) bool { return y%2 == 0 },
	func(x, y int) bool { return x%3 == 0 },
	func(x, y int) bool { return (x+y)%3 == 0 },
	func(x, y int) bool { return (y/2+x/3)%2 == 0 },
	func(x, y int) bool { return x*y%2+x*y%3 == 0 },
	func(x, y int) bool { return (x*y%2+x*y%3)%2 == 0 },
	func(x, y int) bool { return ((x+y)%2+x*y%3)%2 == 0 },
}

var maskFormula = [Masks]string{
	"(x+y) mod 2 = 0",
	"y mod 2 = 0",
	"x mod 3 = 0",
	"(x+y) mod 3 = 0",
	"(⌊y/2⌋+⌊x/3⌋) mod 2 = 0",
	"(xy mod 2)+(xy mod 3) = 0",
	"((xy mod 2)+(xy mod 3)) mod 2 = 0",
	"(((x+y) mod 2)+(xy mod 3)) mod 2 = 0",
}

// ValidMask reports whether mask is a mask pattern number.
func ValidMask(mask int) bool { return 0 <= mask && mask < Masks }

// Mask reports whether the pixel in column x, row y is inverted by
// the mask pattern.  Invalid masks invert nothing.
func Mask(mask, x, y int) bool {
	return ValidMask(mask) && maskFunc[mask](x, y)
}

// MaskFormula returns the condition of the mask pattern, or "" for
// an invalid mask.
func MaskFormula(mask int) string {
	if !ValidMask(mask) {
		return ""
	}
	return maskFormula[mask]
}
