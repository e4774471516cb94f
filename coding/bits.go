// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Bits is an MSB-first bit buffer.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a whole code.
func NewBits() *Bits {
	return &Bits{b: make([]byte, 0, TotalBytes)}
}

func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

// Bits returns the number of bits written.
func (b *Bits) Bits() int {
	return b.nbit
}

func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("qrstep: fractional byte")
	}
	return b.b
}

// Bit returns bit i as 0 or 1.  Past the end Bit returns 0.
func (b *Bits) Bit(i int) byte {
	if i < 0 || i >= b.nbit {
		return 0
	}
	return b.b[i>>3] >> (7 &^ i) & 1
}

// Add adds n zero bytes to b and returns the added slice.
func (b *Bits) Add(n int) []byte {
	if b.nbit%8 != 0 {
		panic("qrstep: fractional byte")
	}
	start := len(b.b)
	for i := 0; i < n; i++ {
		b.b = append(b.b, 0)
	}
	b.nbit = 8 * len(b.b)
	return b.b[start:]
}

// Write appends the low nbit bits of v, most significant first.
func (b *Bits) Write(v uint32, nbit int) {
	if nbit == 0 {
		return
	}
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// padBytes alternate to fill the unused data capacity.
var padBytes = [2]byte{0xec, 0x11}
