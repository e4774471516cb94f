// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Replacement is the byte substituted for runes ISO 8859-1 cannot encode.
const Replacement = '?'

// An Encoding is text encoded for byte mode.
type Encoding struct {
	Text     string `json:"text"`     // text after substitution
	Bytes    []byte `json:"bytes"`    // one byte per rune
	Len      int    `json:"length"`   // len(Bytes)
	Replaced int    `json:"replaced"` // number of substituted runes
}

// Latin1 encodes text as ISO 8859-1, one byte per rune.  Runes above
// U+00FF, including invalid UTF-8, are replaced with '?' and counted.
func Latin1(text string) Encoding {
	var b strings.Builder
	e := Encoding{Bytes: make([]byte, 0, len(text))}
	for _, r := range text {
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			c = Replacement
			e.Replaced++
		}
		e.Bytes = append(e.Bytes, c)
		b.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	e.Text = b.String()
	e.Len = len(e.Bytes)
	return e
}
