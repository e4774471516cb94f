// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command qrstep prints the layout of a version 1 QR code after a
// given construction stage.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/unixdj/qrstep"
	"github.com/unixdj/qrstep/coding"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"golang.org/x/text/encoding/japanese"
)

var g = struct {
	stage   int    // construction stage
	mask    int    // mask, qrstep.NoMask for none
	auto    bool   // choose mask by penalty
	scale   int    // image pixels per QR pixel
	border  int    // quiet zone
	rev     bool   // reverse colours
	fn      string // filename
	format  int    // output format
	verbose int    // log level
	cx      int    // randr source X coordinate index in inc
	inc     [2]int // randr source X,Y coordinate increments
	sjis    bool   // Shift JIS input
	upper   bool   // uppercase
}{
	inc: [2]int{1, 1},
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "QR code construction steps\nUsage: ", cl.Program(),
		" ", cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.  The text is encoded as ISO 8859-1 and may be at
most `, qrstep.MaxLen, ` bytes long; longer text stops at stage `,
		qrstep.StageText, `.

Stages:
   1  empty grid             7  length byte
   2  function patterns      8  payload bytes
   3  format reservations    9  terminator
   4  mode indicator        10  pad and error correction bytes
   5  text                  11  mask
   6  byte positions        12  format bits

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	w.Write(b.Bytes())
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qrstep version 0.1.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

func flip() {
	g.inc[0] = -g.inc[0]
}

func rotate() {
	g.cx ^= 1
	m := g.inc[0] * g.inc[1]
	g.inc[0] *= m
	g.inc[1] *= -m
}

func verbose() {
	g.verbose++
}

var formats = []string{
	"png", "pngi", "pbm", "pbmi", "eps", "epsi",
	"utf8", "utf8i", "ascii", "asciii", "json", "jsoni", "info", "infoi",
}

var encoders = [...]func(*qrstep.Snapshot, *qrstep.Code, io.Writer) error{
	func(_ *qrstep.Snapshot, c *qrstep.Code, w io.Writer) error {
		return png.Encode(w, c.Image())
	},
	func(_ *qrstep.Snapshot, c *qrstep.Code, w io.Writer) error {
		return c.EncodePBM(w)
	},
	func(_ *qrstep.Snapshot, c *qrstep.Code, w io.Writer) error {
		return eps(c, w)
	},
	func(_ *qrstep.Snapshot, c *qrstep.Code, w io.Writer) error {
		_, err := fmt.Fprint(w, c)
		return err
	},
	func(_ *qrstep.Snapshot, c *qrstep.Code, w io.Writer) error {
		return c.EncodeASCII(w)
	},
	func(s *qrstep.Snapshot, _ *qrstep.Code, w io.Writer) error {
		e := json.NewEncoder(w)
		e.SetIndent("", "\t")
		return e.Encode(s)
	},
	info,
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.Flag(opt(verbose), 'v', "log stages to standard error; "+
		"-vv: debug").SetFlag()
	getopt.Flag(opt(flip), 'f', `flip code horizontally; `+
		`to flip vertically, use "-frr"`).SetFlag()
	getopt.Flag(opt(rotate), 'r', `rotate code 90° counterclockwise; `+
		`-r and -f may be given multiple times, `+
		`order matters: "-fr" = "-rfrr" = "-rrrf"`).SetFlag()
	getopt.Flag(&g.sjis, 'k', "Shift JIS input")
	getopt.Flag(&g.upper, 'i', `ignore case, convert input to uppercase`)
	getopt.Flag(&g.auto, 'M', "choose the mask with the lowest penalty")
	getopt.Flag(&g.border, 'b', `quiet zone pixels [4]`, "margin")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output`, "file")
	stage := getopt.Unsigned('s', qrstep.Stages,
		&getopt.UnsignedLimit{Base: 0, Bits: 8, Min: qrstep.StageEmpty, Max: qrstep.Stages},
		"construction stage", "stage")
	mask := getopt.Signed('m', qrstep.NoMask,
		&getopt.SignedLimit{Base: 0, Bits: 8, Min: qrstep.NoMask, Max: coding.Masks - 1},
		"mask pattern; -1: none", "mask")
	scale := getopt.Unsigned('x', 8,
		&(getopt.UnsignedLimit{Base: 0, Bits: 28, Min: 1, Max: 1 << 12}),
		`image pixels (type eps[i]: points) per QR module ("pixel"); `+
			`only for types png[i], pbm[i] and eps[i]`, "scale")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; types with "i" appended have colours inverted; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise pbm`, "type")

	getopt.Parse()
	if g.auto && getopt.IsSet('m') {
		fmt.Fprintln(os.Stderr, "-m and -M are incompatible")
		usage()
	}
	g.stage = int(*stage)
	g.mask = int(*mask)
	g.scale = int(*scale)
	if !getopt.IsSet('b') {
		g.border = 4
	} else if g.border < 0 || g.border > 64 {
		fmt.Fprintln(os.Stderr, "-b: margin out of range")
		usage()
	}
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "pbm"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i >> 1
			g.rev = i&1 != 0
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
}

func setLogger() {
	if g.verbose == 0 {
		return
	}
	level := slog.LevelInfo
	if g.verbose > 1 {
		level = slog.LevelDebug
	}
	qrstep.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})))
}

func main() {
	log.SetFlags(0)
	parseFlags()
	setLogger()

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatalln(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.sjis {
		var err error
		if s, err = japanese.ShiftJIS.NewDecoder().String(s); err != nil {
			log.Fatalln(fmt.Errorf("shift jis input: %w", err))
		}
	}
	if g.upper {
		s = strings.ToUpper(s)
	}
	if g.auto {
		g.mask = qrstep.SuggestMask(s)
	}

	snap := qrstep.Build(g.stage, s, g.mask)
	if snap.Stage != snap.Requested {
		log.Printf("%v: stopped at stage %d", qrstep.CheckText(s),
			snap.Stage)
	}
	if snap.Replaced != 0 {
		log.Printf("%d characters not in ISO 8859-1 replaced with %q",
			snap.Replaced, coding.Replacement)
	}
	write(snap)
}

func write(s *qrstep.Snapshot) {
	w := os.Stdout
	open := g.fn != ""
	if open {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			log.Fatalln(err)
		}
	}
	c := randr(s.Code())
	c.Scale = g.scale
	c.Border = g.border
	c.Reverse = g.rev
	err := encoders[g.format](s, c, w)
	if open && err == nil {
		err = w.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}
}

// randr rotates and reflects c.
func randr(c *qrstep.Code) *qrstep.Code {
	cx, inc := g.cx, g.inc
	if cx == 0 && inc == [2]int{1, 1} {
		return c
	}
	b := make([]byte, 0, len(c.Bitmap))
	var coord [2]int
	siz := c.Size
	coord[cx^1] = (siz - 1) & inc[1]
	for y := 0; y < siz; y++ {
		coord[cx] = (siz - 1) & inc[0]
		var bb byte
		for x := 0; x < siz; x++ {
			bb <<= 1
			if c.Black(coord[0], coord[1]) {
				bb |= 1
			}
			if x&7 == 7 {
				b = append(b, bb)
			}
			coord[cx] += inc[0]
		}
		if siz&7 != 0 {
			b = append(b, bb<<(8-siz&7))
		}
		coord[cx^1] += inc[1]
	}
	c.Bitmap = b
	return c
}

func eps(c *qrstep.Code, w io.Writer) error {
	const midx, midy = 306, 396
	siz := c.Size
	scale := c.Scale
	bord := c.Border
	xorig := (midx*2 - (siz+2*bord)*scale) / 2
	yorig := (midy*2 - (siz+2*bord)*scale) / 2
	fmt.Fprintf(w, `%%!PS-Adobe-2.0 EPSF-2.0
%%%%Creator: qrstep https://github.com/unixdj/qrstep
%%%%Title: QR Code
%%%%BoundingBox: %d %d %d %d
%%%%EndComments
%%%%EndProlog
<< >> begin
gsave
%g %g translate
%d dup neg scale
/row 0 def
/p { 0 rmoveto 0 rlineto } def
/r { 0 row 1 add dup /row exch def moveto } def
`,
		xorig-1, yorig-1, midx*2-xorig, midy*2-yorig,
		midx-float64(siz*scale)/2, midy+float64((siz-1)*scale)/2-1,
		scale)
	black := c.Black
	if c.Reverse {
		fmt.Fprintf(w, `gsave
newpath %d %d moveto
%d dup neg scale
1 0 rlineto stroke
grestore
1 setgray
`,
			-bord, siz/2, siz+2*bord)
	}
	fmt.Fprintln(w, "newpath 0 0 moveto")
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; {
			s := x
			for x < siz && !black(x, y) {
				x++
			}
			if x == siz {
				break
			}
			b := x
			for x < siz && black(x, y) {
				x++
			}
			fmt.Fprintf(w, "%d %d p ", x-b, b-s)
		}
		fmt.Fprintln(w, "r")
	}
	_, err := io.WriteString(w, "stroke grestore\nend\n%%Trailer\n")
	return err
}

// info writes a summary of the snapshot and its regions.
func info(s *qrstep.Snapshot, _ *qrstep.Code, w io.Writer) error {
	fmt.Fprintf(w, "stage:    %d (requested %d)\n", s.Stage, s.Requested)
	fmt.Fprintf(w, "text:     %q (%d bytes, %d replaced)\n",
		s.Text, len(s.Bytes), s.Replaced)
	if s.Masked {
		fmt.Fprintf(w, "mask:     %d\n", s.Mask)
	} else {
		fmt.Fprintln(w, "mask:     none")
	}
	count := make(map[string]int)
	for _, c := range s.Cells {
		count[c.Reg]++
	}
	ids := make([]string, 0, len(s.Regions))
	for id := range s.Regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := s.Regions[id]
		fmt.Fprintf(w, "%-16s %3d  %s", id, count[id], r.Title)
		if r.Description != "" {
			fmt.Fprint(w, ": ", r.Description)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
