// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a strip driver that outputs to terminal
// (stdout) using ANSI color codes.
//
// Useful while you are waiting for your super nice addressable LED strip
// to come by mail: register it on the engine in place of a hardware driver
// and the whole pipeline, scaling and dithering included, renders into
// your terminal.
package termview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/display"

	"periph.io/x/ledstream/pixelstream"
)

// Opts represents the options available for this display.
type Opts struct {
	X       int
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a 1D LED strip emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	l       int
	palette ansi256.Palette
	color   bool

	pixels []byte
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
//
// When stdout is not a terminal the strip renders as plain characters
// instead of ANSI blocks, so piping output stays readable.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       colorable.NewColorableStdout(),
		l:       opts.X,
		palette: *p,
		color:   isatty.IsTerminal(os.Stdout.Fd()),
		pixels:  make([]byte, 3*opts.X),
	}
	return d
}

func (d *Dev) String() string {
	return "TermView"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the shell is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// WritePixels implements the engine's driver contract: it pulls the
// scaled, dithered bytes from s and renders one strip line.
func (d *Dev) WritePixels(s *pixelstream.Stream) error {
	i := 0
	for s.Has(1) && i+2 < len(d.pixels) {
		d.pixels[i], d.pixels[i+1], d.pixels[i+2] = s.LoadAndScaleRGB()
		s.Advance()
		s.StepDithering()
		i += 3
	}
	_, err := d.refresh()
	return err
}

// Write accepts a stream of raw RGB pixels and writes it to the console.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, errors.New("termview: invalid RGB stream length")
	}
	copy(d.pixels, pixels)
	return d.refresh()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: d.l, Y: 1}}
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	if dY := r.Dy(); dY < srcR.Dy() {
		srcR.Max.Y = srcR.Min.Y + dY
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		d.pixels[dX3] = byte(r16 >> 8)
		d.pixels[dX3+1] = byte(g16 >> 8)
		d.pixels[dX3+2] = byte(b16 >> 8)
	}
	_, err := d.refresh()
	return err
}

func (d *Dev) refresh() (int, error) {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.color {
		_, _ = d.buf.WriteString("\r\033[0m")
		for i := 0; i < len(d.pixels)/3; i++ {
			c := color.NRGBA{d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2], 255}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m ")
	} else {
		for i := 0; i < len(d.pixels)/3; i++ {
			d.buf.WriteByte(shade(d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2]))
		}
		d.buf.WriteByte('\n')
	}
	_, err := d.buf.WriteTo(d.w)
	return len(d.pixels), err
}

// shade maps a pixel to a crude luminance character for non-terminal
// output.
func shade(r, g, b uint8) byte {
	const ramp = " .:-=+*#%@"
	// Rec. 601 luma, integer weights.
	y := (299*int(r) + 587*int(g) + 114*int(b)) / 1000
	return ramp[y*len(ramp)/256]
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
