// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termview

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/maruel/ansi256"

	"periph.io/x/ledstream/adjust"
	"periph.io/x/ledstream/pixelstream"
)

// newDev returns a Dev writing to a buffer instead of stdout.
func newDev(l int, colored bool) (*Dev, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Dev{
		w:       buf,
		l:       l,
		palette: *ansi256.Default,
		color:   colored,
		pixels:  make([]byte, 3*l),
	}, buf
}

func TestShade(t *testing.T) {
	data := []struct {
		r, g, b uint8
		want    byte
	}{
		{0, 0, 0, ' '},
		{255, 255, 255, '@'},
		{128, 128, 128, '+'},
		{255, 0, 0, ':'},
	}
	for _, line := range data {
		if got := shade(line.r, line.g, line.b); got != line.want {
			t.Fatalf("shade(%d, %d, %d) = %q, want %q", line.r, line.g, line.b, got, line.want)
		}
	}
}

func TestWriteMonochrome(t *testing.T) {
	d, buf := newDev(3, false)
	if _, err := d.Write([]byte{0, 0, 0, 255, 255, 255, 128, 128, 128}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != " @+\n" {
		t.Fatalf("rendered %q, want %q", got, " @+\n")
	}
}

func TestWriteColor(t *testing.T) {
	d, buf := newDev(2, true)
	if _, err := d.Write([]byte{255, 0, 0, 0, 0, 255}); err != nil {
		t.Fatal(err)
	}
	want := "\r\033[0m" +
		d.palette.Block(color.NRGBA{255, 0, 0, 255}) +
		d.palette.Block(color.NRGBA{0, 0, 255, 255}) +
		"\033[0m "
	if got := buf.String(); got != want {
		t.Fatalf("rendered %q, want %q", got, want)
	}
}

func TestWriteInvalidLength(t *testing.T) {
	d, _ := newDev(2, false)
	if _, err := d.Write([]byte{1, 2}); err == nil {
		t.Fatal("expected error for a non multiple of 3")
	}
}

func TestWritePixels(t *testing.T) {
	d, buf := newDev(2, false)
	adj := adjust.Compute(255, adjust.UncorrectedColor, adjust.UncorrectedTemperature)
	s, err := pixelstream.New([]byte{255, 255, 255, 0, 0, 0}, 2, adj, pixelstream.DitherOff, pixelstream.RGB, pixelstream.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WritePixels(s); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "@ \n" {
		t.Fatalf("rendered %q, want %q", got, "@ \n")
	}
	if s.Has(1) {
		t.Fatal("stream not consumed")
	}
}

func TestDraw(t *testing.T) {
	d, buf := newDev(2, false)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "@ \n" {
		t.Fatalf("rendered %q, want %q", got, "@ \n")
	}
}

func TestBounds(t *testing.T) {
	d, _ := newDev(5, false)
	if got := d.Bounds(); got.Dx() != 5 || got.Dy() != 1 {
		t.Fatalf("bounds = %v, want 5x1", got)
	}
}

func TestHalt(t *testing.T) {
	d, buf := newDev(1, true)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\033[0m") {
		t.Fatalf("halt did not reset terminal attributes: %q", buf.String())
	}
}
