// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package clocked

import (
	"log"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"periph.io/x/ledstream/adjust"
	"periph.io/x/ledstream/pixelstream"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	// Open the SPI bus the strip's clock and data lines hang off.
	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()
	d, err := NewSPI(p, 4*physic.MegaHertz, nil)
	if err != nil {
		log.Fatal(err)
	}
	// Light 30 pixels red.
	pixels := make([]byte, 3*30)
	for i := 0; i < len(pixels); i += 3 {
		pixels[i] = 255
	}
	adj := adjust.Compute(255, adjust.TypicalLEDStrip, adjust.UncorrectedTemperature)
	s, err := pixelstream.New(pixels, 30, adj, pixelstream.DitherOff, pixelstream.BGR, pixelstream.Forward)
	if err != nil {
		log.Fatal(err)
	}
	if err := d.WritePixels(s); err != nil {
		log.Fatal(err)
	}
}
