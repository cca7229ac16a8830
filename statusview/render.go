// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package statusview

import (
	"log"
	"net/http"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// labelWidth is the fixed gutter left of the strip rows for the name
// labels.
const labelWidth = 96

// servePNG renders every strip's current buffer as one row of colored
// squares, labeled with the strip name.
func (h *Handler) servePNG(w http.ResponseWriter) {
	strips := h.e.Strips()

	maxLen := 1
	for _, s := range strips {
		if n := s.Len() * s.Lanes(); n > maxLen {
			maxLen = n
		}
	}
	rows := len(strips)
	if rows == 0 {
		rows = 1
	}
	rowH := h.scale + 4
	dc := gg.NewContext(labelWidth+maxLen*h.scale, rows*rowH)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for row, s := range strips {
		y := float64(row * rowH)
		dc.SetRGB255(200, 200, 200)
		dc.DrawString(s.String(), 2, y+float64(rowH)/2+4)
		px := s.Pixels()
		for i := 0; i+2 < len(px); i += 3 {
			dc.SetRGB255(int(px[i]), int(px[i+1]), int(px[i+2]))
			dc.DrawRectangle(float64(labelWidth+(i/3)*h.scale), y+2, float64(h.scale), float64(h.scale))
			dc.Fill()
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if err := dc.EncodePNG(w); err != nil {
		log.Printf("Encoding preview failed: %v", err)
	}
}
