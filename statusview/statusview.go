// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package statusview exposes the engine's strip registry over HTTP for
// external tooling.
//
// The handler serializes each registered strip's id, type and pixel count
// as JSON, and can render a PNG preview of the current buffer contents.
// It is a pure consumer of the registry: it observes frames through the
// engine's hooks and never participates in transmission.
package statusview

import (
	"encoding/json"
	"log"
	"net/http"

	"periph.io/x/ledstream/engine"
)

// Options for the status handler.
type Options struct {
	// Scale is the pixel square edge in the PNG preview, in image pixels.
	// Defaults to 8.
	Scale int

	_ struct{}
}

// Handler serves the strip registry. It implements http.Handler.
type Handler struct {
	e     *engine.Engine
	scale int
}

// New returns a Handler over e's registry.
func New(e *engine.Engine, opts *Options) *Handler {
	h := &Handler{e: e, scale: 8}
	if opts != nil && opts.Scale > 0 {
		h.scale = opts.Scale
	}
	return h
}

// stripInfo is the JSON shape of one registered strip.
type stripInfo struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Pixels  int    `json:"pixels"`
	Lanes   int    `json:"lanes"`
	Enabled bool   `json:"enabled"`
}

// ServeHTTP handles HTTP GET requests. The default response is the JSON
// strip list; clients request the rendered preview with "?format=png".
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		log.Printf("Closing request body failed: %v", err)
	}

	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		h.serveJSON(w)
	case "png":
		h.servePNG(w)
	default:
		http.Error(w, "unhandled format "+format, http.StatusBadRequest)
	}
}

func (h *Handler) serveJSON(w http.ResponseWriter) {
	strips := h.e.Strips()
	out := make([]stripInfo, 0, len(strips))
	for _, s := range strips {
		out = append(out, stripInfo{
			ID:      s.ID(),
			Type:    s.String(),
			Pixels:  s.Len(),
			Lanes:   s.Lanes(),
			Enabled: s.Enabled(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Printf("Encoding strip list failed: %v", err)
	}
}
