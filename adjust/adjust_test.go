// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adjust_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"periph.io/x/ledstream/adjust"
)

func TestComputeFullScale(t *testing.T) {
	a := adjust.Compute(255, adjust.UncorrectedColor, adjust.UncorrectedTemperature)
	assert.Equal(t, adjust.Profile{255, 255, 255}, a.Premixed)
	assert.Equal(t, adjust.Profile{255, 255, 255}, a.ColorScale)
	assert.Equal(t, uint8(255), a.Brightness)
}

func TestComputeZeroSuppression(t *testing.T) {
	for b := 0; b <= 255; b += 17 {
		a := adjust.Compute(uint8(b), adjust.Profile{0, 255, 255}, adjust.UncorrectedTemperature)
		assert.Equal(t, uint8(0), a.Premixed[0], "zero correction must suppress the channel")
		a = adjust.Compute(uint8(b), adjust.UncorrectedColor, adjust.Profile{255, 0, 255})
		assert.Equal(t, uint8(0), a.Premixed[1], "zero temperature must suppress the channel")
	}
}

func TestComputeMonotonicInBrightness(t *testing.T) {
	profiles := []struct {
		c, t adjust.Profile
	}{
		{adjust.TypicalSMD5050, adjust.Candle},
		{adjust.TypicalPixelString, adjust.OvercastSky},
		{adjust.UncorrectedColor, adjust.UncorrectedTemperature},
	}
	for _, p := range profiles {
		var prev adjust.Profile
		for b := 0; b <= 255; b++ {
			a := adjust.Compute(uint8(b), p.c, p.t)
			for ch := 0; ch < 3; ch++ {
				if a.Premixed[ch] < prev[ch] {
					t.Fatalf("premixed[%d] decreased from %d to %d at brightness %d", ch, prev[ch], a.Premixed[ch], b)
				}
			}
			prev = a.Premixed
		}
	}
}

func TestComputeHDSeparation(t *testing.T) {
	// The color scale must not depend on brightness, so drivers with a
	// native brightness field can apply it themselves.
	lo := adjust.Compute(10, adjust.TypicalSMD5050, adjust.Halogen)
	hi := adjust.Compute(250, adjust.TypicalSMD5050, adjust.Halogen)
	assert.Equal(t, lo.ColorScale, hi.ColorScale)
	assert.Equal(t, uint8(10), lo.Brightness)
	assert.Equal(t, uint8(250), hi.Brightness)
}

func TestComputePremixFormula(t *testing.T) {
	a := adjust.Compute(128, adjust.Profile{255, 176, 240}, adjust.Profile{255, 147, 41})
	for ch, want := range [3]uint8{
		uint8((256 * 256 * 128) >> 16),
		uint8((177 * 148 * 128) >> 16),
		uint8((241 * 42 * 128) >> 16),
	} {
		assert.Equal(t, want, a.Premixed[ch], "channel %d", ch)
	}
}
