// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adjust folds global brightness, per-channel color correction and
// color temperature into the per-channel scale factors applied to every
// pixel before transmission.
package adjust

// Profile is a per-channel 8-bit scale, 255 meaning full output.
//
// Index 0 is red, 1 is green, 2 is blue.
type Profile [3]uint8

// Color correction profiles for common strip hardware. The green and blue
// channels on typical SMD packages run hot relative to red.
var (
	TypicalSMD5050     = Profile{255, 176, 240}
	TypicalLEDStrip    = TypicalSMD5050
	Typical8mmPixel    = Profile{255, 224, 140}
	TypicalPixelString = Typical8mmPixel
	UncorrectedColor   = Profile{255, 255, 255}
)

// Color temperature profiles, black body radiators first, then gaseous
// light sources.
var (
	Candle         = Profile{255, 147, 41}
	Tungsten40W    = Profile{255, 197, 143}
	Tungsten100W   = Profile{255, 214, 170}
	Halogen        = Profile{255, 241, 224}
	CarbonArc      = Profile{255, 250, 244}
	HighNoonSun    = Profile{255, 255, 251}
	DirectSunlight = Profile{255, 255, 255}
	OvercastSky    = Profile{201, 226, 255}
	ClearBlueSky   = Profile{64, 156, 255}

	WarmFluorescent         = Profile{255, 244, 229}
	StandardFluorescent     = Profile{244, 255, 250}
	CoolWhiteFluorescent    = Profile{212, 235, 255}
	FullSpectrumFluorescent = Profile{255, 244, 242}
	SodiumVapor             = Profile{255, 209, 178}
	MetalHalide             = Profile{242, 252, 255}

	UncorrectedTemperature = Profile{255, 255, 255}
)

// Adjustment is the resolved per-channel scaling for one frame.
//
// Premixed folds brightness into the channel scales and is what the
// standard 8-bit transmission path uses. ColorScale and Brightness keep the
// two factors separate for drivers with a native brightness field (5-bit
// global brightness protocols), which apply them jointly with gamma
// correction and keep precision that premixing would throw away.
type Adjustment struct {
	Premixed   Profile
	ColorScale Profile
	Brightness uint8
}

// Compute resolves brightness, correction and temperature into an
// Adjustment.
//
// A zero correction or temperature entry fully suppresses that channel.
// Otherwise the channel scale is (correction+1)*(temperature+1)*brightness
// taken down to 8 bits. The result is monotonic in brightness.
func Compute(brightness uint8, correction, temperature Profile) Adjustment {
	a := Adjustment{Brightness: brightness}
	for c := 0; c < 3; c++ {
		cc := correction[c]
		ct := temperature[c]
		if cc == 0 || ct == 0 {
			continue
		}
		work := (uint32(cc) + 1) * (uint32(ct) + 1)
		if cs := work >> 8; cs > 255 {
			a.ColorScale[c] = 255
		} else {
			a.ColorScale[c] = uint8(cs)
		}
		a.Premixed[c] = uint8(work * uint32(brightness) >> 16)
	}
	return a
}
