// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package clockless

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"periph.io/x/ledstream/adjust"
	"periph.io/x/ledstream/cycle"
	"periph.io/x/ledstream/cycle/cycletest"
	"periph.io/x/ledstream/pixelstream"
)

func fullScale() adjust.Adjustment {
	return adjust.Compute(255, adjust.UncorrectedColor, adjust.UncorrectedTemperature)
}

// transition is one recorded level change with its cycle timestamp.
type transition struct {
	l  gpio.Level
	at uint32
}

type phasePin struct {
	gpiotest.Pin
	clk *cycletest.Clock
	tr  []transition
}

func (p *phasePin) Out(l gpio.Level) error {
	p.tr = append(p.tr, transition{l, p.clk.Now()})
	return p.Pin.Out(l)
}

func newStream(t *testing.T, pixels []byte, count int) *pixelstream.Stream {
	t.Helper()
	s, err := pixelstream.New(pixels, count, fullScale(), pixelstream.DitherOff, pixelstream.RGB, pixelstream.Forward)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestPhaseDurations checks every emitted phase against the requested
// nanosecond timings at a 16MHz cycle rate: (350, 350, 550)ns come out as
// (6, 6, 9) cycles, each accurate to one cycle period.
func TestPhaseDurations(t *testing.T) {
	const freq = 16 * physic.MegaHertz
	tm := Timings{T1: 350, T2: 350, T3: 550}
	t1 := cycle.FromNanos(freq, tm.T1)
	t2 := cycle.FromNanos(freq, tm.T2)
	t3 := cycle.FromNanos(freq, tm.T3)

	clk := &cycletest.Clock{Step: 1}
	p := &phasePin{Pin: gpiotest.Pin{N: "LED"}, clk: clk}
	d, err := New(p, clk, freq, tm, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.tr = p.tr[:0]

	// One byte on the wire: 0xf0, so four one bits then four zero bits.
	s := newStream(t, []byte{0xf0, 0, 0}, 1)
	if err := d.WritePixels(s); err != nil {
		t.Fatal(err)
	}

	within := func(got, want uint32, what string, bit int) {
		t.Helper()
		diff := int64(got) - int64(want)
		if diff < -1 || diff > 1 {
			t.Fatalf("bit %d: %s lasted %d cycles, want %d±1", bit, what, got, want)
		}
	}

	// Walk the first 8 bits (byte 0xf0); remaining bytes are zero bits.
	i := 0
	for bit := 0; bit < 8; bit++ {
		one := bit < 4
		if p.tr[i].l != gpio.High {
			t.Fatalf("bit %d starts with %s", bit, p.tr[i].l)
		}
		start := p.tr[i].at
		if one {
			// High through T1+T2, then the T3 low tail.
			within(p.tr[i+1].at-start, t1+t2, "high phase", bit)
			i += 2
		} else {
			within(p.tr[i+1].at-start, t1, "T1 phase", bit)
			within(p.tr[i+2].at-p.tr[i+1].at, t2, "T2 phase", bit)
			i += 3
		}
		if bit < 7 {
			// Next bit's rising edge closes the T3 phase.
			within(p.tr[i].at-p.tr[i-1].at, t3, "T3 phase", bit)
		}
	}
}

// countHigh counts rising transitions, 24 per transmitted white pixel.
func countHigh(tr []transition) int {
	n := 0
	for _, t := range tr {
		if t.l == gpio.High {
			n++
		}
	}
	return n
}

func TestRetryOnDrift(t *testing.T) {
	clk := &cycletest.Clock{Step: 1}
	p := &phasePin{Pin: gpiotest.Pin{N: "LED"}, clk: clk}
	d, err := New(p, clk, 16*physic.MegaHertz, WS2812, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.tr = p.tr[:0]
	// A long stretch lands mid-frame, as if an interrupt preempted a
	// phase. The frame must be retransmitted once.
	clk.InjectJump(50, 100000)
	s := newStream(t, []byte{0xff, 0xff, 0xff}, 1)
	if err := d.WritePixels(s); err != nil {
		t.Fatal(err)
	}
	if got := countHigh(p.tr); got != 48 {
		t.Fatalf("counted %d rising edges, want 48 (one clean retransmission)", got)
	}
	if s.Has(1) {
		t.Fatal("stream must be consumed exactly once")
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	// A clock stepping faster than a whole bit time makes every attempt
	// dirty; the driver gives up after the budget without reporting an
	// error, best effort.
	clk := &cycletest.Clock{Step: 50000}
	p := &phasePin{Pin: gpiotest.Pin{N: "LED"}, clk: clk}
	d, err := New(p, clk, 16*physic.MegaHertz, WS2812, nil)
	if err != nil {
		t.Fatal(err)
	}
	p.tr = p.tr[:0]
	s := newStream(t, []byte{0xff, 0xff, 0xff}, 1)
	if err := d.WritePixels(s); err != nil {
		t.Fatal(err)
	}
	if got := countHigh(p.tr); got != 24*(1+defaultRetries) {
		t.Fatalf("counted %d rising edges, want %d", got, 24*(1+defaultRetries))
	}
}

func TestNewValidation(t *testing.T) {
	clk := &cycletest.Clock{Step: 1}
	if _, err := New(nil, clk, physic.MegaHertz, WS2812, nil); err == nil {
		t.Fatal("expected error for nil pin")
	}
	p := &gpiotest.Pin{N: "LED"}
	if _, err := New(p, clk, physic.MegaHertz, Timings{}, nil); err == nil {
		t.Fatal("expected error for zero timings")
	}
	if _, err := New(p, nil, physic.MegaHertz, WS2812, nil); err == nil {
		t.Fatal("expected error for nil clock")
	}
}
