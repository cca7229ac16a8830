// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cycle converts nanosecond delays into CPU cycle counts and
// busy-waits against a free-running cycle counter.
//
// Bit-banged LED protocols need delays far below what a scheduler can
// honor, so all waits here spin. The counter is expected to wrap; all
// deadline comparisons are done in modular arithmetic.
package cycle

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Clock is a free-running cycle counter running at a fixed frequency.
//
// On microcontrollers this maps to a hardware cycle counter (DWT->CYCCNT and
// friends). On hosts use System.
type Clock interface {
	// Cycles returns the current counter value. The value wraps.
	Cycles() uint32
}

// FromNanos returns the number of cycles covering ns nanoseconds at f,
// rounded up so a non-zero delay never truncates to a zero-cycle wait.
func FromNanos(f physic.Frequency, ns uint32) uint32 {
	perMicro := uint64(f / physic.MegaHertz)
	if perMicro == 0 {
		perMicro = 1
	}
	return uint32((uint64(ns)*perMicro + 999) / 1000)
}

// ToNanos returns the duration of n cycles at f in nanoseconds.
func ToNanos(f physic.Frequency, n uint32) uint64 {
	hz := uint64(f / physic.Hertz)
	if hz == 0 {
		return 0
	}
	return uint64(n) * 1000000000 / hz
}

// WaitUntil spins until c reaches deadline.
//
// Correct across counter wrap as long as the wait is shorter than half the
// counter range.
func WaitUntil(c Clock, deadline uint32) {
	for int32(deadline-c.Cycles()) > 0 {
	}
}

// Wait spins for n cycles.
func Wait(c Clock, n uint32) {
	WaitUntil(c, c.Cycles()+n)
}

// System returns a Clock synthesized from the wall clock, counting as if a
// hardware counter ran at f.
//
// Useful for host-side development sinks; it cannot deliver the
// sub-microsecond accuracy of a real cycle counter.
func System(f physic.Frequency) Clock {
	return &systemClock{hz: uint64(f / physic.Hertz), epoch: time.Now()}
}

type systemClock struct {
	hz    uint64
	epoch time.Time
}

func (s *systemClock) Cycles() uint32 {
	ns := uint64(time.Since(s.epoch).Nanoseconds())
	return uint32(ns * s.hz / 1000000000)
}
