// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cycletest provides a deterministic cycle.Clock for unit tests.
package cycletest

import "periph.io/x/ledstream/cycle"

// Clock is a cycle.Clock that advances by Step on every read, so code
// spinning on it always makes progress.
//
// Jumps can be scheduled to simulate an interrupt stretching a wait.
type Clock struct {
	Step uint32

	now   uint32
	jumps []jump
}

type jump struct {
	after int
	extra uint32
}

// Cycles implements cycle.Clock.
func (c *Clock) Cycles() uint32 {
	c.now += c.Step
	if len(c.jumps) != 0 {
		c.jumps[0].after--
		if c.jumps[0].after <= 0 {
			c.now += c.jumps[0].extra
			c.jumps = c.jumps[1:]
		}
	}
	return c.now
}

// Now returns the current counter value without advancing it.
func (c *Clock) Now() uint32 {
	return c.now
}

// InjectJump schedules an extra advance of extra cycles, applied on the
// n-th read from now. Queued jumps apply in order.
func (c *Clock) InjectJump(n int, extra uint32) {
	c.jumps = append(c.jumps, jump{after: n, extra: extra})
}

var _ cycle.Clock = &Clock{}
