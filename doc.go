// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledstream is a container for the addressable LED transmission
// engine: pixel scaling and temporal dithering, clocked and clockless strip
// drivers, power budgeting and the per-frame orchestrator.
//
// Start with package engine to register strips and drive frames, and with
// packages clocked and clockless for the wire protocols.
package ledstream
