// Copyright 2026 The PPEF Authors
// This file is part of ppef.
//
// ppef is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ppef is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

// Package bitio packs and unpacks sub-word-aligned unsigned integers
// into a dense array of 64-bit words, and provides the small set of
// bit-twiddling primitives the Elias-Fano codec is built on.
package bitio

import "math/bits"

// FloorLog2 returns floor(log2(x)). x must be > 0.
func FloorLog2(x uint64) uint64 {
	return uint64(bits.Len64(x) - 1)
}

// CeilDiv returns ceil(a/b) without overflowing for the magnitudes this
// codec deals in (a, b < 2^63).
func CeilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Ctz returns the number of trailing zero bits of x. x must be > 0.
func Ctz(x uint64) uint64 {
	return uint64(bits.TrailingZeros64(x))
}

// Mask64 returns a mask with the w least-significant bits set.
// w must be in [0, 64]; Mask64(64) is all-ones.
func Mask64(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	if w == 0 {
		return 0
	}
	return (uint64(1) << w) - 1
}
