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

package bitio

import "math"

// NoBit is the sentinel NextOneAtOrAfter returns when no set bit exists
// at or after pos.
const NoBit uint64 = math.MaxUint64

// NextOneAtOrAfter returns the smallest bit index p >= pos such that bit
// p of words (word p/64, bit p%64) is 1. It returns NoBit if no such
// bit exists within the first nWords words of words.
//
// This is the inner loop of Elias-Fano decode: it scans forward
// word-by-word, masking off bits below pos in the first word, and uses
// Ctz to jump straight to the next set bit rather than testing one bit
// at a time.
func NextOneAtOrAfter(words []uint64, nWords int, pos uint64) uint64 {
	if nWords > len(words) {
		nWords = len(words)
	}
	wordIdx := int(pos / 64)
	if wordIdx >= nWords {
		return NoBit
	}
	bitInWord := uint(pos % 64)

	w := words[wordIdx] &^ Mask64(bitInWord)
	if w != 0 {
		return uint64(wordIdx)*64 + Ctz(w)
	}
	for i := wordIdx + 1; i < nWords; i++ {
		if words[i] != 0 {
			return uint64(i)*64 + Ctz(words[i])
		}
	}
	return NoBit
}
