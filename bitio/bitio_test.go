// Copyright 2026 The PPEF Authors
// This file is part of ppef.

package bitio

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randSortedUint64s(n int, maxValue uint64, rng *rand.Rand) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		if maxValue == 0 {
			out[i] = 0
			continue
		}
		out[i] = uint64(rng.Int63n(int64(maxValue)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestWriterReaderRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 100
	const width = 7
	seq := randSortedUint64s(n, 1<<width, rng)

	w := NewWriter(0)
	for _, v := range seq {
		w.Put(v, width)
	}
	require.EqualValues(t, n*width%64, w.Filled())
	w.Flush()
	require.Len(t, w.Words, int(CeilDiv(n*width, 64)))

	r := NewReader(w.Words)
	for _, v := range seq {
		require.Equal(t, v, r.Get(width))
	}
}

func TestReaderScan(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const n = 100
	const width = 7
	seq := randSortedUint64s(n, 1<<width, rng)

	w := NewWriter(0)
	for _, v := range seq {
		w.Put(v, width)
	}
	w.Flush()

	r := NewReader(w.Words)
	r.Scan(50 * width)
	for i := 0; i < 50; i++ {
		require.Equal(t, seq[i+50], r.Get(width))
	}
}

func TestReaderEndOfStream(t *testing.T) {
	r := NewReader(nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, uint64(0), r.Get(7))
	}
}

func TestWriterZeroBits(t *testing.T) {
	w := NewWriter(0)
	w.Put(7, 0)
	assert.Empty(t, w.Words)
	assert.EqualValues(t, 0, w.Filled())
}

func TestPutWidth64(t *testing.T) {
	w := NewWriter(0)
	w.Put(^uint64(0), 64)
	w.Flush()
	require.Len(t, w.Words, 1)
	require.Equal(t, ^uint64(0), w.Words[0])

	// non-zero filled, then a width-64 write must split across words.
	w2 := NewWriter(0)
	w2.Put(0b101, 3)
	w2.Put(^uint64(0), 64)
	w2.Flush()
	r := NewReader(w2.Words)
	require.EqualValues(t, 0b101, r.Get(3))
	require.Equal(t, ^uint64(0), r.Get(64))
}

func TestScanKthValueAtUniformWidth(t *testing.T) {
	const width = 11
	const n = 40
	w := NewWriter(0)
	vals := make([]uint64, n)
	for i := range vals {
		vals[i] = uint64(i*37+3) & Mask64(width)
		w.Put(vals[i], width)
	}
	w.Flush()
	r := NewReader(w.Words)
	for k := 0; k < n; k++ {
		r.Scan(uint64(k) * width)
		require.Equal(t, vals[k], r.Get(width), "k=%d", k)
	}
}

func TestFloorLog2(t *testing.T) {
	assert.EqualValues(t, 0, FloorLog2(1))
	assert.EqualValues(t, 1, FloorLog2(2))
	assert.EqualValues(t, 1, FloorLog2(3))
	assert.EqualValues(t, 2, FloorLog2(4))
	assert.EqualValues(t, 63, FloorLog2(1<<63))
}

func TestCeilDiv(t *testing.T) {
	assert.EqualValues(t, 0, CeilDiv(0, 8))
	assert.EqualValues(t, 1, CeilDiv(1, 8))
	assert.EqualValues(t, 1, CeilDiv(8, 8))
	assert.EqualValues(t, 2, CeilDiv(9, 8))
}

func TestCtz(t *testing.T) {
	assert.EqualValues(t, 0, Ctz(1))
	assert.EqualValues(t, 1, Ctz(2))
	assert.EqualValues(t, 3, Ctz(8))
	assert.EqualValues(t, 63, Ctz(1<<63))
}

func TestNextOneAtOrAfter(t *testing.T) {
	words := []uint64{0b1010, 0, 0b1}
	assert.EqualValues(t, 1, NextOneAtOrAfter(words, len(words), 0))
	assert.EqualValues(t, 1, NextOneAtOrAfter(words, len(words), 1))
	assert.EqualValues(t, 3, NextOneAtOrAfter(words, len(words), 2))
	assert.EqualValues(t, 128, NextOneAtOrAfter(words, len(words), 4))
	assert.Equal(t, NoBit, NextOneAtOrAfter(words, len(words), 129))
	assert.Equal(t, NoBit, NextOneAtOrAfter(nil, 0, 0))
}
