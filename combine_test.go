// Copyright 2026 The PPEF Authors
// This file is part of ppef.

package ppef_test

import (
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ppef/ppef"
)

func TestIntersectSeedCase1(t *testing.T) {
	a, err := ppef.NewSequence([]uint64{1, 3, 4, 6, 10, 11, 12, 13}, ppef.WithBlockSize(2))
	require.NoError(t, err)
	b, err := ppef.NewSequence([]uint64{2, 4, 5, 9, 11, 15}, ppef.WithBlockSize(3))
	require.NoError(t, err)

	result, err := a.Intersect(b)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Len())
	recon, err := result.Decode()
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 11}, recon)
}

func TestIntersectSeedCase2(t *testing.T) {
	a, err := ppef.NewSequence([]uint64{1, 3, 4, 6, 7, 10, 11, 17, 21, 33, 55, 77, 99, 101, 133, 145})
	require.NoError(t, err)
	b, err := ppef.NewSequence([]uint64{2, 4, 5, 101, 107, 145})
	require.NoError(t, err)

	result, err := a.Intersect(b)
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.Len())
	recon, err := result.Decode()
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 101, 145}, recon)
}

func TestIntersectEmpty(t *testing.T) {
	a, err := ppef.NewSequence([]uint64{1, 2, 3})
	require.NoError(t, err)
	empty, err := ppef.NewSequence(nil)
	require.NoError(t, err)

	result, err := a.Intersect(empty)
	require.NoError(t, err)
	assert.EqualValues(t, 0, result.Len())

	result2, err := empty.Intersect(a)
	require.NoError(t, err)
	assert.EqualValues(t, 0, result2.Len())
}

func TestUnionWithEmptyIsLeftOperand(t *testing.T) {
	a, err := ppef.NewSequence([]uint64{1, 2, 3}, ppef.WithBlockSize(4))
	require.NoError(t, err)
	empty, err := ppef.NewSequence(nil)
	require.NoError(t, err)

	result, err := a.Union(empty)
	require.NoError(t, err)
	recon, err := result.Decode()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, recon)
	assert.EqualValues(t, 4, result.BlockSize())
}

func TestEmptySequenceSerializationPreservesZero(t *testing.T) {
	a, err := ppef.NewSequence([]uint64{1, 2, 3})
	require.NoError(t, err)
	empty, err := ppef.NewSequence(nil)
	require.NoError(t, err)

	result, err := a.Intersect(empty)
	require.NoError(t, err)

	buf := result.Serialize()
	reloaded, err := ppef.Deserialize(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.Len())
	assert.EqualValues(t, 0, reloaded.NBlocks())
}

// roaringOracle computes the expected intersection/union of two sorted
// uint64 slices using an independent bitmap structure, so the assertion
// doesn't depend on any code path shared with the codec under test.
func roaringOracle(a, b []uint64) (intersection, union []uint64) {
	ra, rb := roaring.New(), roaring.New()
	for _, v := range a {
		ra.Add(uint32(v))
	}
	for _, v := range b {
		rb.Add(uint32(v))
	}

	inter := roaring.And(ra, rb)
	uni := roaring.Or(ra, rb)

	for _, v := range inter.ToArray() {
		intersection = append(intersection, uint64(v))
	}
	for _, v := range uni.ToArray() {
		union = append(union, uint64(v))
	}
	return intersection, union
}

func TestIntersectUnionAgainstRoaringOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	valuesA := randSortedUint64s(500, 1<<14, rng)
	valuesB := randSortedUint64s(400, 1<<14, rng)

	a, err := ppef.NewSequence(valuesA, ppef.WithBlockSize(64))
	require.NoError(t, err)
	b, err := ppef.NewSequence(valuesB, ppef.WithBlockSize(48))
	require.NoError(t, err)

	wantInter, wantUnion := roaringOracle(valuesA, valuesB)

	inter, err := a.Intersect(b)
	require.NoError(t, err)
	gotInter, err := inter.Decode()
	require.NoError(t, err)
	// roaring dedups; our intersection respects multiplicity, and the
	// random inputs can repeat values, so the result is deduplicated
	// before it is compared against the set-based oracle.
	assert.Equal(t, wantInter, dedup(gotInter))

	uni, err := a.Union(b)
	require.NoError(t, err)
	gotUnion, err := uni.Decode()
	require.NoError(t, err)
	assert.Equal(t, wantUnion, gotUnion)
}

func dedup(vals []uint64) []uint64 {
	out := vals[:0:0]
	for i, v := range vals {
		if i == 0 || v != vals[i-1] {
			out = append(out, v)
		}
	}
	return out
}
