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

// Package efblock implements the single-partition Elias-Fano codec:
// the high/low split, the unary gap stream, and the per-block
// encode/decode/point-lookup/membership algorithms that the
// partitioned container chains together.
package efblock

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-ppef/ppef/bitio"
)

// ErrEmptyBlock is returned by NewBlock when asked to encode zero values.
// A PEF container never constructs an empty run, so this only fires on
// direct misuse of the package.
var ErrEmptyBlock = errors.New("efblock: cannot encode an empty block")

// ErrTruncated is returned by ReadBlock when buf is shorter than the
// metadata it claims to describe.
var ErrTruncated = errors.New("efblock: truncated block")

// MetaSize is the fixed on-disk size, in bytes, of Metadata.
const MetaSize = 40

// Metadata is the fixed-size header describing one Elias-Fano block.
// Every field here is part of the wire format (see Metadata.AppendBytes)
// and is kept exported so callers can introspect a decoded block without
// redoing the encode.
type Metadata struct {
	NElem       uint32 // number of values encoded
	L           uint8  // low bits per value, 0 <= L <= 63
	Floor       uint64 // minimum value in the block
	LowWords    uint64 // words of low-bit payload
	HighWords   uint64 // words of high-bit payload
	HighBitsLen uint64 // meaningful bits in the high-bit payload
}

// AppendBytes appends the 40-byte little-endian encoding of m to buf and
// returns the extended slice.
func (m Metadata) AppendBytes(buf []byte) []byte {
	var tmp [MetaSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], m.NElem)
	tmp[4] = m.L
	// tmp[5:8] is the explicit zero filler after L.
	binary.LittleEndian.PutUint64(tmp[8:16], m.Floor)
	binary.LittleEndian.PutUint64(tmp[16:24], m.LowWords)
	binary.LittleEndian.PutUint64(tmp[24:32], m.HighWords)
	binary.LittleEndian.PutUint64(tmp[32:40], m.HighBitsLen)
	return append(buf, tmp[:]...)
}

// ReadMetadata parses a Metadata from the first MetaSize bytes of buf.
func ReadMetadata(buf []byte) (Metadata, error) {
	if len(buf) < MetaSize {
		return Metadata{}, fmt.Errorf("efblock: metadata needs %d bytes, got %d: %w", MetaSize, len(buf), ErrTruncated)
	}
	return Metadata{
		NElem:       binary.LittleEndian.Uint32(buf[0:4]),
		L:           buf[4],
		Floor:       binary.LittleEndian.Uint64(buf[8:16]),
		LowWords:    binary.LittleEndian.Uint64(buf[16:24]),
		HighWords:   binary.LittleEndian.Uint64(buf[24:32]),
		HighBitsLen: binary.LittleEndian.Uint64(buf[32:40]),
	}, nil
}

// Block is a Metadata header plus the two packed word arrays it describes.
type Block struct {
	Meta Metadata
	Low  []uint64
	High []uint64
}

// NewBlock Elias-Fano encodes a non-decreasing run values[0:n]. The
// caller is responsible for values actually being non-decreasing;
// NewBlock does not re-validate it (the partitioned container already
// does, once, over the whole input).
func NewBlock(values []uint64) (*Block, error) {
	n := len(values)
	if n == 0 {
		return nil, ErrEmptyBlock
	}

	floor := values[0]
	rng := values[n-1] - floor + 1

	var l uint8
	if q := rng / uint64(n); q >= 1 {
		l = uint8(bitio.FloorLog2(q))
	}

	low := bitio.NewWriter(int(bitio.CeilDiv(uint64(n)*uint64(l), 64)))
	for _, v := range values {
		low.Put(v-floor, uint(l))
	}
	low.Flush()

	var rangeHi uint64
	if l > 0 {
		rangeHi = bitio.CeilDiv(rng, uint64(1)<<l)
	} else {
		rangeHi = rng
	}
	highBitsLen := uint64(n) + rangeHi
	highWords := bitio.CeilDiv(highBitsLen, 64)
	high := make([]uint64, highWords)
	for i, v := range values {
		hi := (v - floor) >> l
		pos := hi + uint64(i)
		high[pos/64] |= uint64(1) << (pos % 64)
	}

	return &Block{
		Meta: Metadata{
			NElem:       uint32(n),
			L:           l,
			Floor:       floor,
			LowWords:    uint64(len(low.Words)),
			HighWords:   highWords,
			HighBitsLen: highBitsLen,
		},
		Low:  low.Words,
		High: high,
	}, nil
}

// SizeBytes returns the total serialized size of the block (metadata +
// low payload + high payload), in bytes.
func (b *Block) SizeBytes() int {
	return MetaSize + 8*(int(b.Meta.LowWords)+int(b.Meta.HighWords))
}

// AppendBytes appends the block's wire encoding (metadata, then low
// words, then high words, all little-endian) to buf.
func (b *Block) AppendBytes(buf []byte) []byte {
	buf = b.Meta.AppendBytes(buf)
	buf = appendWords(buf, b.Low)
	buf = appendWords(buf, b.High)
	return buf
}

func appendWords(buf []byte, words []uint64) []byte {
	for _, w := range words {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], w)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// ReadBlock parses a Block from the front of buf and reports how many
// bytes it consumed.
func ReadBlock(buf []byte) (*Block, int, error) {
	meta, err := ReadMetadata(buf)
	if err != nil {
		return nil, 0, err
	}
	need := MetaSize + 8*(int(meta.LowWords)+int(meta.HighWords))
	if len(buf) < need {
		return nil, 0, fmt.Errorf("efblock: block needs %d bytes, got %d: %w", need, len(buf), ErrTruncated)
	}
	low := readWords(buf[MetaSize:], int(meta.LowWords))
	high := readWords(buf[MetaSize+8*int(meta.LowWords):], int(meta.HighWords))
	return &Block{Meta: meta, Low: low, High: high}, need, nil
}

func readWords(buf []byte, n int) []uint64 {
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
	}
	return out
}

// Decode reconstructs the whole encoded run, in order.
func (b *Block) Decode() []uint64 {
	n := int(b.Meta.NElem)
	out := make([]uint64, n)
	lr := bitio.NewReader(b.Low)
	l := uint(b.Meta.L)
	var prev uint64
	for i := 0; i < n; i++ {
		lo := lr.Get(l)
		var pos uint64
		if i == 0 {
			pos = bitio.NextOneAtOrAfter(b.High, int(b.Meta.HighWords), 0)
		} else {
			pos = bitio.NextOneAtOrAfter(b.High, int(b.Meta.HighWords), prev+1)
		}
		prev = pos
		hi := pos - uint64(i)
		out[i] = b.Meta.Floor + (hi<<l | lo)
	}
	return out
}

// At returns the value at 0-based rank r within the block (point lookup).
func (b *Block) At(r int) uint64 {
	l := uint(b.Meta.L)

	lr := bitio.NewReader(b.Low)
	lr.Scan(uint64(r) * uint64(l))
	lo := lr.Get(l)

	var pos uint64
	for j := 0; j <= r; j++ {
		if j == 0 {
			pos = bitio.NextOneAtOrAfter(b.High, int(b.Meta.HighWords), 0)
		} else {
			pos = bitio.NextOneAtOrAfter(b.High, int(b.Meta.HighWords), pos+1)
		}
	}
	hi := pos - uint64(r)
	return b.Meta.Floor + (hi<<l | lo)
}

// Contains reports whether v appears among the block's values. The
// block's values need only be non-decreasing, not strictly increasing:
// duplicates are handled by scanning every j-th one-bit whose high part
// matches hi* before giving up.
func (b *Block) Contains(v uint64) bool {
	if b.Meta.NElem == 0 {
		return false
	}
	if v < b.Meta.Floor {
		return false
	}
	l := uint(b.Meta.L)
	delta := v - b.Meta.Floor
	hiStar := delta >> l
	loStar := delta & bitio.Mask64(l)

	rangeHi := b.Meta.HighBitsLen - uint64(b.Meta.NElem)
	if hiStar >= rangeHi {
		return false
	}

	lr := bitio.NewReader(b.Low)
	var pos uint64
	for j := 0; j < int(b.Meta.NElem); j++ {
		if j == 0 {
			pos = bitio.NextOneAtOrAfter(b.High, int(b.Meta.HighWords), 0)
		} else {
			pos = bitio.NextOneAtOrAfter(b.High, int(b.Meta.HighWords), pos+1)
		}
		if pos == bitio.NoBit {
			return false
		}
		hiJ := pos - uint64(j)
		if hiJ < hiStar {
			continue
		}
		if hiJ > hiStar {
			return false
		}
		lr.Scan(uint64(j) * uint64(l))
		if lr.Get(l) == loStar {
			return true
		}
	}
	return false
}
