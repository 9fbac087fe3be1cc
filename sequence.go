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

// Package ppef implements partitioned Elias-Fano (PEF) coding: a
// random-accessible, compact representation of a non-decreasing
// sequence of uint64s, with point lookup, membership testing, and
// streaming set-algebra combinators over the compressed form.
package ppef

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/go-ppef/ppef/efblock"
)

// Magic is the 4-byte file-format tag that opens every serialized Sequence.
var Magic = [4]byte{'P', 'P', 'E', 'F'}

// Version is the current on-disk format version.
const Version = 1

// MetaSize is the fixed on-disk size, in bytes, of Metadata.
const MetaSize = 40

// Metadata is the fixed 40-byte Sequence header.
type Metadata struct {
	Magic         [4]byte
	Version       uint32
	NElem         uint64
	BlockSize     uint32
	Reserved      uint32
	NBlocks       uint64
	PayloadOffset uint64
}

// Sequence is a partitioned Elias-Fano container: a directory of block
// boundaries plus a concatenated payload of per-block EFBlock encodings.
// A Sequence is immutable once constructed; Decode, Get, Contains,
// Serialize, and the combinators are pure functions of its bytes and
// arguments, and are safe to call concurrently.
type Sequence struct {
	meta        Metadata
	blockLast   []uint64
	blockOffset []uint64
	payload     []byte
	logger      *zap.Logger
	closer      func() error // non-nil for mmap-backed sequences
}

// Len returns the number of encoded elements.
func (s *Sequence) Len() uint64 { return s.meta.NElem }

// BlockSize returns the partition width B.
func (s *Sequence) BlockSize() uint32 { return s.meta.BlockSize }

// NBlocks returns the number of blocks in the directory.
func (s *Sequence) NBlocks() uint64 { return s.meta.NBlocks }

// Meta returns a copy of the Sequence's fixed header.
func (s *Sequence) Meta() Metadata { return s.meta }

// NewSequence Elias-Fano encodes values, a non-decreasing slice of
// uint64, into a partitioned Sequence. Options may set the partition
// width (default DefaultBlockSize) and a diagnostics logger.
func NewSequence(values []uint64, opts ...Option) (*Sequence, error) {
	cfg := resolveOptions(opts)

	if err := checkNonDecreasing(values); err != nil {
		return nil, err
	}

	seq := &Sequence{logger: cfg.logger}
	seq.meta = Metadata{
		Magic:     Magic,
		Version:   Version,
		NElem:     uint64(len(values)),
		BlockSize: cfg.blockSize,
	}

	if len(values) == 0 {
		seq.meta.NBlocks = 0
		seq.meta.PayloadOffset = MetaSize
		return seq, nil
	}

	b := int(cfg.blockSize)
	nBlocks := (len(values) + b - 1) / b
	seq.blockLast = make([]uint64, nBlocks)
	seq.blockOffset = make([]uint64, nBlocks)

	var payload []byte
	for i := 0; i < nBlocks; i++ {
		start := i * b
		end := start + b
		if end > len(values) {
			end = len(values)
		}
		run := values[start:end]

		blk, err := efblock.NewBlock(run)
		if err != nil {
			return nil, fmt.Errorf("ppef: encoding block %d: %w", i, err)
		}
		seq.blockLast[i] = run[len(run)-1]
		seq.blockOffset[i] = uint64(len(payload))
		payload = blk.AppendBytes(payload)

		cfg.logger.Debug("encoded block",
			zap.Int("block", i),
			zap.Int("n_elem", len(run)),
			zap.Uint8("l", blk.Meta.L),
			zap.Uint64("floor", blk.Meta.Floor),
		)
	}

	seq.meta.NBlocks = uint64(nBlocks)
	seq.meta.PayloadOffset = MetaSize + 16*uint64(nBlocks)
	seq.payload = payload
	return seq, nil
}

func checkNonDecreasing(values []uint64) error {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return fmt.Errorf("ppef: value at index %d (%d) is less than value at index %d (%d): %w",
				i, values[i], i-1, values[i-1], ErrInvalidInput)
		}
	}
	return nil
}

// blockAt parses the block at directory index b.
func (s *Sequence) blockAt(b int) (*efblock.Block, error) {
	off := s.blockOffset[b]
	blk, _, err := efblock.ReadBlock(s.payload[off:])
	if err != nil {
		return nil, fmt.Errorf("ppef: parsing block %d: %w", b, err)
	}
	return blk, nil
}

// DecodeBlock decodes and returns the b-th block's values.
func (s *Sequence) DecodeBlock(b int) ([]uint64, error) {
	if b < 0 || uint64(b) >= s.meta.NBlocks {
		return nil, fmt.Errorf("ppef: block %d out of range [0, %d): %w", b, s.meta.NBlocks, ErrOutOfRange)
	}
	blk, err := s.blockAt(b)
	if err != nil {
		return nil, err
	}
	return blk.Decode(), nil
}

// Decode returns every value in the sequence, in order.
func (s *Sequence) Decode() ([]uint64, error) {
	out := make([]uint64, 0, s.meta.NElem)
	for b := 0; b < int(s.meta.NBlocks); b++ {
		vals, err := s.DecodeBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// Get returns the i-th element (0-based).
func (s *Sequence) Get(i uint64) (uint64, error) {
	if i >= s.meta.NElem {
		return 0, fmt.Errorf("ppef: index %d out of range [0, %d): %w", i, s.meta.NElem, ErrOutOfRange)
	}
	b := i / uint64(s.meta.BlockSize)
	r := i % uint64(s.meta.BlockSize)
	blk, err := s.blockAt(int(b))
	if err != nil {
		return 0, err
	}
	return blk.At(int(r)), nil
}

// Contains reports whether v appears in the sequence.
func (s *Sequence) Contains(v uint64) (bool, error) {
	if s.meta.NElem == 0 {
		return false, nil
	}
	b := sort.Search(len(s.blockLast), func(i int) bool {
		return s.blockLast[i] >= v
	})
	if b == len(s.blockLast) {
		return false, nil
	}
	blk, err := s.blockAt(b)
	if err != nil {
		return false, err
	}
	if v < blk.Meta.Floor {
		return false, nil
	}
	return blk.Contains(v), nil
}

// Close releases resources held by a file-backed (mmapped) Sequence.
// It is a no-op for sequences built from values or from an in-memory
// byte buffer.
func (s *Sequence) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
