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

package ppef

import (
	"fmt"

	"go.uber.org/zap"
)

// blockCursor walks a Sequence's values in order, decoding at most one
// block at a time. skipBlocksBelow uses the block_last directory to
// jump over whole runs of blocks that can't possibly contain a value
// at or above target, without decoding them.
type blockCursor struct {
	seq      *Sequence
	blockIdx int
	values   []uint64
	pos      int
}

func newBlockCursor(seq *Sequence) (*blockCursor, error) {
	c := &blockCursor{seq: seq}
	if err := c.loadBlock(0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *blockCursor) exhausted() bool {
	return c.blockIdx >= int(c.seq.meta.NBlocks)
}

func (c *blockCursor) loadBlock(idx int) error {
	c.blockIdx = idx
	c.pos = 0
	if c.exhausted() {
		c.values = nil
		return nil
	}
	vals, err := c.seq.DecodeBlock(idx)
	if err != nil {
		return err
	}
	c.values = vals
	return nil
}

func (c *blockCursor) valid() bool {
	return !c.exhausted() && c.pos < len(c.values)
}

func (c *blockCursor) peek() uint64 {
	return c.values[c.pos]
}

func (c *blockCursor) advance() error {
	c.pos++
	for c.pos >= len(c.values) && !c.exhausted() {
		if err := c.loadBlock(c.blockIdx + 1); err != nil {
			return err
		}
	}
	return nil
}

// skipBlocksBelow jumps straight to the first block whose block_last is
// >= target, consulting the directory only (no decode) for every block
// it skips over.
func (c *blockCursor) skipBlocksBelow(target uint64) error {
	idx := c.blockIdx
	last := int(c.seq.meta.NBlocks) - 1
	for idx < last && c.seq.blockLast[idx] < target {
		idx++
	}
	if idx != c.blockIdx {
		return c.loadBlock(idx)
	}
	return nil
}

// Intersect returns a fresh Sequence holding the multiset intersection
// of the two sequences' values, re-encoded with the left operand's
// block size. Neither input is modified; at most one block per input
// is held decompressed at a time.
func (s *Sequence) Intersect(other *Sequence, opts ...Option) (*Sequence, error) {
	cfg := resolveOptions(withDefaultBlockSize(opts, s.meta.BlockSize))

	a, err := newBlockCursor(s)
	if err != nil {
		return nil, fmt.Errorf("ppef: intersect: reading left operand: %w", err)
	}
	b, err := newBlockCursor(other)
	if err != nil {
		return nil, fmt.Errorf("ppef: intersect: reading right operand: %w", err)
	}

	var out []uint64
	for a.valid() && b.valid() {
		if err := a.skipBlocksBelow(b.peek()); err != nil {
			return nil, err
		}
		if err := b.skipBlocksBelow(a.peek()); err != nil {
			return nil, err
		}
		if !a.valid() || !b.valid() {
			break
		}
		va, vb := a.peek(), b.peek()
		switch {
		case va == vb:
			out = append(out, va)
			if err := a.advance(); err != nil {
				return nil, err
			}
			if err := b.advance(); err != nil {
				return nil, err
			}
		case va < vb:
			if err := a.advance(); err != nil {
				return nil, err
			}
		default:
			if err := b.advance(); err != nil {
				return nil, err
			}
		}
	}

	cfg.logger.Debug("intersect", zap.Int("n_result", len(out)))
	return NewSequence(out, WithBlockSize(cfg.blockSize), WithLogger(cfg.logger))
}

// Union returns a fresh Sequence holding the deduplicated union of the
// two sequences' values, re-encoded with the left operand's block
// size. Neither input is modified; at most one block per input is
// held decompressed at a time.
func (s *Sequence) Union(other *Sequence, opts ...Option) (*Sequence, error) {
	cfg := resolveOptions(withDefaultBlockSize(opts, s.meta.BlockSize))

	a, err := newBlockCursor(s)
	if err != nil {
		return nil, fmt.Errorf("ppef: union: reading left operand: %w", err)
	}
	b, err := newBlockCursor(other)
	if err != nil {
		return nil, fmt.Errorf("ppef: union: reading right operand: %w", err)
	}

	var out []uint64
	emit := func(v uint64) {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}

	for a.valid() && b.valid() {
		va, vb := a.peek(), b.peek()
		switch {
		case va == vb:
			emit(va)
			if err := a.advance(); err != nil {
				return nil, err
			}
			if err := b.advance(); err != nil {
				return nil, err
			}
		case va < vb:
			emit(va)
			if err := a.advance(); err != nil {
				return nil, err
			}
		default:
			emit(vb)
			if err := b.advance(); err != nil {
				return nil, err
			}
		}
	}
	for a.valid() {
		emit(a.peek())
		if err := a.advance(); err != nil {
			return nil, err
		}
	}
	for b.valid() {
		emit(b.peek())
		if err := b.advance(); err != nil {
			return nil, err
		}
	}

	cfg.logger.Debug("union", zap.Int("n_result", len(out)))
	return NewSequence(out, WithBlockSize(cfg.blockSize), WithLogger(cfg.logger))
}

// withDefaultBlockSize prepends a WithBlockSize(fallback) option so
// that an explicit WithBlockSize in opts (if any) still wins, while a
// combinator that got no block-size option at all falls back to the
// left operand's, per the set-algebra bucket-choice rule.
func withDefaultBlockSize(opts []Option, fallback uint32) []Option {
	return append([]Option{WithBlockSize(fallback)}, opts...)
}
