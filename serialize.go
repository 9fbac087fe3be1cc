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
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	"github.com/go-ppef/ppef/efblock"
)

// Serialize returns the Sequence's on-disk byte representation: the
// 40-byte header, the block_last/block_offset directory, then the
// concatenated block payload.
func (s *Sequence) Serialize() []byte {
	buf := make([]byte, 0, int(s.meta.PayloadOffset)+len(s.payload))
	buf = s.appendHeader(buf)
	buf = appendUint64Slice(buf, s.blockLast)
	buf = appendUint64Slice(buf, s.blockOffset)
	buf = append(buf, s.payload...)
	return buf
}

func (s *Sequence) appendHeader(buf []byte) []byte {
	var tmp [MetaSize]byte
	copy(tmp[0:4], s.meta.Magic[:])
	binary.LittleEndian.PutUint32(tmp[4:8], s.meta.Version)
	binary.LittleEndian.PutUint64(tmp[8:16], s.meta.NElem)
	binary.LittleEndian.PutUint32(tmp[16:20], s.meta.BlockSize)
	binary.LittleEndian.PutUint32(tmp[20:24], s.meta.Reserved)
	binary.LittleEndian.PutUint64(tmp[24:32], s.meta.NBlocks)
	binary.LittleEndian.PutUint64(tmp[32:40], s.meta.PayloadOffset)
	return append(buf, tmp[:]...)
}

func appendUint64Slice(buf []byte, vals []uint64) []byte {
	for _, v := range vals {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// Save writes the Sequence to path, truncating any existing file.
func (s *Sequence) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ppef: creating %q: %w", path, joinIO(err))
	}
	defer f.Close()

	if _, err := f.Write(s.Serialize()); err != nil {
		return fmt.Errorf("ppef: writing %q: %w", path, joinIO(err))
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("ppef: syncing %q: %w", path, joinIO(err))
	}
	return nil
}

func joinIO(err error) error {
	return fmt.Errorf("%w: %v", ErrIO, err)
}

// Deserialize parses a Sequence from an in-memory byte buffer. The
// returned Sequence's payload aliases data; data must not be mutated
// while the Sequence is in use.
func Deserialize(data []byte, opts ...Option) (*Sequence, error) {
	cfg := resolveOptions(opts)
	return parseSequence(data, cfg.logger, nil)
}

// Load opens path, memory-maps it, and parses a Sequence from the
// mapping. The file descriptor is closed immediately after mapping
// (per POSIX mmap semantics the mapping stays valid); call Close on
// the returned Sequence to unmap.
func Load(path string, opts ...Option) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ppef: opening %q: %w", path, joinIO(err))
	}
	defer f.Close()
	return LoadFile(f, opts...)
}

// LoadFile memory-maps f and parses a Sequence from it. The caller
// remains responsible for f; per POSIX mmap(2), f may be closed
// immediately after LoadFile returns.
func LoadFile(f *os.File, opts ...Option) (*Sequence, error) {
	cfg := resolveOptions(opts)

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("ppef: stat: %w", joinIO(err))
	}
	if stat.Size() < MetaSize {
		return nil, fmt.Errorf("ppef: file too small to hold a header (%d bytes): %w", stat.Size(), ErrMalformed)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("ppef: mmap: %w", joinIO(err))
	}

	seq, err := parseSequence([]byte(mm), cfg.logger, mm.Unmap)
	if err != nil {
		_ = mm.Unmap()
		return nil, err
	}
	return seq, nil
}

func parseSequence(data []byte, logger *zap.Logger, closer func() error) (*Sequence, error) {
	if len(data) < MetaSize {
		return nil, fmt.Errorf("ppef: need %d header bytes, got %d: %w", MetaSize, len(data), ErrMalformed)
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return nil, fmt.Errorf("ppef: bad magic %q: %w", data[0:4], ErrMalformed)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, fmt.Errorf("ppef: unsupported version %d: %w", version, ErrMalformed)
	}

	meta := Metadata{
		Magic:     Magic,
		Version:   version,
		NElem:     binary.LittleEndian.Uint64(data[8:16]),
		BlockSize: binary.LittleEndian.Uint32(data[16:20]),
		Reserved:  binary.LittleEndian.Uint32(data[20:24]),
		NBlocks:   binary.LittleEndian.Uint64(data[24:32]),
	}
	meta.PayloadOffset = binary.LittleEndian.Uint64(data[32:40])

	if meta.BlockSize == 0 && meta.NElem > 0 {
		return nil, fmt.Errorf("ppef: block_size is 0 with n_elem %d: %w", meta.NElem, ErrMalformed)
	}

	wantPayloadOffset := MetaSize + 16*meta.NBlocks
	if meta.PayloadOffset != wantPayloadOffset {
		return nil, fmt.Errorf("ppef: payload_offset %d != expected %d: %w", meta.PayloadOffset, wantPayloadOffset, ErrMalformed)
	}
	if uint64(len(data)) < meta.PayloadOffset {
		return nil, fmt.Errorf("ppef: truncated directory, need %d bytes, got %d: %w", meta.PayloadOffset, len(data), ErrMalformed)
	}

	dir := data[MetaSize:meta.PayloadOffset]
	blockLast := readUint64Slice(dir[:8*meta.NBlocks])
	blockOffset := readUint64Slice(dir[8*meta.NBlocks : 16*meta.NBlocks])
	payload := data[meta.PayloadOffset:]

	if err := validatePayload(payload, blockOffset); err != nil {
		return nil, err
	}

	seq := &Sequence{
		meta:        meta,
		blockLast:   blockLast,
		blockOffset: blockOffset,
		payload:     payload,
		logger:      logger,
		closer:      closer,
	}
	return seq, nil
}

// validatePayload walks the block directory, confirming that each block's
// claimed metadata size fits within the bytes remaining in payload and
// that the blocks exactly consume it, with no gap or overrun.
func validatePayload(payload []byte, blockOffset []uint64) error {
	if len(blockOffset) == 0 {
		if len(payload) != 0 {
			return fmt.Errorf("ppef: %d payload bytes with no blocks: %w", len(payload), ErrMalformed)
		}
		return nil
	}
	if blockOffset[0] != 0 {
		return fmt.Errorf("ppef: block 0 starts at %d, not 0: %w", blockOffset[0], ErrMalformed)
	}
	for i, off := range blockOffset {
		if off > uint64(len(payload)) {
			return fmt.Errorf("ppef: block %d offset %d past end of payload (%d bytes): %w", i, off, len(payload), ErrMalformed)
		}
		_, n, err := efblock.ReadBlock(payload[off:])
		if err != nil {
			return fmt.Errorf("ppef: block %d: %v: %w", i, err, ErrMalformed)
		}
		want := off + uint64(n)
		switch {
		case i+1 < len(blockOffset):
			if want != blockOffset[i+1] {
				return fmt.Errorf("ppef: block %d ends at %d, next block starts at %d: %w", i, want, blockOffset[i+1], ErrMalformed)
			}
		default:
			if want != uint64(len(payload)) {
				return fmt.Errorf("ppef: last block ends at %d, payload is %d bytes: %w", want, len(payload), ErrMalformed)
			}
		}
	}
	return nil
}

func readUint64Slice(buf []byte) []uint64 {
	out := make([]uint64, len(buf)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
	}
	return out
}
