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
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns an xxhash64 digest of the serialized payload.
// It is a debug/diagnostic aid only — not part of the wire format, and
// not a substitute for a field-by-field Metadata comparison.
func (s *Sequence) Fingerprint() uint64 {
	h := xxhash.New()
	_, _ = h.Write(s.payload)
	return h.Sum64()
}

// DebugDump renders a human-readable summary of the Sequence's header
// and block directory. It is meant for interactive inspection, not for
// machine parsing.
func (s *Sequence) DebugDump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ppef.Sequence{n_elem=%d, block_size=%d, n_blocks=%d, payload_offset=%d, fingerprint=%016x}\n",
		s.meta.NElem, s.meta.BlockSize, s.meta.NBlocks, s.meta.PayloadOffset, s.Fingerprint())
	for i := 0; i < int(s.meta.NBlocks); i++ {
		blk, err := s.blockAt(i)
		if err != nil {
			fmt.Fprintf(&b, "  block[%d]: <error: %v>\n", i, err)
			continue
		}
		fmt.Fprintf(&b, "  block[%d]: n_elem=%d floor=%d l=%d last=%d low_words=%d high_words=%d\n",
			i, blk.Meta.NElem, blk.Meta.Floor, blk.Meta.L, s.blockLast[i], blk.Meta.LowWords, blk.Meta.HighWords)
	}
	return b.String()
}
