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

import "errors"

// The error taxonomy is a closed, small set of sentinels. Callers use
// errors.Is against these; wrapped context (via fmt.Errorf("...: %w", ...))
// gives the human-readable detail.
var (
	// ErrInvalidInput covers unsorted build input and other construction-time
	// misuse.
	ErrInvalidInput = errors.New("ppef: invalid input")
	// ErrOutOfRange covers Get/DecodeBlock indices past the end of the sequence.
	ErrOutOfRange = errors.New("ppef: index out of range")
	// ErrMalformed covers a byte buffer or file that fails to parse as a
	// valid Sequence: bad magic, bad version, or an inconsistent directory.
	ErrMalformed = errors.New("ppef: malformed sequence")
	// ErrIO covers failures opening, reading, or writing a Sequence file.
	ErrIO = errors.New("ppef: I/O failure")
)
