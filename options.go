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

import "go.uber.org/zap"

// DefaultBlockSize is the partition width used when no block size is
// given explicitly.
const DefaultBlockSize = 256

type buildConfig struct {
	blockSize uint32
	logger    *zap.Logger
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		blockSize: DefaultBlockSize,
		logger:    zap.NewNop(),
	}
}

// Option configures NewSequence, Load, Intersect, and Union.
type Option func(buildConfig) buildConfig

// WithBlockSize sets the partition width B. Intersect and Union default
// to the left operand's block size when no WithBlockSize option is
// given, but an explicit WithBlockSize passed to either still wins,
// since later options always override earlier ones.
func WithBlockSize(b uint32) Option {
	return func(c buildConfig) buildConfig {
		if b == 0 {
			b = DefaultBlockSize
		}
		c.blockSize = b
		return c
	}
}

// WithLogger attaches a structured logger for build/load/combine
// diagnostics. A nil logger is treated the same as omitting the option.
func WithLogger(logger *zap.Logger) Option {
	return func(c buildConfig) buildConfig {
		if logger != nil {
			c.logger = logger
		}
		return c
	}
}

func resolveOptions(opts []Option) buildConfig {
	c := defaultBuildConfig()
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}
