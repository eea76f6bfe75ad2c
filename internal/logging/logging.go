// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog logger used across darkchat.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options configures a logger.
type Options struct {
	// Level is a zerolog level name. Unknown names fall back to info.
	Level string

	// File receives output when set. The parent directory is created.
	File string

	// Console writes human-readable lines to Stderr instead of JSON.
	Console bool

	// Stderr is the fallback writer when File is empty (default os.Stderr).
	Stderr io.Writer
}

// ParseLevel converts a string level into a zerolog.Level with a safe
// default of info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger from opts. The returned closer releases the log
// file, if one was opened, and is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var w io.Writer = opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return zerolog.Nop(), closer, errors.Wrap(err, "failed to create log directory")
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return zerolog.Nop(), closer, errors.Wrapf(err, "failed to open log file %s", opts.File)
		}
		w = f
		closer = f
	} else if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
