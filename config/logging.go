/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger: text by default, JSON on request,
// at debug level when Debug is set.
func NewLogger(c LogConfig, w io.Writer, version string) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	if version != "" {
		logger = logger.With(slog.String("version", version))
	}
	return logger
}
