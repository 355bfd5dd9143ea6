// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds [slog.Logger] values for the declare tools.
//
// Three handlers are available: JSON for log aggregation, text for
// key=value lines, and a colored console handler for terminals.
//
//	logger, err := logging.New(
//	    logging.WithHandlerType(logging.ConsoleHandler),
//	    logging.WithDebugMode(true),
//	)
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
)

var (
	// ErrInvalidHandler indicates an unsupported handler type.
	ErrInvalidHandler = errors.New("invalid handler type")

	// ErrInvalidLevel indicates a level name that is not debug, info,
	// warn or error.
	ErrInvalidLevel = errors.New("invalid log level")
)

// Option configures a logger built by [New].
type Option func(*config)

type config struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.Level
	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr
}

// WithHandlerType sets the output format. Default is [ConsoleHandler].
func WithHandlerType(t HandlerType) Option {
	return func(c *config) { c.handlerType = t }
}

// WithOutput sets the destination. Default is os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithLevel sets the minimum level. Default is info.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithDebugMode lowers the level to debug and adds source locations.
func WithDebugMode(enabled bool) Option {
	return func(c *config) {
		if enabled {
			c.level = slog.LevelDebug
			c.addSource = true
		}
	}
}

// WithReplaceAttr installs an attribute rewriter, see
// [slog.HandlerOptions].
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(c *config) { c.replaceAttr = fn }
}

// New builds a logger.
func New(opts ...Option) (*slog.Logger, error) {
	cfg := &config{
		handlerType: ConsoleHandler,
		output:      os.Stderr,
		level:       slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hopts := &slog.HandlerOptions{
		Level:       cfg.level,
		AddSource:   cfg.addSource,
		ReplaceAttr: cfg.replaceAttr,
	}

	var h slog.Handler
	switch cfg.handlerType {
	case JSONHandler:
		h = slog.NewJSONHandler(cfg.output, hopts)
	case TextHandler:
		h = slog.NewTextHandler(cfg.output, hopts)
	case ConsoleHandler:
		h = newConsoleHandler(cfg.output, hopts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, cfg.handlerType)
	}

	return slog.New(h), nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *slog.Logger {
	l, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return l
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseHandlerType parses "json", "text" or "console", ignoring case.
func ParseHandlerType(s string) (HandlerType, error) {
	t := HandlerType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case JSONHandler, TextHandler, ConsoleHandler:
		return t, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidHandler, s)
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}

	return level, nil
}
