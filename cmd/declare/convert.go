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

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/declare"
	"rivaas.dev/declare/logging"
	"rivaas.dev/declare/schema"
)

func runConvert(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		flags      Config
		configPath string
	)

	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.Schema, "schema", "", "catalog `file` declaring the types (yaml, json, jsonc or toml)")
	fs.StringVarP(&flags.Type, "type", "t", "", "type `name` to convert")
	fs.StringVarP(&flags.From, "from", "f", "", "input format (default json)")
	fs.StringVarP(&flags.To, "to", "o", "", "output format (default json)")
	fs.BoolVar(&flags.SkipMissing, "skip-missing", false, "leave out fields that are missing or nil")
	fs.IntVar(&flags.Indent, "indent", 0, "indent nested output by `n` spaces")
	fs.BoolVar(&flags.Strict, "strict", false, "reject input keys that name no field")
	fs.BoolVar(&flags.List, "list", false, "convert a list of records instead of one record")
	fs.BoolVar(&flags.Trace, "trace", false, "write OpenTelemetry spans of each step to stderr")
	fs.StringVar(&flags.Log.Level, "log-level", "", "diagnostic log level (debug, info, warn, error)")
	fs.StringVar(&flags.Log.Format, "log-format", "", "diagnostic log format (console, text, json)")
	fs.StringVar(&configPath, "config", "", "read settings from a TOML or YAML `file`")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageError("unexpected argument %q", fs.Arg(0))
	}

	var file *Config
	if configPath != "" {
		fc, err := loadConfigFile(configPath)
		if err != nil {
			return err
		}
		file = &fc
	}

	cfg, err := mergeConfig(file, &flags)
	if err != nil {
		return err
	}
	// Merging never lets a false flag win; apply explicit booleans last.
	for name, dst := range map[string]*bool{
		"skip-missing": &cfg.SkipMissing,
		"strict":       &cfg.Strict,
		"list":         &cfg.List,
		"trace":        &cfg.Trace,
	} {
		if fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return usageError("%v", err)
	}

	tracer, shutdown, err := newTracer(cfg.Trace, stderr)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Warn("flushing spans failed", "error", err)
		}
	}()

	return traced(ctx, tracer, "declare.convert", func(ctx context.Context) error {
		return convert(ctx, cfg, logger, tracer, stdin, stdout)
	},
		attribute.String("declare.type", cfg.Type),
		attribute.String("declare.from", cfg.From),
		attribute.String("declare.to", cfg.To),
	)
}

func newLogger(lc LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	handler, err := logging.ParseHandlerType(lc.Format)
	if err != nil {
		return nil, err
	}

	return logging.New(
		logging.WithHandlerType(handler),
		logging.WithLevel(level),
		logging.WithOutput(w),
	)
}

func convert(ctx context.Context, cfg Config, logger *slog.Logger, tracer trace.Tracer, stdin io.Reader, stdout io.Writer) error {
	if cfg.Schema == "" {
		return usageError("--schema is required")
	}
	if cfg.Type == "" {
		return usageError("--type is required")
	}

	from, err := lookupFormat(cfg.From)
	if err != nil {
		return err
	}
	to, err := lookupFormat(cfg.To)
	if err != nil {
		return err
	}

	var catalog *schema.Catalog
	err = traced(ctx, tracer, "declare.load_schema", func(context.Context) (err error) {
		catalog, err = schema.LoadFile(cfg.Schema, schema.WithLogger(logger))
		return err
	}, attribute.String("declare.schema", cfg.Schema))
	if err != nil {
		return err
	}
	typ, ok := catalog.Type(cfg.Type)
	if !ok {
		return usageError("type %q is not declared in %s (have %v)", cfg.Type, cfg.Schema, catalog.Names())
	}

	input, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	s := settings{
		skipMissing: cfg.SkipMissing,
		indent:      cfg.Indent,
		strict:      cfg.Strict,
		opts:        []declare.Option{declare.WithLogger(logger)},
	}

	var out []byte
	if cfg.List {
		if from.decodeList == nil || to.encodeList == nil {
			return usageError("--list is not supported from %s to %s", cfg.From, cfg.To)
		}
		var l *declare.List
		err = traced(ctx, tracer, "declare.decode", func(context.Context) (err error) {
			l, err = from.decodeList(declare.ListOf(typ), input, s)
			return err
		}, attribute.String("declare.format", cfg.From), attribute.Int("declare.bytes", len(input)))
		if err != nil {
			return err
		}
		logger.Info("decoded list", "type", typ.Name(), "format", cfg.From, "items", l.Len())
		err = traced(ctx, tracer, "declare.encode", func(context.Context) (err error) {
			out, err = to.encodeList(l, s)
			return err
		}, attribute.String("declare.format", cfg.To))
		if err != nil {
			return err
		}
	} else {
		var r *declare.Record
		err = traced(ctx, tracer, "declare.decode", func(context.Context) (err error) {
			r, err = from.decode(typ, input, s)
			return err
		}, attribute.String("declare.format", cfg.From), attribute.Int("declare.bytes", len(input)))
		if err != nil {
			return err
		}
		logger.Info("decoded record", "type", typ.Name(), "format", cfg.From)
		err = traced(ctx, tracer, "declare.encode", func(context.Context) (err error) {
			out, err = to.encode(r, s)
			return err
		}, attribute.String("declare.format", cfg.To))
		if err != nil {
			return err
		}
	}

	if textual(cfg.To) && !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	_, err = stdout.Write(out)

	return err
}

func textual(format string) bool {
	switch format {
	case "json", "xml", "form", "query":
		return true
	}

	return false
}
