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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	btoml "github.com/BurntSushi/toml"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config holds the settings of the convert command.
type Config struct {
	Schema      string    `toml:"schema" yaml:"schema"`
	Type        string    `toml:"type" yaml:"type"`
	From        string    `toml:"from" yaml:"from"`
	To          string    `toml:"to" yaml:"to"`
	SkipMissing bool      `toml:"skip_missing" yaml:"skip_missing"`
	Indent      int       `toml:"indent" yaml:"indent"`
	Strict      bool      `toml:"strict" yaml:"strict"`
	List        bool      `toml:"list" yaml:"list"`
	Trace       bool      `toml:"trace" yaml:"trace"`
	Log         LogConfig `toml:"log" yaml:"log"`
}

// LogConfig selects the diagnostic logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

func defaultConfig() Config {
	return Config{
		From: "json",
		To:   "json",
		Log:  LogConfig{Level: "warn", Format: "console"},
	}
}

// loadConfigFile reads a TOML or YAML settings file.
func loadConfigFile(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := btoml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("config %s: unknown keys %v", path, undecoded)
		}
	case ".yaml", ".yml":
		dec := yamlv3.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}

	return cfg, nil
}

// mergeConfig layers file settings and then flag settings over the
// defaults. Empty values never override.
func mergeConfig(file, flags *Config) (Config, error) {
	cfg := defaultConfig()
	if file != nil {
		if err := mergo.Merge(&cfg, *file, mergo.WithOverride); err != nil {
			return cfg, err
		}
	}
	if err := mergo.Merge(&cfg, *flags, mergo.WithOverride); err != nil {
		return cfg, err
	}

	return cfg, nil
}
