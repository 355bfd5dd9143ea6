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
	"io"
	"strings"

	"github.com/spf13/pflag"

	"rivaas.dev/declare/schema"
)

func runTypes(args []string, stdout, stderr io.Writer) error {
	var path string

	fs := pflag.NewFlagSet("types", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&path, "schema", "", "catalog `file` to describe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if path == "" {
		return usageError("--schema is required")
	}

	catalog, err := schema.LoadFile(path)
	if err != nil {
		return err
	}

	for _, t := range catalog.Types() {
		parts := make([]string, 0, t.NumField())
		for _, f := range t.Fields() {
			p := f.ExternalName() + " " + f.TypeName()
			if !f.Required() {
				p += "?"
			}
			parts = append(parts, p)
		}
		fmt.Fprintf(stdout, "%s <%s> {%s}\n", t.Name(), t.XMLTagName(), strings.Join(parts, ", "))
	}

	return nil
}

// runSchema prints the catalog document schema, or with --type the JSON
// Schema of one catalog type.
func runSchema(args []string, stdout, stderr io.Writer) error {
	var path, typeName string

	fs := pflag.NewFlagSet("schema", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&path, "schema", "", "catalog `file` declaring the type")
	fs.StringVarP(&typeName, "type", "t", "", "type to describe as JSON Schema")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if typeName == "" {
		_, err := stdout.Write(schema.Schema())
		return err
	}
	if path == "" {
		return usageError("--type needs --schema")
	}

	catalog, err := schema.LoadFile(path)
	if err != nil {
		return err
	}
	data, err := catalog.JSONSchema(typeName)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(stdout, "\n")

	return err
}
