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

// Command declare converts records between formats using type
// declarations loaded from a catalog document.
//
// Usage:
//
//	declare convert --schema types.yaml --type Person --from json --to xml < in.json
//	declare types --schema types.yaml
//	declare schema
//	declare schema --schema types.yaml --type Person
//
// Settings may also come from a TOML or YAML file given with --config.
// Flags given on the command line take precedence over the file.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const usage = `declare converts records between formats.

Usage:
  declare convert --schema FILE --type NAME --from FORMAT --to FORMAT [flags]
  declare types --schema FILE
  declare schema [--schema FILE --type NAME]

Formats: %s

Run "declare COMMAND --help" for the flags of a command.
`

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := dispatch(args, stdin, stdout, stderr)
	if err == nil {
		return 0
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	return 1
}

func dispatch(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintf(stderr, usage, formatNames())
		return usageError("no command given")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "convert":
		return runConvert(rest, stdin, stdout, stderr)
	case "types":
		return runTypes(rest, stdout, stderr)
	case "schema":
		return runSchema(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintf(stdout, usage, formatNames())
		return nil
	default:
		fmt.Fprintf(stderr, usage, formatNames())
		return usageError("unknown command %q", cmd)
	}
}
