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

package toml_test

import (
	"fmt"

	"rivaas.dev/declare"
	"rivaas.dev/declare/toml"
)

// ExampleUnmarshal reads a TOML document, filling in field defaults.
func ExampleUnmarshal() {
	database := declare.MustNewType("Database", declare.Fields(
		declare.Var("dsn", declare.String),
		declare.Var("maxConns", declare.Int, declare.Default(10)),
	))

	r, err := toml.Unmarshal(database, []byte(`dsn = "postgres://localhost/app"`))
	if err != nil {
		_, _ = fmt.Printf("Error: %v\n", err)
		return
	}

	_, _ = fmt.Println(r.MustGet("dsn"), r.MustGet("maxConns"))
	// Output: postgres://localhost/app 10
}
