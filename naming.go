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

package declare

import (
	"regexp"
	"strings"
)

// NamingStyle derives a field's external name from its internal name.
// It must be a pure function; results are cached per field.
type NamingStyle func(string) string

var (
	camelLeadRe  = regexp.MustCompile(`^[\-_.]`)
	camelSepRe   = regexp.MustCompile(`[\-_.\s]([a-z])`)
	snakeSepRe   = regexp.MustCompile(`[\-.\s]`)
	snakeUpperRe = regexp.MustCompile(`[A-Z]`)
)

// SnakeCase converts "testVarB" to "test_var_b". It is the default style.
func SnakeCase(s string) string {
	s = snakeSepRe.ReplaceAllString(s, "_")
	if s == "" {
		return s
	}

	rest := snakeUpperRe.ReplaceAllStringFunc(s[1:], func(m string) string {
		return "_" + strings.ToLower(m)
	})

	return strings.ToLower(s[:1]) + rest
}

// CamelCase converts "test_var_a" to "testVarA".
func CamelCase(s string) string {
	s = camelLeadRe.ReplaceAllString(s, "")
	if s == "" {
		return s
	}

	rest := camelSepRe.ReplaceAllStringFunc(s[1:], func(m string) string {
		return strings.ToUpper(m[1:])
	})

	return strings.ToLower(s[:1]) + rest
}

// PascalCase converts "test_var_a" to "TestVarA".
func PascalCase(s string) string {
	s = CamelCase(s)
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// Identity keeps the internal name unchanged.
func Identity(s string) string { return s }
