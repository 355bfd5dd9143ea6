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

package proto_test

import (
	"fmt"

	"rivaas.dev/declare"
	"rivaas.dev/declare/proto"
)

// ExampleToStruct converts a record to a google.protobuf.Struct.
func ExampleToStruct() {
	user := declare.MustNewType("User", declare.Fields(
		declare.Var("name", declare.String),
		declare.Var("age", declare.Int),
	))

	s, err := proto.ToStruct(user.MustNew("Tom", 18))
	if err != nil {
		_, _ = fmt.Printf("Error: %v\n", err)
		return
	}

	fields := s.GetFields()
	_, _ = fmt.Println(fields["name"].GetStringValue(), fields["age"].GetNumberValue())
	// Output: Tom 18
}
