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

package declare_test

import (
	"errors"
	"fmt"

	"rivaas.dev/declare"
)

// ExampleNewType declares a record type and converts an instance to JSON.
func ExampleNewType() {
	person := declare.MustNewType("Person", declare.Fields(
		declare.Var("name", declare.String),
		declare.Var("age", declare.Int),
	))

	tom, err := person.New("Tom", declare.Named{"age": 18})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	data, _ := tom.ToJSON()
	fmt.Println(string(data))
	fmt.Println(tom)
	// Output:
	// {"name":"Tom","age":18}
	// Person(name=Tom,age=18)
}

// ExampleExtends shows that a redeclared field keeps its inherited position.
func ExampleExtends() {
	base := declare.MustNewType("Base", declare.Fields(
		declare.Var("a", declare.Int),
		declare.Var("b", declare.Int),
	))
	derived := declare.MustNewType("Derived",
		declare.Extends(base),
		declare.Fields(
			declare.Var("b", declare.String),
			declare.Var("c", declare.Int),
		),
	)

	for _, f := range derived.Fields() {
		fmt.Println(f.Name(), f.TypeName())
	}
	// Output:
	// a int
	// b string
	// c int
}

// ExampleListOf contrasts strict lists with casting record fields.
func ExampleListOf() {
	ints := declare.ListOf(declare.Int)

	_, err := ints.New(1, 2, 3)
	fmt.Println(err == nil)

	_, err = ints.New(1, "2", 3)
	fmt.Println(errors.Is(err, declare.ErrTypeMismatch))
	// Output:
	// true
	// true
}

// ExampleRecord_ToXML places fields as attribute, text and child elements.
func ExampleRecord_ToXML() {
	link := declare.MustNewType("Link", declare.XMLTag("a"), declare.Fields(
		declare.Var("href", declare.String, declare.AsXMLAttr()),
		declare.Var("label", declare.String, declare.AsXMLText()),
	))

	r, _ := link.New("https://go.dev", "Go")
	data, _ := r.ToXML()
	fmt.Println(string(data))
	// Output: <a href="https://go.dev">Go</a>
}

// ExampleRecord_ToQuery encodes a flat record as a query string.
func ExampleRecord_ToQuery() {
	search := declare.MustNewType("Search", declare.Fields(
		declare.Var("q", declare.String),
		declare.Var("page", declare.Int, declare.Default(1)),
	))

	r, _ := search.New("go generics")
	form, _ := r.ToForm()
	query, _ := r.ToQuery()
	fmt.Println(form)
	fmt.Println(query)
	// Output:
	// q=go generics&page=1
	// q=go+generics&page=1
}

// ExampleWithSkipMissing leaves out optional fields without a value.
func ExampleWithSkipMissing() {
	klass := declare.MustNewType("Klass", declare.Fields(
		declare.Var("a", declare.Int, declare.Optional()),
	))

	r, _ := klass.New(nil)
	full, _ := r.ToJSON()
	skipped, _ := r.ToJSON(declare.WithSkipMissing())
	fmt.Println(string(full))
	fmt.Println(string(skipped))
	// Output:
	// {"a":null}
	// {}
}
