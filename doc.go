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

// Package declare provides declarative record types with conversion to and
// from JSON, XML, form data and query strings.
//
// A record type is an ordered list of field descriptors. Each descriptor
// carries the field's internal and external names, its declared type,
// whether it is required, its default, and format hints such as the XML
// placement. One declaration drives every converter.
//
// # Quick Start
//
//	person := declare.MustNewType("Person", declare.Fields(
//	    declare.Var("name", declare.String),
//	    declare.Var("age", declare.Int),
//	))
//
//	tom, err := person.New("Tom", 18)
//	data, err := tom.ToJSON() // {"name":"Tom","age":18}
//
//	again, err := person.FromJSON(data)
//	tom.Equal(again) // true
//
// # Fields
//
// [Var] declares a field. The declared type is a scalar [reflect.Type]
// ([String], [Int], [Time], ...), a nested record *[Type], a list built
// with [ListOf] or a map built with [MapOf]. Options change the rest:
//
//	declare.Var("created_at", declare.Time,
//	    declare.Optional(),
//	    declare.WithNamingStyle(declare.CamelCase), // external name "createdAt"
//	    declare.AsXMLAttr(),
//	)
//
// # Inheritance
//
// [Extends] merges the fields of base types ahead of the type's own
// fields. A redeclared field keeps its inherited position:
//
//	base := declare.MustNewType("Base", declare.Fields(a, b))
//	derived := declare.MustNewType("Derived", declare.Extends(base), declare.Fields(b2, c))
//	// fields: a, b2, c
//
// # Construction and Casting
//
// Record fields cast values that do not match the declared type: "18"
// becomes 18 for an int field. Lists never cast; a mismatching element is
// an error. Casting tries, in order, the field's own codec, native
// conversion, then the [Registry] codec for the scalar type.
//
// # Missing and nil
//
// [Missing] marks a field with no value and is distinct from nil. On
// output a missing field takes its default; a required field that is
// still missing fails with [ErrMissingRequired]. With [WithSkipMissing],
// nil and missing optional fields are left out.
//
// # Formats
//
//	r.ToJSON()  / t.FromJSON(data)
//	r.ToXML()   / t.FromXML(data)
//	r.ToForm()  / t.FromForm(s)
//	r.ToQuery() / t.FromQuery(s)
//	r.ToMap()   / t.FromMap(m)
//
// Sub-packages add YAML, TOML, MessagePack, CBOR and protobuf Struct
// converters built on the mapping form. The schema package loads type
// declarations from documents, and cmd/declare converts between formats
// on the command line.
package declare
