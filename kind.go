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

// Kind classifies how a field's value nests. It is fixed when the field is
// declared and drives every converter's dispatch.
type Kind int

const (
	// KindScalar is a leaf value described by a [reflect.Type].
	KindScalar Kind = iota

	// KindRecord is a nested record of a declared [Type].
	KindRecord

	// KindList is a homogeneous list described by a [ListType].
	KindList

	// KindMap is a string-keyed map described by a [MapType].
	KindMap
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// XMLRole selects where a field is placed in an XML element.
type XMLRole int

const (
	// RoleElement places the field in a child element (default).
	RoleElement XMLRole = iota

	// RoleAttribute places the field in an attribute of the record element.
	RoleAttribute

	// RoleText places the field in the record element's own text.
	RoleText
)

// String returns the string representation of the role.
func (r XMLRole) String() string {
	switch r {
	case RoleElement:
		return "element"
	case RoleAttribute:
		return "attribute"
	case RoleText:
		return "text"
	default:
		return "unknown"
	}
}
