// Copyright 2020-2021 Dolthub, Inc.
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

// Package value implements the dynamically typed Record boundary value
// used to cross the engine's FFI boundary. Concrete, internally-typed
// relation tuples implement trace.Value instead.
package value

import (
	"bytes"
	"math/big"

	"github.com/cespare/xxhash/v2"
)

// Kind tags the variant held by a Record.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat32
	KindFloat64
	KindString
	KindSerialized
	KindTuple
	KindVector
	KindSet
	KindMap
	KindStructPositional
	KindStructNamed
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindSerialized:
		return "serialized"
	case KindTuple:
		return "tuple"
	case KindVector:
		return "vector"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindStructPositional:
		return "struct"
	case KindStructNamed:
		return "named-struct"
	default:
		return "unknown"
	}
}

// NamedField is one (name, value) pair of a named struct Record.
type NamedField struct {
	Name  string
	Value Record
}

// Record is the tagged-union boundary value. Only
// the fields relevant to Kind are meaningful; the rest are zero.
type Record struct {
	Kind Kind

	Bool    bool
	Int     *big.Int
	Float32 float32
	Float64 float64
	Str     string

	// Serialized: an opaque payload tagged with a format name.
	SerializedTag     string
	SerializedPayload string

	// Tuple: an ordered sequence of records of possibly differing shape.
	Tuple []Record

	// Vector/Set/Map: Kind disambiguates which collection this is. Map
	// entries are stored as 2-element Tuple records.
	Collection []Record

	// Positional/named struct.
	Constructor string
	PosFields   []Record
	NamedFields []NamedField
}

// Bool constructs a KindBool Record.
func NewBool(b bool) Record { return Record{Kind: KindBool, Bool: b} }

// Int constructs a KindInt Record from an arbitrary-precision integer.
func NewInt(i *big.Int) Record { return Record{Kind: KindInt, Int: i} }

// IntFromInt64 is a convenience constructor for small integers.
func IntFromInt64(i int64) Record { return Record{Kind: KindInt, Int: big.NewInt(i)} }

// Float32 constructs a KindFloat32 Record.
func NewFloat32(f float32) Record { return Record{Kind: KindFloat32, Float32: f} }

// Float64 constructs a KindFloat64 Record.
func NewFloat64(f float64) Record { return Record{Kind: KindFloat64, Float64: f} }

// String constructs a KindString Record.
func NewString(s string) Record { return Record{Kind: KindString, Str: s} }

// Serialized constructs a KindSerialized Record with the given format tag.
func NewSerialized(tag, payload string) Record {
	return Record{Kind: KindSerialized, SerializedTag: tag, SerializedPayload: payload}
}

// NewTuple constructs a KindTuple Record.
func NewTuple(elems ...Record) Record { return Record{Kind: KindTuple, Tuple: elems} }

// CollectionKind distinguishes the three Record collection shapes.
type CollectionKind int

const (
	Vector CollectionKind = iota
	Set
	Map
)

// NewCollection constructs a KindVector/KindSet/KindMap Record.
func NewCollection(k CollectionKind, elems ...Record) Record {
	switch k {
	case Set:
		return Record{Kind: KindSet, Collection: elems}
	case Map:
		return Record{Kind: KindMap, Collection: elems}
	default:
		return Record{Kind: KindVector, Collection: elems}
	}
}

// NewMapEntry builds the 2-tuple representation of one map entry.
func NewMapEntry(k, v Record) Record { return NewTuple(k, v) }

// NewStructPositional constructs a KindStructPositional Record.
func NewStructPositional(ctor string, fields ...Record) Record {
	return Record{Kind: KindStructPositional, Constructor: ctor, PosFields: fields}
}

// NewStructNamed constructs a KindStructNamed Record.
func NewStructNamed(ctor string, fields ...NamedField) Record {
	return Record{Kind: KindStructNamed, Constructor: ctor, NamedFields: fields}
}

// Equal reports deep, order-sensitive structural equality. Map/Set Records
// are compared as multisets of entries, consistent with their collection
// semantics rather than positional equality. This compares the actual
// canonical byte encoding, not a hash of it, so it carries no collision
// risk the way comparing two CanonicalBytes64 digests would.
func (r Record) Equal(other Record) bool {
	return bytes.Equal(r.CanonicalBytes(), other.CanonicalBytes())
}

// CanonicalBytes returns the canonical bytewise encoding of r (spec §3.1):
// two Records are Equal if and only if their CanonicalBytes are identical.
func (r Record) CanonicalBytes() []byte {
	var buf bytes.Buffer
	r.writeCanonical(&buf)
	return buf.Bytes()
}

// CanonicalBytes64 hashes the canonical bytewise form with xxhash, giving a
// stable 64-bit fingerprint usable as a map key for Records, which cannot be
// compared with Go's == due to embedded slices and *big.Int. Two Records
// with equal CanonicalBytes64 are not guaranteed Equal — callers that need a
// real comparison, not just a bucket key, must still call Equal or compare
// CanonicalBytes directly.
func (r Record) CanonicalBytes64() uint64 {
	h := xxhash.New()
	r.writeCanonical(h)
	return h.Sum64()
}
