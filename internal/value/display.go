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

package value

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// String renders the canonical text form. Two
// Records that are Equal render identically; the form round-trips through
// ParseRecord, except that Set and Map records parse back as Vectors,
// Float32 values parse back as Float64, and NaN and infinities are not
// accepted by the parser.
func (r Record) String() string {
	var b strings.Builder
	r.writeString(&b)
	return b.String()
}

func (r Record) writeString(b *strings.Builder) {
	switch r.Kind {
	case KindBool:
		if r.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		if r.Int == nil {
			b.WriteString("0")
		} else {
			b.WriteString(r.Int.String())
		}
	case KindFloat32:
		writeFloatText(b, strconv.FormatFloat(float64(r.Float32), 'g', -1, 32))
	case KindFloat64:
		writeFloatText(b, strconv.FormatFloat(r.Float64, 'g', -1, 64))
	case KindString:
		writeEscapedString(b, r.Str)
	case KindSerialized:
		b.WriteByte('#')
		b.WriteString(r.SerializedTag)
		writeEscapedString(b, r.SerializedPayload)
	case KindTuple:
		b.WriteByte('(')
		for i, e := range r.Tuple {
			if i > 0 {
				b.WriteString(", ")
			}
			e.writeString(b)
		}
		b.WriteByte(')')
	case KindVector, KindSet, KindMap:
		b.WriteByte('[')
		for i, e := range r.Collection {
			if i > 0 {
				b.WriteString(", ")
			}
			e.writeString(b)
		}
		b.WriteByte(']')
	case KindStructPositional:
		b.WriteString(r.Constructor)
		b.WriteByte('{')
		for i, e := range r.PosFields {
			if i > 0 {
				b.WriteString(", ")
			}
			e.writeString(b)
		}
		b.WriteByte('}')
	case KindStructNamed:
		b.WriteString(r.Constructor)
		b.WriteByte('{')
		for i, f := range r.NamedFields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('.')
			b.WriteString(f.Name)
			b.WriteString(" = ")
			f.Value.writeString(b)
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "<invalid kind %d>", r.Kind)
	}
}

// writeFloatText writes a formatted float, adding ".0" to an integral value
// so that ParseRecord reads it back as a float rather than an Int.
func writeFloatText(b *strings.Builder, s string) {
	b.WriteString(s)
	if !strings.ContainsAny(s, ".eEnN") {
		b.WriteString(".0")
	}
}

// writeEscapedString escapes every
// control character except the single quote, which is emitted verbatim;
// backslash and double-quote are escaped so the form is lossless.
func writeEscapedString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteByte('\'')
		case r == '\\':
			b.WriteString(`\\`)
		case r == '"':
			b.WriteString(`\"`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(b, `\u{%x}`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

// writeCanonical writes a bytewise-canonical encoding of r into w, sorting
// Set/Map collection entries by their own canonical form so that insertion
// order never affects the encoding. w is either a bytes.Buffer, for a real
// CanonicalBytes comparison, or an xxhash.Digest, for the cheaper
// CanonicalBytes64 fingerprint — both satisfy io.Writer.
func (r Record) writeCanonical(w io.Writer) {
	writeU8(w, byte(r.Kind))
	switch r.Kind {
	case KindBool:
		if r.Bool {
			writeU8(w, 1)
		} else {
			writeU8(w, 0)
		}
	case KindInt:
		if r.Int == nil {
			w.Write([]byte{0})
		} else {
			w.Write(r.Int.Bytes())
			writeU8(w, byte(r.Int.Sign()+1))
		}
	case KindFloat32:
		w.Write([]byte(strconv.FormatFloat(float64(r.Float32), 'g', -1, 32)))
	case KindFloat64:
		w.Write([]byte(strconv.FormatFloat(r.Float64, 'g', -1, 64)))
	case KindString:
		w.Write([]byte(r.Str))
	case KindSerialized:
		w.Write([]byte(r.SerializedTag))
		writeU8(w, 0)
		w.Write([]byte(r.SerializedPayload))
	case KindTuple:
		for _, e := range r.Tuple {
			e.writeCanonical(w)
		}
	case KindVector:
		for _, e := range r.Collection {
			e.writeCanonical(w)
		}
	case KindSet, KindMap:
		keys := canonicalSortedKeys(r.Collection)
		for _, e := range keys {
			e.writeCanonical(w)
		}
	case KindStructPositional, KindStructNamed:
		w.Write([]byte(r.Constructor))
		if r.Kind == KindStructPositional {
			for _, e := range r.PosFields {
				e.writeCanonical(w)
			}
		} else {
			fields := append([]NamedField(nil), r.NamedFields...)
			sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
			for _, f := range fields {
				w.Write([]byte(f.Name))
				f.Value.writeCanonical(w)
			}
		}
	}
}

// canonicalSortedKeys sorts Set/Map entries by their real canonical bytes,
// not a hash of them, so two entries whose digests happen to collide still
// sort deterministically relative to each other.
func canonicalSortedKeys(elems []Record) []Record {
	out := append([]Record(nil), elems...)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].CanonicalBytes(), out[j].CanonicalBytes()) < 0
	})
	return out
}

func writeU8(w io.Writer, b byte) { w.Write([]byte{b}) }
