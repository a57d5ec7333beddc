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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStringParseRoundTrip(t *testing.T) {
	tests := []Record{
		NewBool(true),
		NewBool(false),
		IntFromInt64(-12345),
		NewFloat64(3.5),
		NewString("hello, world"),
		NewString("line1\nline2\ttab'quote\"back\\slash"),
		NewSerialized("json", `{"a":1}`),
		NewTuple(NewBool(true), IntFromInt64(1), NewString("x")),
		NewStructPositional("Point", IntFromInt64(1), IntFromInt64(2)),
		NewStructNamed("Span", NamedField{Name: "start", Value: IntFromInt64(0)}, NamedField{Name: "end", Value: IntFromInt64(5)}),
	}

	for _, r := range tests {
		t.Run(r.String(), func(t *testing.T) {
			s := r.String()
			parsed, err := ParseRecord(s)
			require.NoError(t, err)
			assert.True(t, r.Equal(parsed), "round-trip mismatch: %s vs %s", s, parsed.String())
		})
	}
}

func TestRecordStringEscapesControlCharsButNotSingleQuote(t *testing.T) {
	r := NewString("a'b\nc")
	s := r.String()
	assert.Contains(t, s, "'")
	assert.NotContains(t, s, "\n")
}

func TestRecordEqualIgnoresSetOrder(t *testing.T) {
	a := NewCollection(Set, NewString("a"), NewString("b"))
	b := NewCollection(Set, NewString("b"), NewString("a"))
	assert.True(t, a.Equal(b))
}

func TestRecordEqualDetectsDifference(t *testing.T) {
	a := IntFromInt64(1)
	b := IntFromInt64(2)
	assert.False(t, a.Equal(b))
}
