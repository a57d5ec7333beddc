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

func TestMutateNamedStructAppliesOnlyPresentFields(t *testing.T) {
	target := NewStructNamed("Point",
		NamedField{Name: "x", Value: IntFromInt64(1)},
		NamedField{Name: "y", Value: IntFromInt64(2)},
	)
	update := NewStructNamed("Point", NamedField{Name: "y", Value: IntFromInt64(9)})

	require.NoError(t, Mutate(update, &target))

	assert.Equal(t, int64(1), fieldInt(t, target, "x"))
	assert.Equal(t, int64(9), fieldInt(t, target, "y"))
}

func TestMutatePositionalStructArityMismatch(t *testing.T) {
	target := NewStructPositional("Point", IntFromInt64(1), IntFromInt64(2))
	update := NewStructPositional("Point", IntFromInt64(1))
	err := Mutate(update, &target)
	assert.Error(t, err)
}

func TestMutateMapSymmetricDifferenceWithOverride(t *testing.T) {
	target := NewCollection(Map,
		NewMapEntry(NewString("a"), IntFromInt64(1)),
		NewMapEntry(NewString("b"), IntFromInt64(2)),
	)
	update := NewCollection(Map,
		NewMapEntry(NewString("a"), IntFromInt64(1)),  // present-equal -> delete
		NewMapEntry(NewString("b"), IntFromInt64(99)), // present-different -> overwrite
		NewMapEntry(NewString("c"), IntFromInt64(3)),  // absent -> insert
	)
	require.NoError(t, Mutate(update, &target))

	var keys []string
	for _, e := range target.Collection {
		keys = append(keys, e.Tuple[0].Str)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, keys)
	assert.Equal(t, int64(99), mapValInt(t, target, "b"))
	assert.Equal(t, int64(3), mapValInt(t, target, "c"))
}

func TestMutateSetSymmetricDifference(t *testing.T) {
	target := NewCollection(Set, NewString("a"), NewString("b"))
	update := NewCollection(Set, NewString("b"), NewString("c"))
	require.NoError(t, Mutate(update, &target))

	var vals []string
	for _, e := range target.Collection {
		vals = append(vals, e.Str)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, vals)
}

func TestMutateScalarReplacesWholesale(t *testing.T) {
	target := IntFromInt64(1)
	update := IntFromInt64(2)
	require.NoError(t, Mutate(update, &target))
	assert.True(t, target.Equal(update))
}

func fieldInt(t *testing.T, r Record, name string) int64 {
	t.Helper()
	for _, f := range r.NamedFields {
		if f.Name == name {
			return f.Value.Int.Int64()
		}
	}
	t.Fatalf("field %q not found", name)
	return 0
}

func mapValInt(t *testing.T, r Record, key string) int64 {
	t.Helper()
	for _, e := range r.Collection {
		if e.Tuple[0].Str == key {
			return e.Tuple[1].Int.Int64()
		}
	}
	t.Fatalf("key %q not found", key)
	return 0
}
