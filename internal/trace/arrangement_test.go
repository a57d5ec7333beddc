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

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapArrangementAddAndPrune(t *testing.T) {
	a := NewMapArrangement("m")
	a.Add(Int(1), Str("a"), 1)
	assert.True(t, a.HasPositive(Int(1)))

	a.Add(Int(1), Str("a"), -1)
	assert.False(t, a.HasPositive(Int(1)))
	assert.Empty(t, a.Lookup(Int(1)))
}

func TestMapArrangementDumpIsDeterministic(t *testing.T) {
	a := NewMapArrangement("m")
	a.Add(Int(2), Str("b"), 1)
	a.Add(Int(1), Str("a"), 1)
	dump := a.Dump()
	assert.Equal(t, Int(1), dump[0].Key)
	assert.Equal(t, Int(2), dump[1].Key)
}

func TestSetArrangementHasPositive(t *testing.T) {
	s := NewSetArrangement("s", false)
	s.Add(Int(5), 1)
	assert.True(t, s.HasPositive(Int(5)))
	s.Add(Int(5), -1)
	assert.False(t, s.HasPositive(Int(5)))
}
