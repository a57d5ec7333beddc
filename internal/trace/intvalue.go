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

// Int is a minimal concrete Value: a bare int64, useful as an arrangement
// key/value for relations that don't need a richer tuple shape, and for
// exercising the operator contracts in isolation.
type Int int64

func (i Int) CompareTo(other Value) int {
	o := other.(Int)
	switch {
	case i < o:
		return -1
	case i > o:
		return 1
	default:
		return 0
	}
}

func (i Int) Hash() uint64 { return HashValue(int64(i)) }

// Str is a minimal concrete Value wrapping a string.
type Str string

func (s Str) CompareTo(other Value) int {
	o := other.(Str)
	switch {
	case s < o:
		return -1
	case s > o:
		return 1
	default:
		return 0
	}
}

func (s Str) Hash() uint64 { return HashValue(string(s)) }

// Pair is a minimal concrete Value pairing two Values, useful for 2-ary
// relation tuples in tests and small rule sets.
type Pair struct {
	A, B Value
}

func (p Pair) CompareTo(other Value) int {
	o := other.(Pair)
	if c := p.A.CompareTo(o.A); c != 0 {
		return c
	}
	return p.B.CompareTo(o.B)
}

func (p Pair) Hash() uint64 { return HashValue([2]uint64{p.A.Hash(), p.B.Hash()}) }
