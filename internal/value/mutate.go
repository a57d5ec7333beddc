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
	lferrors "github.com/lintflow/lintflow/internal/errors"
)

// Mutate applies a partial update using the `mutate`
// contract: update is folded onto target in place. Mutate never recurses
// through engine boundary types other than Record itself; domain types
// round-trip through ToRecord/FromRecord around a call to Mutate.
func Mutate(update Record, target *Record) error {
	switch update.Kind {
	case KindStructPositional:
		if target.Kind != KindStructPositional || target.Constructor != update.Constructor {
			*target = update
			return nil
		}
		if len(target.PosFields) != len(update.PosFields) {
			return lferrors.ErrArityMismatch.New(update.Constructor, len(target.PosFields), len(update.PosFields))
		}
		for i := range update.PosFields {
			if err := Mutate(update.PosFields[i], &target.PosFields[i]); err != nil {
				return err
			}
		}
		return nil

	case KindStructNamed:
		if target.Kind != KindStructNamed || target.Constructor != update.Constructor {
			*target = update
			return nil
		}
		for _, uf := range update.NamedFields {
			idx := -1
			for i, tf := range target.NamedFields {
				if tf.Name == uf.Name {
					idx = i
					break
				}
			}
			if idx < 0 {
				target.NamedFields = append(target.NamedFields, uf)
				continue
			}
			if err := Mutate(uf.Value, &target.NamedFields[idx].Value); err != nil {
				return err
			}
		}
		return nil

	case KindMap:
		if target.Kind != KindMap {
			*target = update
			return nil
		}
		for _, entry := range update.Collection {
			target.Collection = mutateMapEntry(target.Collection, entry)
		}
		return nil

	case KindSet:
		if target.Kind != KindSet {
			*target = update
			return nil
		}
		for _, e := range update.Collection {
			target.Collection = symmetricDifferenceToggle(target.Collection, e)
		}
		return nil

	default:
		// Bool, Int, Float32, Float64, String, Serialized, Tuple, Vector:
		// the value is replaced wholesale.
		*target = update
		return nil
	}
}

// mutateMapEntry applies one (k, v) map-entry update with the symmetric-
// difference-with-override semantics: absent -> insert,
// present-equal -> delete, present-different -> overwrite.
func mutateMapEntry(entries []Record, update Record) []Record {
	if update.Kind != KindTuple || len(update.Tuple) != 2 {
		return entries
	}
	key, val := update.Tuple[0], update.Tuple[1]
	for i, e := range entries {
		if e.Kind != KindTuple || len(e.Tuple) != 2 {
			continue
		}
		if !e.Tuple[0].Equal(key) {
			continue
		}
		if e.Tuple[1].Equal(val) {
			return append(entries[:i:i], entries[i+1:]...)
		}
		entries[i] = NewMapEntry(key, val)
		return entries
	}
	return append(entries, NewMapEntry(key, val))
}

// symmetricDifferenceToggle implements Set mutation: toggling membership of
// elem in entries (present -> removed, absent -> inserted).
func symmetricDifferenceToggle(entries []Record, elem Record) []Record {
	for i, e := range entries {
		if e.Equal(elem) {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return append(entries, elem)
}
