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

// Package txn implements the transaction manager's propagation policy:
// begin / apply_updates / commit / rollback over per-input-relation delta
// accounting, one caching-mode state machine per relation.
package txn

import (
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

// UpdateKind is one of the five update-command verbs.
type UpdateKind int

const (
	Insert UpdateKind = iota
	InsertOrUpdate
	Delete
	DeleteKey
	Modify
)

// Mutator reads the current value at a key and returns its replacement
// reads the current value, applies mutator, writes the result back.
type Mutator func(current trace.Value) (trace.Value, error)

// Update is one update command, naming its relation either by id or by
// textual name.
type Update struct {
	Kind         UpdateKind
	RelationID   dataflow.RelationID
	RelationName string

	Value   trace.Value // Insert, InsertOrUpdate, Delete
	Key     trace.Value // DeleteKey, Modify
	Mutator Mutator     // Modify
}
