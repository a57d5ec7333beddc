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

package txn

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	lferrors "github.com/lintflow/lintflow/internal/errors"
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

// Flusher is the hook into the running dataflow program the manager drives
// at commit/rollback time.
type Flusher interface {
	Flush() error
}

// Config configures a Manager.
type Config struct {
	Relations map[dataflow.RelationID]*dataflow.Relation
	Flusher   Flusher
	Log       logrus.FieldLogger
}

// Manager is the transaction manager: process-wide, single-threaded from
// the caller's view.
type Manager struct {
	mu         sync.Mutex
	relations  map[dataflow.RelationID]*dataflow.Relation
	states     map[dataflow.RelationID]*relState
	flusher    Flusher
	log        logrus.FieldLogger
	inProgress bool
}

// NewManager constructs a Manager over the given relation set.
func NewManager(cfg Config) *Manager {
	states := make(map[dataflow.RelationID]*relState, len(cfg.Relations))
	for id, r := range cfg.Relations {
		states[id] = newRelState(r)
	}
	return &Manager{relations: cfg.Relations, states: states, flusher: cfg.Flusher, log: cfg.Log}
}

// Begin starts a transaction. It is an error to begin while another is in
// progress.
func (m *Manager) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inProgress {
		return lferrors.ErrTransactionAlreadyInProgress.New()
	}
	m.inProgress = true
	return nil
}

func (m *Manager) requireInProgress() error {
	if !m.inProgress {
		return lferrors.ErrNoTransactionInProgress.New()
	}
	return nil
}

func (m *Manager) stateFor(u Update) (*relState, error) {
	if u.RelationName != "" {
		for id, r := range m.relations {
			if r.Name == u.RelationName {
				return m.states[id], nil
			}
		}
		return nil, lferrors.ErrUnknownRelation.New(u.RelationName)
	}
	s, ok := m.states[u.RelationID]
	if !ok {
		return nil, lferrors.ErrUnknownRelation.New(u.RelationID)
	}
	return s, nil
}

// apply performs one update command's validity check and state mutation,
// per the relation's caching mode.
func (m *Manager) apply(u Update) error {
	s, err := m.stateFor(u)
	if err != nil {
		return err
	}
	switch s.rel.Mode {
	case dataflow.Stream:
		return m.applyStream(s, u)
	case dataflow.Multiset:
		return m.applyMultiset(s, u)
	case dataflow.Set:
		return m.applySet(s, u)
	case dataflow.Indexed:
		return m.applyIndexed(s, u)
	}
	return nil
}

func (m *Manager) applyStream(s *relState, u Update) error {
	switch u.Kind {
	case Insert:
		s.streamDelta++
		s.recordDelta(u.Value, 1)
	case Delete:
		s.streamDelta--
		s.recordDelta(u.Value, -1)
	default:
		return lferrors.ErrOperationNotSupportedOnStream.New(operationName(u.Kind), s.rel.Name)
	}
	return nil
}

func (m *Manager) applyMultiset(s *relState, u Update) error {
	switch u.Kind {
	case Insert:
		h := u.Value.Hash()
		if e, ok := s.multiset[h]; ok {
			e.count++
		} else {
			s.multiset[h] = &multisetEntry{value: u.Value, count: 1}
		}
		s.recordDelta(u.Value, 1)
	case Delete:
		h := u.Value.Hash()
		if e, ok := s.multiset[h]; ok {
			e.count--
			if e.count == 0 {
				delete(s.multiset, h)
			}
		}
		s.recordDelta(u.Value, -1)
	default:
		return lferrors.ErrOperationNotSupportedOnStream.New(operationName(u.Kind), s.rel.Name)
	}
	return nil
}

func (m *Manager) applySet(s *relState, u Update) error {
	switch u.Kind {
	case Insert:
		h := u.Value.Hash()
		if _, ok := s.set[h]; ok {
			// Re-inserting an existing value is a no-op.
			return nil
		}
		s.set[h] = u.Value
		s.recordDelta(u.Value, 1)
	case Delete:
		h := u.Value.Hash()
		if _, ok := s.set[h]; !ok {
			// Deleting a missing value is a no-op.
			return nil
		}
		delete(s.set, h)
		s.recordDelta(u.Value, -1)
	default:
		return lferrors.ErrOperationNotSupportedOnStream.New(operationName(u.Kind), s.rel.Name)
	}
	return nil
}

func (m *Manager) applyIndexed(s *relState, u Update) error {
	keyOf := func(v trace.Value) trace.Value { return s.rel.KeyFunc(v) }
	switch u.Kind {
	case Insert:
		k := keyOf(u.Value)
		kh := k.Hash()
		if _, ok := s.indexed[kh]; ok {
			return lferrors.ErrDuplicateKey.New(s.rel.Name)
		}
		s.indexed[kh] = u.Value
		s.indexedKey[kh] = k
		s.recordDelta(u.Value, 1)
	case InsertOrUpdate:
		k := keyOf(u.Value)
		kh := k.Hash()
		if old, ok := s.indexed[kh]; ok {
			s.recordDelta(old, -1)
		}
		s.indexed[kh] = u.Value
		s.indexedKey[kh] = k
		s.recordDelta(u.Value, 1)
	case Delete:
		k := keyOf(u.Value)
		kh := k.Hash()
		old, ok := s.indexed[kh]
		if !ok || old.CompareTo(u.Value) != 0 {
			return lferrors.ErrValueMismatch.New(s.rel.Name)
		}
		delete(s.indexed, kh)
		delete(s.indexedKey, kh)
		s.recordDelta(old, -1)
	case DeleteKey:
		kh := u.Key.Hash()
		old, ok := s.indexed[kh]
		if !ok {
			return lferrors.ErrKeyNotFound.New(s.rel.Name)
		}
		delete(s.indexed, kh)
		delete(s.indexedKey, kh)
		s.recordDelta(old, -1)
	case Modify:
		kh := u.Key.Hash()
		old, ok := s.indexed[kh]
		if !ok {
			return lferrors.ErrKeyNotFound.New(s.rel.Name)
		}
		updated, err := u.Mutator(old)
		if err != nil {
			return errors.Wrapf(err, "modify %s", s.rel.Name)
		}
		s.indexed[kh] = updated
		s.recordDelta(old, -1)
		s.recordDelta(updated, 1)
	}
	return nil
}

func operationName(k UpdateKind) string {
	switch k {
	case Insert:
		return "Insert"
	case InsertOrUpdate:
		return "InsertOrUpdate"
	case Delete:
		return "Delete"
	case DeleteKey:
		return "DeleteKey"
	case Modify:
		return "Modify"
	default:
		return "Unknown"
	}
}

// ApplyUpdates applies every update in order, invoking inspector on each
// update before it is applied and stopping at the first update-level error.
// Already-applied updates remain in the in-flight delta until rollback.
func (m *Manager) ApplyUpdates(updates []Update, inspector func(Update) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireInProgress(); err != nil {
		return err
	}
	for _, u := range updates {
		if inspector != nil {
			if err := inspector(u); err != nil {
				return err
			}
		}
		if err := m.apply(u); err != nil {
			return err
		}
	}
	return nil
}

// Insert, InsertOrUpdate, DeleteValue, DeleteKey and ModifyKey are
// single-update conveniences over ApplyUpdates.
func (m *Manager) Insert(relID dataflow.RelationID, v trace.Value) error {
	return m.ApplyUpdates([]Update{{Kind: Insert, RelationID: relID, Value: v}}, nil)
}

func (m *Manager) InsertOrUpdate(relID dataflow.RelationID, v trace.Value) error {
	return m.ApplyUpdates([]Update{{Kind: InsertOrUpdate, RelationID: relID, Value: v}}, nil)
}

func (m *Manager) DeleteValue(relID dataflow.RelationID, v trace.Value) error {
	return m.ApplyUpdates([]Update{{Kind: Delete, RelationID: relID, Value: v}}, nil)
}

func (m *Manager) DeleteKey(relID dataflow.RelationID, k trace.Value) error {
	return m.ApplyUpdates([]Update{{Kind: DeleteKey, RelationID: relID, Key: k}}, nil)
}

func (m *Manager) ModifyKey(relID dataflow.RelationID, k trace.Value, mutator Mutator) error {
	return m.ApplyUpdates([]Update{{Kind: Modify, RelationID: relID, Key: k, Mutator: mutator}}, nil)
}

// ClearRelation empties a relation's state immediately, recording the
// necessary deltas so rollback can still invert it.
func (m *Manager) ClearRelation(relID dataflow.RelationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireInProgress(); err != nil {
		return err
	}
	s, ok := m.states[relID]
	if !ok {
		return lferrors.ErrUnknownRelation.New(relID)
	}
	for _, w := range s.snapshot() {
		s.recordDelta(w.Value, -w.Weight)
	}
	s.multiset = map[uint64]*multisetEntry{}
	s.set = map[uint64]trace.Value{}
	s.indexed = map[uint64]trace.Value{}
	s.indexedKey = map[uint64]trace.Value{}
	s.streamDelta = 0
	return nil
}

// pushToFlusher stages every relation's accumulated per-transaction delta
// into the dataflow program (if wired) before flushing.
func (m *Manager) pushToFlusher(stage func(id dataflow.RelationID, v trace.Value, weight int64)) {
	if stage == nil {
		return
	}
	for id, s := range m.states {
		for _, d := range s.deltas {
			stage(id, d.value, d.weight)
		}
	}
}

// Commit flushes, then clears every relation's delta.
func (m *Manager) Commit(stage func(id dataflow.RelationID, v trace.Value, weight int64)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireInProgress(); err != nil {
		return err
	}
	m.pushToFlusher(stage)
	if m.flusher != nil {
		if err := m.flusher.Flush(); err != nil {
			return errors.Wrap(err, "commit flush")
		}
	}
	for _, s := range m.states {
		s.clearDeltas()
	}
	m.inProgress = false
	if m.log != nil {
		m.log.Debug("transaction committed")
	}
	return nil
}

// Rollback emits the inverse of every recorded delta (deletions first, then
// insertions, to avoid duplicate-key conflicts on Indexed relations),
// flushes, and asserts every delta is empty.
func (m *Manager) Rollback(stage func(id dataflow.RelationID, v trace.Value, weight int64)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireInProgress(); err != nil {
		return err
	}

	for id, s := range m.states {
		deletions := make([]deltaOp, 0, len(s.deltas))
		insertions := make([]deltaOp, 0, len(s.deltas))
		for _, d := range s.deltas {
			if d.weight > 0 {
				deletions = append(deletions, deltaOp{value: d.value, weight: -d.weight})
			} else if d.weight < 0 {
				insertions = append(insertions, deltaOp{value: d.value, weight: -d.weight})
			}
		}
		for _, d := range deletions {
			m.invertOne(id, s, d)
		}
		for _, d := range insertions {
			m.invertOne(id, s, d)
		}
		s.clearDeltas()
	}

	if m.flusher != nil {
		if err := m.flusher.Flush(); err != nil {
			return errors.Wrap(err, "rollback flush")
		}
	}
	for _, s := range m.states {
		if len(s.deltas) != 0 {
			return errors.New("rollback invariant violated: non-empty delta after rollback")
		}
	}
	m.inProgress = false
	if m.log != nil {
		m.log.Debug("transaction rolled back")
	}
	return nil
}

// invertOne replays one inverted delta directly against relation state,
// bypassing apply's duplicate-key/no-op validity checks: rollback must be a
// total inverse even when the forward op was a Set no-op.
func (m *Manager) invertOne(id dataflow.RelationID, s *relState, d deltaOp) {
	switch s.rel.Mode {
	case dataflow.Stream:
		s.streamDelta += d.weight
	case dataflow.Multiset:
		h := d.value.Hash()
		if e, ok := s.multiset[h]; ok {
			e.count += d.weight
			if e.count == 0 {
				delete(s.multiset, h)
			}
		} else if d.weight != 0 {
			s.multiset[h] = &multisetEntry{value: d.value, count: d.weight}
		}
	case dataflow.Set:
		h := d.value.Hash()
		if d.weight > 0 {
			s.set[h] = d.value
		} else {
			delete(s.set, h)
		}
	case dataflow.Indexed:
		k := s.rel.KeyFunc(d.value)
		kh := k.Hash()
		if d.weight > 0 {
			s.indexed[kh] = d.value
			s.indexedKey[kh] = k
		} else {
			delete(s.indexed, kh)
			delete(s.indexedKey, kh)
		}
	}
}

// Snapshot returns a relation's current full contents, for seeding the
// dataflow Database.
func (m *Manager) Snapshot(id dataflow.RelationID) dataflow.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return nil
	}
	return s.snapshot()
}

// StreamDelta returns a Stream relation's current per-transaction delta
// counter.
func (m *Manager) StreamDelta(id dataflow.RelationID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return 0
	}
	return s.streamDelta
}
