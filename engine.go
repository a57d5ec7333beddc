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

// Package lintflow is the public embedding surface: a Config wires a
// compiled dataflow program, its input relations, and a logger into an
// Engine. Run launches the worker pool and everything downstream (the
// transaction verbs, the query verbs, and the profiling toggles) is
// reached through the returned Engine, never through a package global.
package lintflow

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	lferrors "github.com/lintflow/lintflow/internal/errors"
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/profile"
	"github.com/lintflow/lintflow/internal/program"
	"github.com/lintflow/lintflow/internal/trace"
	"github.com/lintflow/lintflow/internal/txn"
	"github.com/lintflow/lintflow/internal/value"
)

// Config describes one dataflow program an Engine runs: its compiled node
// graph, the input relations the transaction manager accounts deltas
// against, and where it logs.
type Config struct {
	Program   program.Program
	Relations map[dataflow.RelationID]*dataflow.Relation
	Log       logrus.FieldLogger
}

// Engine is the embeddable handle over one compiled dataflow program. It is
// safe to hold across many Run/Stop cycles, but only one RunningProgram is
// live at a time.
type Engine struct {
	cfg        Config
	compiled   *program.Compiled
	compileErr error

	running  *program.RunningProgram
	txnMgr   *txn.Manager
	profiler *profile.Collector
}

// New compiles cfg.Program. A compile-time validation failure (duplicate
// relation id, illegal predecessor, missing arrangement, an input relation
// with rules of its own) is not returned here: it surfaces from Run, so
// that New itself never fails and callers can always construct an Engine
// before deciding whether to launch it.
func New(cfg Config) *Engine {
	compiled, err := program.Compile(cfg.Program, cfg.Log)
	return &Engine{cfg: cfg, compiled: compiled, compileErr: err}
}

// Run launches numWorkers worker goroutines over the compiled program and
// wires a fresh transaction manager on top of it. Calling Run again after
// Stop starts a new RunningProgram and a new transaction manager; any
// in-flight transaction on the previous one is discarded.
func (e *Engine) Run(numWorkers int) (*program.RunningProgram, error) {
	if e.compileErr != nil {
		return nil, e.compileErr
	}
	rp, err := e.compiled.Run(numWorkers)
	if err != nil {
		return nil, err
	}
	e.running = rp
	e.txnMgr = txn.NewManager(txn.Config{
		Relations: e.cfg.Relations,
		Flusher:   rp,
		Log:       e.cfg.Log,
	})
	return rp, nil
}

// Stop tears down the running program and, if profiling was ever enabled,
// the profiling collector goroutine alongside it.
func (e *Engine) Stop() error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	err := e.running.Stop()
	if e.profiler != nil {
		e.profiler.Stop()
		e.profiler = nil
	}
	e.running = nil
	e.txnMgr = nil
	return err
}

func (e *Engine) requireRunning() error {
	if e.running == nil || e.txnMgr == nil {
		return lferrors.ErrStartupFailed.New("engine is not running: call Run first")
	}
	return nil
}

// Transaction verbs. These delegate directly to the transaction manager,
// except Commit and Rollback, which must also forward each relation's
// accumulated delta into the running program before it asks the manager's
// Flusher to advance the epoch.

// Begin opens a new transaction.
func (e *Engine) Begin() error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.Begin()
}

// ApplyUpdates applies a batch of update commands within the open
// transaction, running inspector over each before it is applied.
func (e *Engine) ApplyUpdates(updates []txn.Update, inspector func(txn.Update) error) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.ApplyUpdates(updates, inspector)
}

// Insert stages a single insertion.
func (e *Engine) Insert(relID dataflow.RelationID, v trace.Value) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.Insert(relID, v)
}

// InsertOrUpdate stages a single upsert against an Indexed relation.
func (e *Engine) InsertOrUpdate(relID dataflow.RelationID, v trace.Value) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.InsertOrUpdate(relID, v)
}

// DeleteValue stages a single value deletion.
func (e *Engine) DeleteValue(relID dataflow.RelationID, v trace.Value) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.DeleteValue(relID, v)
}

// DeleteKey stages a single keyed deletion against an Indexed relation.
func (e *Engine) DeleteKey(relID dataflow.RelationID, k trace.Value) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.DeleteKey(relID, k)
}

// ModifyKey stages a read-modify-write against an Indexed relation's key.
func (e *Engine) ModifyKey(relID dataflow.RelationID, k trace.Value, mutator txn.Mutator) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.ModifyKey(relID, k, mutator)
}

// ClearRelation empties a relation immediately within the open transaction.
func (e *Engine) ClearRelation(relID dataflow.RelationID) error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.ClearRelation(relID)
}

// Commit stages every accumulated delta into the running program, then
// flushes it to quiescence at the next epoch, then clears the manager's
// per-transaction deltas.
func (e *Engine) Commit() error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.Commit(e.running.StageUpdate)
}

// Rollback reverts the manager's relation state by replaying the inverse of
// every accumulated delta, flushes, then asserts the manager's deltas are
// empty again. Nothing is staged into the running program: an uncommitted
// transaction's deltas never reached it.
func (e *Engine) Rollback() error {
	if err := e.requireRunning(); err != nil {
		return err
	}
	return e.txnMgr.Rollback(e.running.StageUpdate)
}

// Snapshot returns a relation's full current contents, outside any
// transaction.
func (e *Engine) Snapshot(id dataflow.RelationID) (dataflow.Collection, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.txnMgr.Snapshot(id), nil
}

// StreamDelta returns a Stream relation's current per-transaction delta
// counter.
func (e *Engine) StreamDelta(id dataflow.RelationID) (int64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	return e.txnMgr.StreamDelta(id), nil
}

// Query verbs. These delegate directly to the running program.

// QueryArrangement answers a point lookup against a Map-shaped arrangement.
func (e *Engine) QueryArrangement(arrangement string, key trace.Value) ([]trace.Entry, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.running.QueryArrangement(arrangement, key)
}

// DumpArrangement answers a full dump of a Map-shaped arrangement.
func (e *Engine) DumpArrangement(arrangement string) ([]trace.Entry, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.running.DumpArrangement(arrangement)
}

// DumpSetArrangement answers a full dump of a Set-shaped arrangement.
func (e *Engine) DumpSetArrangement(arrangement string) ([]trace.Value, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.running.DumpSetArrangement(arrangement)
}

// Collection exposes a relation's current materialized contents.
func (e *Engine) Collection(id dataflow.RelationID) (dataflow.Collection, error) {
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.running.Collection(id), nil
}

// Epoch returns the running program's current stable epoch.
func (e *Engine) Epoch() (uint64, error) {
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	return e.running.Epoch(), nil
}

// Profiling toggles. A Collector is started lazily on first use so an
// Engine that never profiles never pays for the collector goroutine.

func (e *Engine) ensureProfiler() *profile.Collector {
	if e.profiler == nil {
		e.profiler = profile.NewCollector()
	}
	return e.profiler
}

// EnableCPUProfiling turns CPU-sample submission on or off.
func (e *Engine) EnableCPUProfiling(on bool) {
	e.ensureProfiler().Flags.CPU.Store(on)
}

// EnableTimelyProfiling turns dataflow-scheduler sample submission on or
// off.
func (e *Engine) EnableTimelyProfiling(on bool) {
	e.ensureProfiler().Flags.Timely.Store(on)
}

// SubmitProfile records one profiling sample, dropped silently if its kind
// is currently disabled or the channel is full.
func (e *Engine) SubmitProfile(m profile.Message) {
	e.ensureProfiler().Submit(m)
}

// Profile returns the live accumulated profiling totals. It is never nil
// once called: calling it also lazily starts the collector.
func (e *Engine) Profile() *profile.Profile {
	return e.ensureProfiler().Profile
}

// FormatRecord renders a boundary value in its round-trippable text form.
func FormatRecord(r value.Record) string { return r.String() }

// ParseRecordText parses a boundary value back out of FormatRecord's text
// form.
func ParseRecordText(s string) (value.Record, error) {
	r, err := value.ParseRecord(s)
	if err != nil {
		return value.Record{}, errors.Wrap(err, "parsing record text")
	}
	return r, nil
}
