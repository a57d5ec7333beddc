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

package program

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	lferrors "github.com/lintflow/lintflow/internal/errors"
	"github.com/lintflow/lintflow/internal/dataflow"
	"github.com/lintflow/lintflow/internal/trace"
)

// queryRequest is sent to the worker owning a key's partition: every worker
// accepts a query and replies on its own channel.
type queryRequest struct {
	arrangement string
	key         trace.Value // nil means "dump the whole arrangement"
	reply       chan queryReply
}

type queryReply struct {
	mapEntries []trace.Entry
	setKeys    []trace.Value
	err        error
}

// worker is one cooperating goroutine that only answers queries. Updates,
// Flush and Stop are handled by RunningProgram itself under its mutex;
// every worker accepts Query on its own channel, exactly one worker answers
// any given key, and full dumps go to worker 0.
type worker struct {
	id       int
	queries  chan queryRequest
	quit     chan struct{}
	wg       *sync.WaitGroup
	rp       *RunningProgram
}

func (w *worker) run() {
	defer w.wg.Done()
	for {
		select {
		case q := <-w.queries:
			w.answer(q)
		case <-w.quit:
			return
		}
	}
}

func (w *worker) answer(q queryRequest) {
	w.rp.mu.RLock()
	defer w.rp.mu.RUnlock()

	if q.key != nil {
		arr := w.rp.db.Arrangement(q.arrangement)
		if arr == nil {
			q.reply <- queryReply{err: lferrors.ErrQueryUnknownArrangement.New(q.arrangement)}
			return
		}
		var out []trace.Entry
		for _, e := range arr.Lookup(q.key) {
			out = append(out, trace.Entry{Key: q.key, Val: e.Value, Weight: e.Weight})
		}
		q.reply <- queryReply{mapEntries: out}
		return
	}

	if arr := w.rp.db.Arrangement(q.arrangement); arr != nil {
		q.reply <- queryReply{mapEntries: arr.Dump()}
		return
	}
	if set := w.rp.db.SetArrangement(q.arrangement); set != nil {
		q.reply <- queryReply{setKeys: set.Dump()}
		return
	}
	q.reply <- queryReply{err: lferrors.ErrQueryUnknownArrangement.New(q.arrangement)}
}

// RunningProgram is the owning handle returned by Run: worker channels, the
// shared logical timestamp, and the Database, constructed once per Run call
// rather than held in a package-level global.
type RunningProgram struct {
	compiled *Compiled
	workers  []*worker
	wg       sync.WaitGroup

	mu sync.RWMutex
	db *Database

	epoch   atomic.Uint64
	pending map[dataflow.RelationID]dataflow.Collection
	stopped atomic.Bool

	log logrus.FieldLogger
}

// Run launches numWorkers cooperating worker goroutines over the compiled
// program.
func (c *Compiled) Run(numWorkers int) (*RunningProgram, error) {
	if numWorkers < 1 {
		return nil, lferrors.ErrStartupFailed.New("numWorkers must be >= 1")
	}
	rp := &RunningProgram{
		compiled: c,
		db:       c.db,
		pending:  map[dataflow.RelationID]dataflow.Collection{},
		log:      c.log,
	}
	rp.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		w := &worker{id: i, queries: make(chan queryRequest), quit: make(chan struct{}), wg: &rp.wg, rp: rp}
		rp.workers[i] = w
		rp.wg.Add(1)
		go w.run()
	}
	if rp.log != nil {
		rp.log.WithField("workers", numWorkers).Info("dataflow program started")
	}
	return rp, nil
}

// partitionFor picks the worker that owns key's partition, giving every key
// a single consistent answering worker.
func (rp *RunningProgram) partitionFor(key trace.Value) int {
	if key == nil || len(rp.workers) == 0 {
		return 0
	}
	return int(key.Hash() % uint64(len(rp.workers)))
}

// StageUpdate buffers a net weight change for a relation's value; it is not
// visible to queries until the next Flush: a batch is observed atomically
// at the next epoch boundary.
func (rp *RunningProgram) StageUpdate(id dataflow.RelationID, v trace.Value, weight int64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	coll := rp.pending[id]
	coll = append(coll, trace.Weighted{Value: v, Weight: weight})
	rp.pending[id] = coll
}

// Flush advances inputs to the next epoch, applies every staged update,
// and re-evaluates the program to quiescence at that epoch.
func (rp *RunningProgram) Flush() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	epoch := rp.epoch.Add(1)
	for id, delta := range rp.pending {
		merged := mergeCollection(rp.db.Collection(id), delta)
		rp.db.SetInput(id, merged)
	}
	rp.pending = map[dataflow.RelationID]dataflow.Collection{}
	rp.db.epoch = epoch

	if err := Evaluate(rp.compiled.program, rp.db, dataflow.Timestamp{Epoch: epoch}); err != nil {
		return err
	}
	if rp.log != nil {
		rp.log.WithField("epoch", epoch).Debug("flush ack")
	}
	return nil
}

func mergeCollection(base, delta dataflow.Collection) dataflow.Collection {
	combined := make([]trace.Weighted, 0, len(base)+len(delta))
	combined = append(combined, base...)
	combined = append(combined, delta...)
	return dataflow.Collection(trace.GroupWeighted(combined))
}

// Stop terminates all workers. If updates have been staged but not yet
// flushed, Stop first flushes them; an error from that internal flush is
// suppressed and Stop always returns nil.
func (rp *RunningProgram) Stop() error {
	if rp.stopped.Swap(true) {
		return nil
	}
	rp.mu.RLock()
	hasPending := len(rp.pending) > 0
	rp.mu.RUnlock()
	if hasPending {
		_ = rp.Flush()
	}
	for _, w := range rp.workers {
		close(w.quit)
	}
	rp.wg.Wait()
	if rp.log != nil {
		rp.log.Info("dataflow program stopped")
	}
	return nil
}

// QueryArrangement answers an arrangement point lookup,
// dispatching to the single worker that owns key's partition.
func (rp *RunningProgram) QueryArrangement(arrangement string, key trace.Value) ([]trace.Entry, error) {
	w := rp.workers[rp.partitionFor(key)]
	reply := make(chan queryReply, 1)
	w.queries <- queryRequest{arrangement: arrangement, key: key, reply: reply}
	r := <-reply
	return r.mapEntries, r.err
}

// DumpArrangement answers a full arrangement dump.
func (rp *RunningProgram) DumpArrangement(arrangement string) ([]trace.Entry, error) {
	w := rp.workers[0]
	reply := make(chan queryReply, 1)
	w.queries <- queryRequest{arrangement: arrangement, reply: reply}
	r := <-reply
	return r.mapEntries, r.err
}

// DumpSetArrangement answers a dump of a Set-shaped arrangement.
func (rp *RunningProgram) DumpSetArrangement(arrangement string) ([]trace.Value, error) {
	w := rp.workers[0]
	reply := make(chan queryReply, 1)
	w.queries <- queryRequest{arrangement: arrangement, reply: reply}
	r := <-reply
	return r.setKeys, r.err
}

// Collection exposes a relation's current materialized contents, backing
// a relation query.
func (rp *RunningProgram) Collection(id dataflow.RelationID) dataflow.Collection {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.db.Collection(id)
}

// Epoch returns the current stable epoch.
func (rp *RunningProgram) Epoch() uint64 { return rp.epoch.Load() }
