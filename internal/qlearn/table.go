// Copyright 2024 The Open Tourney Authors
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

// Package qlearn implements the tabular Q-learning engine that learns a
// tournament assignment policy over repeated schedule-building episodes.
package qlearn

import (
	"sort"
	"sync"

	"open-tourney.dev/open-tourney/internal/schedule"
)

// Action keys one (slot, team) assignment inside the table.
type Action struct {
	Slot int
	Team int
}

func actionOf(a schedule.Assignment) Action {
	return Action{Slot: a.Slot, Team: a.Team}
}

// Row is one table entry flattened for export and persistence.
type Row struct {
	State uint64  `json:"state"`
	Slot  int     `json:"slot"`
	Team  int     `json:"team"`
	Value float64 `json:"value"`
}

// Table is the sparse mapping from (state signature, action) to the learned
// value estimate. Lookups of absent entries return zero; entries materialize
// on the first update that moves a value and are never deleted during a run.
// Training is single-writer; the lock lets snapshot readers overlap it.
type Table struct {
	mu     sync.RWMutex
	values map[schedule.Signature]map[Action]float64
}

// NewTable creates an empty table, shared across every episode of a run.
func NewTable() *Table {
	return &Table{values: make(map[schedule.Signature]map[Action]float64)}
}

// Get returns the stored estimate, zero when never visited.
func (t *Table) Get(sig schedule.Signature, a Action) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[sig][a]
}

// Set stores an estimate. A write that would only materialize the zero
// default is dropped, which keeps the table sparse and leaves it untouched
// under a zero learning rate.
func (t *Table) Set(sig schedule.Signature, a Action, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bucket, ok := t.values[sig]
	if !ok {
		if v == 0 {
			return
		}
		bucket = make(map[Action]float64)
		t.values[sig] = bucket
	}
	bucket[a] = v
}

// AnyVisited reports whether the state has a stored estimate for at least
// one of the candidate actions. False means exploitation has nothing to go
// on and the caller falls back to exploration.
func (t *Table) AnyVisited(sig schedule.Signature, candidates []schedule.Assignment) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bucket, ok := t.values[sig]
	if !ok {
		return false
	}
	for _, c := range candidates {
		if _, ok := bucket[actionOf(c)]; ok {
			return true
		}
	}
	return false
}

// Best returns the candidate with the highest estimate, treating absent
// entries as zero. Candidates are scanned in order and equal values keep
// the first, so callers get deterministic tie-breaking for free.
func (t *Table) Best(sig schedule.Signature, candidates []schedule.Assignment) (schedule.Assignment, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bucket := t.values[sig]
	best := candidates[0]
	bestV := bucket[actionOf(best)]
	for _, c := range candidates[1:] {
		if v := bucket[actionOf(c)]; v > bestV {
			best, bestV = c, v
		}
	}
	return best, bestV
}

// MaxOver is the Bellman lookahead: the highest estimate among the next
// state's candidates, zero when the next state is terminal.
func (t *Table) MaxOver(sig schedule.Signature, candidates []schedule.Assignment) float64 {
	if len(candidates) == 0 {
		return 0
	}
	_, v := t.Best(sig, candidates)
	return v
}

// Len is the number of stored (state, action) entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, bucket := range t.values {
		n += len(bucket)
	}
	return n
}

// Rows flattens the table into export rows, sorted by state, slot, team so
// two exports of the same table are byte-identical.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]Row, 0, 64)
	for sig, bucket := range t.values {
		for a, v := range bucket {
			rows = append(rows, Row{State: uint64(sig), Slot: a.Slot, Team: a.Team, Value: v})
		}
	}
	sort.Sort(byTableOrder(rows))
	return rows
}

type byTableOrder []Row

func (b byTableOrder) Len() int      { return len(b) }
func (b byTableOrder) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byTableOrder) Less(i, j int) bool {
	if b[i].State != b[j].State {
		return b[i].State < b[j].State
	}
	if b[i].Slot != b[j].Slot {
		return b[i].Slot < b[j].Slot
	}
	return b[i].Team < b[j].Team
}
