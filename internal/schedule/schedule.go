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

// Package schedule holds the partial-assignment state an episode builds one
// assignment at a time, and its projections for lookup and export.
package schedule

import (
	"fmt"
	"sort"

	"open-tourney.dev/open-tourney/internal/tournament"
)

// Assignment binds one team to one slot.
type Assignment struct {
	Team int // team ID
	Slot int // slot ID
}

// State is a schedule under construction. It starts empty, grows by one
// Assignment per step, and becomes terminal when every obligation reaches
// zero or no legal action remains. Apply is the only mutation.
type State struct {
	plan           *tournament.Plan
	assignments    []Assignment
	remaining      [][3]int // per team index, per round type
	totalRemaining int
	slotTaken      []bool
	teamSlots      [][]int // slot IDs per team index, in apply order
	lastSlot       int
}

// NewState creates the empty state for one episode over the given plan.
func NewState(plan *tournament.Plan) *State {
	s := &State{
		plan:      plan,
		remaining: make([][3]int, len(plan.Teams)),
		slotTaken: make([]bool, len(plan.Slots)),
		teamSlots: make([][]int, len(plan.Teams)),
		lastSlot:  -1,
	}
	for i := range s.remaining {
		for _, rt := range tournament.RoundTypes {
			s.remaining[i][rt] = plan.Quota(rt)
			s.totalRemaining += plan.Quota(rt)
		}
	}
	return s
}

// Plan returns the plan this state schedules against.
func (s *State) Plan() *tournament.Plan { return s.plan }

// Remaining is the team's unmet obligation count for a round type.
func (s *State) Remaining(team int, rt tournament.RoundType) int {
	return s.remaining[team-1][rt]
}

// SlotTaken reports whether the slot already has a team.
func (s *State) SlotTaken(slot int) bool { return s.slotTaken[slot] }

// Complete reports whether every obligation has been met.
func (s *State) Complete() bool { return s.totalRemaining == 0 }

// Len is the number of assignments made so far.
func (s *State) Len() int { return len(s.assignments) }

// Apply appends one assignment. Violating a state invariant here means the
// caller fed an action the constraints never produced, so it panics rather
// than corrupting the schedule.
func (s *State) Apply(a Assignment) {
	slot := s.plan.Slot(a.Slot)
	if s.slotTaken[a.Slot] {
		panic(fmt.Sprintf("schedule: slot %d (%s %s) booked twice", a.Slot, slot.Location.Name, tournament.Clock(slot.Start)))
	}
	if s.remaining[a.Team-1][slot.Type] <= 0 {
		panic(fmt.Sprintf("schedule: team %d has no %v obligation left", a.Team, slot.Type))
	}
	for _, id := range s.teamSlots[a.Team-1] {
		if s.plan.Slot(id).Overlaps(slot) {
			panic(fmt.Sprintf("schedule: team %d double-booked at %s", a.Team, tournament.Clock(slot.Start)))
		}
	}

	s.assignments = append(s.assignments, a)
	s.remaining[a.Team-1][slot.Type]--
	s.totalRemaining--
	s.slotTaken[a.Slot] = true
	s.teamSlots[a.Team-1] = append(s.teamSlots[a.Team-1], a.Slot)
	s.lastSlot = a.Slot
}

// Assignments returns a copy of the assignments in apply order.
func (s *State) Assignments() []Assignment {
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// TeamSlotIDs returns the team's booked slot IDs in apply order. Callers that
// need time order use TeamSlots instead.
func (s *State) TeamSlotIDs(team int) []int {
	ids := s.teamSlots[team-1]
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// TeamSlots returns the team's booked slots ordered by start time.
func (s *State) TeamSlots(team int) []tournament.Slot {
	ids := s.teamSlots[team-1]
	out := make([]tournament.Slot, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.plan.Slot(id))
	}
	sort.Sort(byStart(out))
	return out
}

// Opponent resolves the team booked on the other side of the same table at
// the same time. ok is false for judging slots and unpaired match slots.
func (s *State) Opponent(a Assignment) (int, bool) {
	slot := s.plan.Slot(a.Slot)
	if slot.Location.Side == 0 {
		return 0, false
	}
	for _, other := range s.assignments {
		o := s.plan.Slot(other.Slot)
		if o.Type == slot.Type && o.Row == slot.Row &&
			o.Location.Table == slot.Location.Table && o.Location.Side != slot.Location.Side {
			return other.Team, true
		}
	}
	return 0, false
}

type byStart []tournament.Slot

func (b byStart) Len() int      { return len(b) }
func (b byStart) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byStart) Less(i, j int) bool {
	if b[i].Start != b[j].Start {
		return b[i].Start < b[j].Start
	}
	return b[i].ID < b[j].ID
}
