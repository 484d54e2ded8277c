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

package constraint

import (
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/tournament"
)

// ActionSpace enumerates the legal next assignments for a state.
type ActionSpace struct {
	plan *tournament.Plan
	set  *Set
}

// NewActionSpace creates an action space over the plan's slot inventory.
func NewActionSpace(plan *tournament.Plan, set *Set) *ActionSpace {
	return &ActionSpace{plan: plan, set: set}
}

// LegalActions returns every (team, slot) pair the hard rules accept, in
// ascending slot ID then team ID order. The fixed order is what makes greedy
// tie-breaking, and therefore optimal extraction, reproducible. An empty
// result with obligations outstanding means the episode is stuck; callers
// treat that as an infeasible terminal, not a fault.
func (as *ActionSpace) LegalActions(s *schedule.State) []schedule.Assignment {
	var out []schedule.Assignment
	for _, slot := range as.plan.Slots {
		if s.SlotTaken(slot.ID) {
			continue
		}
		for _, team := range as.plan.Teams {
			if s.Remaining(team.ID, slot.Type) <= 0 {
				continue
			}
			a := schedule.Assignment{Team: team.ID, Slot: slot.ID}
			if as.set.IsHardFeasible(s, a) {
				out = append(out, a)
			}
		}
	}
	return out
}
