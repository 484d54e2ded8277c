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

package qlearn

import (
	"open-tourney.dev/open-tourney/internal/constraint"
	"open-tourney.dev/open-tourney/internal/schedule"
)

// Reward scores a transition after the assignment has been applied. The
// terminal soft score is the only positive signal; everything on the way is
// a flat step penalty, and a dead end earns the infeasible penalty.
type Reward struct {
	constraints       *constraint.Set
	stepPenalty       float64
	infeasiblePenalty float64
}

// NewReward builds the reward function for one run.
func NewReward(constraints *constraint.Set, cfg Config) *Reward {
	return &Reward{
		constraints:       constraints,
		stepPenalty:       cfg.StepPenalty,
		infeasiblePenalty: cfg.InfeasiblePenalty,
	}
}

// Reward evaluates the state reached by the last assignment. nextLegal is
// the number of legal actions remaining there, which distinguishes a dead
// end from an ordinary mid-episode step.
func (r *Reward) Reward(next *schedule.State, nextLegal int) float64 {
	if next.Complete() {
		return r.constraints.SoftScore(next)
	}
	if nextLegal == 0 {
		return r.infeasiblePenalty
	}
	return r.stepPenalty
}
