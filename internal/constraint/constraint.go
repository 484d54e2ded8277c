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

// Package constraint evaluates schedules: binary hard rules that gate every
// assignment, and weighted soft terms that shape the reward.
package constraint

import (
	"time"

	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/tournament"
)

// Weights scales the enumerated soft scoring terms. BackToBack is a penalty
// weight; the others reward.
type Weights struct {
	IdleTime        float64
	LocationBalance float64
	RoundSpread     float64
	OpponentVariety float64
	BackToBack      float64
}

// WeightsFromConfig reads the constraints.weights section.
func WeightsFromConfig(cfg config.View) Weights {
	return Weights{
		IdleTime:        cfg.GetFloat64("constraints.weights.idleTime"),
		LocationBalance: cfg.GetFloat64("constraints.weights.locationBalance"),
		RoundSpread:     cfg.GetFloat64("constraints.weights.roundSpread"),
		OpponentVariety: cfg.GetFloat64("constraints.weights.opponentVariety"),
		BackToBack:      cfg.GetFloat64("constraints.weights.backToBack"),
	}
}

// Set is the rule set for one plan. Hard rules are non-negotiable and
// enforced by construction; soft rules only ever shape the reward.
type Set struct {
	plan           *tournament.Plan
	weights        Weights
	minimumBreak   time.Duration
	preferredBreak time.Duration
}

// New creates the rule set. minimumBreak is the hard rest gap between a
// team's consecutive rounds; preferredBreak is the longer gap under which
// the soft back-to-back penalty starts counting.
func New(plan *tournament.Plan, w Weights, minimumBreak, preferredBreak time.Duration) *Set {
	return &Set{
		plan:           plan,
		weights:        w,
		minimumBreak:   minimumBreak,
		preferredBreak: preferredBreak,
	}
}

// NewFromConfig creates the rule set from the constraints section.
func NewFromConfig(plan *tournament.Plan, cfg config.View) *Set {
	return New(plan, WeightsFromConfig(cfg),
		cfg.GetDuration("constraints.minimumBreak"),
		cfg.GetDuration("constraints.preferredBreak"))
}

// IsHardFeasible reports whether the assignment can be applied without
// violating a hard rule: a free slot, an open quota, no overlapping booking
// for the team, and the minimum rest gap to the team's other rounds.
func (c *Set) IsHardFeasible(s *schedule.State, a schedule.Assignment) bool {
	slot := c.plan.Slot(a.Slot)
	if s.SlotTaken(a.Slot) {
		return false
	}
	if s.Remaining(a.Team, slot.Type) <= 0 {
		return false
	}
	for _, id := range s.TeamSlotIDs(a.Team) {
		booked := c.plan.Slot(id)
		if booked.Overlaps(slot) {
			return false
		}
		if c.minimumBreak > 0 && gapBetween(booked, slot) < c.minimumBreak {
			return false
		}
	}
	return true
}

// gapBetween is the idle time separating two non-overlapping slots.
func gapBetween(a, b tournament.Slot) time.Duration {
	if b.Start >= a.End {
		return b.Start - a.End
	}
	return a.Start - b.End
}
