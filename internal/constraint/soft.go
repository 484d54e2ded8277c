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
)

// baseAdjust keeps a partial schedule's score comparable to a complete one:
// the weighted sum is scaled by baseAdjust + (1-baseAdjust)*completion.
const baseAdjust = 0.5

// Terms are the soft scoring aggregates, each in [0,1], averaged over teams.
type Terms struct {
	IdleTime        float64
	LocationBalance float64
	RoundSpread     float64
	OpponentVariety float64
	BackToBackRate  float64
}

// SoftScore aggregates the weighted soft terms of a partial or complete
// schedule, scaled by completion. Hard violations never appear here; the
// action space makes them unreachable.
func (c *Set) SoftScore(s *schedule.State) float64 {
	total := c.plan.TotalObligations()
	if total == 0 || s.Len() == 0 {
		return 0
	}
	t := c.Terms(s)
	sum := c.weights.IdleTime*t.IdleTime +
		c.weights.LocationBalance*t.LocationBalance +
		c.weights.RoundSpread*t.RoundSpread +
		c.weights.OpponentVariety*t.OpponentVariety -
		c.weights.BackToBack*t.BackToBackRate
	completion := float64(s.Len()) / float64(total)
	return (baseAdjust + (1-baseAdjust)*completion) * sum
}

// Terms computes the per-term aggregates across all teams.
func (c *Set) Terms(s *schedule.State) Terms {
	var sum Terms
	for _, team := range c.plan.Teams {
		tt := c.teamTerms(s, team.ID)
		sum.IdleTime += tt.IdleTime
		sum.LocationBalance += tt.LocationBalance
		sum.RoundSpread += tt.RoundSpread
		sum.OpponentVariety += tt.OpponentVariety
		sum.BackToBackRate += tt.BackToBackRate
	}
	n := float64(len(c.plan.Teams))
	return Terms{
		IdleTime:        sum.IdleTime / n,
		LocationBalance: sum.LocationBalance / n,
		RoundSpread:     sum.RoundSpread / n,
		OpponentVariety: sum.OpponentVariety / n,
		BackToBackRate:  sum.BackToBackRate / n,
	}
}

func (c *Set) teamTerms(s *schedule.State, team int) Terms {
	slots := s.TeamSlots(team)
	span := c.plan.DaySpan().Seconds()
	tt := Terms{IdleTime: 1, LocationBalance: 1, OpponentVariety: 1}

	if len(slots) >= 2 {
		var idle float64
		pairs := 0
		short := 0
		for i := 1; i < len(slots); i++ {
			gap := gapBetween(slots[i-1], slots[i])
			idle += gap.Seconds()
			pairs++
			if gap < c.preferredBreak {
				short++
			}
		}
		if span > 0 {
			tt.IdleTime = 1 - clamp01(idle/span)
			tt.RoundSpread = clamp01((slots[len(slots)-1].Start - slots[0].Start).Seconds() / span)
		}
		tt.BackToBackRate = float64(short) / float64(pairs)
	}

	tables := map[int]bool{}
	opponents := map[int]bool{}
	matches, paired := 0, 0
	for _, slot := range slots {
		if slot.Location.Side == 0 {
			continue
		}
		matches++
		tables[slot.Location.Table] = true
		if opp, ok := s.Opponent(schedule.Assignment{Team: team, Slot: slot.ID}); ok {
			paired++
			opponents[opp] = true
		}
	}
	if matches > 0 {
		tt.LocationBalance = float64(len(tables)) / float64(matches)
	}
	if paired > 0 {
		tt.OpponentVariety = float64(len(opponents)) / float64(paired)
	}
	return tt
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
