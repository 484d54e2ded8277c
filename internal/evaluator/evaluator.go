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

// Package evaluator aggregates the episodes of a run into per-phase and
// per-team statistics for export and persistence.
package evaluator

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/set"
	"open-tourney.dev/open-tourney/internal/tournament"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "opentourney",
	"component": "evaluator",
})

// TeamStats describes one team's day in the delivered schedule.
type TeamStats struct {
	Team int    `json:"team"`
	Name string `json:"name"`

	// Rounds counts assignments per round type name.
	Rounds map[string]int `json:"rounds"`

	// FirstStart and LastEnd are offsets from midnight, zero for a team
	// with no assignments.
	FirstStart time.Duration `json:"firstStart"`
	LastEnd    time.Duration `json:"lastEnd"`

	// TotalIdle sums the gaps between consecutive assignments.
	// ShortestGap is zero for teams with fewer than two assignments.
	TotalIdle   time.Duration `json:"totalIdle"`
	ShortestGap time.Duration `json:"shortestGap"`

	DistinctLocations int `json:"distinctLocations"`
	DistinctOpponents int `json:"distinctOpponents"`
	// RepeatOpponents counts opponents met in both practice and ranked
	// play. Organizers try to keep this at zero.
	RepeatOpponents int `json:"repeatOpponents"`
}

// PhaseStats aggregates the episodes of one phase. Infeasible episodes are
// included in every aggregate and surface through the feasibility rate.
type PhaseStats struct {
	Phase    string `json:"phase"`
	Episodes int    `json:"episodes"`
	Feasible int    `json:"feasible"`

	FeasibilityRate float64 `json:"feasibilityRate"`
	MeanScore       float64 `json:"meanScore"`
	StddevScore     float64 `json:"stddevScore"`
	BestScore       float64 `json:"bestScore"`
	MeanSteps       float64 `json:"meanSteps"`

	Explored  int `json:"explored"`
	Exploited int `json:"exploited"`
	Fallbacks int `json:"fallbacks"`
}

// Summary is the consolidated evaluation of one run.
type Summary struct {
	// Phases holds baseline, training and optimal stats in that order.
	Phases []PhaseStats `json:"phases"`
	// Teams holds per-team stats of the delivered schedule in team order.
	Teams []TeamStats `json:"teams"`

	// Winner names the phase with the best mean score, later phases
	// winning ties.
	Winner string `json:"winner"`

	// Feasible and Score describe the delivered optimal schedule.
	Feasible bool    `json:"feasible"`
	Score    float64 `json:"score"`
	Canceled bool    `json:"canceled"`
}

// Summarize evaluates a finished run. The result must come from
// Trainer.Run, which always populates the optimal episode.
func Summarize(res *qlearn.Result) *Summary {
	sum := &Summary{
		Phases: []PhaseStats{
			phaseStats(qlearn.PhaseBaseline, res.Baseline),
			phaseStats(qlearn.PhaseTraining, res.Training),
			phaseStats(qlearn.PhaseOptimal, []*qlearn.Episode{res.Optimal}),
		},
		Feasible: res.Optimal.Feasible,
		Score:    res.Optimal.Score,
		Canceled: res.Canceled,
	}

	bestMean := math.Inf(-1)
	for _, ps := range sum.Phases {
		if ps.Episodes == 0 {
			continue
		}
		if ps.MeanScore >= bestMean {
			bestMean = ps.MeanScore
			sum.Winner = ps.Phase
		}
	}

	final := res.Optimal.Final
	for _, team := range final.Plan().Teams {
		sum.Teams = append(sum.Teams, teamStats(final, team))
	}

	logger.WithFields(logrus.Fields{
		"winner":   sum.Winner,
		"score":    sum.Score,
		"feasible": sum.Feasible,
	}).Info("run summarized")
	return sum
}

func phaseStats(phase qlearn.Phase, eps []*qlearn.Episode) PhaseStats {
	ps := PhaseStats{Phase: string(phase), Episodes: len(eps)}
	if len(eps) == 0 {
		return ps
	}

	var scoreSum, stepSum float64
	best := math.Inf(-1)
	for _, ep := range eps {
		if ep.Feasible {
			ps.Feasible++
		}
		scoreSum += ep.Score
		stepSum += float64(ep.Steps)
		if ep.Score > best {
			best = ep.Score
		}
		ps.Explored += ep.Explored
		ps.Exploited += ep.Exploited
		ps.Fallbacks += ep.Fallbacks
	}

	n := float64(len(eps))
	ps.FeasibilityRate = float64(ps.Feasible) / n
	ps.MeanScore = scoreSum / n
	ps.MeanSteps = stepSum / n
	ps.BestScore = best

	var varSum float64
	for _, ep := range eps {
		d := ep.Score - ps.MeanScore
		varSum += d * d
	}
	ps.StddevScore = math.Sqrt(varSum / n)
	return ps
}

func teamStats(s *schedule.State, team tournament.Team) TeamStats {
	plan := s.Plan()
	slots := s.TeamSlots(team.ID)

	ts := TeamStats{Team: team.ID, Name: team.Name, Rounds: map[string]int{}}
	for _, rt := range tournament.RoundTypes {
		ts.Rounds[rt.String()] = 0
	}

	var locations, practiceOpps, rankedOpps []string
	for _, slot := range slots {
		ts.Rounds[slot.Type.String()]++
		locations = append(locations, slot.Location.Name)
		if opp, ok := s.Opponent(schedule.Assignment{Team: team.ID, Slot: slot.ID}); ok {
			name := plan.Team(opp).Name
			switch slot.Type {
			case tournament.PracticeMatch:
				practiceOpps = append(practiceOpps, name)
			case tournament.RankedMatch:
				rankedOpps = append(rankedOpps, name)
			}
		}
	}

	if len(slots) > 0 {
		ts.FirstStart = slots[0].Start
		ts.LastEnd = slots[len(slots)-1].End
	}
	for i := 1; i < len(slots); i++ {
		gap := slots[i].Start - slots[i-1].End
		if gap < 0 {
			gap = 0
		}
		ts.TotalIdle += gap
		if i == 1 || gap < ts.ShortestGap {
			ts.ShortestGap = gap
		}
	}

	ts.DistinctLocations = len(set.Uniques(locations))
	ts.DistinctOpponents = len(set.Union(practiceOpps, rankedOpps))
	ts.RepeatOpponents = len(set.Uniques(set.Intersection(practiceOpps, rankedOpps)))
	return ts
}
