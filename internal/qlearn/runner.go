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
	"open-tourney.dev/open-tourney/internal/tournament"
)

// Phase names which stage of a run produced an episode.
type Phase string

const (
	// PhaseBaseline episodes follow a random policy and never touch the table.
	PhaseBaseline Phase = "baseline"
	// PhaseTraining episodes select epsilon-greedily and update the table.
	PhaseTraining Phase = "training"
	// PhaseOptimal is the single greedy extraction after training.
	PhaseOptimal Phase = "optimal"
)

// Episode is the record of one schedule-building attempt.
type Episode struct {
	Phase Phase
	Index int

	// Final is the state the episode ended in, complete or dead-ended.
	Final *schedule.State
	// Rewards holds the reward of every step in order.
	Rewards []float64
	// Score is the completion-adjusted soft score of the final state.
	Score float64
	// Feasible reports whether every obligation was placed.
	Feasible bool

	Steps     int
	Explored  int
	Exploited int
	// Fallbacks counts exploitation steps that recovered on an unvisited
	// state by exploring instead.
	Fallbacks int
}

// TotalReward sums the reward trajectory.
func (e *Episode) TotalReward() float64 {
	total := 0.0
	for _, r := range e.Rewards {
		total += r
	}
	return total
}

// ExplorationRatio is the fraction of steps that explored, zero for an
// episode with no steps.
func (e *Episode) ExplorationRatio() float64 {
	if e.Steps == 0 {
		return 0
	}
	return float64(e.Explored) / float64(e.Steps)
}

type selectFunc func(schedule.Signature, []schedule.Assignment) (schedule.Assignment, Decision)

// Runner executes single episodes against a shared agent and table.
type Runner struct {
	plan                *tournament.Plan
	space               *constraint.ActionSpace
	constraints         *constraint.Set
	agent               *Agent
	reward              *Reward
	learnFromInfeasible bool
}

// NewRunner wires the episode loop to one plan, constraint set and agent.
func NewRunner(plan *tournament.Plan, space *constraint.ActionSpace, constraints *constraint.Set, agent *Agent, reward *Reward, learnFromInfeasible bool) *Runner {
	return &Runner{
		plan:                plan,
		space:               space,
		constraints:         constraints,
		agent:               agent,
		reward:              reward,
		learnFromInfeasible: learnFromInfeasible,
	}
}

// RunBaseline plays one random-policy episode. The table is neither read
// nor written.
func (r *Runner) RunBaseline(index int) *Episode {
	sel := func(_ schedule.Signature, legal []schedule.Assignment) (schedule.Assignment, Decision) {
		return r.agent.Random(legal)
	}
	return r.run(PhaseBaseline, index, sel, false)
}

// RunTraining plays one learning episode with epsilon-greedy selection and
// online Bellman updates.
func (r *Runner) RunTraining(index int) *Episode {
	return r.run(PhaseTraining, index, r.agent.SelectAction, true)
}

// RunOptimal extracts the learned policy greedily with no exploration and
// no updates. Running it twice against the same table yields the same
// schedule.
func (r *Runner) RunOptimal() *Episode {
	return r.run(PhaseOptimal, 0, r.agent.Greedy, false)
}

func (r *Runner) run(phase Phase, index int, sel selectFunc, update bool) *Episode {
	state := schedule.NewState(r.plan)
	ep := &Episode{Phase: phase, Index: index}

	legal := r.space.LegalActions(state)
	for len(legal) > 0 {
		sig := state.Signature()
		act, dec := sel(sig, legal)
		switch dec.Choice {
		case Explore:
			ep.Explored++
		case Exploit:
			ep.Exploited++
		}
		if dec.Fallback {
			ep.Fallbacks++
		}

		state.Apply(act)
		ep.Steps++

		nextLegal := r.space.LegalActions(state)
		reward := r.reward.Reward(state, len(nextLegal))
		ep.Rewards = append(ep.Rewards, reward)

		if update {
			deadEnd := len(nextLegal) == 0 && !state.Complete()
			if !deadEnd || r.learnFromInfeasible {
				r.agent.Update(sig, act, reward, state.Signature(), nextLegal)
			}
		}
		legal = nextLegal
	}

	ep.Final = state
	ep.Feasible = state.Complete()
	ep.Score = r.constraints.SoftScore(state)
	return ep
}
