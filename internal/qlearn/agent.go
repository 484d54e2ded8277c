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
	"math/rand"
	"time"

	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/tournament"
)

// Config carries the learning hyperparameters and episode counts.
type Config struct {
	// BaselineEpisodes are random-policy episodes run before training to
	// measure how the schedule space behaves without learning.
	BaselineEpisodes int
	// TrainingEpisodes is the number of learning episodes.
	TrainingEpisodes int
	// ProgressInterval reports progress every N training episodes, 0 for
	// final-only reporting.
	ProgressInterval int
	// LearnFromInfeasible keeps the terminal penalty update when an episode
	// dead-ends. Disabling it drops only that final update; the per-step
	// updates already applied during the episode stand.
	LearnFromInfeasible bool

	// StepPenalty is the per-assignment reward, zero or negative.
	StepPenalty float64
	// InfeasiblePenalty is the terminal reward of a dead-ended episode,
	// zero or negative.
	InfeasiblePenalty float64

	Alpha        float64
	Gamma        float64
	EpsilonStart float64
	EpsilonDecay float64
	EpsilonMin   float64

	// Seed fixes the exploration stream, 0 seeds from the wall clock.
	Seed int64
}

// NewConfig reads the training section of the configuration.
func NewConfig(cfg config.View) Config {
	return Config{
		BaselineEpisodes:    cfg.GetInt("training.baselineEpisodes"),
		TrainingEpisodes:    cfg.GetInt("training.episodes"),
		ProgressInterval:    cfg.GetInt("training.progressInterval"),
		LearnFromInfeasible: cfg.GetBool("training.learnFromInfeasible"),
		StepPenalty:         cfg.GetFloat64("training.stepPenalty"),
		InfeasiblePenalty:   cfg.GetFloat64("training.infeasiblePenalty"),
		Alpha:               cfg.GetFloat64("training.alpha"),
		Gamma:               cfg.GetFloat64("training.gamma"),
		EpsilonStart:        cfg.GetFloat64("training.epsilonStart"),
		EpsilonDecay:        cfg.GetFloat64("training.epsilonDecay"),
		EpsilonMin:          cfg.GetFloat64("training.epsilonMin"),
		Seed:                cfg.GetInt64("training.seed"),
	}
}

// Validate rejects hyperparameters outside their algebraic ranges before a
// run starts, so a bad value never surfaces mid-training.
func (c Config) Validate() error {
	if c.TrainingEpisodes <= 0 {
		return tournament.NewConfigurationErrorf("training.episodes must be positive, got %d", c.TrainingEpisodes)
	}
	if c.BaselineEpisodes < 0 {
		return tournament.NewConfigurationErrorf("training.baselineEpisodes must not be negative, got %d", c.BaselineEpisodes)
	}
	if c.ProgressInterval < 0 {
		return tournament.NewConfigurationErrorf("training.progressInterval must not be negative, got %d", c.ProgressInterval)
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return tournament.NewConfigurationErrorf("training.alpha must be in [0, 1], got %v", c.Alpha)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return tournament.NewConfigurationErrorf("training.gamma must be in [0, 1], got %v", c.Gamma)
	}
	if c.EpsilonStart < 0 || c.EpsilonStart > 1 {
		return tournament.NewConfigurationErrorf("training.epsilonStart must be in [0, 1], got %v", c.EpsilonStart)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.EpsilonStart {
		return tournament.NewConfigurationErrorf("training.epsilonMin must be in [0, epsilonStart], got %v", c.EpsilonMin)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return tournament.NewConfigurationErrorf("training.epsilonDecay must be in (0, 1], got %v", c.EpsilonDecay)
	}
	if c.StepPenalty > 0 {
		return tournament.NewConfigurationErrorf("training.stepPenalty must not be positive, got %v", c.StepPenalty)
	}
	if c.InfeasiblePenalty > 0 {
		return tournament.NewConfigurationErrorf("training.infeasiblePenalty must not be positive, got %v", c.InfeasiblePenalty)
	}
	return nil
}

// Choice tags how an action was picked.
type Choice int

const (
	// Exploit picked the best known action from the table.
	Exploit Choice = iota
	// Explore picked a uniformly random legal action.
	Explore
)

func (c Choice) String() string {
	if c == Exploit {
		return "exploit"
	}
	return "explore"
}

// Decision records the selection mode of one step. Fallback marks an
// exploitation attempt that found no visited entry and recovered by
// exploring instead.
type Decision struct {
	Choice   Choice
	Fallback bool
}

// Agent owns the table, the exploration schedule, and the update rule.
type Agent struct {
	table   *Table
	cfg     Config
	epsilon float64
	rng     *rand.Rand
}

// NewAgent wires an agent to a shared table. The exploration stream is
// seeded from the config, falling back to the wall clock for seed 0.
func NewAgent(table *Table, cfg Config) *Agent {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Agent{
		table:   table,
		cfg:     cfg,
		epsilon: cfg.EpsilonStart,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Epsilon is the current exploration rate.
func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// DecayEpsilon applies one multiplicative decay step, clamped to the floor.
func (a *Agent) DecayEpsilon() {
	a.epsilon *= a.cfg.EpsilonDecay
	if a.epsilon < a.cfg.EpsilonMin {
		a.epsilon = a.cfg.EpsilonMin
	}
}

// Random picks a uniformly random legal action without consulting the
// table. Baseline episodes run entirely on this.
func (a *Agent) Random(legal []schedule.Assignment) (schedule.Assignment, Decision) {
	return legal[a.rng.Intn(len(legal))], Decision{Choice: Explore}
}

// SelectAction picks one legal action epsilon-greedily. When exploitation
// finds no visited entry for the state it falls back to exploration and
// flags the decision. Callers must pass a non-empty candidate list.
func (a *Agent) SelectAction(sig schedule.Signature, legal []schedule.Assignment) (schedule.Assignment, Decision) {
	if a.rng.Float64() < a.epsilon {
		return a.Random(legal)
	}
	if !a.table.AnyVisited(sig, legal) {
		act, dec := a.Random(legal)
		dec.Fallback = true
		return act, dec
	}
	act, _ := a.table.Best(sig, legal)
	return act, Decision{Choice: Exploit}
}

// Greedy picks the best known action without exploration. Unvisited states
// still resolve deterministically (absent entries compare as zero, ties keep
// the first candidate); the Fallback flag reports that the table had no
// guidance for the state.
func (a *Agent) Greedy(sig schedule.Signature, legal []schedule.Assignment) (schedule.Assignment, Decision) {
	act, _ := a.table.Best(sig, legal)
	return act, Decision{Choice: Exploit, Fallback: !a.table.AnyVisited(sig, legal)}
}

// Update applies one Bellman step toward reward plus the discounted best
// estimate of the successor state.
func (a *Agent) Update(sig schedule.Signature, act schedule.Assignment, reward float64, nextSig schedule.Signature, nextLegal []schedule.Assignment) {
	key := actionOf(act)
	q := a.table.Get(sig, key)
	target := reward + a.cfg.Gamma*a.table.MaxOver(nextSig, nextLegal)
	newQ := q + a.cfg.Alpha*(target-q)
	if newQ == q {
		// No movement, and writing would materialize a default entry.
		return
	}
	a.table.Set(sig, key, newQ)
}
