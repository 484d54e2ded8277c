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
	"context"

	"github.com/sirupsen/logrus"
	"go.opencensus.io/tag"
	"open-tourney.dev/open-tourney/internal/constraint"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/telemetry"
	"open-tourney.dev/open-tourney/internal/tournament"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "qlearn",
	})

	phaseKey = tag.MustNewKey("phase")

	scoreBounds = []float64{-1, -0.75, -0.5, -0.25, 0, 0.125, 0.25, 0.375, 0.5, 0.625, 0.75, 0.875, 1}

	mEpisodes           = telemetry.Counter("qlearn/episodes", "episodes run", phaseKey)
	mInfeasibleEpisodes = telemetry.Counter("qlearn/infeasible_episodes", "episodes that dead-ended before placing every obligation", phaseKey)
	mEpisodeSteps       = telemetry.HistogramWithBounds("qlearn/episode_steps", "assignments made per episode", "1", telemetry.HistogramBounds, phaseKey)
	mEpisodeScore       = telemetry.HistogramFloatWithBounds("qlearn/episode_score", "completion-adjusted soft score per episode", "1", scoreBounds, phaseKey)
	mFallbacks          = telemetry.SumCounter("qlearn/exploit_fallbacks", "exploitation steps that fell back to exploration on an unvisited state", phaseKey)
	mEpsilon            = telemetry.GaugeFloat("qlearn/epsilon", "current exploration rate")
	mExplorationRatio   = telemetry.GaugeFloat("qlearn/exploration_ratio", "explored fraction of all training steps so far")
	mTableSize          = telemetry.Gauge("qlearn/table_size", "stored state action estimates")
)

// Progress is a read-only snapshot handed to the progress callback during
// training.
type Progress struct {
	// Episode counts finished training episodes, Total is the configured
	// target.
	Episode int
	Total   int

	Epsilon float64
	// ExplorationRatio is the explored fraction of every training step
	// taken so far, not just the reporting episode's.
	ExplorationRatio float64
	TableSize        int

	// Feasible, Score and ScheduleRows describe the episode that
	// triggered the report.
	Feasible     bool
	Score        float64
	ScheduleRows []schedule.Row

	// TableRows is a sorted copy of the table at reporting time.
	TableRows []Row
}

// ProgressFunc observes training. Callbacks run on the training goroutine,
// so slow observers slow the run.
type ProgressFunc func(Progress)

// Trainer drives the full run: baseline episodes, training episodes with
// epsilon decay, then one greedy extraction.
type Trainer struct {
	cfg        Config
	table      *Table
	agent      *Agent
	runner     *Runner
	onProgress ProgressFunc

	// explored and steps accumulate over training episodes for the
	// running exploration ratio.
	explored int
	steps    int
}

// New builds a trainer with a fresh table. The hyperparameters are
// validated up front so a bad value surfaces before any episode runs.
// onProgress may be nil.
func New(plan *tournament.Plan, constraints *constraint.Set, cfg Config, onProgress ProgressFunc) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table := NewTable()
	agent := NewAgent(table, cfg)
	space := constraint.NewActionSpace(plan, constraints)
	reward := NewReward(constraints, cfg)
	return &Trainer{
		cfg:        cfg,
		table:      table,
		agent:      agent,
		runner:     NewRunner(plan, space, constraints, agent, reward, cfg.LearnFromInfeasible),
		onProgress: onProgress,
	}, nil
}

// Result collects every episode of a run. Optimal is always present, even
// after cancellation, so callers get the best schedule the table supports
// at the point the run stopped.
type Result struct {
	Baseline []*Episode
	Training []*Episode
	Optimal  *Episode

	// Canceled reports that the run stopped between episodes on context
	// cancellation. The populated fields cover the episodes that finished.
	Canceled bool

	Table *Table
}

// Run executes the configured run. Cancellation is honored between
// episodes only; a started episode always finishes.
func (t *Trainer) Run(ctx context.Context) *Result {
	logger.WithFields(logrus.Fields{
		"baselineEpisodes": t.cfg.BaselineEpisodes,
		"episodes":         t.cfg.TrainingEpisodes,
		"alpha":            t.cfg.Alpha,
		"gamma":            t.cfg.Gamma,
		"epsilonStart":     t.cfg.EpsilonStart,
	}).Info("starting run")

	res := &Result{Table: t.table}

	for i := 0; i < t.cfg.BaselineEpisodes && !res.Canceled; i++ {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}
		ep := t.runner.RunBaseline(i)
		res.Baseline = append(res.Baseline, ep)
		t.record(ctx, ep)
	}

	for i := 0; i < t.cfg.TrainingEpisodes && !res.Canceled; i++ {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}
		ep := t.runner.RunTraining(i)
		res.Training = append(res.Training, ep)
		t.agent.DecayEpsilon()
		t.explored += ep.Explored
		t.steps += ep.Steps

		t.record(ctx, ep)
		telemetry.SetGaugeFloat(ctx, mEpsilon, t.agent.Epsilon())
		telemetry.SetGaugeFloat(ctx, mExplorationRatio, t.explorationRatio())
		telemetry.SetGauge(ctx, mTableSize, int64(t.table.Len()))
		if !ep.Feasible {
			logger.WithFields(logrus.Fields{
				"episode": i,
				"steps":   ep.Steps,
			}).Debug("episode dead-ended before completing the schedule")
		}

		if done := i + 1; t.cfg.ProgressInterval > 0 && done%t.cfg.ProgressInterval == 0 && done != t.cfg.TrainingEpisodes {
			t.report(done, ep)
		}
	}

	if n := len(res.Training); n > 0 {
		t.report(n, res.Training[n-1])
	}
	if res.Canceled {
		logger.Warn("run canceled, extracting the best schedule learned so far")
	}

	res.Optimal = t.runner.RunOptimal()
	t.record(ctx, res.Optimal)
	logger.WithFields(logrus.Fields{
		"feasible":  res.Optimal.Feasible,
		"score":     res.Optimal.Score,
		"fallbacks": res.Optimal.Fallbacks,
		"tableSize": t.table.Len(),
	}).Info("run complete")
	return res
}

func (t *Trainer) explorationRatio() float64 {
	if t.steps == 0 {
		return 0
	}
	return float64(t.explored) / float64(t.steps)
}

func (t *Trainer) record(ctx context.Context, ep *Episode) {
	tctx, err := tag.New(ctx, tag.Upsert(phaseKey, string(ep.Phase)))
	if err != nil {
		tctx = ctx
	}
	telemetry.RecordUnitMeasurement(tctx, mEpisodes)
	telemetry.RecordNUnitMeasurement(tctx, mEpisodeSteps, int64(ep.Steps))
	telemetry.RecordFloatMeasurement(tctx, mEpisodeScore, ep.Score)
	telemetry.RecordNUnitMeasurement(tctx, mFallbacks, int64(ep.Fallbacks))
	if !ep.Feasible {
		telemetry.RecordUnitMeasurement(tctx, mInfeasibleEpisodes)
	}
}

func (t *Trainer) report(done int, ep *Episode) {
	if t.onProgress == nil {
		return
	}
	t.onProgress(Progress{
		Episode:          done,
		Total:            t.cfg.TrainingEpisodes,
		Epsilon:          t.agent.Epsilon(),
		ExplorationRatio: t.explorationRatio(),
		TableSize:        t.table.Len(),
		Feasible:         ep.Feasible,
		Score:            ep.Score,
		ScheduleRows:     ep.Final.Rows(),
		TableRows:        t.table.Rows(),
	})
}
