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

// Package scheduler runs the full scheduling pipeline: it builds the
// tournament plan, trains the agent, evaluates the result, and delivers the
// schedule to the configured outputs.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"open-tourney.dev/open-tourney/internal/appmain"
	"open-tourney.dev/open-tourney/internal/constraint"
	"open-tourney.dev/open-tourney/internal/evaluator"
	"open-tourney.dev/open-tourney/internal/export"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/statestore"
	"open-tourney.dev/open-tourney/internal/tournament"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "app.scheduler",
	})
)

// Run executes one scheduling run to completion. Interrupting the run stops
// training at the next episode boundary; the best schedule found so far is
// still evaluated and delivered.
func Run(ctx context.Context, p *appmain.Params) error {
	cfg := p.Config()

	plan, err := tournament.NewPlanFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid tournament configuration")
	}
	constraints := constraint.NewFromConfig(plan, cfg)

	var store statestore.Service
	if cfg.GetBool("redis.enable") {
		store = statestore.New(cfg)
		p.AddCloserErr(store.Close)
		p.AddHealthCheckFunc(store.HealthCheck)
	}

	trainer, err := qlearn.New(plan, constraints, qlearn.NewConfig(cfg), logProgress)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"teams": len(plan.Teams),
		"slots": len(plan.Slots),
	}).Info("tournament plan generated")

	res := trainer.Run(ctx)
	summary := evaluator.Summarize(res)
	logSummary(summary)

	bundle := &export.Bundle{
		Schedule: res.Optimal.Final.Rows(),
		Grids:    res.Optimal.Final.Grids(),
		Table:    res.Table.Rows(),
		Summary:  summary,
	}

	if dir := cfg.GetString("output.directory"); dir != "" {
		if err := export.WriteAll(dir, bundle); err != nil {
			return err
		}
		logger.WithField("directory", dir).Info("schedule artifacts written")
	}

	if store != nil {
		record := &statestore.RunRecord{
			ID:        xid.New().String(),
			CreatedAt: time.Now().UTC(),
			Teams:     len(plan.Teams),
			Canceled:  res.Canceled,
			Summary:   summary,
			Schedule:  bundle.Schedule,
			QTable:    bundle.Table,
		}
		// The pipeline context is already canceled when the run was
		// interrupted, so the record is stored on a fresh one. Partial
		// results are worth keeping.
		if err := store.CreateRun(context.Background(), record); err != nil {
			return errors.Wrapf(err, "failed to store run %s", record.ID)
		}
		logger.WithField("id", record.ID).Info("run record stored")
	}

	return nil
}

func logProgress(pr qlearn.Progress) {
	logger.WithFields(logrus.Fields{
		"episode":          pr.Episode,
		"totalEpisodes":    pr.Total,
		"epsilon":          pr.Epsilon,
		"explorationRatio": pr.ExplorationRatio,
		"tableSize":        pr.TableSize,
		"feasible":         pr.Feasible,
		"score":            pr.Score,
	}).Info("training progress")
}

func logSummary(s *evaluator.Summary) {
	for _, ph := range s.Phases {
		logger.WithFields(logrus.Fields{
			"phase":           ph.Phase,
			"episodes":        ph.Episodes,
			"feasibilityRate": ph.FeasibilityRate,
			"meanScore":       ph.MeanScore,
			"bestScore":       ph.BestScore,
		}).Info("phase evaluated")
	}
	logger.WithFields(logrus.Fields{
		"winner":   s.Winner,
		"feasible": s.Feasible,
		"score":    s.Score,
		"canceled": s.Canceled,
	}).Info("run complete")
}
