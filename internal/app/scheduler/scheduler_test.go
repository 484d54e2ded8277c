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

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"open-tourney.dev/open-tourney/internal/appmain"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/export"
	"open-tourney.dev/open-tourney/internal/statestore"
	storeTesting "open-tourney.dev/open-tourney/internal/statestore/testing"
)

// schedulerConfig is a small tournament every policy can finish: one round
// per type and disjoint day windows, so no episode can dead-end.
func schedulerConfig(t *testing.T) (config.Mutable, func()) {
	cfg := viper.New()
	cfg.Set("logging.level", "info")

	cfg.Set("tournament.teams", 4)
	cfg.Set("tournament.judging.rooms", 2)
	cfg.Set("tournament.judging.rounds", 1)
	cfg.Set("tournament.judging.duration", "20m")
	cfg.Set("tournament.judging.dayStart", "09:00")
	cfg.Set("tournament.judging.dayEnd", "10:00")
	cfg.Set("tournament.practice.tables", 1)
	cfg.Set("tournament.practice.rounds", 1)
	cfg.Set("tournament.practice.duration", "10m")
	cfg.Set("tournament.practice.dayStart", "10:00")
	cfg.Set("tournament.practice.dayEnd", "11:00")
	cfg.Set("tournament.ranked.tables", 1)
	cfg.Set("tournament.ranked.rounds", 1)
	cfg.Set("tournament.ranked.duration", "10m")
	cfg.Set("tournament.ranked.dayStart", "11:00")
	cfg.Set("tournament.ranked.dayEnd", "12:00")

	cfg.Set("constraints.minimumBreak", "0m")
	cfg.Set("constraints.preferredBreak", "20m")
	cfg.Set("constraints.weights.idleTime", 1.0)
	cfg.Set("constraints.weights.locationBalance", 1.0)
	cfg.Set("constraints.weights.roundSpread", 1.0)
	cfg.Set("constraints.weights.opponentVariety", 1.0)
	cfg.Set("constraints.weights.backToBack", 1.0)

	cfg.Set("training.baselineEpisodes", 2)
	cfg.Set("training.episodes", 30)
	cfg.Set("training.progressInterval", 10)
	cfg.Set("training.learnFromInfeasible", true)
	cfg.Set("training.stepPenalty", -0.01)
	cfg.Set("training.infeasiblePenalty", -1.0)
	cfg.Set("training.alpha", 0.3)
	cfg.Set("training.gamma", 0.9)
	cfg.Set("training.epsilonStart", 1.0)
	cfg.Set("training.epsilonDecay", 0.97)
	cfg.Set("training.epsilonMin", 0.05)
	cfg.Set("training.seed", 7)

	closer := storeTesting.New(t, cfg)
	return cfg, closer
}

func getCfg(cfg config.Mutable) func() (config.View, error) {
	return func() (config.View, error) { return cfg, nil }
}

func TestRunDeliversArtifactsAndRecord(t *testing.T) {
	cfg, closer := schedulerConfig(t)
	defer closer()
	dir := t.TempDir()
	cfg.Set("output.directory", dir)

	err := appmain.StartApplication(context.Background(), "scheduler", Run, getCfg(cfg))
	require.NoError(t, err)

	for _, name := range []string{
		export.ScheduleCSVName,
		export.ScheduleXLSXName,
		export.TableCSVName,
		export.TeamStatsCSVName,
		export.PhaseStatsName,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "missing artifact %s", name)
	}

	store := statestore.New(cfg)
	defer store.Close()
	ids, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	rec, err := store.GetRun(context.Background(), ids[0])
	require.NoError(t, err)
	require.Equal(t, 4, rec.Teams)
	require.False(t, rec.Canceled)
	require.NotNil(t, rec.Summary)
	require.True(t, rec.Summary.Feasible)
	require.Len(t, rec.Schedule, 12, "4 teams with one round of each type")
	require.NotEmpty(t, rec.QTable)
}

func TestRunWithoutOutputsConfigured(t *testing.T) {
	cfg, closer := schedulerConfig(t)
	defer closer()
	cfg.Set("redis.enable", false)

	err := appmain.StartApplication(context.Background(), "scheduler", Run, getCfg(cfg))
	require.NoError(t, err)
}

func TestRunRejectsBadTournament(t *testing.T) {
	cfg, closer := schedulerConfig(t)
	defer closer()
	dir := t.TempDir()
	cfg.Set("output.directory", dir)
	cfg.Set("tournament.judging.dayStart", "morning")

	err := appmain.StartApplication(context.Background(), "scheduler", Run, getCfg(cfg))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid tournament configuration")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "a rejected run must not write artifacts")
}

func TestCanceledRunStillDelivers(t *testing.T) {
	cfg, closer := schedulerConfig(t)
	defer closer()
	dir := t.TempDir()
	cfg.Set("output.directory", dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := appmain.StartApplication(ctx, "scheduler", Run, getCfg(cfg))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, export.ScheduleCSVName))
	require.NoError(t, err, "an interrupted run still writes the best schedule found")

	store := statestore.New(cfg)
	defer store.Close()
	ids, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	rec, err := store.GetRun(context.Background(), ids[0])
	require.NoError(t, err)
	require.True(t, rec.Canceled)
	require.True(t, rec.Summary.Feasible, "greedy extraction completes this tournament even untrained")
}
