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

package statestore

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/xid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/evaluator"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/set"
	"open-tourney.dev/open-tourney/internal/telemetry"
)

func TestStatestoreSetup(t *testing.T) {
	assert := assert.New(t)
	cfg, _, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	assert.NotNil(service)
	defer service.Close()
}

func TestRunLifecycle(t *testing.T) {
	assert := assert.New(t)
	cfg, _, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	assert.NotNil(service)
	defer service.Close()

	ctx := context.Background()

	id := xid.New().String()
	record := testRunRecord(id)

	// Validate that GetRun fails for a run that does not exist.
	_, err := service.GetRun(ctx, id)
	assert.NotNil(err)
	assert.True(errors.Is(err, ErrRunNotFound))

	// Validate nonexisting run deletion
	err = service.DeleteRun(ctx, id)
	assert.Nil(err)

	// Validate run creation
	err = service.CreateRun(ctx, record)
	assert.Nil(err)

	// Validate that a second creation under the same id is rejected
	err = service.CreateRun(ctx, testRunRecord(id))
	assert.NotNil(err)
	assert.True(errors.Is(err, ErrRunAlreadyExists))

	// Validate run retrieval
	result, err := service.GetRun(ctx, id)
	assert.Nil(err)
	assert.NotNil(result)
	assert.Equal(record, result)

	// Validate run deletion
	err = service.DeleteRun(ctx, id)
	assert.Nil(err)

	_, err = service.GetRun(ctx, id)
	assert.NotNil(err)

	ids, err := service.ListRuns(ctx)
	assert.Nil(err)
	assert.Empty(ids)
}

func TestListRuns(t *testing.T) {
	assert := assert.New(t)
	cfg, _, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	defer service.Close()

	ctx := context.Background()

	ids := []string{"run-c", "run-a", "run-b"}
	for _, id := range ids {
		assert.Nil(service.CreateRun(ctx, testRunRecord(id)))
	}

	listed, err := service.ListRuns(ctx)
	assert.Nil(err)
	assert.Equal([]string{"run-a", "run-b", "run-c"}, listed)
	assert.Empty(set.Difference(ids, listed))

	err = service.DeleteRun(ctx, "run-b")
	assert.Nil(err)

	listed, err = service.ListRuns(ctx)
	assert.Nil(err)
	assert.Equal([]string{"run-b"}, set.Difference(ids, listed))
}

func TestCreateRunAppliesTTL(t *testing.T) {
	assert := assert.New(t)
	cfg, mredis, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	defer service.Close()

	ctx := context.Background()

	id := xid.New().String()
	err := service.CreateRun(ctx, testRunRecord(id))
	assert.Nil(err)
	assert.Equal(42*time.Second, mredis.TTL(runKey(id)))

	// An expired record is gone from storage but stays in the index until
	// its run is deleted.
	mredis.FastForward(43 * time.Second)
	_, err = service.GetRun(ctx, id)
	assert.True(errors.Is(err, ErrRunNotFound))

	listed, err := service.ListRuns(ctx)
	assert.Nil(err)
	assert.Contains(listed, id)

	// With no expiration configured the record is kept indefinitely.
	cfg.Set("redis.ttl", 0)
	keeper := xid.New().String()
	err = service.CreateRun(ctx, testRunRecord(keeper))
	assert.Nil(err)
	assert.Equal(time.Duration(0), mredis.TTL(runKey(keeper)))
}

func TestGetRunBadRecord(t *testing.T) {
	assert := assert.New(t)
	cfg, mredis, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	defer service.Close()

	id := xid.New().String()
	assert.Nil(mredis.Set(runKey(id), "not a json document"))

	_, err := service.GetRun(context.Background(), id)
	assert.NotNil(err)
	assert.False(errors.Is(err, ErrRunNotFound))
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)
	cfg, mredis, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	defer service.Close()

	ctx := context.Background()

	err := service.HealthCheck(ctx)
	assert.Nil(err)

	mredis.SetError("LOADING Redis is loading the dataset in memory")
	err = service.HealthCheck(ctx)
	assert.NotNil(err)
}

func TestConnectContextCanceled(t *testing.T) {
	assert := assert.New(t)
	cfg, _, closer := createRedis(t)
	defer closer()
	service := New(cfg)
	defer service.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := service.CreateRun(ctx, testRunRecord(xid.New().String()))
	assert.NotNil(err)
}

func TestBadConnectBackoff(t *testing.T) {
	assert := assert.New(t)
	cfg, _, closer := createRedis(t)
	defer closer()
	cfg.Set("redis.connectBackoff", "bogus")
	service := New(cfg)
	defer service.Close()

	err := service.CreateRun(context.Background(), testRunRecord(xid.New().String()))
	assert.NotNil(err)
}

func testRunRecord(id string) *RunRecord {
	return &RunRecord{
		ID:        id,
		CreatedAt: time.Date(2024, 11, 9, 8, 30, 0, 0, time.UTC),
		Teams:     4,
		Summary: &evaluator.Summary{
			Winner:   "optimal",
			Feasible: true,
			Score:    0.75,
		},
		Schedule: []schedule.Row{
			{Team: 1, TeamName: "Team 1", Round: "judging", Start: "09:00", End: "09:30", Location: "Room 1"},
			{Team: 1, TeamName: "Team 1", Round: "ranked", Start: "10:00", End: "10:15", Location: "Table 1A", Opponent: "Team 2"},
		},
		QTable: []qlearn.Row{
			{State: 42, Slot: 3, Team: 1, Value: 0.5},
		},
	}
}

func createRedis(t *testing.T) (config.Mutable, *miniredis.Miniredis, func()) {
	cfg := viper.New()
	mredis, err := miniredis.Run()
	if err != nil {
		t.Fatalf("cannot start miniredis: %s", err)
	}

	cfg.Set("redis.hostname", mredis.Host())
	cfg.Set("redis.port", mredis.Port())
	cfg.Set("redis.pool.maxIdle", 1000)
	cfg.Set("redis.pool.idleTimeout", time.Second)
	cfg.Set("redis.pool.healthCheckTimeout", 100*time.Millisecond)
	cfg.Set("redis.pool.maxActive", 1000)
	cfg.Set("redis.ttl", 42*time.Second)
	cfg.Set("redis.connectBackoff", "[0.01 0.1] *1.5 ~0.33 <0.2")
	cfg.Set(telemetry.ConfigNameEnableMetrics, true)

	return cfg, mredis, func() { mredis.Close() }
}
