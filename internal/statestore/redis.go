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
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/expbo"
	"open-tourney.dev/open-tourney/internal/telemetry"
)

// allRuns is the set indexing the ids of every stored run.
const allRuns = "runs"

var (
	redisLogger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "statestore.redis",
	})
	mConnectLatencyMs = telemetry.HistogramWithBounds("redis/connect_latency_ms", "time spent acquiring a redis connection", "ms", telemetry.HistogramBounds)
	mPoolActive       = telemetry.Gauge("redis/pool_active", "open connections in the pool, in use plus idle")
	mPoolIdle         = telemetry.Gauge("redis/pool_idle", "idle connections in the pool")
)

type redisBackend struct {
	healthCheckPool *redis.Pool
	redisPool       *redis.Pool
	cfg             config.View
	backoffCache    *config.Cacher
}

// Close the connection to the database.
func (rb *redisBackend) Close() error {
	return rb.redisPool.Close()
}

// newRedis creates a statestore.Service backed by Redis database. Health
// checks get their own tiny pool with short timeouts so probes cannot be
// starved by pipeline traffic.
func newRedis(cfg config.View) Service {
	healthCheckTimeout := cfg.GetDuration("redis.pool.healthCheckTimeout")
	idleTimeout := cfg.GetDuration("redis.pool.idleTimeout")

	return &redisBackend{
		healthCheckPool: newPool(cfg, 3, 0, 10*healthCheckTimeout, healthCheckTimeout),
		redisPool: newPool(cfg,
			cfg.GetInt("redis.pool.maxIdle"),
			cfg.GetInt("redis.pool.maxActive"),
			idleTimeout, idleTimeout),
		cfg:          cfg,
		backoffCache: config.NewCacher(cfg),
	}
}

func newPool(cfg config.View, maxIdle, maxActive int, idleTimeout, dialTimeout time.Duration) *redis.Pool {
	masterURL := redisURL(cfg)
	return &redis.Pool{
		MaxIdle:      maxIdle,
		MaxActive:    maxActive,
		IdleTimeout:  idleTimeout,
		Wait:         true,
		TestOnBorrow: testOnBorrow,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return redis.DialURL(masterURL, redis.DialConnectTimeout(dialTimeout), redis.DialReadTimeout(dialTimeout))
		},
	}
}

// redisURL assembles the connection url for the configured master, loading
// the password from redis.passwordPath when redis.usePassword is set.
// See https://www.iana.org/assignments/uri-schemes/prov/redis for the format.
func redisURL(cfg config.View) string {
	addr := cfg.GetString("redis.hostname") + ":" + cfg.GetString("redis.port")
	if !cfg.GetBool("redis.usePassword") {
		return "redis://" + addr
	}

	passwordFile := cfg.GetString("redis.passwordPath")
	redisLogger.Debugf("loading the redis password from file %s", passwordFile)
	password, err := os.ReadFile(passwordFile)
	if err != nil {
		redisLogger.Fatalf("cannot read the redis password from file %s: %s", passwordFile, err)
	}
	return "redis://" + cfg.GetString("redis.user") + ":" + string(password) + "@" + addr
}

func testOnBorrow(c redis.Conn, lastUsed time.Time) error {
	// Assume the connection is valid if it was used in 15 sec.
	if time.Since(lastUsed) < 15*time.Second {
		return nil
	}

	_, err := c.Do("PING")
	return err
}

// HealthCheck indicates if the database is reachable.
func (rb *redisBackend) HealthCheck(ctx context.Context) error {
	conn, err := rb.healthCheckPool.GetContext(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get a health check connection")
	}
	defer closeConn(conn)

	stats := rb.redisPool.Stats()
	telemetry.SetGauge(ctx, mPoolActive, int64(stats.ActiveCount))
	telemetry.SetGauge(ctx, mPoolIdle, int64(stats.IdleCount))

	if _, err := conn.Do("PING"); err != nil {
		return errors.Wrap(err, "redis ping failure")
	}
	return nil
}

func (rb *redisBackend) connect(ctx context.Context) (redis.Conn, error) {
	startTime := time.Now()

	strategy, err := rb.newConnectBackoffStrategy()
	if err != nil {
		redisLogger.WithError(err).Error("failed to build the connect retry policy")
		return nil, err
	}

	var conn redis.Conn
	connectOperation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var err error
		conn, err = rb.redisPool.GetContext(ctx)
		return err
	}

	if err := backoff.Retry(connectOperation, strategy); err != nil {
		redisLogger.WithError(err).Error("failed to connect to redis")
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	telemetry.RecordNUnitMeasurement(ctx, mConnectLatencyMs, time.Since(startTime).Milliseconds())

	return conn, nil
}

// newConnectBackoffStrategy returns the retry policy for acquiring a
// connection, parsed from the compact redis.connectBackoff notation. The
// parsed policy is cached until the configuration changes.
func (rb *redisBackend) newConnectBackoffStrategy() (backoff.BackOff, error) {
	v, err := rb.backoffCache.Get(func(cfg config.View) (interface{}, error) {
		strat := backoff.NewExponentialBackOff()
		if s := cfg.GetString("redis.connectBackoff"); s != "" {
			if err := expbo.UnmarshalExponentialBackOff(s, strat); err != nil {
				return nil, errors.Wrapf(err, "cannot parse redis.connectBackoff value %q", s)
			}
		}
		return strat, nil
	})
	if err != nil {
		return nil, err
	}

	// Copy the cached template so retries do not share elapsed state.
	strat := *(v.(*backoff.ExponentialBackOff))
	return &strat, nil
}

// CreateRun stores a new run record. This method fails if the run already exists.
func (rb *redisBackend) CreateRun(ctx context.Context, record *RunRecord) error {
	conn, err := rb.connect(ctx)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	value, err := json.Marshal(record)
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"key":   record.ID,
			"error": err.Error(),
		}).Error("failed to marshal the run record")
		return errors.Wrap(err, "failed to marshal the run record")
	}

	key := runKey(record.ID)
	args := []interface{}{key, value}
	if ttl := rb.cfg.GetDuration("redis.ttl"); ttl > 0 {
		args = append(args, "PX", ttl.Milliseconds())
	}
	args = append(args, "NX")

	reply, err := conn.Do("SET", args...)
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"cmd":   "SET",
			"key":   key,
			"error": err.Error(),
		}).Error("failed to set the value for run")
		return errors.Wrap(err, "failed to set the value for run")
	}
	// A nil reply means the NX condition rejected the write.
	if reply == nil {
		return errors.Wrapf(ErrRunAlreadyExists, "id %s", record.ID)
	}

	_, err = conn.Do("SADD", allRuns, record.ID)
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"cmd":   "SADD",
			"key":   allRuns,
			"run":   record.ID,
			"error": err.Error(),
		}).Error("failed to add run to the runs index")
		return errors.Wrap(err, "failed to add run to the runs index")
	}

	return nil
}

// GetRun returns the run record with the given id. This method fails if the run does not exist.
func (rb *redisBackend) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	conn, err := rb.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer closeConn(conn)

	value, err := redis.Bytes(conn.Do("GET", runKey(id)))
	if err != nil {
		// Return ErrRunNotFound if redigo did not find the record in storage.
		if err == redis.ErrNil {
			redisLogger.WithFields(logrus.Fields{
				"cmd": "GET",
				"key": runKey(id),
			}).Error("run record not found")
			return nil, errors.Wrapf(ErrRunNotFound, "id %s", id)
		}

		redisLogger.WithFields(logrus.Fields{
			"cmd":   "GET",
			"key":   runKey(id),
			"error": err.Error(),
		}).Error("failed to get the run record")
		return nil, errors.Wrap(err, "failed to get the run record")
	}

	record := &RunRecord{}
	err = json.Unmarshal(value, record)
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"key":   runKey(id),
			"error": err.Error(),
		}).Error("failed to unmarshal the run record")
		return nil, errors.Wrap(err, "failed to unmarshal the run record")
	}

	return record, nil
}

// ListRuns returns the ids of all indexed runs. Ids of expired records stay
// in the index until deleted.
func (rb *redisBackend) ListRuns(ctx context.Context) ([]string, error) {
	conn, err := rb.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer closeConn(conn)

	ids, err := redis.Strings(conn.Do("SMEMBERS", allRuns))
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"cmd":   "SMEMBERS",
			"key":   allRuns,
			"error": err.Error(),
		}).Error("failed to list the stored runs")
		return nil, errors.Wrap(err, "failed to list the stored runs")
	}

	sort.Strings(ids)
	return ids, nil
}

// DeleteRun removes the run record and its index entry. This method succeeds if the run does not exist.
func (rb *redisBackend) DeleteRun(ctx context.Context, id string) error {
	conn, err := rb.connect(ctx)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	_, err = conn.Do("DEL", runKey(id))
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"cmd":   "DEL",
			"key":   runKey(id),
			"error": err.Error(),
		}).Error("failed to delete the run record from state storage")
		return errors.Wrap(err, "failed to delete the run record from state storage")
	}

	_, err = conn.Do("SREM", allRuns, id)
	if err != nil {
		redisLogger.WithFields(logrus.Fields{
			"cmd":   "SREM",
			"key":   allRuns,
			"run":   id,
			"error": err.Error(),
		}).Error("failed to remove run from the runs index")
		return errors.Wrap(err, "failed to remove run from the runs index")
	}

	return nil
}

func runKey(id string) string {
	return "run:" + id
}

func closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		redisLogger.WithError(err).Debug("failed to close the redis connection")
	}
}
