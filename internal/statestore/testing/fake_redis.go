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

package testing

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/statestore"
)

// New starts an in memory Redis instance for testing and points the given
// configuration at it. The returned closer shuts the instance down.
func New(t *testing.T, cfg config.Mutable) func() {
	mredis, err := miniredis.Run()
	if err != nil {
		t.Fatalf("cannot start miniredis: %v", err)
	}

	for key, value := range map[string]interface{}{
		"redis.enable":                  true,
		"redis.hostname":                mredis.Host(),
		"redis.port":                    mredis.Port(),
		"redis.pool.maxIdle":            10,
		"redis.pool.maxActive":          10,
		"redis.pool.idleTimeout":        10 * time.Second,
		"redis.pool.healthCheckTimeout": 100 * time.Millisecond,
		"redis.ttl":                     0,
		"redis.connectBackoff":          "[0.01 0.1] *1.5 ~0.33 <0.3",
	} {
		cfg.Set(key, value)
	}
	return mredis.Close
}

// NewStoreServiceForTesting creates a run store backed by an in memory Redis
// instance.
func NewStoreServiceForTesting(t *testing.T, cfg config.Mutable) (statestore.Service, func()) {
	closer := New(t, cfg)
	return statestore.New(cfg), closer
}
