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

// Package statestore persists finished scheduling runs in a storage backend.
package statestore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/evaluator"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/telemetry"
)

var (
	// ErrRunNotFound is returned when the requested run id has no record.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunAlreadyExists is returned when creating a run whose id is taken.
	ErrRunAlreadyExists = errors.New("run already exists")
)

// RunRecord is the persisted outcome of a single scheduling run.
type RunRecord struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Teams     int                `json:"teams"`
	Canceled  bool               `json:"canceled"`
	Summary   *evaluator.Summary `json:"summary,omitempty"`
	Schedule  []schedule.Row     `json:"schedule,omitempty"`
	QTable    []qlearn.Row       `json:"qtable,omitempty"`
}

// Service is a generic interface for talking to a storage backend.
type Service interface {
	// HealthCheck indicates if the database is reachable.
	HealthCheck(ctx context.Context) error

	// CreateRun stores a new run record. This method fails with
	// ErrRunAlreadyExists if a record with the same id is already stored.
	CreateRun(ctx context.Context, record *RunRecord) error

	// GetRun returns the run record with the given id. This method fails with
	// ErrRunNotFound if no record is stored under the id.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns the ids of all indexed runs in lexical order.
	ListRuns(ctx context.Context) ([]string, error)

	// DeleteRun removes the run record and its index entry. This method
	// succeeds if the run does not exist.
	DeleteRun(ctx context.Context, id string) error

	// Closes the connection to the underlying storage.
	Close() error
}

// New creates the Service configured for the deployment, wrapped with
// telemetry instrumentation when metrics are on.
func New(cfg config.View) Service {
	svc := newRedis(cfg)
	if cfg.GetBool(telemetry.ConfigNameEnableMetrics) {
		svc = &instrumentedService{s: svc}
	}
	return svc
}
