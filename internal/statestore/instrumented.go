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

	"go.opencensus.io/trace"
	"open-tourney.dev/open-tourney/internal/telemetry"
)

var (
	mStateStoreCreateRunCount = telemetry.Counter("statestore/createruncount", "number of run records created")
	mStateStoreGetRunCount    = telemetry.Counter("statestore/getruncount", "number of run records retrieved")
	mStateStoreListRunsCount  = telemetry.Counter("statestore/listrunscount", "number of run listings served")
	mStateStoreDeleteRunCount = telemetry.Counter("statestore/deleteruncount", "number of run records deleted")
)

// instrumentedService is a wrapper for a statestore service that provides instrumentation (metrics and tracing) of the database.
type instrumentedService struct {
	s Service
}

// Close the connection to the database.
func (is *instrumentedService) Close() error {
	return is.s.Close()
}

// HealthCheck indicates if the database is reachable.
func (is *instrumentedService) HealthCheck(ctx context.Context) error {
	err := is.s.HealthCheck(ctx)
	return err
}

// CreateRun stores a new run record. This method fails if the run already exists.
func (is *instrumentedService) CreateRun(ctx context.Context, record *RunRecord) error {
	ctx, span := trace.StartSpan(ctx, "statestore/instrumented.CreateRun")
	defer span.End()
	defer telemetry.RecordUnitMeasurement(ctx, mStateStoreCreateRunCount)
	return is.s.CreateRun(ctx, record)
}

// GetRun returns the run record with the given id. This method fails if the run does not exist.
func (is *instrumentedService) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	ctx, span := trace.StartSpan(ctx, "statestore/instrumented.GetRun")
	defer span.End()
	defer telemetry.RecordUnitMeasurement(ctx, mStateStoreGetRunCount)
	return is.s.GetRun(ctx, id)
}

// ListRuns returns the ids of all indexed runs in lexical order.
func (is *instrumentedService) ListRuns(ctx context.Context) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "statestore/instrumented.ListRuns")
	defer span.End()
	defer telemetry.RecordUnitMeasurement(ctx, mStateStoreListRunsCount)
	return is.s.ListRuns(ctx)
}

// DeleteRun removes the run record and its index entry. This method succeeds if the run does not exist.
func (is *instrumentedService) DeleteRun(ctx context.Context, id string) error {
	ctx, span := trace.StartSpan(ctx, "statestore/instrumented.DeleteRun")
	defer span.End()
	defer telemetry.RecordUnitMeasurement(ctx, mStateStoreDeleteRunCount)
	return is.s.DeleteRun(ctx, id)
}
