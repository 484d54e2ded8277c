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

package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
)

// HealthCheckEndpoint is where Kubernetes liveness and readiness probes are
// served on the telemetry port.
const HealthCheckEndpoint = "/healthz"

const (
	probeStateInitial int32 = iota
	probeStateHealthy
	probeStateUnhealthy
)

// healthProbe answers liveness probes unconditionally and runs the registered
// readiness checks when the request carries a query. State transitions are
// logged once instead of on every probe.
type healthProbe struct {
	state  int32
	checks []func(context.Context) error
}

// NewHealthCheck builds the health endpoint handler. With no checks the
// endpoint always reports ready.
func NewHealthCheck(checks ...func(context.Context) error) http.Handler {
	return &healthProbe{checks: checks}
}

func (hp *healthProbe) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// A bare GET is a liveness probe and always succeeds. A query marks a
	// readiness probe and runs every registered check.
	if len(req.URL.Query()) > 0 {
		if err := hp.ready(req.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func (hp *healthProbe) ready(ctx context.Context) error {
	for _, check := range hp.checks {
		if err := check(ctx); err != nil {
			if atomic.SwapInt32(&hp.state, probeStateUnhealthy) == probeStateUnhealthy {
				logger.WithError(err).Warningf("%s still failing, the server is at risk of termination", HealthCheckEndpoint)
			} else {
				logger.WithError(err).Warningf("%s failed, the server will terminate if this keeps happening", HealthCheckEndpoint)
			}
			return err
		}
	}
	switch atomic.SwapInt32(&hp.state, probeStateHealthy) {
	case probeStateUnhealthy:
		logger.Infof("%s is healthy again", HealthCheckEndpoint)
	case probeStateInitial:
		logger.Infof("%s is reporting healthy", HealthCheckEndpoint)
	}
	return nil
}
