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
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/util"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "telemetry",
	})
)

// Setup wires the metrics and debug endpoints onto the mux and starts metric
// reporting. The returned function stops the exporters.
func Setup(mux *http.ServeMux, cfg config.View) func() {
	var closers util.Closers

	period := cfg.GetDuration("telemetry.reportingPeriod")
	if period <= 0 {
		logger.WithFields(logrus.Fields{
			"reportingPeriod": period,
		}).Info("missing or invalid telemetry.reportingPeriod, defaulting to 1m")
		period = time.Minute
	}
	view.SetReportingPeriod(period)

	closers.Add(bindPrometheus(mux, cfg))
	bindDebugPages(mux, cfg)

	logger.WithFields(logrus.Fields{
		"reportingPeriod": period,
	}).Info("telemetry endpoints are ready")
	return closers.Close
}
