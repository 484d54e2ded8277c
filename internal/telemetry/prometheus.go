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

	ocPrometheus "contrib.go.opencensus.io/exporter/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"
	"open-tourney.dev/open-tourney/internal/config"
)

// ConfigNameEnableMetrics gates the prometheus exporter.
const ConfigNameEnableMetrics = "telemetry.prometheus.enable"

// bindPrometheus exposes the opencensus views in prometheus format, together
// with the standard process and Go runtime collectors. The returned function
// unhooks the exporter.
func bindPrometheus(mux *http.ServeMux, cfg config.View) func() {
	if !cfg.GetBool(ConfigNameEnableMetrics) {
		logger.Info("Prometheus Metrics: Disabled")
		return func() {}
	}
	endpoint := cfg.GetString("telemetry.prometheus.endpoint")

	registry := prometheus.NewRegistry()
	for _, collector := range []prometheus.Collector{
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	} {
		if err := registry.Register(collector); err != nil {
			logger.WithError(err).Fatal("cannot register the prometheus runtime collectors")
		}
	}

	exporter, err := ocPrometheus.NewExporter(ocPrometheus.Options{Registry: registry})
	if err != nil {
		logger.WithError(err).Fatal("cannot build the opencensus prometheus exporter")
	}

	view.RegisterExporter(exporter)
	mux.Handle(endpoint, exporter)

	logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
	}).Info("Prometheus Metrics: ENABLED")

	return func() {
		view.UnregisterExporter(exporter)
	}
}
