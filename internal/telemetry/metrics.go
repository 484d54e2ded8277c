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

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// HistogramBounds is the bucket layout shared by the count-valued histograms
// of the application.
var HistogramBounds = []float64{0, 50, 100, 200, 400, 800, 1600, 3200, 6400, 12800, 25600, 51200}

// Counter creates a measure whose view counts how often it is recorded.
func Counter(name string, description string, tags ...tag.Key) *stats.Int64Measure {
	s := stats.Int64(name, description, stats.UnitDimensionless)
	counterView(s, tags...)
	return s
}

// SumCounter creates a measure whose view accumulates the recorded values
// instead of counting the recordings.
func SumCounter(name string, description string, tags ...tag.Key) *stats.Int64Measure {
	s := stats.Int64(name, description, stats.UnitDimensionless)
	sumView(s, tags...)
	return s
}

// Gauge creates a measure whose view keeps the last recorded value.
func Gauge(name string, description string, tags ...tag.Key) *stats.Int64Measure {
	s := stats.Int64(name, description, stats.UnitDimensionless)
	gaugeView(s, tags...)
	return s
}

// GaugeFloat is Gauge for floating point values.
func GaugeFloat(name string, description string, tags ...tag.Key) *stats.Float64Measure {
	s := stats.Float64(name, description, stats.UnitDimensionless)
	gaugeView(s, tags...)
	return s
}

// HistogramWithBounds creates a measure whose view distributes the recorded
// values over the given buckets.
func HistogramWithBounds(name string, description string, unit string, bounds []float64, tags ...tag.Key) *stats.Int64Measure {
	s := stats.Int64(name, description, unit)
	histogramView(s, bounds, tags...)
	return s
}

// HistogramFloatWithBounds is HistogramWithBounds for floating point values.
func HistogramFloatWithBounds(name string, description string, unit string, bounds []float64, tags ...tag.Key) *stats.Float64Measure {
	s := stats.Float64(name, description, unit)
	histogramView(s, bounds, tags...)
	return s
}

// RecordUnitMeasurement adds one recording of the measure.
func RecordUnitMeasurement(ctx context.Context, s *stats.Int64Measure, tags ...tag.Mutator) {
	RecordNUnitMeasurement(ctx, s, 1, tags...)
}

// RecordNUnitMeasurement adds a recording of n units of the measure.
func RecordNUnitMeasurement(ctx context.Context, s *stats.Int64Measure, n int64, tags ...tag.Mutator) {
	record(ctx, s.M(n), tags)
}

// RecordFloatMeasurement adds a recording of a floating point measure.
func RecordFloatMeasurement(ctx context.Context, s *stats.Float64Measure, f float64, tags ...tag.Mutator) {
	record(ctx, s.M(f), tags)
}

// SetGauge records the current value of a gauge.
func SetGauge(ctx context.Context, s *stats.Int64Measure, n int64, tags ...tag.Mutator) {
	record(ctx, s.M(n), tags)
}

// SetGaugeFloat records the current value of a floating point gauge.
func SetGaugeFloat(ctx context.Context, s *stats.Float64Measure, f float64, tags ...tag.Mutator) {
	record(ctx, s.M(f), tags)
}

func record(ctx context.Context, m stats.Measurement, tags []tag.Mutator) {
	if err := stats.RecordWithTags(ctx, tags, m); err != nil {
		logger.WithError(err).WithField("metric", m.Measure().Name()).Info("dropping a measurement that cannot be recorded")
	}
}

func counterView(s stats.Measure, tags ...tag.Key) *view.View {
	return register(s, view.Count(), tags)
}

func sumView(s stats.Measure, tags ...tag.Key) *view.View {
	return register(s, view.Sum(), tags)
}

func gaugeView(s stats.Measure, tags ...tag.Key) *view.View {
	return register(s, view.LastValue(), tags)
}

func histogramView(s stats.Measure, bounds []float64, tags ...tag.Key) *view.View {
	return register(s, view.Distribution(bounds...), tags)
}

// register builds the view of a measure and registers it. Registering an
// identical view again is a no-op, so two components may declare the same
// metric independently.
func register(s stats.Measure, agg *view.Aggregation, tags []tag.Key) *view.View {
	v := &view.View{
		Name:        s.Name(),
		Measure:     s,
		Description: s.Description(),
		Aggregation: agg,
		TagKeys:     tags,
	}
	if err := view.Register(v); err != nil {
		logger.WithError(err).WithField("view", v.Name).Info("the view failed to register and will not report")
	}
	return v
}
