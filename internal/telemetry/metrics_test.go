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
	"testing"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

func TestCounterRecording(t *testing.T) {
	ctx := context.Background()
	c := Counter("telemetry/fake_counter", "fake recordings")
	RecordUnitMeasurement(ctx, c)
	RecordNUnitMeasurement(ctx, c, 3)
}

func TestSumCounterRecording(t *testing.T) {
	ctx := context.Background()
	c := SumCounter("telemetry/fake_sum", "fake accumulated units")
	RecordNUnitMeasurement(ctx, c, 40)
	RecordNUnitMeasurement(ctx, c, 2)
}

func TestGaugeRecordingWithTags(t *testing.T) {
	ctx := context.Background()
	phase := tag.MustNewKey("fake_phase")

	g := Gauge("telemetry/fake_gauge", "fake level", phase)
	SetGauge(ctx, g, 42, tag.Upsert(phase, "training"))

	gf := GaugeFloat("telemetry/fake_float_gauge", "fake ratio", phase)
	SetGaugeFloat(ctx, gf, 0.5, tag.Upsert(phase, "optimal"))
}

func TestHistogramRecording(t *testing.T) {
	ctx := context.Background()
	h := HistogramWithBounds("telemetry/fake_histogram", "fake durations", "ms", HistogramBounds)
	RecordNUnitMeasurement(ctx, h, 120)

	hf := HistogramFloatWithBounds("telemetry/fake_float_histogram", "fake scores", "1", []float64{0, 0.5, 1})
	RecordFloatMeasurement(ctx, hf, 0.25)
}

func TestSameNameSharesDescriptor(t *testing.T) {
	// Components create their metrics independently, so the same name must
	// settle on the same underlying measure.
	c := Counter("telemetry/fake_shared_counter", "fake recordings")
	c2 := Counter("telemetry/fake_shared_counter", "fake recordings")
	require.Equal(t, c, c2)
}

func TestReRegisteringViewIsSafe(t *testing.T) {
	m := stats.Int64("telemetry/fake_view_measure", "Fake", "1")
	v := counterView(m)
	v2 := counterView(m)
	require.Equal(t, v.Name, v2.Name)
}
