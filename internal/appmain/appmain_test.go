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

package appmain

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"open-tourney.dev/open-tourney/internal/config"
)

func testConfig() func() (config.View, error) {
	return func() (config.View, error) {
		cfg := viper.New()
		cfg.Set("logging.level", "info")
		return cfg, nil
	}
}

func TestStartApplicationRunsPipeline(t *testing.T) {
	ran := false
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		ran = true
		require.Equal(t, "test", p.AppName())
		require.NotNil(t, p.Config())
		require.NoError(t, ctx.Err())
		return nil
	}, testConfig())
	require.NoError(t, err)
	require.True(t, ran)
}

func TestStartApplicationReturnsRunError(t *testing.T) {
	wanted := errors.New("pipeline broke")
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		return wanted
	}, testConfig())
	require.Equal(t, wanted, err)
}

func TestStartApplicationBadConfig(t *testing.T) {
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		t.Fatal("the pipeline must not run without configuration")
		return nil
	}, func() (config.View, error) {
		return nil, errors.New("no such file")
	})
	require.Error(t, err)
}

func TestClosersRunInReverseOrder(t *testing.T) {
	var order []string
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		p.AddCloser(func() { order = append(order, "first") })
		p.AddCloserErr(func() error {
			order = append(order, "second")
			return nil
		})
		p.AddCloser(func() { order = append(order, "third") })
		return nil
	}, testConfig())
	require.NoError(t, err)
	require.Equal(t, []string{"third", "second", "first"}, order)
}

func TestCloserErrorSurfacesAfterCleanRun(t *testing.T) {
	closeErr := errors.New("close failed")
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		p.AddCloserErr(func() error { return closeErr })
		return nil
	}, testConfig())
	require.Equal(t, closeErr, err)
}

func TestRunErrorWinsOverCloserError(t *testing.T) {
	runErr := errors.New("pipeline broke")
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		p.AddCloserErr(func() error { return errors.New("close failed") })
		return runErr
	}, testConfig())
	require.Equal(t, runErr, err)
}

func TestHealthChecksFanOut(t *testing.T) {
	hcErr := errors.New("store unreachable")
	err := StartApplication(context.Background(), "test", func(ctx context.Context, p *Params) error {
		require.NoError(t, p.runHealthChecks(ctx), "no checks registered yet")

		p.AddHealthCheckFunc(func(context.Context) error { return nil })
		require.NoError(t, p.runHealthChecks(ctx))

		p.AddHealthCheckFunc(func(context.Context) error { return hcErr })
		require.Equal(t, hcErr, p.runHealthChecks(ctx))
		return nil
	}, testConfig())
	require.NoError(t, err)
}

func TestCanceledParentContextReachesPipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := StartApplication(ctx, "test", func(ctx context.Context, p *Params) error {
		require.Error(t, ctx.Err(), "the pipeline context must inherit the cancellation")
		return nil
	}, testConfig())
	require.NoError(t, err)
}
