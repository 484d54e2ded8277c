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

// Package appmain contains the common application initialization code for the
// scheduler binaries.
package appmain

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"
	"open-tourney.dev/open-tourney/internal/config"
	"open-tourney.dev/open-tourney/internal/logging"
	"open-tourney.dev/open-tourney/internal/signal"
	"open-tourney.dev/open-tourney/internal/telemetry"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "app.main",
	})
)

// RunFunc is a batch pipeline bound to the application lifecycle. The context
// is canceled when the process is interrupted; pipelines honor it between
// units of work and still deliver what they produced.
type RunFunc func(ctx context.Context, p *Params) error

// RunApplication reads the configuration, runs the given pipeline to
// completion and exits. Configuration files passed as command line arguments
// are merged in order over the base file, later files overriding earlier
// ones.
func RunApplication(appName string, run RunFunc) {
	readConfig := config.Read
	if files := os.Args[1:]; len(files) > 0 {
		readConfig = func() (config.View, error) {
			return config.ReadAndMerge(files...)
		}
	}

	if err := StartApplication(context.Background(), appName, run, readConfig); err != nil {
		logger.Fatal(err)
	}
	logger.Info("Application stopped successfully.")
}

// StartApplication provides more control over an application than
// RunApplication. It is for driving a pipeline against a synthetic
// configuration in tests.
func StartApplication(ctx context.Context, appName string, run RunFunc, getCfg func() (config.View, error)) error {
	cfg, err := getCfg()
	if err != nil {
		return errors.Wrap(err, "cannot read the configuration")
	}
	logging.ConfigureLogging(cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &Params{
		appName: appName,
		config:  cfg,
		a:       &App{},
	}
	bindTelemetry(p)

	// An interrupt cancels the pipeline context; the pipeline then winds
	// down at its next check and returns partial results instead of dying.
	notifier := signal.NewNotifier()
	go func() {
		notifier.Wait()
		cancel()
	}()
	defer notifier.Stop()

	runErr := run(ctx, p)
	stopErr := p.a.stop()
	if runErr != nil {
		return runErr
	}
	return stopErr
}

// Params are inputs to a running application.
type Params struct {
	appName string
	config  config.View
	a       *App

	hcMutex      sync.Mutex
	healthChecks []func(context.Context) error
}

// Config provides the configuration for the application.
func (p *Params) Config() config.View {
	return p.config
}

// AppName is the name of the running application binary.
func (p *Params) AppName() string {
	return p.appName
}

// AddCloser schedules a cleanup to run after the pipeline finishes. Closers
// run in reverse order of addition.
func (p *Params) AddCloser(c func()) {
	p.a.closers = append(p.a.closers, func() error {
		c()
		return nil
	})
}

// AddCloserErr schedules a cleanup whose error is reported after the run.
func (p *Params) AddCloserErr(c func() error) {
	p.a.closers = append(p.a.closers, c)
}

// AddHealthCheckFunc allows an application to check if it is healthy, and
// contribute to the overall health served on the telemetry endpoint.
func (p *Params) AddHealthCheckFunc(f func(context.Context) error) {
	p.hcMutex.Lock()
	defer p.hcMutex.Unlock()
	p.healthChecks = append(p.healthChecks, f)
}

func (p *Params) runHealthChecks(ctx context.Context) error {
	p.hcMutex.Lock()
	defer p.hcMutex.Unlock()
	for _, hc := range p.healthChecks {
		if err := hc(ctx); err != nil {
			return err
		}
	}
	return nil
}

// App tracks the cleanup work of a running application.
type App struct {
	closers []func() error
}

func (a *App) stop() error {
	// Use closers in reverse order: Since dependencies are created before
	// their dependants, this helps ensure no dependencies are closed
	// unexpectedly.
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err := a.closers[i]()
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// bindTelemetry serves the metrics and debug endpoints on their own port for
// the duration of the run. Disabled entirely when neither prometheus nor
// zpages are turned on.
func bindTelemetry(p *Params) {
	cfg := p.Config()
	if !cfg.GetBool(telemetry.ConfigNameEnableMetrics) && !cfg.GetBool("telemetry.zpages.enable") {
		logger.Info("Telemetry: Disabled")
		return
	}

	if err := view.Register(config.LoadedKeysView); err != nil {
		logger.WithError(err).Warning("cannot register config metrics")
	}

	mux := http.NewServeMux()
	closeTelemetry := telemetry.Setup(mux, cfg)
	mux.Handle(telemetry.HealthCheckEndpoint, telemetry.NewHealthCheck(p.runHealthChecks))

	addr := ":" + strconv.Itoa(cfg.GetInt("telemetry.port"))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.WithError(err).WithFields(logrus.Fields{
				"addr": addr,
			}).Error("telemetry server failed")
		}
	}()
	logger.WithFields(logrus.Fields{
		"addr": addr,
	}).Info("serving telemetry")

	p.AddCloserErr(func() error {
		err := srv.Close()
		closeTelemetry()
		return err
	})
}
