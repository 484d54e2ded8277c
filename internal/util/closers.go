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

// Package util holds small helpers shared across server components.
package util

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "util",
	})
)

// Closers collects shutdown callbacks and runs them once when the owner
// stops. The zero value is ready to use.
type Closers struct {
	m   sync.Mutex
	fns []func() error
}

// Add registers a callback that cannot fail.
func (c *Closers) Add(fn func()) {
	c.AddErr(func() error {
		fn()
		return nil
	})
}

// AddErr registers a callback whose failure is worth logging.
func (c *Closers) AddErr(fn func() error) {
	c.m.Lock()
	c.fns = append(c.fns, fn)
	c.m.Unlock()
}

// Close runs every registered callback in reverse registration order, so
// nothing outlives what it depends on. The callbacks are dropped afterwards
// and a second Close is a no-op.
func (c *Closers) Close() {
	c.m.Lock()
	fns := c.fns
	c.fns = nil
	c.m.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			logger.WithError(err).Warning("shutdown callback failed")
		}
	}
}
