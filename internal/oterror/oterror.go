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

// Package oterror has error helpers shared across the application.
package oterror

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// WaitOnErrors runs every function on its own goroutine and returns a wait
// function that blocks until all of them have finished. The wait function
// returns the error of the first function to fail. Later failures have no
// caller left to return to, so they are logged as warnings instead.
func WaitOnErrors(logger *logrus.Entry, fs ...func() error) func() error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var first error

	wg.Add(len(fs))
	for _, f := range fs {
		go func(f func() error) {
			defer wg.Done()
			err := f()
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if first == nil {
				first = err
				return
			}
			logger.WithError(err).Warning("an earlier failure is already being returned, this one is only logged")
		}(f)
	}

	return func() error {
		wg.Wait()
		return first
	}
}
