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

// Package signal bridges process termination signals to the rest of the
// application.
package signal

import (
	"os"
	"os/signal"
	"syscall"
)

// Notifier subscribes to interrupt and termination signals on creation.
type Notifier struct {
	ch chan os.Signal
}

// NewNotifier starts listening for SIGINT and SIGTERM.
func NewNotifier() *Notifier {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return &Notifier{ch: ch}
}

// Wait blocks until a signal arrives or Stop is called. Any number of
// goroutines may wait on the same notifier.
func (n *Notifier) Wait() {
	<-n.ch
}

// Stop unsubscribes from the signals and releases every waiter, current and
// future. It may be called at most once.
func (n *Notifier) Stop() {
	signal.Stop(n.ch)
	n.ch <- os.Interrupt
	close(n.ch)
}
