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

// Main package for the scheduler. It trains the scheduling agent against
// the configured tournament and delivers the best schedule found.
package main

import (
	"open-tourney.dev/open-tourney/internal/app/scheduler"
	"open-tourney.dev/open-tourney/internal/appmain"
)

func main() {
	appmain.RunApplication("scheduler", scheduler.Run)
}
