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

// Package export writes run artifacts as CSV and XLSX files. Writers hold
// no scheduling logic; they consume the row and grid projections produced
// by the engine.
package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"open-tourney.dev/open-tourney/internal/evaluator"
	"open-tourney.dev/open-tourney/internal/oterror"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/schedule"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "opentourney",
	"component": "export",
})

// Artifact file names under the output directory.
const (
	ScheduleCSVName  = "schedule.csv"
	ScheduleXLSXName = "schedule.xlsx"
	TableCSVName     = "qtable.csv"
	TeamStatsCSVName = "team_stats.csv"
	PhaseStatsName   = "phase_stats.csv"
)

// Bundle is everything one run exports.
type Bundle struct {
	Schedule []schedule.Row
	Grids    []schedule.Grid
	Table    []qlearn.Row
	Summary  *evaluator.Summary
}

// WriteAll writes every artifact of the bundle into dir, creating it if
// needed. The writers run concurrently; the first failure is returned and
// any additional failures are logged.
func WriteAll(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create the output directory %s", dir)
	}

	toFile := func(name string, write func(io.Writer) error) func() error {
		return func() error {
			path := filepath.Join(dir, name)
			f, err := os.Create(path)
			if err != nil {
				return errors.Wrapf(err, "failed to create %s", path)
			}
			if err := write(f); err != nil {
				f.Close()
				return err
			}
			return errors.Wrapf(f.Close(), "failed to close %s", path)
		}
	}

	wait := oterror.WaitOnErrors(logger,
		toFile(ScheduleCSVName, func(w io.Writer) error { return WriteScheduleCSV(w, b.Schedule) }),
		toFile(ScheduleXLSXName, func(w io.Writer) error { return WriteScheduleXLSX(w, b.Grids) }),
		toFile(TableCSVName, func(w io.Writer) error { return WriteTableCSV(w, b.Table) }),
		toFile(TeamStatsCSVName, func(w io.Writer) error { return WriteTeamStatsCSV(w, b.Summary.Teams) }),
		toFile(PhaseStatsName, func(w io.Writer) error { return WritePhaseStatsCSV(w, b.Summary.Phases) }),
	)
	if err := wait(); err != nil {
		return err
	}

	logger.WithField("dir", dir).Info("wrote run artifacts")
	return nil
}
