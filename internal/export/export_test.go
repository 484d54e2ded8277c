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

package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"open-tourney.dev/open-tourney/internal/evaluator"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/schedule"
)

func testBundle() *Bundle {
	return &Bundle{
		Schedule: []schedule.Row{
			{Team: 1, TeamName: "Team 1", Round: "judging", Start: "09:00", End: "09:30", Location: "Room 1"},
			{Team: 1, TeamName: "Team 1", Round: "ranked", Start: "10:00", End: "10:15", Location: "Table 1A", Opponent: "Team 2"},
		},
		Grids: []schedule.Grid{
			{
				Round:     "judging",
				Times:     []string{"09:00", "09:30"},
				Locations: []string{"Room 1", "Room 2"},
				Cells:     [][]string{{"Team 1", "Team 2"}, {"Team 3", ""}},
			},
			{
				Round:     "ranked",
				Times:     []string{"10:00"},
				Locations: []string{"Table 1A", "Table 1B"},
				Cells:     [][]string{{"Team 1", "Team 2"}},
			},
		},
		Table: []qlearn.Row{
			{State: 7, Slot: 0, Team: 1, Value: 0.5},
			{State: 7, Slot: 1, Team: 2, Value: -1},
		},
		Summary: &evaluator.Summary{
			Phases: []evaluator.PhaseStats{
				{Phase: "baseline", Episodes: 2, Feasible: 1, FeasibilityRate: 0.5, MeanScore: 0.375, StddevScore: 0.125, BestScore: 0.5, MeanSteps: 7, Explored: 14},
			},
			Teams: []evaluator.TeamStats{
				{
					Team: 1, Name: "Team 1",
					Rounds:     map[string]int{"judging": 1, "practice": 0, "ranked": 1},
					FirstStart: 9 * time.Hour, LastEnd: 10*time.Hour + 15*time.Minute,
					TotalIdle: 30 * time.Minute, ShortestGap: 30 * time.Minute,
					DistinctLocations: 2, DistinctOpponents: 1,
				},
			},
			Winner: "optimal", Feasible: true, Score: 0.75,
		},
	}
}

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteScheduleCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScheduleCSV(&buf, testBundle().Schedule))

	records := readAll(t, &buf)
	require.Equal(t, [][]string{
		{"team", "name", "round", "start", "end", "location", "opponent"},
		{"1", "Team 1", "judging", "09:00", "09:30", "Room 1", ""},
		{"1", "Team 1", "ranked", "10:00", "10:15", "Table 1A", "Team 2"},
	}, records)
}

func TestWriteTableCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, testBundle().Table))

	records := readAll(t, &buf)
	require.Equal(t, [][]string{
		{"state", "slot", "team", "value"},
		{"7", "0", "1", "0.5"},
		{"7", "1", "2", "-1"},
	}, records)
}

func TestWriteTeamStatsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTeamStatsCSV(&buf, testBundle().Summary.Teams))

	records := readAll(t, &buf)
	require.Equal(t, [][]string{
		{"team", "name", "judging", "practice", "ranked",
			"first_start", "last_end", "total_idle", "shortest_gap",
			"distinct_locations", "distinct_opponents", "repeat_opponents"},
		{"1", "Team 1", "1", "0", "1", "09:00", "10:15", "30m0s", "30m0s", "2", "1", "0"},
	}, records)
}

func TestWritePhaseStatsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePhaseStatsCSV(&buf, testBundle().Summary.Phases))

	records := readAll(t, &buf)
	require.Equal(t, [][]string{
		{"phase", "episodes", "feasible", "feasibility_rate",
			"mean_score", "stddev_score", "best_score", "mean_steps",
			"explored", "exploited", "fallbacks"},
		{"baseline", "2", "1", "0.5", "0.375", "0.125", "0.5", "7", "14", "0", "0"},
	}, records)
}

func TestWriteScheduleXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScheduleXLSX(&buf, testBundle().Grids))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"judging", "ranked"}, f.GetSheetList())

	cell := func(sheet, axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}
	require.Equal(t, "time", cell("judging", "A1"))
	require.Equal(t, "Room 1", cell("judging", "B1"))
	require.Equal(t, "Room 2", cell("judging", "C1"))
	require.Equal(t, "09:30", cell("judging", "A3"))
	require.Equal(t, "Team 3", cell("judging", "B3"))
	require.Equal(t, "", cell("judging", "C3"))
	require.Equal(t, "Team 2", cell("ranked", "C2"))
}

func TestWriteScheduleXLSXRequiresGrids(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteScheduleXLSX(&buf, nil))
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, WriteAll(dir, testBundle()))

	for _, name := range []string{
		ScheduleCSVName, ScheduleXLSXName, TableCSVName, TeamStatsCSVName, PhaseStatsName,
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "expected %s to exist", name)
		require.Greater(t, info.Size(), int64(0))
	}

	raw, err := os.ReadFile(filepath.Join(dir, ScheduleCSVName))
	require.NoError(t, err)
	records := readAll(t, bytes.NewBuffer(raw))
	require.Len(t, records, 3)
}
