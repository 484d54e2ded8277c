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
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"open-tourney.dev/open-tourney/internal/evaluator"
	"open-tourney.dev/open-tourney/internal/qlearn"
	"open-tourney.dev/open-tourney/internal/schedule"
	"open-tourney.dev/open-tourney/internal/tournament"
)

func writeRecords(w io.Writer, what string, records [][]string) error {
	cw := csv.NewWriter(w)
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "failed to write a %s record", what)
		}
	}
	cw.Flush()
	return errors.Wrapf(cw.Error(), "failed to flush the %s records", what)
}

// WriteScheduleCSV writes the ordered schedule, one assignment per record.
func WriteScheduleCSV(w io.Writer, rows []schedule.Row) error {
	records := [][]string{{"team", "name", "round", "start", "end", "location", "opponent"}}
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Team), r.TeamName, r.Round, r.Start, r.End, r.Location, r.Opponent,
		})
	}
	return writeRecords(w, "schedule", records)
}

// WriteTableCSV writes the full learned table as (state, slot, team, value)
// records.
func WriteTableCSV(w io.Writer, rows []qlearn.Row) error {
	records := [][]string{{"state", "slot", "team", "value"}}
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatUint(r.State, 10),
			strconv.Itoa(r.Slot),
			strconv.Itoa(r.Team),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		})
	}
	return writeRecords(w, "table", records)
}

// WriteTeamStatsCSV writes one record per team with its schedule statistics.
func WriteTeamStatsCSV(w io.Writer, teams []evaluator.TeamStats) error {
	header := []string{"team", "name"}
	for _, rt := range tournament.RoundTypes {
		header = append(header, rt.String())
	}
	header = append(header,
		"first_start", "last_end", "total_idle", "shortest_gap",
		"distinct_locations", "distinct_opponents", "repeat_opponents")

	records := [][]string{header}
	for _, ts := range teams {
		rec := []string{strconv.Itoa(ts.Team), ts.Name}
		for _, rt := range tournament.RoundTypes {
			rec = append(rec, strconv.Itoa(ts.Rounds[rt.String()]))
		}
		rec = append(rec,
			tournament.Clock(ts.FirstStart),
			tournament.Clock(ts.LastEnd),
			ts.TotalIdle.String(),
			ts.ShortestGap.String(),
			strconv.Itoa(ts.DistinctLocations),
			strconv.Itoa(ts.DistinctOpponents),
			strconv.Itoa(ts.RepeatOpponents),
		)
		records = append(records, rec)
	}
	return writeRecords(w, "team stats", records)
}

// WritePhaseStatsCSV writes the baseline/training/optimal comparison.
func WritePhaseStatsCSV(w io.Writer, phases []evaluator.PhaseStats) error {
	records := [][]string{{
		"phase", "episodes", "feasible", "feasibility_rate",
		"mean_score", "stddev_score", "best_score", "mean_steps",
		"explored", "exploited", "fallbacks",
	}}
	for _, ps := range phases {
		records = append(records, []string{
			ps.Phase,
			strconv.Itoa(ps.Episodes),
			strconv.Itoa(ps.Feasible),
			strconv.FormatFloat(ps.FeasibilityRate, 'g', -1, 64),
			strconv.FormatFloat(ps.MeanScore, 'g', -1, 64),
			strconv.FormatFloat(ps.StddevScore, 'g', -1, 64),
			strconv.FormatFloat(ps.BestScore, 'g', -1, 64),
			strconv.FormatFloat(ps.MeanSteps, 'g', -1, 64),
			strconv.Itoa(ps.Explored),
			strconv.Itoa(ps.Exploited),
			strconv.Itoa(ps.Fallbacks),
		})
	}
	return writeRecords(w, "phase stats", records)
}
