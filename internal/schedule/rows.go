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

package schedule

import (
	"sort"

	"open-tourney.dev/open-tourney/internal/tournament"
)

// Row is one assignment flattened for listing and export.
type Row struct {
	Team     int    `json:"team"`
	TeamName string `json:"team_name"`
	Round    string `json:"round"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
	Opponent string `json:"opponent,omitempty"`
}

// Rows projects the state as an ordered list of records, earliest slot first.
func (s *State) Rows() []Row {
	ordered := s.Assignments()
	sort.Sort(byRowOrder{ordered, s.plan})

	rows := make([]Row, 0, len(ordered))
	for _, a := range ordered {
		slot := s.plan.Slot(a.Slot)
		r := Row{
			Team:     a.Team,
			TeamName: s.plan.Team(a.Team).Name,
			Round:    slot.Type.String(),
			Start:    tournament.Clock(slot.Start),
			End:      tournament.Clock(slot.End),
			Location: slot.Location.Name,
		}
		if opp, ok := s.Opponent(a); ok {
			r.Opponent = s.plan.Team(opp).Name
		}
		rows = append(rows, r)
	}
	return rows
}

// Grid is the board view of one round type: rows are time, columns are
// locations, cells are team names.
type Grid struct {
	Round     string     `json:"round"`
	Times     []string   `json:"times"`
	Locations []string   `json:"locations"`
	Cells     [][]string `json:"cells"`
}

// Grids projects the state into one Grid per round type that has slots.
func (s *State) Grids() []Grid {
	assigned := make(map[int]int, len(s.assignments)) // slot ID to team ID
	for _, a := range s.assignments {
		assigned[a.Slot] = a.Team
	}

	var grids []Grid
	for _, rt := range tournament.RoundTypes {
		var slots []tournament.Slot
		for _, slot := range s.plan.Slots {
			if slot.Type == rt {
				slots = append(slots, slot)
			}
		}
		if len(slots) == 0 {
			continue
		}

		rowCount := 0
		locIndex := map[int]int{} // location ID to column
		var locations []string
		for _, slot := range slots {
			if slot.Row+1 > rowCount {
				rowCount = slot.Row + 1
			}
			if _, ok := locIndex[slot.Location.ID]; !ok {
				locIndex[slot.Location.ID] = len(locations)
				locations = append(locations, slot.Location.Name)
			}
		}

		g := Grid{
			Round:     rt.String(),
			Times:     make([]string, rowCount),
			Locations: locations,
			Cells:     make([][]string, rowCount),
		}
		for i := range g.Cells {
			g.Cells[i] = make([]string, len(locations))
		}
		for _, slot := range slots {
			g.Times[slot.Row] = tournament.Clock(slot.Start)
			if team, ok := assigned[slot.ID]; ok {
				g.Cells[slot.Row][locIndex[slot.Location.ID]] = s.plan.Team(team).Name
			}
		}
		grids = append(grids, g)
	}
	return grids
}

type byRowOrder struct {
	a    []Assignment
	plan *tournament.Plan
}

func (b byRowOrder) Len() int      { return len(b.a) }
func (b byRowOrder) Swap(i, j int) { b.a[i], b.a[j] = b.a[j], b.a[i] }
func (b byRowOrder) Less(i, j int) bool {
	si, sj := b.plan.Slot(b.a[i].Slot), b.plan.Slot(b.a[j].Slot)
	if si.Start != sj.Start {
		return si.Start < sj.Start
	}
	if si.Type != sj.Type {
		return si.Type < sj.Type
	}
	return si.Location.ID < sj.Location.ID
}
