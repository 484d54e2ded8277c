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

package tournament

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"open-tourney.dev/open-tourney/internal/config"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "tournament",
	})
)

// ConfigurationError reports a contradictory or infeasible tournament
// configuration. It is always raised before any episode runs.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

// NewConfigurationErrorf builds a ConfigurationError. Validation code in
// other packages uses it so the whole pre-run taxonomy stays one type.
func NewConfigurationErrorf(format string, a ...interface{}) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, a...)}
}

func configErrorf(format string, a ...interface{}) error {
	return NewConfigurationErrorf(format, a...)
}

// tableSides is how many teams one match table seats at a time.
const tableSides = 2

// RoundSetup describes one round type's demand on the day.
type RoundSetup struct {
	Type     RoundType
	Rounds   int // rounds each team must play, may be zero
	Lanes    int // judging rooms, or table count for match play
	Duration time.Duration
	DayStart time.Duration // offsets from midnight
	DayEnd   time.Duration
}

// lanes is the number of teams the round type can host in one time row.
func (rs RoundSetup) lanes() int {
	if rs.Type == Judging {
		return rs.Lanes
	}
	return rs.Lanes * tableSides
}

// Plan is the immutable description of the event: the teams, the generated
// slot inventory, and what every team owes per round type.
type Plan struct {
	Teams  []Team
	Slots  []Slot
	Setups map[RoundType]RoundSetup
}

// NewPlanFromConfig builds and validates a Plan from the tournament section
// of the configuration.
func NewPlanFromConfig(cfg config.View) (*Plan, error) {
	setups := make([]RoundSetup, 0, len(RoundTypes))
	for _, rt := range RoundTypes {
		section := "tournament." + rt.String()
		laneKey := section + ".tables"
		if rt == Judging {
			laneKey = section + ".rooms"
		}
		start, err := ParseClock(cfg.GetString(section + ".dayStart"))
		if err != nil {
			return nil, configErrorf("%s.dayStart: %v", section, err)
		}
		end, err := ParseClock(cfg.GetString(section + ".dayEnd"))
		if err != nil {
			return nil, configErrorf("%s.dayEnd: %v", section, err)
		}
		setups = append(setups, RoundSetup{
			Type:     rt,
			Rounds:   cfg.GetInt(section + ".rounds"),
			Lanes:    cfg.GetInt(laneKey),
			Duration: cfg.GetDuration(section + ".duration"),
			DayStart: start,
			DayEnd:   end,
		})
	}
	return NewPlan(cfg.GetInt("tournament.teams"), cfg.GetStringSlice("tournament.teamNames"), setups)
}

// NewPlan validates the setups and generates the slot inventory. Each round
// type gets the minimal number of time rows that can hold every team's
// rounds; a window too small for those rows is a ConfigurationError.
func NewPlan(teamCount int, teamNames []string, setups []RoundSetup) (*Plan, error) {
	if teamCount < 2 {
		return nil, configErrorf("at least 2 teams are required, got %d", teamCount)
	}

	p := &Plan{
		Teams:  make([]Team, 0, teamCount),
		Setups: make(map[RoundType]RoundSetup, len(setups)),
	}
	for i := 0; i < teamCount; i++ {
		name := fmt.Sprintf("Team %d", i+1)
		if i < len(teamNames) {
			name = teamNames[i]
		}
		p.Teams = append(p.Teams, Team{ID: i + 1, Name: name})
	}

	active := 0
	for _, rs := range setups {
		if _, ok := p.Setups[rs.Type]; ok {
			return nil, configErrorf("round type %v configured twice", rs.Type)
		}
		p.Setups[rs.Type] = rs
		if rs.Rounds < 0 {
			return nil, configErrorf("%v rounds must not be negative, got %d", rs.Type, rs.Rounds)
		}
		if rs.Rounds == 0 {
			continue
		}
		active++
		if rs.Lanes <= 0 {
			return nil, configErrorf("%v has %d rounds but no rooms or tables", rs.Type, rs.Rounds)
		}
		if rs.Duration <= 0 {
			return nil, configErrorf("%v slot duration must be positive, got %v", rs.Type, rs.Duration)
		}
		if rs.DayStart >= rs.DayEnd {
			return nil, configErrorf("%v window %s-%s is empty",
				rs.Type, Clock(rs.DayStart), Clock(rs.DayEnd))
		}

		required := teamCount * rs.Rounds
		rows := ceilDiv(required, rs.lanes())
		needed := time.Duration(rows) * rs.Duration
		if rs.DayStart+needed > rs.DayEnd {
			return nil, configErrorf(
				"%v needs %d rows of %v (%v total) but the window %s-%s only holds %v",
				rs.Type, rows, rs.Duration, needed,
				Clock(rs.DayStart), Clock(rs.DayEnd), rs.DayEnd-rs.DayStart)
		}
	}
	if active == 0 {
		return nil, configErrorf("no round type has any rounds configured")
	}

	// Practice and ranked play share the physical tables, so their windows
	// must not intersect.
	pr, prOK := p.Setups[PracticeMatch]
	ra, raOK := p.Setups[RankedMatch]
	if prOK && raOK && pr.Rounds > 0 && ra.Rounds > 0 {
		if pr.DayStart < ra.DayEnd && ra.DayStart < pr.DayEnd {
			return nil, configErrorf(
				"practice window %s-%s overlaps ranked window %s-%s on shared tables",
				Clock(pr.DayStart), Clock(pr.DayEnd), Clock(ra.DayStart), Clock(ra.DayEnd))
		}
	}

	for _, rt := range RoundTypes {
		rs, ok := p.Setups[rt]
		if !ok || rs.Rounds == 0 {
			continue
		}
		p.generateSlots(rs, teamCount)
	}

	logger.WithFields(logrus.Fields{
		"teams":       teamCount,
		"slots":       len(p.Slots),
		"obligations": p.TotalObligations(),
	}).Debug("tournament plan generated")
	return p, nil
}

func (p *Plan) generateSlots(rs RoundSetup, teamCount int) {
	locations := make([]Location, 0, rs.lanes())
	if rs.Type == Judging {
		for room := 1; room <= rs.Lanes; room++ {
			locations = append(locations, Location{
				Type: Judging,
				ID:   room,
				Name: fmt.Sprintf("Room %d", room),
			})
		}
	} else {
		for table := 1; table <= rs.Lanes; table++ {
			for side := 1; side <= tableSides; side++ {
				locations = append(locations, Location{
					Type:  rs.Type,
					ID:    (table-1)*tableSides + side,
					Table: table,
					Side:  side,
					Name:  fmt.Sprintf("Table %d%c", table, 'A'+side-1),
				})
			}
		}
	}

	rows := ceilDiv(teamCount*rs.Rounds, rs.lanes())
	for row := 0; row < rows; row++ {
		start := rs.DayStart + time.Duration(row)*rs.Duration
		for _, loc := range locations {
			p.Slots = append(p.Slots, Slot{
				ID:       len(p.Slots),
				Type:     rs.Type,
				Start:    start,
				End:      start + rs.Duration,
				Row:      row,
				Location: loc,
			})
		}
	}
}

// Quota is the number of rounds of the given type each team must play.
func (p *Plan) Quota(rt RoundType) int {
	return p.Setups[rt].Rounds
}

// TotalObligations is the number of assignments a complete schedule contains.
func (p *Plan) TotalObligations() int {
	total := 0
	for _, rs := range p.Setups {
		total += rs.Rounds
	}
	return total * len(p.Teams)
}

// Slot returns the slot with the given ID. Slot IDs index the inventory.
func (p *Plan) Slot(id int) Slot {
	return p.Slots[id]
}

// Team returns the team with the given 1-based ID.
func (p *Plan) Team(id int) Team {
	return p.Teams[id-1]
}

// DaySpan is the length of the scheduled day, from the first active window's
// start to the last active window's end. Used to normalize time-based scores.
func (p *Plan) DaySpan() time.Duration {
	var earliest, latest time.Duration
	first := true
	for _, rs := range p.Setups {
		if rs.Rounds == 0 {
			continue
		}
		if first || rs.DayStart < earliest {
			earliest = rs.DayStart
		}
		if first || rs.DayEnd > latest {
			latest = rs.DayEnd
		}
		first = false
	}
	return latest - earliest
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
