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

// Package tournament models the physical event: teams, round types, rooms and
// tables, and the immutable slot inventory generated from configuration.
package tournament

import (
	"fmt"
	"time"
)

// RoundType enumerates the kinds of rounds a team plays during the event.
type RoundType int

const (
	// Judging is a closed-room session in front of a judge panel.
	Judging RoundType = iota
	// PracticeMatch is a robot game match that does not count toward rankings.
	PracticeMatch
	// RankedMatch is a robot game match that counts toward rankings.
	RankedMatch
)

// RoundTypes lists every round type in day order.
var RoundTypes = []RoundType{Judging, PracticeMatch, RankedMatch}

func (rt RoundType) String() string {
	switch rt {
	case Judging:
		return "judging"
	case PracticeMatch:
		return "practice"
	case RankedMatch:
		return "ranked"
	default:
		return fmt.Sprintf("roundtype(%d)", int(rt))
	}
}

// Team is a participant. Teams are immutable for the duration of a schedule
// build; IDs are 1-based and contiguous.
type Team struct {
	ID   int
	Name string
}

// Location is a round-type-scoped place: a judging room, or one side of a
// match table. The two sides of a table at the same time form one match, and
// the team on the far side is the opponent.
type Location struct {
	Type  RoundType
	ID    int // 1-based within the round type
	Table int // table number for match play, 0 for judging rooms
	Side  int // 1 or 2 for match play, 0 for judging rooms
	Name  string
}

// Slot is a bookable (time, location, round type) triple. Slots are generated
// once by the Plan and never change afterwards.
type Slot struct {
	ID       int
	Type     RoundType
	Start    time.Duration // offset from midnight
	End      time.Duration
	Row      int // time row index within the round type, 0-based
	Location Location
}

// Overlaps reports whether two slots occupy intersecting time intervals.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start < o.End && o.Start < s.End
}

// Clock formats an offset from midnight as a wall clock string, e.g. "09:30".
func Clock(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// ParseClock parses a wall clock string such as "09:30" into an offset from
// midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
