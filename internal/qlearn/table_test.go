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

package qlearn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"open-tourney.dev/open-tourney/internal/schedule"
)

func TestTableGetSet(t *testing.T) {
	table := NewTable()
	sig := schedule.Signature(42)
	act := Action{Slot: 3, Team: 1}

	require.Equal(t, 0.0, table.Get(sig, act))
	require.Equal(t, 0, table.Len())

	table.Set(sig, act, 0.25)
	require.Equal(t, 0.25, table.Get(sig, act))
	require.Equal(t, 1, table.Len())

	table.Set(sig, act, -0.5)
	require.Equal(t, -0.5, table.Get(sig, act))
	require.Equal(t, 1, table.Len())
}

func TestTableZeroWriteStaysSparse(t *testing.T) {
	table := NewTable()
	table.Set(schedule.Signature(7), Action{Slot: 0, Team: 1}, 0)
	require.Equal(t, 0, table.Len())

	// A zero overwrite of an existing entry is kept, only the
	// materializing write is dropped.
	table.Set(schedule.Signature(7), Action{Slot: 0, Team: 1}, 1)
	table.Set(schedule.Signature(7), Action{Slot: 0, Team: 1}, 0)
	require.Equal(t, 1, table.Len())
	require.Equal(t, 0.0, table.Get(schedule.Signature(7), Action{Slot: 0, Team: 1}))
}

func TestTableBestPrefersFirstOnTies(t *testing.T) {
	table := NewTable()
	sig := schedule.Signature(1)
	candidates := []schedule.Assignment{
		{Slot: 0, Team: 1},
		{Slot: 0, Team: 2},
		{Slot: 1, Team: 1},
	}

	act, v := table.Best(sig, candidates)
	require.Equal(t, candidates[0], act)
	require.Equal(t, 0.0, v)

	table.Set(sig, Action{Slot: 1, Team: 1}, 0.5)
	act, v = table.Best(sig, candidates)
	require.Equal(t, candidates[2], act)
	require.Equal(t, 0.5, v)

	// An equally good earlier candidate wins.
	table.Set(sig, Action{Slot: 0, Team: 2}, 0.5)
	act, _ = table.Best(sig, candidates)
	require.Equal(t, candidates[1], act)
}

func TestTableAnyVisited(t *testing.T) {
	table := NewTable()
	sig := schedule.Signature(9)
	candidates := []schedule.Assignment{{Slot: 0, Team: 1}, {Slot: 1, Team: 2}}

	require.False(t, table.AnyVisited(sig, candidates))

	table.Set(sig, Action{Slot: 5, Team: 5}, 1)
	require.False(t, table.AnyVisited(sig, candidates), "entries for other actions don't count")

	table.Set(sig, Action{Slot: 1, Team: 2}, -0.1)
	require.True(t, table.AnyVisited(sig, candidates))
}

func TestTableMaxOver(t *testing.T) {
	table := NewTable()
	sig := schedule.Signature(3)

	require.Equal(t, 0.0, table.MaxOver(sig, nil))

	candidates := []schedule.Assignment{{Slot: 0, Team: 1}, {Slot: 1, Team: 1}}
	require.Equal(t, 0.0, table.MaxOver(sig, candidates))

	table.Set(sig, Action{Slot: 1, Team: 1}, -0.25)
	require.Equal(t, 0.0, table.MaxOver(sig, candidates), "absent entries count as zero")

	table.Set(sig, Action{Slot: 0, Team: 1}, 0.75)
	require.Equal(t, 0.75, table.MaxOver(sig, candidates))
}

func TestTableRowsSorted(t *testing.T) {
	table := NewTable()
	table.Set(schedule.Signature(2), Action{Slot: 1, Team: 1}, 0.1)
	table.Set(schedule.Signature(1), Action{Slot: 4, Team: 2}, 0.2)
	table.Set(schedule.Signature(1), Action{Slot: 0, Team: 3}, 0.3)
	table.Set(schedule.Signature(1), Action{Slot: 0, Team: 1}, 0.4)

	rows := table.Rows()
	require.Equal(t, []Row{
		{State: 1, Slot: 0, Team: 1, Value: 0.4},
		{State: 1, Slot: 0, Team: 3, Value: 0.3},
		{State: 1, Slot: 4, Team: 2, Value: 0.2},
		{State: 2, Slot: 1, Team: 1, Value: 0.1},
	}, rows)
}
