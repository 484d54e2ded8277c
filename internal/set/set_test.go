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

package set

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniques(t *testing.T) {
	require.Nil(t, Uniques(nil))
	require.Nil(t, Uniques([]string{}))
	require.Equal(t, []string{"Table 1"}, Uniques([]string{"Table 1", "Table 1"}))
	require.Equal(t,
		[]string{"Table 1", "Table 2", "Room A"},
		Uniques([]string{"Table 1", "Table 2", "Table 1", "Room A", "Table 2"}))
}

func TestIntersection(t *testing.T) {
	practice := []string{"Comets", "Rockets", "Gears", "Rockets"}
	ranked := []string{"Rockets", "Sparks"}

	require.Equal(t, []string{"Rockets", "Rockets"}, Intersection(practice, ranked))
	require.Nil(t, Intersection(practice, nil))
	require.Nil(t, Intersection(nil, ranked))
}

func TestUnion(t *testing.T) {
	require.Equal(t,
		[]string{"Comets", "Rockets", "Sparks"},
		Union([]string{"Comets", "Rockets"}, []string{"Rockets", "Sparks"}))
	require.Equal(t, []string{"Comets"}, Union(nil, []string{"Comets"}))
	require.Equal(t, []string{"Comets"}, Union([]string{"Comets"}, nil))
	require.Nil(t, Union(nil, nil))
}

func TestDifference(t *testing.T) {
	ids := []string{"run-a", "run-b", "run-c"}

	require.Equal(t, []string{"run-b"}, Difference(ids, []string{"run-a", "run-c"}))
	require.Equal(t, ids, Difference(ids, nil))

	// Callers compare the result against empty, so it is never nil.
	gone := Difference(ids, ids)
	require.NotNil(t, gone)
	require.Empty(t, gone)
	require.Empty(t, Difference(nil, ids))
}
