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

import "hash/fnv"

// Signature is the reduced key indexing the Q-table for a partial schedule.
type Signature uint64

// Signature collapses the state to the per-team remaining-obligation vector
// plus the most recent slot, hashed with 64-bit FNV-1a. Assignment orderings
// that leave the same obligations outstanding and end on the same slot share
// a key; the raw schedule is never part of the key.
func (s *State) Signature() Signature {
	buf := make([]byte, 0, len(s.remaining)*3+4)
	for _, rem := range s.remaining {
		buf = append(buf, byte(rem[0]), byte(rem[1]), byte(rem[2]))
	}
	last := s.lastSlot
	buf = append(buf, byte(last), byte(last>>8), byte(last>>16), byte(last>>24))

	h := fnv.New64a()
	_, _ = h.Write(buf)
	return Signature(h.Sum64())
}
