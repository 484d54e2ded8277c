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

// Package set provides small set-algebra helpers over string slices, used
// for location and opponent bookkeeping in schedule statistics.
package set

// Uniques returns the distinct values of the input in first-appearance
// order.
func Uniques(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Intersection returns the values of the first input that also appear in the
// second, in first-input order. Duplicates in the first input are kept.
func Intersection(a, b []string) []string {
	inB := index(b)
	var out []string
	for _, v := range a {
		if _, ok := inB[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Union returns the distinct values of both inputs, first input first.
func Union(a, b []string) []string {
	return Uniques(append(append([]string{}, a...), b...))
}

// Difference returns the values of the first input that are absent from the
// second, preserving order. The result is never nil so callers can compare
// it against an empty slice.
func Difference(a, b []string) []string {
	inB := index(b)
	out := make([]string, 0, len(a))
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func index(values []string) map[string]struct{} {
	idx := make(map[string]struct{}, len(values))
	for _, v := range values {
		idx[v] = struct{}{}
	}
	return idx
}
