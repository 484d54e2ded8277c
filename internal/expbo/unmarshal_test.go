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

package expbo

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalExponentialBackOff(t *testing.T) {
	b := backoff.NewExponentialBackOff()
	err := UnmarshalExponentialBackOff("[0.25 30] *1.5 ~0.33 <300", b)
	require.NoError(t, err)

	require.Equal(t, 250*time.Millisecond, b.InitialInterval)
	require.Equal(t, 30*time.Second, b.MaxInterval)
	require.InDelta(t, 1.5, b.Multiplier, 1e-8)
	require.InDelta(t, 0.33, b.RandomizationFactor, 1e-8)
	require.Equal(t, 5*time.Minute, b.MaxElapsedTime)
}

func TestUnmarshalPartialNotationKeepsDefaults(t *testing.T) {
	b := backoff.NewExponentialBackOff()
	mult := b.Multiplier
	err := UnmarshalExponentialBackOff("[1 2]", b)
	require.NoError(t, err)

	require.Equal(t, time.Second, b.InitialInterval)
	require.Equal(t, 2*time.Second, b.MaxInterval)
	require.Equal(t, mult, b.Multiplier, "fields absent from the notation stay untouched")
}

func TestUnmarshalRejectsUnknownWords(t *testing.T) {
	b := backoff.NewExponentialBackOff()
	err := UnmarshalExponentialBackOff("bogus", b)
	require.Error(t, err)

	err = UnmarshalExponentialBackOff("[x 30] *1.5 ~0.33 <300", b)
	require.Error(t, err)
}
