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

// Package expbo parses the compact backoff notation used in configuration
// values.
package expbo

import (
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
)

// UnmarshalExponentialBackOff fills b from the compact notation
//
//	"[InitInterval MaxInterval] *Multiplier ~RandomizationFactor <MaxElapsedTime"
//
// with intervals given in seconds, for example "[0.25 30] *1.5 ~0.33 <300".
// Fields missing from the string keep their current value in b.
func UnmarshalExponentialBackOff(s string, b *backoff.ExponentialBackOff) error {
	for _, word := range strings.Fields(s) {
		var err error
		switch {
		case strings.HasPrefix(word, "["):
			b.InitialInterval, err = seconds(strings.TrimPrefix(word, "["), "InitInterval")
		case strings.HasSuffix(word, "]"):
			b.MaxInterval, err = seconds(strings.TrimSuffix(word, "]"), "MaxInterval")
		case strings.HasPrefix(word, "*"):
			b.Multiplier, err = factor(strings.TrimPrefix(word, "*"), "Multiplier")
		case strings.HasPrefix(word, "~"):
			b.RandomizationFactor, err = factor(strings.TrimPrefix(word, "~"), "RandomizationFactor")
		case strings.HasPrefix(word, "<"):
			b.MaxElapsedTime, err = seconds(strings.TrimPrefix(word, "<"), "MaxElapsedTime")
		default:
			err = errors.Errorf("unexpected word %q", word)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func seconds(raw, field string) (time.Duration, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse %s value", field)
	}
	return time.Duration(v * float64(time.Second)), nil
}

func factor(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse %s value", field)
	}
	return v, nil
}
