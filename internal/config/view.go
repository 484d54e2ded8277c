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

package config

import (
	"time"

	"github.com/spf13/viper"
)

// View is a read-only view of the scheduler configuration. It carries the
// viper accessors the components actually read; add here when a component
// needs a new type.
type View interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetStringSlice(key string) []string
	GetBool(key string) bool
	GetDuration(key string) time.Duration
}

// Mutable is a read-write view of the scheduler configuration, used by tests
// to build synthetic configurations.
type Mutable interface {
	Set(key string, value interface{})
	View
}

// Sub scopes the view to the keys below the given one, or nil when the view
// does not support scoping.
func Sub(v View, key string) View {
	if vp, ok := v.(*viper.Viper); ok {
		return vp.Sub(key)
	}
	return nil
}
