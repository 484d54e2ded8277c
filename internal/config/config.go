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

// Package config contains convenience functions for reading and managing viper configs.
package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "opentourney",
		"component": "config",
	})

	loadedKeys = stats.Int64("config/loaded_keys", "Count of configuration keys loaded at startup", "1")
	// LoadedKeysView reports how many configuration keys each startup read.
	LoadedKeysView = &view.View{
		Name:        "config/loaded_keys",
		Measure:     loadedKeys,
		Description: "Count of configuration keys loaded at startup",
		Aggregation: view.Count(),
	}
)

// Read loads scheduler_config.yaml from the working directory or configs/
// and watches it for updates. In Kubernetes the file is a mounted ConfigMap,
// so edits to the map show up as file changes.
func Read() (View, error) {
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	cfg.AddConfigPath(".")
	cfg.AddConfigPath("configs")
	cfg.SetConfigName("scheduler_config")
	if err := cfg.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "cannot read the scheduler config file")
	}

	cfg.WatchConfig()
	cfg.OnConfigChange(func(event fsnotify.Event) {
		logger.WithFields(logrus.Fields{
			"filename":  event.Name,
			"operation": event.Op,
		}).Info("scheduler configuration file changed on disk")
	})

	stats.Record(context.Background(), loadedKeys.M(int64(len(cfg.AllKeys()))))
	return cfg, nil
}
