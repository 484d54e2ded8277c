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
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ReadAndMerge reads every given file and merges them into a single view,
// later files overriding earlier ones. A change to any of the files triggers
// a re-merge, so the view tracks all layers for the process lifetime.
func ReadAndMerge(files ...string) (View, error) {
	if len(files) == 0 {
		return nil, errors.New("no input files specified")
	}

	changed := make(chan struct{}, 1)
	layers := make([]*viper.Viper, 0, len(files))
	for _, file := range files {
		layer, err := readLayer(file, changed)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}

	lv := &layeredView{}
	lv.remerge(layers)
	go func() {
		for range changed {
			lv.remerge(layers)
		}
	}()
	return lv, nil
}

func readLayer(file string, changed chan<- struct{}) (*viper.Viper, error) {
	layer := viper.New()
	layer.SetConfigFile(file)
	if err := layer.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", file)
	}

	layer.WatchConfig()
	layer.OnConfigChange(func(event fsnotify.Event) {
		logger.WithFields(logrus.Fields{
			"filename":  event.Name,
			"operation": event.Op,
		}).Info("configuration layer changed on disk")
		// Collapse bursts of events. The pending re-merge reads the final
		// file contents either way.
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	return layer, nil
}

// layeredView serves the most recent merge result. Every merge builds a
// fresh viper, so readers never observe a half merged configuration.
type layeredView struct {
	m   sync.RWMutex
	cfg *viper.Viper
}

func (lv *layeredView) remerge(layers []*viper.Viper) {
	merged := viper.New()
	for _, layer := range layers {
		if err := merged.MergeConfigMap(layer.AllSettings()); err != nil {
			logger.WithError(err).Warningf("cannot merge config layer %q", layer.ConfigFileUsed())
		}
	}

	lv.m.Lock()
	lv.cfg = merged
	lv.m.Unlock()
}

func (lv *layeredView) view() *viper.Viper {
	lv.m.RLock()
	defer lv.m.RUnlock()
	return lv.cfg
}

func (lv *layeredView) IsSet(key string) bool {
	return lv.view().IsSet(key)
}

func (lv *layeredView) GetString(key string) string {
	return lv.view().GetString(key)
}

func (lv *layeredView) GetInt(key string) int {
	return lv.view().GetInt(key)
}

func (lv *layeredView) GetInt64(key string) int64 {
	return lv.view().GetInt64(key)
}

func (lv *layeredView) GetFloat64(key string) float64 {
	return lv.view().GetFloat64(key)
}

func (lv *layeredView) GetStringSlice(key string) []string {
	return lv.view().GetStringSlice(key)
}

func (lv *layeredView) GetBool(key string) bool {
	return lv.view().GetBool(key)
}

func (lv *layeredView) GetDuration(key string) time.Duration {
	return lv.view().GetDuration(key)
}

// AllSettings exposes the merged settings map for the configz debug page.
func (lv *layeredView) AllSettings() map[string]interface{} {
	return lv.view().AllSettings()
}
