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
)

// Cacher caches a value derived from configuration reads and rebuilds it when
// any of the values it was derived from change. Keys the build function never
// read do not invalidate the cache.
type Cacher struct {
	cfg View
	m   sync.Mutex

	probe *probeView
	value interface{}
}

// NewCacher returns a Cacher tied to cfg. The value is built lazily on the
// first Get.
func NewCacher(cfg View) *Cacher {
	return &Cacher{cfg: cfg}
}

// Get returns the cached value, calling build to recreate it when the cache
// is empty or a previously read configuration value has moved. Every read
// build makes through its View is tracked for change detection. A build error
// is returned without being cached, so the next Get tries again.
func (c *Cacher) Get(build func(cfg View) (interface{}, error)) (interface{}, error) {
	c.m.Lock()
	defer c.m.Unlock()

	if c.probe != nil && !c.probe.stale() {
		return c.value, nil
	}

	probe := &probeView{cfg: c.cfg}
	v, err := build(probe)
	if err != nil {
		c.probe = nil
		c.value = nil
		return nil, err
	}
	c.probe = probe
	c.value = v
	return v, nil
}

// ForceReset drops the cached value so the next Get rebuilds it even under an
// unchanged configuration.
func (c *Cacher) ForceReset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.probe = nil
	c.value = nil
}

// probeView records every read made through it as a closure that re-reads the
// key and reports whether the observed value moved.
type probeView struct {
	cfg    View
	checks []func() bool
}

func (p *probeView) stale() bool {
	for _, moved := range p.checks {
		if moved() {
			return true
		}
	}
	return false
}

func (p *probeView) IsSet(k string) bool {
	v := p.cfg.IsSet(k)
	p.checks = append(p.checks, func() bool { return p.cfg.IsSet(k) != v })
	return v
}

func (p *probeView) GetString(k string) string {
	v := p.cfg.GetString(k)
	p.checks = append(p.checks, func() bool { return p.cfg.GetString(k) != v })
	return v
}

func (p *probeView) GetInt(k string) int {
	v := p.cfg.GetInt(k)
	p.checks = append(p.checks, func() bool { return p.cfg.GetInt(k) != v })
	return v
}

func (p *probeView) GetInt64(k string) int64 {
	v := p.cfg.GetInt64(k)
	p.checks = append(p.checks, func() bool { return p.cfg.GetInt64(k) != v })
	return v
}

func (p *probeView) GetFloat64(k string) float64 {
	v := p.cfg.GetFloat64(k)
	p.checks = append(p.checks, func() bool { return p.cfg.GetFloat64(k) != v })
	return v
}

func (p *probeView) GetStringSlice(k string) []string {
	v := p.cfg.GetStringSlice(k)
	p.checks = append(p.checks, func() bool { return !equalStringSlices(p.cfg.GetStringSlice(k), v) })
	return v
}

func (p *probeView) GetBool(k string) bool {
	v := p.cfg.GetBool(k)
	p.checks = append(p.checks, func() bool { return p.cfg.GetBool(k) != v })
	return v
}

func (p *probeView) GetDuration(k string) time.Duration {
	v := p.cfg.GetDuration(k)
	p.checks = append(p.checks, func() bool { return p.cfg.GetDuration(k) != v })
	return v
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
