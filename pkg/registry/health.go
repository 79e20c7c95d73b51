/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package registry

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/devregistry/pkg/store"
)

// RemoteCacheConnectionProbe is the name of the registry's sole
// readiness check.
const RemoteCacheConnectionProbe = "remote-cache-connection"

// ProbeStatus reports whether a readiness check passed.
type ProbeStatus struct {
	Name  string
	Ready bool
	Stats store.Stats
	Err   error
}

// ProbeFunc is a readiness check. The registry bounds a probe only by
// the deadline on ctx; a probe that ignores that deadline is not
// interrupted and Run waits for it to return.
type ProbeFunc func(ctx context.Context) (store.Stats, error)

// ProbeRegistry holds named readiness probes, following the same
// map-backed registration shape used elsewhere in this codebase for
// named capability factories. Here each entry is a bound probe function
// plus its hard timeout rather than a creator/details pair, since the
// registry's only consumer is a readiness endpoint, not a pluggable
// checker system.
type ProbeRegistry struct {
	mu     sync.RWMutex
	probes map[string]registeredProbe
}

type registeredProbe struct {
	timeout time.Duration
	fn      ProbeFunc
}

// NewProbeRegistry returns an empty probe registry.
func NewProbeRegistry() *ProbeRegistry {
	return &ProbeRegistry{probes: make(map[string]registeredProbe)}
}

// register adds a probe under name, bounded by timeoutMs.
func (p *ProbeRegistry) register(name string, timeoutMs int, fn ProbeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.probes[name] = registeredProbe{
		timeout: time.Duration(timeoutMs) * time.Millisecond,
		fn:      fn,
	}
}

// Run executes the named probe with a context carrying its configured
// timeout, reporting "not ready" when the probe returns an error (including
// the context's deadline error) and "ready" with backend statistics
// attached as opaque metadata on success.
func (p *ProbeRegistry) Run(ctx context.Context, name string) ProbeStatus {
	p.mu.RLock()
	rp, ok := p.probes[name]
	p.mu.RUnlock()

	if !ok {
		return ProbeStatus{Name: name, Ready: false, Err: errUnknownProbe}
	}

	probeCtx, cancel := context.WithTimeout(ctx, rp.timeout)
	defer cancel()

	stats, err := rp.fn(probeCtx)
	if err != nil {
		return ProbeStatus{Name: name, Ready: false, Err: err}
	}

	return ProbeStatus{Name: name, Ready: true, Stats: stats}
}

// RegisterRemoteCacheConnectionProbe wires the required
// remote-cache-connection readiness check against s.CheckAvailability,
// bounded by the hard 1000ms upper bound. No liveness check is exposed:
// this subsystem is liveness-equivalent to the process hosting it.
func RegisterRemoteCacheConnectionProbe(p *ProbeRegistry, s store.Store) {
	const hardTimeoutMs = 1000

	p.register(RemoteCacheConnectionProbe, hardTimeoutMs, func(ctx context.Context) (store.Stats, error) {
		return s.CheckAvailability(ctx)
	})
}
