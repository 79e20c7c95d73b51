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

//go:generate mockgen -destination=mock_store.go -package=store github.com/carverauto/devregistry/pkg/store Store

// Package store defines the narrow capability interface the device
// connection registry programs against, plus a NATS JetStream-backed
// implementation and an in-process test double.
package store

import "context"

// Version is an opaque token returned alongside a value by
// GetWithVersion, comparable for equality and passed back unchanged to
// RemoveWithVersion.
type Version = uint64

// Entry is the result of a versioned read.
type Entry struct {
	Value   []byte
	Version Version
	Found   bool
}

// Stats carries backend-level statistics returned by a successful
// availability probe. Shape is backend-specific; the registry attaches
// it to the health-probe result as opaque metadata without inspecting it.
type Stats struct {
	Backend string
	Detail  map[string]string
}

// Store is the capability set the resolver requires of the remote
// key/value backend. Any implementation offering these operations is
// acceptable; the resolver never depends on more than this.
type Store interface {
	// Put is an unconditional upsert. It completes when durable enough
	// for read-your-writes within the caller's session.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the current value for key, or found=false if absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// GetAll returns a mapping from each present key in keys to its
	// value. Absent keys are simply not present in the result; GetAll
	// never fails merely because some keys are absent.
	GetAll(ctx context.Context, keys []string) (map[string][]byte, error)

	// GetWithVersion returns the value and version for key, or
	// Entry{Found: false} if absent.
	GetWithVersion(ctx context.Context, key string) (Entry, error)

	// RemoveWithVersion atomically removes key iff its current stored
	// version equals version. ok is false when the entry was modified
	// or removed concurrently.
	RemoveWithVersion(ctx context.Context, key string, version Version) (ok bool, err error)

	// CheckAvailability probes the backend for readiness.
	CheckAvailability(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}
