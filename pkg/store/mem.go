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

package store

import (
	"context"
	"strconv"
	"sync"
)

type memEntry struct {
	value   []byte
	version Version
}

// MemStore is an in-process, map-backed Store used for tests and for
// smoke-testing embedding processes without a running NATS server. It
// implements the same optimistic-concurrency semantics as NATSStore.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	nextRev Version
}

// NewMemStore returns an empty in-process store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]memEntry)}
}

func (m *MemStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextRev++
	m.entries[key] = memEntry{value: value, version: m.nextRev}

	return nil
}

func (m *MemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	return e.value, true, nil
}

func (m *MemStore) GetAll(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string][]byte)

	for _, key := range keys {
		if e, ok := m.entries[key]; ok {
			result[key] = e.value
		}
	}

	return result, nil
}

func (m *MemStore) GetWithVersion(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{Found: false}, nil
	}

	return Entry{Value: e.value, Version: e.version, Found: true}, nil
}

func (m *MemStore) RemoveWithVersion(_ context.Context, key string, version Version) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.version != version {
		return false, nil
	}

	delete(m.entries, key)

	return true, nil
}

func (m *MemStore) CheckAvailability(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Backend: "in-memory",
		Detail:  map[string]string{"keys": strconv.Itoa(len(m.entries))},
	}, nil
}

func (m *MemStore) Close() error {
	return nil
}

var _ Store = (*MemStore)(nil)
