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
	"sync"
)

// MockStore is a hand-written test double standing in for a mockgen
// generation of the Store interface (mockgen cannot be run in this
// environment). It wraps a MemStore for behavior and separately records
// per-method call counts so tests can assert on the number of round
// trips a resolver operation makes.
type MockStore struct {
	inner *MemStore

	mu     sync.Mutex
	calls  map[string]int
	onCall func(method string)
}

// NewMockStore returns a MockStore backed by a fresh in-process store.
func NewMockStore() *MockStore {
	return &MockStore{
		inner: NewMemStore(),
		calls: make(map[string]int),
	}
}

// OnCall installs a hook invoked (with the method name) on every call,
// useful for asserting call ordering in addition to counts.
func (m *MockStore) OnCall(fn func(method string)) {
	m.onCall = fn
}

// CallCount returns how many times method was invoked.
func (m *MockStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls[method]
}

// TotalCalls returns the sum of all recorded call counts.
func (m *MockStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, n := range m.calls {
		total += n
	}

	return total
}

func (m *MockStore) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	hook := m.onCall
	m.mu.Unlock()

	if hook != nil {
		hook(method)
	}
}

func (m *MockStore) Put(ctx context.Context, key string, value []byte) error {
	m.record("Put")
	return m.inner.Put(ctx, key, value)
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.record("Get")
	return m.inner.Get(ctx, key)
}

func (m *MockStore) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.record("GetAll")
	return m.inner.GetAll(ctx, keys)
}

func (m *MockStore) GetWithVersion(ctx context.Context, key string) (Entry, error) {
	m.record("GetWithVersion")
	return m.inner.GetWithVersion(ctx, key)
}

func (m *MockStore) RemoveWithVersion(ctx context.Context, key string, version Version) (bool, error) {
	m.record("RemoveWithVersion")
	return m.inner.RemoveWithVersion(ctx, key, version)
}

func (m *MockStore) CheckAvailability(ctx context.Context) (Stats, error) {
	m.record("CheckAvailability")
	return m.inner.CheckAvailability(ctx)
}

func (m *MockStore) Close() error {
	m.record("Close")
	return m.inner.Close()
}

var _ Store = (*MockStore)(nil)
