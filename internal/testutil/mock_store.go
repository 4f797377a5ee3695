// mock_store.go - In-memory store implementation for testing
package testutil

import (
	"context"
	"path"
	"sync"
)

// Publication records one Publish call made against the mock.
type Publication struct {
	Channel string
	Payload []byte
}

// MockStore implements store.Store backed by maps. Set FailAll to simulate
// an unreachable store; every operation then returns FailErr.
type MockStore struct {
	mu      sync.RWMutex
	values  map[string]string
	lists   map[string][]string
	pubs    []Publication
	scans   int
	FailAll bool
	FailErr error
	// FailPublish makes only Publish fail, for dispatch error paths.
	FailPublish bool
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

// SetValue seeds a plain string key.
func (m *MockStore) SetValue(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// SetList seeds a list key.
func (m *MockStore) SetList(key string, values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = values
}

// Publications returns a copy of all recorded publishes.
func (m *MockStore) Publications() []Publication {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Publication(nil), m.pubs...)
}

// ScanCalls returns how many Scan calls the mock has seen.
func (m *MockStore) ScanCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scans
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailAll {
		return "", false, m.FailErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MockStore) List(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailAll {
		return nil, m.FailErr
	}
	return append([]string(nil), m.lists[key]...), nil
}

func (m *MockStore) ListTail(ctx context.Context, key string, n int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailAll {
		return nil, m.FailErr
	}
	list := m.lists[key]
	if n < len(list) {
		list = list[len(list)-n:]
	}
	return append([]string(nil), list...), nil
}

func (m *MockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, m.FailErr
	}
	m.scans++
	var keys []string
	for key := range m.values {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	for key := range m.lists {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *MockStore) Publish(ctx context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll || m.FailPublish {
		return m.FailErr
	}
	m.pubs = append(m.pubs, Publication{Channel: channel, Payload: append([]byte(nil), payload...)})
	return nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.FailAll {
		return m.FailErr
	}
	return nil
}

func (m *MockStore) Close() error { return nil }
