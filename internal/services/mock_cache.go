package services

import (
	"context"
	"sync"
	"time"
)

// MockCache is an in-memory Cache for testing
type MockCache struct {
	mu     sync.Mutex
	values map[string]string

	PingFunc func(ctx context.Context) error
	GetFunc  func(ctx context.Context, key string) (string, bool, error)
	SetFunc  func(ctx context.Context, key string, value string, expiration time.Duration) error

	// Track calls for testing
	GetCalls   []string
	SetCalls   []SetCall
	CloseCalls int
}

type SetCall struct {
	Key        string
	Value      string
	Expiration time.Duration
}

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)

// NewMockCache creates a new mock cache
func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string]string)}
}

// Ping mocks cache ping
func (m *MockCache) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Set records the call and stores the value
func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value, Expiration: expiration})
	m.mu.Unlock()

	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Get records the call and returns a stored value
func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, key)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Close mocks cache close
func (m *MockCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// SetPingError sets up the mock to return an error on Ping
func (m *MockCache) SetPingError(err error) {
	m.PingFunc = func(ctx context.Context) error {
		return err
	}
}
