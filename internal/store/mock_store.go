package store

import (
	"context"
	"errors"
	"sync"
)

// MockStore keeps key/value pairs in memory. It backs the "memory" driver
// and the tests.
type MockStore struct {
	mu         sync.Mutex
	Data       map[string]string
	ShouldFail bool // flag to simulate failures
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{
		Data: make(map[string]string),
	}
}

func (m *MockStore) Close() {}

// Get returns the value stored under key
func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return "", false, errors.New("mock: get failed")
	}
	v, ok := m.Data[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value
func (m *MockStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: set failed")
	}
	m.Data[key] = value
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: delete failed")
	}
	delete(m.Data, key)
	return nil
}

// Len returns the number of stored keys
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Data)
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("mock store get failed")
}

func (m *MockStoreFail) Set(ctx context.Context, key, value string) error {
	return errors.New("mock store set failed")
}

func (m *MockStoreFail) Delete(ctx context.Context, key string) error {
	return errors.New("mock store delete failed")
}
