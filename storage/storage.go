// Package storage persists shared object data for the player. Backends map
// a shared object name to an opaque encoded blob; the wire codec in this
// package handles the encoding.
package storage

import "sync"

// Backend stores encoded shared object blobs by name.
type Backend interface {
	// Load returns the blob stored under name, with found false when the
	// name has never been stored.
	Load(name string) ([]byte, bool, error)

	// Store writes the blob under name, replacing any previous value.
	Store(name string, data []byte) error

	// Delete removes the blob stored under name. Deleting an absent name
	// is not an error.
	Delete(name string) error

	// Close releases backend resources.
	Close() error
}

// Memory is an in-process backend for hosts without local storage and for
// tests.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *Memory) Store(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.blobs[name] = stored
	return nil
}

func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, name)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
