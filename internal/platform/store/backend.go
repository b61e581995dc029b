// Package store implements versioned, notifying list storage for workflow
// records. One Store instance is constructed per domain at startup and
// injected into the owning service; there is no implicit module state.
//
// Persistence is pluggable through the Backend interface. A backend holds one
// opaque JSON envelope per namespace and reports writes made by other
// processes through Watch. The store itself never surfaces persistence
// errors: writes that fail are swallowed and the in-memory state remains the
// source of truth for the current session, unreadable or corrupt stored data
// falls back to the default empty state.
package store

import (
	"context"
	"sync"
)

// Backend is the durable half of a Store. Load returns (nil, nil) when the
// namespace has never been written.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error

	// Watch registers onChange to run whenever another process writes the
	// namespace. The returned stop function releases the watch; backends
	// without external visibility return a no-op stop.
	Watch(onChange func()) (stop func(), err error)

	Close() error
}

// MemoryBackend keeps the envelope in process memory. It is the fallback used
// when no durable backend is configured, and the fixture of choice in tests.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte

	// FailWrites makes Save return an error, for exercising the store's
	// degraded-write path.
	FailWrites bool
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	cp := make([]byte, len(m.data))
	copy(cp, m.data)
	return cp, nil
}

func (m *MemoryBackend) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errWriteUnavailable
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data = cp
	return nil
}

// Watch is a no-op: nothing outside the process can write a memory backend.
func (m *MemoryBackend) Watch(_ func()) (func(), error) {
	return func() {}, nil
}

func (m *MemoryBackend) Close() error { return nil }
