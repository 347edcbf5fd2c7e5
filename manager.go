package vecstore

import (
	"fmt"
)

// Manager is a registry of named stores with default-store resolution.
//
// The first store registered becomes the default; it stays the default until
// it is unregistered, at which point the next store in registration order is
// promoted. The Manager is an explicitly constructed object owned by the
// application entry point, not package-level state.
//
// Not safe for concurrent use by multiple goroutines.
type Manager struct {
	stores map[string]VectorStore
	order  []string // registration order; head is the default
	logger *Logger
}

// NewManager creates an empty store registry.
func NewManager(optFns ...Option) *Manager {
	opts := applyOptions(optFns)
	return &Manager{
		stores: make(map[string]VectorStore),
		logger: opts.logger,
	}
}

// Register adds a named store. Registering a name twice fails with
// ErrStoreExists.
func (m *Manager) Register(name string, store VectorStore) error {
	if _, exists := m.stores[name]; exists {
		return fmt.Errorf("%w: %s", ErrStoreExists, name)
	}
	m.stores[name] = store
	m.order = append(m.order, name)
	m.logger.Info("store registered", "name", name, "default", m.order[0])
	return nil
}

// Unregister removes a named store. If it was the default, the
// next-registered store is promoted. Unregistering an unknown name fails
// with ErrStoreNotFound.
func (m *Manager) Unregister(name string) error {
	if _, exists := m.stores[name]; !exists {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	delete(m.stores, name)
	kept := m.order[:0]
	for _, other := range m.order {
		if other != name {
			kept = append(kept, other)
		}
	}
	m.order = kept
	m.logger.Info("store unregistered", "name", name)
	return nil
}

// Get resolves a store by name.
func (m *Manager) Get(name string) (VectorStore, error) {
	store, exists := m.stores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	return store, nil
}

// Default returns the current default store, or ErrNoDefaultStore when the
// registry is empty.
func (m *Manager) Default() (VectorStore, error) {
	if len(m.order) == 0 {
		return nil, ErrNoDefaultStore
	}
	return m.stores[m.order[0]], nil
}

// DefaultName returns the name of the current default store, or "" when the
// registry is empty.
func (m *Manager) DefaultName() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[0]
}

// Names returns the registered store names in registration order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of registered stores.
func (m *Manager) Len() int { return len(m.stores) }
