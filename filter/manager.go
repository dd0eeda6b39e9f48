package filter

import (
	"fmt"
	"slices"
	"sync"
)

const defaultCacheSize = 64

// Manager holds named filters and compiles ad-hoc expressions on demand
type Manager struct {
	filters map[string]*Filter
	cache   *lruCache[*Filter]
	opts    []Option
	mu      sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCacheSize sets how many ad-hoc expressions stay compiled
func WithCacheSize(size int) ManagerOption {
	return func(m *Manager) {
		m.cache = newLRUCache[*Filter](size)
	}
}

// WithCompileOptions sets the options every expression is compiled with
func WithCompileOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.opts = opts
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		filters: make(map[string]*Filter),
		cache:   newLRUCache[*Filter](defaultCacheSize),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RegisterFilter registers a new filter or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := Compile(expression, m.opts...)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()

	return nil
}

// RegisterFilters registers multiple filters at once. Nothing is registered
// unless every expression compiles.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]*Filter, len(filters))

	for name, expression := range filters {
		filter, err := Compile(expression, m.opts...)
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[name] = filter
	}

	m.mu.Lock()
	for name, filter := range compiled {
		m.filters[name] = filter
	}
	m.mu.Unlock()

	return nil
}

// GetFilter returns a registered filter by name
func (m *Manager) GetFilter(name string) (*Filter, bool) {
	m.mu.RLock()
	filter, exists := m.filters[name]
	m.mu.RUnlock()
	return filter, exists
}

// ListFilters returns all registered filter names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.filters))
	for name := range m.filters {
		names = append(names, name)
	}
	m.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Resolve returns the registered filter called nameOrExpression, or compiles
// it as an expression when no such filter exists. An empty argument yields a
// nil filter, which matches everything.
func (m *Manager) Resolve(nameOrExpression string) (*Filter, error) {
	if nameOrExpression == "" {
		return nil, nil
	}
	if filter, ok := m.GetFilter(nameOrExpression); ok {
		return filter, nil
	}
	if filter, ok := m.cache.Get(nameOrExpression); ok {
		return filter, nil
	}

	filter, err := Compile(nameOrExpression, m.opts...)
	if err != nil {
		return nil, err
	}
	m.cache.Put(nameOrExpression, filter)
	return filter, nil
}
