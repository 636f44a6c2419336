package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value      V
	expiration time.Time
}

// Memory is an in-memory cache with per-item expiration. Reads slide the
// expiration forward when the cache was created with sliding TTLs.
type Memory[V any] struct {
	mu      sync.Mutex
	items   map[string]*item[V]
	ttl     time.Duration
	sliding bool
	onEvict func(key string, value V)
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// Option configures a Memory cache.
type Option[V any] func(*Memory[V])

// WithSliding makes Get extend an item's lifetime by the cache TTL.
func WithSliding[V any]() Option[V] {
	return func(m *Memory[V]) { m.sliding = true }
}

// WithEvict registers fn to run when an item expires.
func WithEvict[V any](fn func(key string, value V)) Option[V] {
	return func(m *Memory[V]) { m.onEvict = fn }
}

// WithClock replaces time.Now.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(m *Memory[V]) { m.now = now }
}

// NewMemory creates a cache whose items live for ttl. A cleanup goroutine
// runs every interval until Stop is called; interval <= 0 disables it.
func NewMemory[V any](ttl, interval time.Duration, opts ...Option[V]) *Memory[V] {
	m := &Memory[V]{
		items: make(map[string]*item[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if interval > 0 {
		go m.cleanupLoop(interval)
	}
	return m
}

// Set stores a value with the cache TTL.
func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = &item[V]{value: value, expiration: m.now().Add(m.ttl)}
}

// Get retrieves a live value.
func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	it, ok := m.items[key]
	if !ok {
		m.mu.Unlock()
		var zero V
		return zero, false
	}
	now := m.now()
	if now.After(it.expiration) {
		delete(m.items, key)
		m.mu.Unlock()
		m.evict(key, it.value)
		var zero V
		return zero, false
	}
	if m.sliding {
		it.expiration = now.Add(m.ttl)
	}
	m.mu.Unlock()
	return it.value, true
}

// GetOrCreate returns the live value for key, storing create() when absent.
func (m *Memory[V]) GetOrCreate(key string, create func() V) (V, bool) {
	if v, ok := m.Get(key); ok {
		return v, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[key]; ok && !m.now().After(it.expiration) {
		return it.value, false
	}
	v := create()
	m.items[key] = &item[V]{value: v, expiration: m.now().Add(m.ttl)}
	return v, true
}

// Len returns the number of stored items, including expired ones not yet
// swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Cleanup removes expired items.
func (m *Memory[V]) Cleanup() {
	m.mu.Lock()
	now := m.now()
	expired := make(map[string]V)
	for key, it := range m.items {
		if now.After(it.expiration) {
			expired[key] = it.value
			delete(m.items, key)
		}
	}
	m.mu.Unlock()

	for key, v := range expired {
		m.evict(key, v)
	}
}

// Stop ends the cleanup goroutine.
func (m *Memory[V]) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory[V]) evict(key string, v V) {
	if m.onEvict != nil {
		m.onEvict(key, v)
	}
}
