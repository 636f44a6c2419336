// Package session keeps one contact form instance per visitor.
package session

import (
	"sync"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/cache"
	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieName holds the visitor's form session id.
const CookieName = "contact_session"

// Toasts queues notifications until the next response picks them up.
type Toasts struct {
	mu      sync.Mutex
	pending []contact.Notification
}

func (t *Toasts) Notify(n contact.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, n)
}

// Drain returns and clears the queued notifications.
func (t *Toasts) Drain() []contact.Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	return out
}

// Form is a visitor's contact form and its toast queue.
type Form struct {
	ID         string
	Controller *contact.Controller
	Toasts     *Toasts
}

// Factory builds a controller that reports to the given notifier.
type Factory func(n contact.Notifier) *contact.Controller

// Store maps session ids to forms. Idle forms expire after the TTL.
type Store struct {
	forms   *cache.Memory[*Form]
	factory Factory
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore creates a store. Expired forms have their controllers closed.
func NewStore(factory Factory, ttl time.Duration, logger *zap.Logger, opts ...Option) *Store {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{factory: factory, logger: logger}
	s.forms = cache.NewMemory[*Form](ttl, time.Minute,
		cache.WithSliding[*Form](),
		cache.WithClock[*Form](o.now),
		cache.WithEvict[*Form](func(id string, f *Form) {
			f.Controller.Close()
			logger.Debug("contact session expired", zap.String("session", id))
		}),
	)
	return s
}

// Get returns the form for id, if it is still live.
func (s *Store) Get(id string) (*Form, bool) {
	if id == "" {
		return nil, false
	}
	return s.forms.Get(id)
}

// Acquire returns the form for id, creating a new session when id is
// unknown or malformed. created reports whether a new id was issued.
func (s *Store) Acquire(id string) (form *Form, created bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	return s.forms.GetOrCreate(id, func() *Form {
		toasts := &Toasts{}
		return &Form{ID: id, Controller: s.factory(toasts), Toasts: toasts}
	})
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	return s.forms.Len()
}

// Close stops the expiry sweep.
func (s *Store) Close() {
	s.forms.Stop()
}
