// Package theme holds the site-wide colour scheme and resolves the scheme a
// visitor should see.
package theme

import (
	"strings"
	"sync"
)

// Theme is a colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// CookieName stores a visitor's explicit preference.
const CookieName = "theme"

// Parse accepts "light" or "dark" in any case.
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string { return string(t) }

var (
	mu        sync.RWMutex
	current   = Dark
	observers = map[int]func(Theme){}
	nextID    int
)

// Init sets the process-wide theme from a persisted preference, falling
// back to fallback when the preference is missing or invalid.
func Init(persisted string, fallback Theme) Theme {
	t, ok := Parse(persisted)
	if !ok {
		t = fallback
	}
	Set(t)
	return t
}

// Current returns the process-wide theme.
func Current() Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set changes the process-wide theme and notifies observers when it
// actually changed. It is the only way the value is mutated.
func Set(t Theme) {
	if _, ok := Parse(string(t)); !ok {
		return
	}
	mu.Lock()
	if current == t {
		mu.Unlock()
		return
	}
	current = t
	fns := make([]func(Theme), 0, len(observers))
	for _, fn := range observers {
		fns = append(fns, fn)
	}
	mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}

// Observe registers fn for theme changes. The returned func unregisters it.
func Observe(fn func(Theme)) (cancel func()) {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	observers[id] = fn
	return func() {
		mu.Lock()
		defer mu.Unlock()
		delete(observers, id)
	}
}

// Resolve picks a visitor's theme: explicit cookie preference first, then
// the Sec-CH-Prefers-Color-Scheme client hint, then the site default.
func Resolve(cookie, hint string) Theme {
	if t, ok := Parse(cookie); ok {
		return t
	}
	if t, ok := Parse(hint); ok {
		return t
	}
	return Current()
}
