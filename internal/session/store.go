package session

import "sync"

// Store is the session storage contract. With is the per-user critical
// section: two events for the same user must not race on the same
// session fields, so all mutation happens inside it.
type Store interface {
	// With runs fn with exclusive access to the user's session,
	// creating it from DefaultSettings if absent. Mutations made by fn
	// are persisted when fn returns.
	With(userID int64, fn func(*Session))

	// Snapshot returns a copy of the user's session for read-only
	// inspection, creating it if absent.
	Snapshot(userID int64) Session
}

// entry pairs a session with its own lock so conversions for one user
// serialize without blocking other users.
type entry struct {
	mu sync.Mutex
	s  Session
}

// MemoryStore is the in-memory Store implementation. Sessions live for
// the process lifetime; there is no eviction.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[int64]*entry)}
}

// lookup returns the user's entry, materializing a new session from
// the default template on first access. The copy is by value so later
// edits to DefaultSettings never leak into existing sessions.
func (m *MemoryStore) lookup(userID int64) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		e = &entry{s: Session{Settings: DefaultSettings}}
		m.entries[userID] = e
	}
	return e
}

// With runs fn under the user's session lock.
func (m *MemoryStore) With(userID int64, fn func(*Session)) {
	e := m.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.s)
}

// Snapshot returns a copy of the user's session.
func (m *MemoryStore) Snapshot(userID int64) Session {
	e := m.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s
}
