package fsptrainer

import (
	"sync"
	"time"
)

type storedSession struct {
	mu         sync.Mutex // serialises transitions from double submits
	controller *Controller
	onClose    func()
	lastSeen   time.Time
}

// SessionStore keeps one controller per browser session in memory
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*storedSession
	now      func() time.Time
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*storedSession),
		now:      time.Now,
	}
}

// Add stores a controller under id, replacing any previous one.
// onClose, if not nil, runs when the session is removed or pruned.
func (ss *SessionStore) Add(id string, c *Controller, onClose func()) {
	ss.mu.Lock()
	prev := ss.sessions[id]
	ss.sessions[id] = &storedSession{controller: c, onClose: onClose, lastSeen: ss.now()}
	ss.mu.Unlock()

	if prev != nil && prev.onClose != nil {
		prev.onClose()
	}
}

// Get returns the controller for id and marks it as recently used
func (ss *SessionStore) Get(id string) (*Controller, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = ss.now()
	return s.controller, true
}

// Do runs fn with exclusive access to the controller for id.
// It returns false when the session does not exist.
func (ss *SessionStore) Do(id string, fn func(c *Controller)) bool {
	ss.mu.Lock()
	s, ok := ss.sessions[id]
	if ok {
		s.lastSeen = ss.now()
	}
	ss.mu.Unlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.controller)
	return true
}

// Remove removes a session from the store
func (ss *SessionStore) Remove(id string) {
	ss.mu.Lock()
	s, ok := ss.sessions[id]
	delete(ss.sessions, id)
	ss.mu.Unlock()

	if ok && s.onClose != nil {
		s.onClose()
	}
}

// Prune drops sessions not used for longer than maxIdle and returns how many were dropped
func (ss *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := ss.now().Add(-maxIdle)

	ss.mu.Lock()
	var stale []*storedSession
	for id, s := range ss.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s)
			delete(ss.sessions, id)
		}
	}
	ss.mu.Unlock()

	for _, s := range stale {
		if s.onClose != nil {
			s.onClose()
		}
	}
	if len(stale) > 0 {
		VerboseLog("Pruned %d idle sessions", len(stale))
	}
	return len(stale)
}

// Size returns the number of sessions in the store
func (ss *SessionStore) Size() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
