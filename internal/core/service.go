package core

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// Service shares one immutable base table across independently owned
// sessions. Session state lives only in memory and is discarded on expiry;
// nothing is persisted across sessions.
type Service struct {
	base Table

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewService constructs a service around the loaded base table.
func NewService(base Table) *Service {
	return &Service{
		base:     base,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Base returns the shared immutable dataset.
func (s *Service) Base() Table { return s.base }

// Session returns the session for id, creating one with default filters when
// the id is unknown or empty. A newly minted id is returned alongside.
func (s *Service) Session(id string) (*Session, string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if session, ok := s.sessions[id]; ok {
			session.touch(now)
			return session, id
		}
	}
	id = newID()
	session := newSession(s.base, now)
	s.sessions[id] = session
	sessionsActive.Set(float64(len(s.sessions)))
	return session, id
}

// PruneIdle drops sessions idle for longer than maxAge and reports how many
// were removed.
func (s *Service) PruneIdle(maxAge time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.idleSince(now) > maxAge {
			delete(s.sessions, id)
			removed++
		}
	}
	sessionsActive.Set(float64(len(s.sessions)))
	return removed
}

// SessionCount reports the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SetClock overrides the time source for tests and returns a restore
// function.
func (s *Service) SetClock(now func() time.Time) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.now
	s.now = now
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.now = prev
	}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
