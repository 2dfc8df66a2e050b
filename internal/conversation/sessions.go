package conversation

import (
	"sync"
	"time"
)

// Session is the conversation record kept for one user.
type Session struct {
	State     State
	StartedAt time.Time
	UpdatedAt time.Time
}

// Sessions maps user ids to their conversation. Safe for concurrent use.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewSessions returns an empty in-memory session table.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// State returns the user's current state, or StateNone without a session.
func (s *Sessions) State(userID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.State
	}
	return StateNone
}

// Get returns a copy of the user's session.
func (s *Sessions) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Set moves the user to st. StateNone and StateTerminated drop the session.
func (s *Sessions) Set(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == StateNone || st == StateTerminated {
		delete(s.sessions, userID)
		return
	}
	now := s.now()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{StartedAt: now}
		s.sessions[userID] = sess
	}
	sess.State = st
	sess.UpdatedAt = now
}

// Restart replaces any existing session with a fresh one in st.
func (s *Sessions) Restart(userID int64, st State) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	s.Set(userID, st)
}

// Len reports the number of active sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reset drops every session.
func (s *Sessions) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[int64]*Session)
}
