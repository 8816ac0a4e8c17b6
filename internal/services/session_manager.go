package services

import (
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"prizedraw/internal/models"
)

// OperatorSession holds the state of one browser at the drawing console.
type OperatorSession struct {
	PINVerified bool
	// Pending is the drawn member awaiting a claimed/not-here decision.
	Pending      *models.PendingDraw
	Flashes      []models.Flash
	LastActivity time.Time
}

// SessionManager keeps operator sessions in memory.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*OperatorSession // Key: session ID
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a SessionManager whose sessions expire after ttl
// of inactivity.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionManager{
		sessions: make(map[string]*OperatorSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// getSession returns the session for id, creating one if it doesn't exist.
// Callers must hold s.mu.
func (s *SessionManager) getSession(id string) *OperatorSession {
	session, exists := s.sessions[id]
	if !exists || s.now().Sub(session.LastActivity) > s.ttl {
		session = &OperatorSession{}
		s.sessions[id] = session
	}
	session.LastActivity = s.now()
	return session
}

// Snapshot returns a copy of the session for id.
func (s *SessionManager) Snapshot(id string) OperatorSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := *s.getSession(id)
	session.Flashes = append([]models.Flash(nil), session.Flashes...)
	return session
}

// Update applies fn to the session for id under the manager lock.
func (s *SessionManager) Update(id string, fn func(*OperatorSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.getSession(id))
}

// IsVerified reports whether the operator for id has entered the PIN.
func (s *SessionManager) IsVerified(id string) bool {
	return s.Snapshot(id).PINVerified
}

// MarkVerified records a successful PIN entry.
func (s *SessionManager) MarkVerified(id string) {
	s.Update(id, func(session *OperatorSession) {
		session.PINVerified = true
	})
}

// SetPending stores the draw awaiting resolution, replacing any earlier one.
func (s *SessionManager) SetPending(id string, pending models.PendingDraw) {
	s.Update(id, func(session *OperatorSession) {
		session.Pending = &pending
	})
}

// TakePending removes and returns the pending draw, if any.
func (s *SessionManager) TakePending(id string) (models.PendingDraw, bool) {
	var (
		pending models.PendingDraw
		ok      bool
	)
	s.Update(id, func(session *OperatorSession) {
		if session.Pending != nil {
			pending, ok = *session.Pending, true
			session.Pending = nil
		}
	})
	return pending, ok
}

// AddFlash queues a message for the next rendered page.
func (s *SessionManager) AddFlash(id string, level models.FlashLevel, message string) {
	s.Update(id, func(session *OperatorSession) {
		session.Flashes = append(session.Flashes, models.Flash{Level: level, Message: message})
	})
}

// PopFlashes returns and clears queued messages.
func (s *SessionManager) PopFlashes(id string) []models.Flash {
	var flashes []models.Flash
	s.Update(id, func(session *OperatorSession) {
		flashes = session.Flashes
		session.Flashes = nil
	})
	return flashes
}

// Len returns the number of live sessions.
func (s *SessionManager) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanUpInactiveSessions removes sessions idle for longer than the TTL.
func (s *SessionManager) CleanUpInactiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.now().Sub(session.LastActivity) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Infof("Removed %d inactive operator sessions", removed)
	}
	return removed
}

// ClearSession removes all data associated with a session.
func (s *SessionManager) ClearSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	logger.Infof("Cleared operator session %s", id)
}
