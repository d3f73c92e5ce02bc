package memory

import (
	"context"
	"sync"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Its lock only guards the indexes; sessions carry their own lock.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int]*app.Session
	byPlayer map[int]int
	byQuiz   map[int][]int
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int]*app.Session),
		byPlayer: make(map[int]int),
		byQuiz:   make(map[int][]int),
	}
}

func (s *SessionStore) Create(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID()]; ok {
		return app.ErrSessionExists
	}
	s.sessions[session.ID()] = session
	s.byQuiz[session.QuizID()] = append(s.byQuiz[session.QuizID()], session.ID())
	return nil
}

func (s *SessionStore) Get(sessionID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) FindByPlayer(playerID int) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Save indexes the snapshot's players. The session itself is already the live record.
func (s *SessionStore) Save(_ context.Context, snapshot domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[snapshot.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	for _, p := range snapshot.Players {
		s.byPlayer[p.ID] = snapshot.ID
	}
	return nil
}

func (s *SessionStore) ListByQuiz(quizID int) []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byQuiz[quizID]
	out := make([]*app.Session, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.sessions[id])
	}
	return out
}

func (s *SessionStore) All() []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}
