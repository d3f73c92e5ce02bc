package app

import (
	"sync"
	"time"

	"quiz-session-service/internal/domain"
)

// Session is the in-memory record of one run of a quiz. Every mutable field is
// guarded by mu; id, quizID, hostID, quiz and autoStartNum never change.
type Session struct {
	id           int
	quizID       int
	hostID       int
	quiz         domain.Quiz
	autoStartNum int
	createdAt    time.Time

	mu               sync.Mutex
	state            domain.SessionState
	atQuestion       int
	questionOpenTime time.Time
	players          []domain.Player
	playerInfo       map[int]string
	answers          []domain.PlayerAnswer
	timer            Timer
	timerGen         uint64
	updatedAt        time.Time
	subscribers      map[chan domain.SessionStatus]struct{}
	events           []event
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, hostID int, quiz domain.Quiz, autoStartNum int) *Session {
	return newSession(id, hostID, quiz, autoStartNum, time.Now())
}

func newSession(id, hostID int, quiz domain.Quiz, autoStartNum int, now time.Time) *Session {
	return &Session{
		id:           id,
		quizID:       quiz.ID,
		hostID:       hostID,
		quiz:         quiz,
		autoStartNum: autoStartNum,
		createdAt:    now,
		state:        domain.StateLobby,
		playerInfo:   make(map[int]string),
		updatedAt:    now,
		subscribers:  make(map[chan domain.SessionStatus]struct{}),
	}
}

func (s *Session) ID() int     { return s.id }
func (s *Session) QuizID() int { return s.quizID }
func (s *Session) HostID() int { return s.hostID }

// State returns the current phase.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	players := make([]domain.Player, len(s.players))
	copy(players, s.players)
	answers := make([]domain.PlayerAnswer, len(s.answers))
	for i, a := range s.answers {
		a.AnswerIDs = append([]int(nil), a.AnswerIDs...)
		answers[i] = a
	}
	return domain.SessionSnapshot{
		ID:               s.id,
		QuizID:           s.quizID,
		HostID:           s.hostID,
		State:            s.state,
		AtQuestion:       s.atQuestion,
		NumQuestions:     s.quiz.NumQuestions(),
		AutoStartNum:     s.autoStartNum,
		QuestionOpenTime: s.questionOpenTime,
		Players:          players,
		Answers:          answers,
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

func (s *Session) statusLocked() domain.SessionStatus {
	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.Name
	}
	return domain.SessionStatus{
		SessionID:    s.id,
		State:        s.state,
		AtQuestion:   s.atQuestion,
		Players:      names,
		QuizID:       s.quizID,
		QuizName:     s.quiz.Name,
		NumQuestions: s.quiz.NumQuestions(),
		UpdatedAt:    s.updatedAt,
	}
}

func (s *Session) subscribe() (<-chan domain.SessionStatus, func()) {
	ch := make(chan domain.SessionStatus, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.statusLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	status := s.statusLocked()
	for ch := range s.subscribers {
		select {
		case ch <- status:
		default:
			// Slow subscriber: drop its oldest update so the latest status always lands.
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}

func (s *Session) closeSubscribersLocked() {
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) emit(ev event) {
	s.events = append(s.events, ev)
}

func (s *Session) drainEventsLocked() []event {
	evs := s.events
	s.events = nil
	return evs
}
