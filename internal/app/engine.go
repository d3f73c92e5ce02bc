package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"quiz-session-service/internal/domain"
)

// ErrSessionExists is returned by a SessionRepository when the id is already in use.
var ErrSessionExists = errors.New("session id already in use")

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(sessionID int) (*Session, bool)
	FindByPlayer(playerID int) (*Session, bool)
	// Save records the latest snapshot. It is called with the session lock held.
	Save(ctx context.Context, snapshot domain.SessionSnapshot) error
	ListByQuiz(quizID int) []*Session
	All() []*Session
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error)
}

const maxSessionID = 1<<31 - 1

// Options tunes the engine. Start from DefaultOptions; zero numeric fields fall back to defaults.
type Options struct {
	Countdown         time.Duration
	MaxAutoStartNum   int
	MaxActiveSessions int
	// AllowUnstartedPosition accepts answers while atQuestion is 0 as well as when it
	// matches the submitted position.
	AllowUnstartedPosition bool
	// TieBreakByName orders equal scores by ascending name instead of join order.
	TieBreakByName bool

	Scheduler   Scheduler
	Now         func() time.Time
	IntN        func(n int) int
	Observer    Observer
	Leaderboard LeaderboardPublisher
	Logger      *zap.Logger
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Countdown:              3 * time.Second,
		MaxAutoStartNum:        50,
		MaxActiveSessions:      10,
		AllowUnstartedPosition: true,
	}
}

// Engine runs quiz sessions: phase transitions, timers, joins, answers and results.
type Engine struct {
	sessions SessionRepository
	quizzes  QuizRepository

	countdown              time.Duration
	maxAutoStartNum        int
	maxActiveSessions      int
	allowUnstartedPosition bool
	tieBreakByName         bool

	scheduler   Scheduler
	now         func() time.Time
	intN        func(n int) int
	observer    Observer
	leaderboard LeaderboardPublisher
	log         *zap.Logger

	startMu      sync.Mutex
	nextPlayerID atomic.Int64
	closed       atomic.Bool
}

func NewEngine(sessions SessionRepository, quizzes QuizRepository, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Countdown <= 0 {
		opts.Countdown = def.Countdown
	}
	if opts.MaxAutoStartNum <= 0 {
		opts.MaxAutoStartNum = def.MaxAutoStartNum
	}
	if opts.MaxActiveSessions <= 0 {
		opts.MaxActiveSessions = def.MaxActiveSessions
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IntN == nil {
		opts.IntN = rand.IntN
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		sessions:               sessions,
		quizzes:                quizzes,
		countdown:              opts.Countdown,
		maxAutoStartNum:        opts.MaxAutoStartNum,
		maxActiveSessions:      opts.MaxActiveSessions,
		allowUnstartedPosition: opts.AllowUnstartedPosition,
		tieBreakByName:         opts.TieBreakByName,
		scheduler:              opts.Scheduler,
		now:                    opts.Now,
		intN:                   opts.IntN,
		observer:               opts.Observer,
		leaderboard:            opts.Leaderboard,
		log:                    opts.Logger,
	}
}

// StartSession creates a LOBBY session for a quiz. hostID and quizID are assumed
// to be validated by the caller.
func (e *Engine) StartSession(ctx context.Context, hostID, quizID, autoStartNum int) (int, error) {
	quiz, err := e.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	if autoStartNum < 0 || autoStartNum > e.maxAutoStartNum {
		return 0, domain.ErrAutoStartInvalid
	}
	if quiz.NumQuestions() == 0 {
		return 0, domain.ErrQuizEmpty
	}

	e.startMu.Lock()
	defer e.startMu.Unlock()

	active := 0
	for _, s := range e.sessions.ListByQuiz(quizID) {
		if s.State().Active() {
			active++
		}
	}
	if active >= e.maxActiveSessions {
		return 0, domain.ErrTooManySessions
	}

	var session *Session
	for attempt := 0; attempt < 10; attempt++ {
		candidate := newSession(e.intN(maxSessionID)+1, hostID, quiz, autoStartNum, e.now())
		err := e.sessions.Create(ctx, candidate)
		if errors.Is(err, ErrSessionExists) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("create session: %w", err)
		}
		session = candidate
		break
	}
	if session == nil {
		return 0, fmt.Errorf("create session: no free session id")
	}

	_ = e.update(ctx, session, func() error {
		session.emit(event{kind: eventSessionStarted, sessionID: session.id, quizID: quizID})
		return nil
	})
	e.log.Info("session started",
		zap.Int("session_id", session.id),
		zap.Int("quiz_id", quizID),
		zap.Int("host_id", hostID),
		zap.Int("auto_start_num", autoStartNum),
	)
	return session.id, nil
}

// Action applies a host action to a session.
func (e *Engine) Action(ctx context.Context, sessionID int, action domain.Action) error {
	if _, err := domain.ParseAction(string(action)); err != nil {
		return err
	}
	session, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return e.update(ctx, session, func() error {
		return e.transitionLocked(session, trigger(action), causeHost)
	})
}

// SessionStatus returns the host view of a session.
func (e *Engine) SessionStatus(_ context.Context, sessionID int) (domain.SessionStatus, error) {
	session, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.SessionStatus{}, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.statusLocked(), nil
}

// ListSessions groups the sessions of a quiz into active and ended ones.
func (e *Engine) ListSessions(_ context.Context, quizID int) domain.SessionList {
	list := domain.SessionList{Active: []int{}, Inactive: []int{}}
	for _, s := range e.sessions.ListByQuiz(quizID) {
		if s.State().Active() {
			list.Active = append(list.Active, s.id)
		} else {
			list.Inactive = append(list.Inactive, s.id)
		}
	}
	sort.Ints(list.Active)
	sort.Ints(list.Inactive)
	return list
}

// Subscribe returns a channel that receives status updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (e *Engine) Subscribe(_ context.Context, sessionID int) (<-chan domain.SessionStatus, func(), error) {
	session, ok := e.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// SessionOf resolves the session a player belongs to.
func (e *Engine) SessionOf(playerID int) (int, error) {
	session, ok := e.sessions.FindByPlayer(playerID)
	if !ok {
		return 0, domain.ErrPlayerNotFound
	}
	return session.id, nil
}

// Close cancels every outstanding timer. Timers that already fired become no-ops.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	for _, s := range e.sessions.All() {
		s.mu.Lock()
		s.cancelTimerLocked()
		s.closeSubscribersLocked()
		s.mu.Unlock()
	}
	e.log.Info("engine closed")
}

// update runs fn under the session lock. On success the snapshot is persisted and
// subscribers are notified; queued events are dispatched after the lock is released.
func (e *Engine) update(ctx context.Context, s *Session, fn func() error) error {
	s.mu.Lock()
	err := fn()
	if err == nil {
		s.updatedAt = e.now()
		if saveErr := e.sessions.Save(ctx, s.snapshotLocked()); saveErr != nil {
			e.log.Warn("save session", zap.Int("session_id", s.id), zap.Error(saveErr))
		}
		s.broadcastLocked()
	}
	events := s.drainEventsLocked()
	s.mu.Unlock()

	e.dispatch(ctx, events)
	return err
}

func (e *Engine) dispatch(ctx context.Context, events []event) {
	for _, ev := range events {
		switch ev.kind {
		case eventSessionStarted:
			e.observer.SessionStarted(ev.quizID)
		case eventStateChanged:
			e.observer.StateChanged(ev.from, ev.to, ev.cause)
			e.log.Debug("session transition",
				zap.Int("session_id", ev.sessionID),
				zap.String("from", string(ev.from)),
				zap.String("to", string(ev.to)),
				zap.String("cause", ev.cause),
			)
		case eventPlayerJoined:
			e.observer.PlayerJoined()
		case eventAnswerSubmitted:
			e.observer.AnswerSubmitted(ev.correct)
		case eventStaleTimer:
			e.observer.StaleTimer()
			e.log.Debug("stale timer ignored", zap.Int("session_id", ev.sessionID))
		case eventLeaderboard:
			if e.leaderboard == nil {
				continue
			}
			if err := e.leaderboard.PublishLeaderboard(context.WithoutCancel(ctx), ev.sessionID, ev.ranking); err != nil {
				e.log.Warn("publish leaderboard", zap.Int("session_id", ev.sessionID), zap.Error(err))
			}
		}
	}
}

func (e *Engine) findPlayerSession(playerID int) (*Session, error) {
	session, ok := e.sessions.FindByPlayer(playerID)
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return session, nil
}
