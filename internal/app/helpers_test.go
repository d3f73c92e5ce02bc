package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

// manualScheduler holds timers until the test fires them.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	sched   *manualScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) app.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{sched: s, d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// Pending counts timers that were neither stopped nor fired.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Last returns the most recently armed timer.
func (s *manualScheduler) Last() *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// FireNext runs the oldest pending timer and reports whether there was one.
func (s *manualScheduler) FireNext() bool {
	s.mu.Lock()
	var next *manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type transition struct {
	from, to domain.SessionState
	cause    string
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []transition
	joined      int
	answers     int
	stale       int
}

func (o *recordingObserver) SessionStarted(int) {}

func (o *recordingObserver) StateChanged(from, to domain.SessionState, cause string) {
	o.mu.Lock()
	o.transitions = append(o.transitions, transition{from: from, to: to, cause: cause})
	o.mu.Unlock()
}

func (o *recordingObserver) PlayerJoined() {
	o.mu.Lock()
	o.joined++
	o.mu.Unlock()
}

func (o *recordingObserver) AnswerSubmitted(bool) {
	o.mu.Lock()
	o.answers++
	o.mu.Unlock()
}

func (o *recordingObserver) StaleTimer() {
	o.mu.Lock()
	o.stale++
	o.mu.Unlock()
}

func (o *recordingObserver) staleCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stale
}

func (o *recordingObserver) lastTransition() transition {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.transitions) == 0 {
		return transition{}
	}
	return o.transitions[len(o.transitions)-1]
}

type capturedLeaderboard struct {
	mu        sync.Mutex
	sessionID int
	entries   []domain.RankEntry
	calls     int
}

func (c *capturedLeaderboard) PublishLeaderboard(_ context.Context, sessionID int, entries []domain.RankEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.entries = entries
	c.calls++
	return nil
}

type harness struct {
	engine   *app.Engine
	sched    *manualScheduler
	clock    *fakeClock
	observer *recordingObserver
	store    *memory.SessionStore
}

func newHarness(t *testing.T, configure func(*app.Options)) *harness {
	t.Helper()
	h := &harness{
		sched:    &manualScheduler{},
		clock:    &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
		observer: &recordingObserver{},
		store:    memory.NewSessionStore(),
	}
	opts := app.DefaultOptions()
	opts.Scheduler = h.sched
	opts.Now = h.clock.Now
	opts.Observer = h.observer
	if configure != nil {
		configure(&opts)
	}
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(testQuizzes()), time.Minute)
	h.engine = app.NewEngine(h.store, quizzes, opts)
	t.Cleanup(h.engine.Close)
	return h
}

const (
	quizSingle = 1
	quizMulti  = 2
	quizPair   = 3
	quizEmpty  = 4
)

func testQuizzes() map[int]domain.Quiz {
	return map[int]domain.Quiz{
		quizSingle: {
			ID:   quizSingle,
			Name: "Single",
			Questions: []domain.Question{
				{ID: 100, Text: "Pick zero", Duration: 5, Points: 5, Answers: []domain.Answer{
					{ID: 0, Text: "zero", Correct: true},
					{ID: 1, Text: "one"},
					{ID: 2, Text: "two"},
					{ID: 3, Text: "three"},
				}},
			},
		},
		quizMulti: {
			ID:   quizMulti,
			Name: "Multi",
			Questions: []domain.Question{
				{ID: 200, Text: "First", Duration: 10, Points: 4, Answers: []domain.Answer{
					{ID: 1, Text: "a", Correct: true},
					{ID: 2, Text: "b"},
				}},
				{ID: 201, Text: "Second", Duration: 20, Points: 6, Answers: []domain.Answer{
					{ID: 3, Text: "c"},
					{ID: 4, Text: "d", Correct: true},
				}},
			},
		},
		quizPair: {
			ID:   quizPair,
			Name: "Pair",
			Questions: []domain.Question{
				{ID: 300, Text: "Both", Duration: 10, Points: 3, Answers: []domain.Answer{
					{ID: 1, Text: "x", Correct: true},
					{ID: 2, Text: "y", Correct: true},
					{ID: 3, Text: "z"},
				}},
			},
		},
		quizEmpty: {ID: quizEmpty, Name: "Empty"},
	}
}

func (h *harness) start(t *testing.T, quizID, autoStartNum int) int {
	t.Helper()
	id, err := h.engine.StartSession(context.Background(), 1, quizID, autoStartNum)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return id
}

func (h *harness) join(t *testing.T, sessionID int, name string) int {
	t.Helper()
	id, err := h.engine.Join(context.Background(), sessionID, name)
	if err != nil {
		t.Fatalf("join %q: %v", name, err)
	}
	return id
}

func (h *harness) act(t *testing.T, sessionID int, actions ...domain.Action) {
	t.Helper()
	for _, a := range actions {
		if err := h.engine.Action(context.Background(), sessionID, a); err != nil {
			t.Fatalf("action %s: %v", a, err)
		}
	}
}

func (h *harness) submit(t *testing.T, playerID, position int, ids ...int) {
	t.Helper()
	if err := h.engine.SubmitAnswer(context.Background(), playerID, position, ids); err != nil {
		t.Fatalf("submit %v for player %d: %v", ids, playerID, err)
	}
}

func (h *harness) state(t *testing.T, sessionID int) domain.SessionState {
	t.Helper()
	status, err := h.engine.SessionStatus(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	return status.State
}

// openQuestion takes a fresh session to QUESTION_OPEN on its first question.
func (h *harness) openQuestion(t *testing.T, sessionID int) {
	t.Helper()
	h.act(t, sessionID, domain.ActionNextQuestion, domain.ActionSkipCountdown)
}
