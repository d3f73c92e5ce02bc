package app

import (
	"context"

	"quiz-session-service/internal/domain"
)

// Observer receives engine events after the session lock is released.
type Observer interface {
	SessionStarted(quizID int)
	StateChanged(from, to domain.SessionState, cause string)
	PlayerJoined()
	AnswerSubmitted(correct bool)
	StaleTimer()
}

// LeaderboardPublisher receives the final ranking when a session reaches FINAL_RESULTS.
type LeaderboardPublisher interface {
	PublishLeaderboard(ctx context.Context, sessionID int, entries []domain.RankEntry) error
}

type nopObserver struct{}

func (nopObserver) SessionStarted(int)                                             {}
func (nopObserver) StateChanged(domain.SessionState, domain.SessionState, string) {}
func (nopObserver) PlayerJoined()                                                 {}
func (nopObserver) AnswerSubmitted(bool)                                          {}
func (nopObserver) StaleTimer()                                                   {}

type eventKind int

const (
	eventSessionStarted eventKind = iota
	eventStateChanged
	eventPlayerJoined
	eventAnswerSubmitted
	eventStaleTimer
	eventLeaderboard
)

// Causes of a state change.
const (
	causeHost      = "host"
	causeTimer     = "timer"
	causeAutoStart = "auto_start"
)

type event struct {
	kind      eventKind
	sessionID int
	quizID    int
	from, to  domain.SessionState
	cause     string
	correct   bool
	ranking   []domain.RankEntry
}
