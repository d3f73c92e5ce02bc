package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"quiz-session-service/internal/domain"
)

// trigger is a host action or the internal timer trigger.
type trigger domain.Action

const triggerTimer trigger = "TIMER"

var errStaleTimer = errors.New("stale timer")

// transitions is the session state machine. Missing entries are invalid actions.
var transitions = map[domain.SessionState]map[trigger]domain.SessionState{
	domain.StateLobby: {
		trigger(domain.ActionNextQuestion): domain.StateQuestionCountdown,
		trigger(domain.ActionEnd):          domain.StateEnd,
	},
	domain.StateQuestionCountdown: {
		triggerTimer:                        domain.StateQuestionOpen,
		trigger(domain.ActionSkipCountdown): domain.StateQuestionOpen,
		trigger(domain.ActionEnd):           domain.StateEnd,
	},
	domain.StateQuestionOpen: {
		triggerTimer:                     domain.StateQuestionClose,
		trigger(domain.ActionGoToAnswer): domain.StateAnswerShow,
		trigger(domain.ActionEnd):        domain.StateEnd,
	},
	domain.StateQuestionClose: {
		trigger(domain.ActionNextQuestion):     domain.StateQuestionCountdown,
		trigger(domain.ActionGoToAnswer):       domain.StateAnswerShow,
		trigger(domain.ActionGoToFinalResults): domain.StateFinalResults,
		trigger(domain.ActionEnd):              domain.StateEnd,
	},
	domain.StateAnswerShow: {
		trigger(domain.ActionNextQuestion):     domain.StateQuestionCountdown,
		trigger(domain.ActionGoToFinalResults): domain.StateFinalResults,
		trigger(domain.ActionEnd):              domain.StateEnd,
	},
	domain.StateFinalResults: {
		trigger(domain.ActionEnd): domain.StateEnd,
	},
	domain.StateEnd: {},
}

// transitionLocked is the single entry point for every phase change, whether it
// comes from the host, a timer or auto-start. The caller holds s.mu.
func (e *Engine) transitionLocked(s *Session, t trigger, cause string) error {
	from := s.state
	to, ok := transitions[from][t]
	if !ok {
		return domain.ErrInvalidAction
	}

	switch to {
	case domain.StateQuestionCountdown:
		if s.atQuestion >= s.quiz.NumQuestions() {
			return domain.ErrNoMoreQuestions
		}
		s.atQuestion++
		e.armLocked(s, e.countdown, domain.StateQuestionCountdown)
	case domain.StateQuestionOpen:
		question, _ := s.quiz.QuestionAt(s.atQuestion)
		s.questionOpenTime = e.now()
		e.armLocked(s, seconds(question.Duration), domain.StateQuestionOpen)
	case domain.StateQuestionClose:
		s.cancelTimerLocked()
	case domain.StateAnswerShow:
		s.cancelTimerLocked()
	case domain.StateFinalResults:
		s.cancelTimerLocked()
		s.emit(event{kind: eventLeaderboard, sessionID: s.id, ranking: e.rankByScoreLocked(s)})
	case domain.StateEnd:
		s.cancelTimerLocked()
		s.atQuestion = 0
	}

	s.state = to
	s.emit(event{kind: eventStateChanged, sessionID: s.id, from: from, to: to, cause: cause})
	return nil
}

// fire runs when a session timer elapses. A firing that was superseded, or that
// finds the session in a different state than it was armed for, does nothing.
func (e *Engine) fire(sessionID int, gen uint64, expect domain.SessionState) {
	if e.closed.Load() {
		return
	}
	session, ok := e.sessions.Get(sessionID)
	if !ok {
		return
	}
	err := e.update(context.Background(), session, func() error {
		if session.timerGen != gen || session.state != expect {
			session.emit(event{kind: eventStaleTimer, sessionID: sessionID})
			return errStaleTimer
		}
		session.timer = nil
		return e.transitionLocked(session, triggerTimer, causeTimer)
	})
	if err != nil && !errors.Is(err, errStaleTimer) {
		e.log.Warn("timer transition failed", zap.Int("session_id", sessionID), zap.Error(err))
	}
}
