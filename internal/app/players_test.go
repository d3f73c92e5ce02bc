package app_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"quiz-session-service/internal/domain"
)

var randomNamePattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{3}$`)

func TestJoinRules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	sessionID := h.start(t, quizSingle, 0)

	ann := h.join(t, sessionID, "Ann")
	if _, err := h.engine.Join(ctx, sessionID, "Ann"); !errors.Is(err, domain.ErrPlayerNameTaken) {
		t.Fatalf("expected name taken, got %v", err)
	}
	if _, err := h.engine.Join(ctx, sessionID+1, "Bob"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}

	bob := h.join(t, sessionID, "Bob")
	if bob <= ann {
		t.Fatalf("expected increasing player ids, got %d then %d", ann, bob)
	}

	h.act(t, sessionID, domain.ActionNextQuestion)
	if _, err := h.engine.Join(ctx, sessionID, "Cat"); !errors.Is(err, domain.ErrSessionNotInLobby) {
		t.Fatalf("expected not in lobby, got %v", err)
	}

	status, err := h.engine.SessionStatus(ctx, sessionID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if fmt.Sprint(status.Players) != "[Ann Bob]" {
		t.Fatalf("expected players in join order, got %v", status.Players)
	}
}

func TestJoinWithoutNameGeneratesOne(t *testing.T) {
	h := newHarness(t, nil)
	sessionID := h.start(t, quizSingle, 0)

	h.join(t, sessionID, "")
	status, err := h.engine.SessionStatus(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	name := status.Players[0]
	if !randomNamePattern.MatchString(name) {
		t.Fatalf("generated name %q has the wrong shape", name)
	}
	seen := make(map[rune]bool)
	for _, r := range name {
		if seen[r] {
			t.Fatalf("generated name %q repeats %q", name, r)
		}
		seen[r] = true
	}
}

func TestPlayerIDsAreUniqueAcrossSessions(t *testing.T) {
	h := newHarness(t, nil)
	first := h.start(t, quizSingle, 0)
	second := h.start(t, quizMulti, 0)

	var (
		mu  sync.Mutex
		ids = make(map[int]bool)
		wg  sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := first
			if i%2 == 1 {
				sessionID = second
			}
			id, err := h.engine.Join(context.Background(), sessionID, fmt.Sprintf("p%d", i))
			if err != nil {
				t.Errorf("join: %v", err)
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	if len(ids) != 20 {
		t.Fatalf("expected 20 distinct player ids, got %d", len(ids))
	}
}

func TestAutoStartOnReachingPlayerCount(t *testing.T) {
	h := newHarness(t, nil)
	sessionID := h.start(t, quizSingle, 2)

	h.join(t, sessionID, "Ann")
	if got := h.state(t, sessionID); got != domain.StateLobby {
		t.Fatalf("expected LOBBY after first join, got %s", got)
	}
	h.join(t, sessionID, "Bob")
	if got := h.state(t, sessionID); got != domain.StateQuestionCountdown {
		t.Fatalf("expected QUESTION_COUNTDOWN after second join, got %s", got)
	}
	if last := h.observer.lastTransition(); last.cause != "auto_start" {
		t.Fatalf("expected auto_start cause, got %q", last.cause)
	}
	if h.sched.Pending() != 1 {
		t.Fatalf("expected countdown timer to be armed")
	}
}

func TestPlayerStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	sessionID := h.start(t, quizMulti, 0)
	playerID := h.join(t, sessionID, "Ann")

	status, err := h.engine.Status(ctx, playerID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != (domain.PlayerStatus{State: domain.StateLobby, NumQuestions: 2, AtQuestion: 0}) {
		t.Fatalf("unexpected status: %+v", status)
	}

	h.openQuestion(t, sessionID)
	status, _ = h.engine.Status(ctx, playerID)
	if status.State != domain.StateQuestionOpen || status.AtQuestion != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if _, err := h.engine.Status(ctx, playerID+100); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
	if got, err := h.engine.SessionOf(playerID); err != nil || got != sessionID {
		t.Fatalf("SessionOf = %d, %v", got, err)
	}
}
