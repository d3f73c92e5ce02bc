package app

import (
	"context"

	"quiz-session-service/internal/domain"
)

const (
	nameLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	nameDigits  = "0123456789"
)

// Join adds a player to a session in LOBBY and returns the new player id. An empty
// name is replaced by a random one.
func (e *Engine) Join(ctx context.Context, sessionID int, name string) (int, error) {
	session, ok := e.sessions.Get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}

	var playerID int
	err := e.update(ctx, session, func() error {
		if session.state != domain.StateLobby {
			return domain.ErrSessionNotInLobby
		}
		if name == "" {
			name = e.uniqueRandomNameLocked(session)
		} else if session.hasPlayerNameLocked(name) {
			return domain.ErrPlayerNameTaken
		}

		playerID = int(e.nextPlayerID.Add(1))
		session.players = append(session.players, domain.Player{ID: playerID, Name: name})
		session.playerInfo[playerID] = name
		session.emit(event{kind: eventPlayerJoined, sessionID: session.id})

		if session.autoStartNum > 0 && len(session.players) == session.autoStartNum {
			return e.transitionLocked(session, trigger(domain.ActionNextQuestion), causeAutoStart)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return playerID, nil
}

// Status reports the phase of the session a player belongs to.
func (e *Engine) Status(_ context.Context, playerID int) (domain.PlayerStatus, error) {
	session, err := e.findPlayerSession(playerID)
	if err != nil {
		return domain.PlayerStatus{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return domain.PlayerStatus{
		State:        session.state,
		NumQuestions: session.quiz.NumQuestions(),
		AtQuestion:   session.atQuestion,
	}, nil
}

func (s *Session) hasPlayerNameLocked(name string) bool {
	for _, p := range s.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (e *Engine) uniqueRandomNameLocked(s *Session) string {
	for {
		name := randomName(e.intN)
		if !s.hasPlayerNameLocked(name) {
			return name
		}
	}
}

// randomName builds five distinct uppercase letters followed by three distinct digits.
func randomName(intN func(int) int) string {
	out := make([]byte, 0, 8)
	out = append(out, pickDistinct(nameLetters, 5, intN)...)
	out = append(out, pickDistinct(nameDigits, 3, intN)...)
	return string(out)
}

func pickDistinct(alphabet string, n int, intN func(int) int) []byte {
	pool := []byte(alphabet)
	for i := 0; i < n; i++ {
		j := i + intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
