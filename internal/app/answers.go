package app

import (
	"context"
	"math"

	"quiz-session-service/internal/domain"
)

// SubmitAnswer records a player's answer to the open question at position. A second
// submission for the same question replaces the first in place.
func (e *Engine) SubmitAnswer(ctx context.Context, playerID, position int, answerIDs []int) error {
	session, err := e.findPlayerSession(playerID)
	if err != nil {
		return err
	}

	return e.update(ctx, session, func() error {
		question, err := e.questionForPlayerLocked(session, position)
		if err != nil {
			return err
		}
		if len(answerIDs) == 0 {
			return domain.ErrNoAnswerSelected
		}
		if session.state != domain.StateQuestionOpen {
			return domain.ErrQuestionNotOpen
		}
		for _, id := range answerIDs {
			if !question.HasAnswer(id) {
				return domain.ErrAnswerNotFound
			}
		}
		seen := make(map[int]struct{}, len(answerIDs))
		for _, id := range answerIDs {
			if _, dup := seen[id]; dup {
				return domain.ErrDuplicateAnswer
			}
			seen[id] = struct{}{}
		}

		record := domain.PlayerAnswer{
			PlayerID:       playerID,
			PlayerName:     session.playerInfo[playerID],
			QuestionID:     question.ID,
			AnswerIDs:      append([]int(nil), answerIDs...),
			SubmissionTime: int(math.Round(e.now().Sub(session.questionOpenTime).Seconds())),
			Correct:        sameSet(seen, question.CorrectIDs()),
		}
		session.recordAnswerLocked(record)
		session.emit(event{kind: eventAnswerSubmitted, sessionID: session.id, correct: record.Correct})
		return nil
	})
}

// QuestionInfo returns the current question without revealing which answers are correct.
func (e *Engine) QuestionInfo(_ context.Context, playerID, position int) (domain.QuestionInfo, error) {
	session, err := e.findPlayerSession(playerID)
	if err != nil {
		return domain.QuestionInfo{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	question, ok := session.quiz.QuestionAt(position)
	if !ok {
		return domain.QuestionInfo{}, domain.ErrQuestionPositionInvalid
	}
	if session.atQuestion != position {
		return domain.QuestionInfo{}, domain.ErrSessionNotOnQuestion
	}
	switch session.state {
	case domain.StateLobby, domain.StateQuestionCountdown, domain.StateFinalResults, domain.StateEnd:
		return domain.QuestionInfo{}, domain.ErrQuestionNotVisible
	}

	answers := make([]domain.AnswerInfo, len(question.Answers))
	for i, a := range question.Answers {
		answers[i] = domain.AnswerInfo{ID: a.ID, Text: a.Text, Colour: a.Colour}
	}
	return domain.QuestionInfo{
		ID:       question.ID,
		Text:     question.Text,
		Duration: question.Duration,
		Points:   question.Points,
		Answers:  answers,
	}, nil
}

// questionForPlayerLocked resolves position against the quiz and the session's
// current question. atQuestion 0 is tolerated when allowUnstartedPosition is set.
func (e *Engine) questionForPlayerLocked(s *Session, position int) (domain.Question, error) {
	question, ok := s.quiz.QuestionAt(position)
	if !ok {
		return domain.Question{}, domain.ErrQuestionPositionInvalid
	}
	if s.atQuestion != position && !(e.allowUnstartedPosition && s.atQuestion == 0) {
		return domain.Question{}, domain.ErrSessionNotOnQuestion
	}
	return question, nil
}

func (s *Session) recordAnswerLocked(record domain.PlayerAnswer) {
	for i := range s.answers {
		if s.answers[i].PlayerID == record.PlayerID && s.answers[i].QuestionID == record.QuestionID {
			s.answers[i] = record
			return
		}
	}
	s.answers = append(s.answers, record)
}

func sameSet(submitted map[int]struct{}, correct []int) bool {
	if len(submitted) != len(correct) {
		return false
	}
	for _, id := range correct {
		if _, ok := submitted[id]; !ok {
			return false
		}
	}
	return true
}
