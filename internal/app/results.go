package app

import (
	"context"
	"math"
	"sort"

	"quiz-session-service/internal/domain"
)

// QuestionResults returns the aggregated answers for the question a player's session
// is showing answers for.
func (e *Engine) QuestionResults(_ context.Context, playerID, position int) (domain.QuestionResults, error) {
	session, err := e.findPlayerSession(playerID)
	if err != nil {
		return domain.QuestionResults{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	question, ok := session.quiz.QuestionAt(position)
	if !ok {
		return domain.QuestionResults{}, domain.ErrQuestionPositionInvalid
	}
	if session.atQuestion != position {
		return domain.QuestionResults{}, domain.ErrSessionNotOnQuestion
	}
	if session.state != domain.StateAnswerShow {
		return domain.QuestionResults{}, domain.ErrResultsNotAvailable
	}
	return questionResultsLocked(session, question), nil
}

// FinalResults returns the leaderboard and every question's results for a session.
func (e *Engine) FinalResults(_ context.Context, sessionID int) (domain.FinalResults, error) {
	session, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.FinalResults{}, domain.ErrSessionNotFound
	}
	return e.finalResults(session)
}

// PlayerFinalResults is FinalResults resolved through a player id.
func (e *Engine) PlayerFinalResults(_ context.Context, playerID int) (domain.FinalResults, error) {
	session, err := e.findPlayerSession(playerID)
	if err != nil {
		return domain.FinalResults{}, err
	}
	return e.finalResults(session)
}

func (e *Engine) finalResults(s *Session) (domain.FinalResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateFinalResults {
		return domain.FinalResults{}, domain.ErrResultsNotAvailable
	}
	results := make([]domain.QuestionResults, 0, s.quiz.NumQuestions())
	for _, q := range s.quiz.Questions {
		results = append(results, questionResultsLocked(s, q))
	}
	return domain.FinalResults{
		UsersRankedByScore: e.rankByScoreLocked(s),
		QuestionResults:    results,
	}, nil
}

// questionResultsLocked computes the breakdown, average time and percentage correct.
// Averages and percentages are taken over every joined player, so non-responders
// count as zero time and as incorrect.
func questionResultsLocked(s *Session, question domain.Question) domain.QuestionResults {
	correctIDs := question.CorrectIDs()
	breakdown := make([]domain.CorrectBreakdown, len(correctIDs))
	index := make(map[int]int, len(correctIDs))
	for i, id := range correctIDs {
		breakdown[i] = domain.CorrectBreakdown{AnswerID: id, PlayersCorrect: []string{}}
		index[id] = i
	}

	var totalTime, correct, answered int
	for _, a := range s.answers {
		if a.QuestionID != question.ID {
			continue
		}
		answered++
		totalTime += a.SubmissionTime
		if !a.Correct {
			continue
		}
		correct++
		for _, id := range a.AnswerIDs {
			if i, ok := index[id]; ok {
				breakdown[i].PlayersCorrect = append(breakdown[i].PlayersCorrect, a.PlayerName)
			}
		}
	}

	result := domain.QuestionResults{QuestionID: question.ID, Breakdown: breakdown}
	if answered == 0 || len(s.players) == 0 {
		return result
	}
	joined := float64(len(s.players))
	result.AverageAnswerTime = int(math.Round(float64(totalTime) / joined))
	result.PercentCorrect = int(math.Round(float64(correct) * 100 / joined))
	return result
}

// rankByScoreLocked splits each question's points among its correct responders in
// submission order: the k-th correct answer earns points/k.
func (e *Engine) rankByScoreLocked(s *Session) []domain.RankEntry {
	scores := make(map[int]float64, len(s.players))
	for _, q := range s.quiz.Questions {
		k := 0
		for _, a := range s.answers {
			if a.QuestionID != q.ID || !a.Correct {
				continue
			}
			k++
			scores[a.PlayerID] += roundTenth(float64(q.Points) / float64(k))
		}
	}

	entries := make([]domain.RankEntry, len(s.players))
	for i, p := range s.players {
		entries[i] = domain.RankEntry{Name: p.Name, Score: roundTenth(scores[p.ID])}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if e.tieBreakByName {
			return entries[i].Name < entries[j].Name
		}
		return false
	})
	return entries
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
