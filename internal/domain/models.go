package domain

import "time"

// Answer is one option of a multiple-choice question.
type Answer struct {
	ID      int    `json:"answerId" bson:"answerId"`
	Text    string `json:"answer" bson:"answer"`
	Colour  string `json:"colour,omitempty" bson:"colour,omitempty"`
	Correct bool   `json:"correct" bson:"correct"`
}

// Question models a timed multiple-choice question. Duration is in seconds.
type Question struct {
	ID       int      `json:"questionId" bson:"questionId"`
	Text     string   `json:"question" bson:"question"`
	Duration int      `json:"duration" bson:"duration"`
	Points   int      `json:"points" bson:"points"`
	Answers  []Answer `json:"answers" bson:"answers"`
}

// CorrectIDs returns the ids of answers flagged correct, in question order.
func (q Question) CorrectIDs() []int {
	ids := make([]int, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.Correct {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// HasAnswer reports whether id is one of the question's answers.
func (q Question) HasAnswer(id int) bool {
	for _, a := range q.Answers {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Quiz is an ordered collection of questions. It is read-only to the engine.
type Quiz struct {
	ID          int        `json:"quizId" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description" bson:"description"`
	Questions   []Question `json:"questions" bson:"questions"`
}

// NumQuestions returns the number of questions in the quiz.
func (q Quiz) NumQuestions() int {
	return len(q.Questions)
}

// QuestionAt returns the question at a 1-based position.
func (q Quiz) QuestionAt(position int) (Question, bool) {
	if position < 1 || position > len(q.Questions) {
		return Question{}, false
	}
	return q.Questions[position-1], true
}

// Player is an anonymous participant scoped to one session.
type Player struct {
	ID   int    `json:"playerId"`
	Name string `json:"name"`
}

// PlayerAnswer is the latest submission of a player for a question.
type PlayerAnswer struct {
	PlayerID       int    `json:"playerId"`
	PlayerName     string `json:"playerName"`
	QuestionID     int    `json:"questionId"`
	AnswerIDs      []int  `json:"answerIds"`
	SubmissionTime int    `json:"submissionTime"`
	Correct        bool   `json:"correct"`
}

// SessionSnapshot is a point-in-time copy of a session, safe to share and serialize.
type SessionSnapshot struct {
	ID               int            `json:"sessionId"`
	QuizID           int            `json:"quizId"`
	HostID           int            `json:"hostId"`
	State            SessionState   `json:"state"`
	AtQuestion       int            `json:"atQuestion"`
	NumQuestions     int            `json:"numQuestions"`
	AutoStartNum     int            `json:"autoStartNum"`
	QuestionOpenTime time.Time      `json:"questionOpenTime"`
	Players          []Player       `json:"players"`
	Answers          []PlayerAnswer `json:"answers"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// PlayerIDs lists the ids of every joined player.
func (s SessionSnapshot) PlayerIDs() []int {
	ids := make([]int, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.ID
	}
	return ids
}

// PlayerStatus is what a player sees when polling their session.
type PlayerStatus struct {
	State        SessionState `json:"state"`
	NumQuestions int          `json:"numQuestions"`
	AtQuestion   int          `json:"atQuestion"`
}

// SessionStatus is the host view of a session.
type SessionStatus struct {
	SessionID    int          `json:"sessionId"`
	State        SessionState `json:"state"`
	AtQuestion   int          `json:"atQuestion"`
	Players      []string     `json:"players"`
	QuizID       int          `json:"quizId"`
	QuizName     string       `json:"name"`
	NumQuestions int          `json:"numQuestions"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// SessionList groups session ids of a quiz by activity.
type SessionList struct {
	Active   []int `json:"activeSessions"`
	Inactive []int `json:"inactiveSessions"`
}

// AnswerInfo is an answer option without its correctness flag.
type AnswerInfo struct {
	ID     int    `json:"answerId"`
	Text   string `json:"answer"`
	Colour string `json:"colour,omitempty"`
}

// QuestionInfo is the player-facing view of the current question.
type QuestionInfo struct {
	ID       int          `json:"questionId"`
	Text     string       `json:"question"`
	Duration int          `json:"duration"`
	Points   int          `json:"points"`
	Answers  []AnswerInfo `json:"answers"`
}

// CorrectBreakdown lists the fully-correct players that chose one correct answer.
type CorrectBreakdown struct {
	AnswerID       int      `json:"answerId"`
	PlayersCorrect []string `json:"playersCorrect"`
}

// QuestionResults aggregates the recorded answers for one question.
type QuestionResults struct {
	QuestionID        int                `json:"questionId"`
	Breakdown         []CorrectBreakdown `json:"questionCorrectBreakdown"`
	AverageAnswerTime int                `json:"averageAnswerTime"`
	PercentCorrect    int                `json:"percentCorrect"`
}

// RankEntry is one row of the rank-by-score leaderboard.
type RankEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FinalResults is returned once a session reaches FINAL_RESULTS.
type FinalResults struct {
	UsersRankedByScore []RankEntry       `json:"usersRankedByScore"`
	QuestionResults    []QuestionResults `json:"questionResults"`
}
