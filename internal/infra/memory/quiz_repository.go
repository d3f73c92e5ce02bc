package memory

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-session-service/internal/domain"
)

// QuizLoader reads quiz content by numeric id. Postgres, Mongo and the static sample
// map all implement it.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int) (domain.Quiz, error)
}

// QuizRepository is the engine's read-through quiz cache. Each StartSession resolves
// its quiz here and keeps the returned copy for the session's lifetime, so entries
// only need to be fresh enough for the next session. Concurrent misses on one id
// share a single load.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	loads  singleflight.Group

	mu      sync.RWMutex
	entries map[int]quizEntry
}

type quizEntry struct {
	quiz    domain.Quiz
	expires time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[int]quizEntry),
	}
}

// GetQuiz returns a private copy of the quiz. Load errors are not cached.
func (r *QuizRepository) GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error) {
	if quiz, ok := r.lookup(quizID); ok {
		return cloneQuiz(quiz), nil
	}

	v, err, _ := r.loads.Do(strconv.Itoa(quizID), func() (any, error) {
		if quiz, ok := r.lookup(quizID); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		r.store(quizID, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return cloneQuiz(v.(domain.Quiz)), nil
}

func (r *QuizRepository) lookup(quizID int) (domain.Quiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[quizID]
	if !ok || !now.Before(entry.expires) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) store(quizID int, quiz domain.Quiz) {
	expires := r.clock().Add(r.lifetime())
	r.mu.Lock()
	r.entries[quizID] = quizEntry{quiz: quiz, expires: expires}
	r.mu.Unlock()
}

// lifetime is ttl plus up to 10% so quizzes loaded together do not expire together.
func (r *QuizRepository) lifetime() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl + time.Duration(rand.Int64N(int64(r.ttl)/10+1))
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Answers = append([]domain.Answer(nil), question.Answers...)
		questions[i] = question
	}
	q.Questions = questions
	return q
}

// StaticQuizLoader serves a fixed set of quizzes. The server falls back to it when no
// database is configured.
type StaticQuizLoader struct {
	quizzes map[int]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[int]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID int) (domain.Quiz, error) {
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}
