package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-session-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        int64           `bun:"id,pk"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at"`
}

// QuizSeeder upserts quiz documents. Authoring lives elsewhere; this only loads fixtures.
type QuizSeeder struct {
	db *bun.DB
}

func NewQuizSeeder(db *bun.DB) *QuizSeeder {
	return &QuizSeeder{db: db}
}

func (s *QuizSeeder) Upsert(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz %d: %w", quiz.ID, err)
	}
	row := &quizRow{ID: int64(quiz.ID), Data: data, UpdatedAt: time.Now().UTC()}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert quiz %d: %w", quiz.ID, err)
	}
	return nil
}
