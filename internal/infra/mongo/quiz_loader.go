package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quiz-session-service/internal/domain"
)

const quizCollection = "quizzes"

// QuizLoader reads quiz documents keyed by numeric _id from MongoDB.
type QuizLoader struct {
	coll *mongo.Collection
}

func NewQuizLoader(db *mongo.Database) *QuizLoader {
	return &QuizLoader{coll: db.Collection(quizCollection)}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.coll.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

// Upsert stores a quiz document under its id, replacing any previous version.
func (l *QuizLoader) Upsert(ctx context.Context, quiz domain.Quiz) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := l.coll.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, quiz, opts); err != nil {
		return fmt.Errorf("upsert quiz %d: %w", quiz.ID, err)
	}
	return nil
}
