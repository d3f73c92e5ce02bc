package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"quiz-session-service/internal/domain"
)

func TestQuizLoader(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	defer mt.Close()

	mt.Run("decodes quiz document", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + quizCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: 7},
			{Key: "name", Value: "Capitals"},
			{Key: "questions", Value: bson.A{
				bson.D{
					{Key: "questionId", Value: 70},
					{Key: "question", Value: "Capital of France?"},
					{Key: "duration", Value: 10},
					{Key: "points", Value: 3},
					{Key: "answers", Value: bson.A{
						bson.D{{Key: "answerId", Value: 1}, {Key: "answer", Value: "Paris"}, {Key: "correct", Value: true}},
						bson.D{{Key: "answerId", Value: 2}, {Key: "answer", Value: "Lyon"}},
					}},
				},
			}},
		}))

		quiz, err := NewQuizLoader(mt.DB).LoadQuiz(context.Background(), 7)
		if err != nil {
			t.Fatalf("load quiz: %v", err)
		}
		if quiz.ID != 7 || quiz.Name != "Capitals" || quiz.NumQuestions() != 1 {
			t.Fatalf("unexpected quiz: %+v", quiz)
		}
		if ids := quiz.Questions[0].CorrectIDs(); len(ids) != 1 || ids[0] != 1 {
			t.Fatalf("unexpected correct ids: %v", ids)
		}
	})

	mt.Run("missing quiz", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + quizCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewQuizLoader(mt.DB).LoadQuiz(context.Background(), 8)
		if !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected quiz not found, got %v", err)
		}
	})

	mt.Run("upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		if err := NewQuizLoader(mt.DB).Upsert(context.Background(), domain.Quiz{ID: 7, Name: "Capitals"}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	})
}
