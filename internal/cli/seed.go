package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"quiz-session-service/internal/domain"
	mongostore "quiz-session-service/internal/infra/mongo"
	"quiz-session-service/internal/infra/postgres"
)

type quizUpserter interface {
	Upsert(ctx context.Context, quiz domain.Quiz) error
}

// newSeedCmd loads quiz documents from JSON files into the configured quiz store.
func newSeedCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [quiz.json...]",
		Short: "Load quiz documents into Postgres or MongoDB",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(f)
			if err != nil {
				return err
			}
			defer log.Sync()
			ctx := cmd.Context()

			var store quizUpserter
			switch {
			case cfg.Postgres.URL != "":
				if err := runMigrations(ctx, cfg, log); err != nil {
					return err
				}
				db := openBun(cfg.Postgres.URL)
				defer db.Close()
				store = postgres.NewQuizSeeder(db)
			case cfg.Mongo.URI != "":
				client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
				if err != nil {
					return fmt.Errorf("connect mongo: %w", err)
				}
				defer client.Disconnect(context.WithoutCancel(ctx))
				store = mongostore.NewQuizLoader(client.Database(cfg.Mongo.Database))
			default:
				return fmt.Errorf("seed needs postgres.url or mongo.uri")
			}

			for _, path := range args {
				quizzes, err := readQuizzes(path)
				if err != nil {
					return err
				}
				for _, quiz := range quizzes {
					if err := store.Upsert(ctx, quiz); err != nil {
						return err
					}
					log.Info("quiz seeded", zap.Int("quiz_id", quiz.ID), zap.String("file", path))
				}
			}
			return nil
		},
	}
}

// readQuizzes accepts either a single quiz object or an array of them.
func readQuizzes(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var many []domain.Quiz
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one domain.Quiz
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []domain.Quiz{one}, nil
}
