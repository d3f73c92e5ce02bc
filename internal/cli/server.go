package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/config"
	"quiz-session-service/internal/domain"
	mongostore "quiz-session-service/internal/infra/mongo"
	"quiz-session-service/internal/infra/memory"
	pgloader "quiz-session-service/internal/infra/postgres"
	redisstore "quiz-session-service/internal/infra/redis"
	"quiz-session-service/internal/logging"
	"quiz-session-service/internal/metrics"
	transport "quiz-session-service/internal/transport/http"
)

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(f)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

// loadConfig reads the YAML config and applies command-line overrides.
func loadConfig(f *flags) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	if f.port != "" {
		cfg.Server.Port = f.port
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func runServer(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}
	redisTTL := config.Duration(cfg.Redis.TTL, time.Hour)

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		loader = pgloader.NewQuizLoader(pool)
		log.Info("quizzes loaded from postgres")
	case cfg.Mongo.URI != "":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer client.Disconnect(context.WithoutCancel(ctx))
		loader = mongostore.NewQuizLoader(client.Database(cfg.Mongo.Database))
		log.Info("quizzes loaded from mongo", zap.String("database", cfg.Mongo.Database))
	default:
		log.Warn("no quiz store configured, serving the built-in sample quiz")
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var store app.SessionRepository
	var leaderboard app.LeaderboardPublisher
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
		store = redisstore.NewSessionStore(redisClient, redisTTL)
		leaderboard = redisstore.NewLeaderboard(redisClient, redisTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		store = memory.NewSessionStore()
	}

	collector := metrics.NewCollector()
	engine := app.NewEngine(store, quizRepo, app.Options{
		Countdown:              config.Duration(cfg.Engine.Countdown, 3*time.Second),
		MaxAutoStartNum:        cfg.Engine.MaxAutoStartNum,
		MaxActiveSessions:      cfg.Engine.MaxActiveSessions,
		AllowUnstartedPosition: cfg.Engine.AllowUnstartedPosition,
		TieBreakByName:         cfg.Engine.RankTieBreak == config.TieBreakName,
		Observer:               collector,
		Leaderboard:            leaderboard,
		Logger:                 log.Named("engine"),
	})
	defer engine.Close()

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: transport.NewRouter(transport.RouterConfig{
			Engine:    engine,
			Logger:    log.Named("http"),
			Observer:  collector,
			Metrics:   collector.Handler(),
			RateLimit: cfg.HTTP.RateLimit,
			RateBurst: cfg.HTTP.RateBurst,
			PublicURL: cfg.HTTP.PublicURL,
		}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		// Closing the engine first ends open websocket streams.
		engine.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sampleQuizzes is served when neither Postgres nor MongoDB is configured.
func sampleQuizzes() map[int]domain.Quiz {
	return map[int]domain.Quiz{
		1: {
			ID:          1,
			Name:        "Warm-up",
			Description: "A two-question sample quiz",
			Questions: []domain.Question{
				{
					ID:       1,
					Text:     "What is 2 + 2?",
					Duration: 10,
					Points:   5,
					Answers: []domain.Answer{
						{ID: 1, Text: "3", Colour: "red"},
						{ID: 2, Text: "4", Colour: "green", Correct: true},
						{ID: 3, Text: "5", Colour: "blue"},
					},
				},
				{
					ID:       2,
					Text:     "Which of these are primes?",
					Duration: 15,
					Points:   8,
					Answers: []domain.Answer{
						{ID: 4, Text: "2", Colour: "yellow", Correct: true},
						{ID: 5, Text: "4", Colour: "purple"},
						{ID: 6, Text: "7", Colour: "orange", Correct: true},
					},
				},
			},
		},
	}
}
