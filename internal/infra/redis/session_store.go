package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live sessions stay in the embedded in-memory store; the engine's locks and
//     timers need the in-process record.
//   - Every save mirrors the snapshot to quiz:session:{id} and indexes each player
//     under quiz:player:{id}, both with the same TTL, so other tooling can read
//     session state.
type SessionStore struct {
	*memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		SessionStore: memory.NewSessionStore(),
		client:       client,
		ttl:          ttl,
	}
}

func (s *SessionStore) Create(ctx context.Context, session *app.Session) error {
	// SETNX claims the id across anything sharing this Redis.
	claimed, err := s.client.SetNX(ctx, sessionKey(session.ID()), "{}", s.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim session id: %w", err)
	}
	if !claimed {
		return app.ErrSessionExists
	}
	return s.SessionStore.Create(ctx, session)
}

func (s *SessionStore) Save(ctx context.Context, snapshot domain.SessionSnapshot) error {
	if err := s.SessionStore.Save(ctx, snapshot); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(snapshot.ID), data, s.ttl)
	for _, id := range snapshot.PlayerIDs() {
		pipe.Set(ctx, playerKey(id), snapshot.ID, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror session: %w", err)
	}
	return nil
}

// LoadSnapshot reads the mirrored snapshot of a session.
func (s *SessionStore) LoadSnapshot(ctx context.Context, sessionID int) (domain.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("load session: %w", err)
	}
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return snapshot, nil
}

func sessionKey(sessionID int) string {
	return "quiz:session:" + strconv.Itoa(sessionID)
}

func playerKey(playerID int) string {
	return "quiz:player:" + strconv.Itoa(playerID)
}
