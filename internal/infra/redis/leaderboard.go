package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-service/internal/domain"
)

// Leaderboard stores final rankings in a Redis ZSET per session.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

func (l *Leaderboard) key(sessionID int) string {
	return fmt.Sprintf("quiz:session:%d:leaderboard", sessionID)
}

// PublishLeaderboard replaces the session's leaderboard with entries.
func (l *Leaderboard) PublishLeaderboard(ctx context.Context, sessionID int, entries []domain.RankEntry) error {
	key := l.key(sessionID)
	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: e.Score, Member: e.Name}
	}

	pipe := l.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
