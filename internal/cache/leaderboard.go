package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	// LeaderboardKey is the sorted set holding per-mantri submission progress
	LeaderboardKey = "leaderboard:daily_posts"
)

// Entry is one leaderboard row: an identity and its submission count.
type Entry struct {
	AuthUID    string
	PostsCount int
}

// Leaderboard ranks mantris by daily_posts_count for organizer tooling.
// Using an interface enables testing with mocks.
type Leaderboard interface {
	// SetScore records the current submission count for an identity.
	SetScore(ctx context.Context, authUID string, postsCount int) error

	// Top returns the highest-progress entries, best first.
	Top(ctx context.Context, limit int) ([]Entry, error)

	// Remove drops an identity from the board.
	Remove(ctx context.Context, authUID string) error
}

// RedisLeaderboard implements Leaderboard using a Redis Sorted Set.
type RedisLeaderboard struct {
	client *redis.Client
}

// NewLeaderboard creates a Leaderboard backed by Redis.
func NewLeaderboard(client *redis.Client) Leaderboard {
	return &RedisLeaderboard{client: client}
}

// SetScore writes the absolute count. ZADD overwrites, so replaying events
// out of order converges as long as callers pass the current count.
func (l *RedisLeaderboard) SetScore(ctx context.Context, authUID string, postsCount int) error {
	err := l.client.ZAdd(ctx, LeaderboardKey, redis.Z{
		Score:  float64(postsCount),
		Member: authUID,
	}).Err()
	if err != nil {
		log.Printf("[Leaderboard] SetScore FAILED: uid=%s count=%d err=%v", authUID, postsCount, err)
		return fmt.Errorf("set leaderboard score: %w", err)
	}

	log.Printf("[Leaderboard] SetScore OK: uid=%s count=%d", authUID, postsCount)
	return nil
}

// Top returns up to limit entries ordered by count descending.
func (l *RedisLeaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	results, err := l.client.ZRevRangeWithScores(ctx, LeaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		log.Printf("[Leaderboard] Top FAILED: limit=%d err=%v", limit, err)
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		uid, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{AuthUID: uid, PostsCount: int(z.Score)})
	}
	return entries, nil
}

// Remove drops an identity from the board.
func (l *RedisLeaderboard) Remove(ctx context.Context, authUID string) error {
	if err := l.client.ZRem(ctx, LeaderboardKey, authUID).Err(); err != nil {
		log.Printf("[Leaderboard] Remove FAILED: uid=%s err=%v", authUID, err)
		return fmt.Errorf("remove leaderboard entry: %w", err)
	}
	return nil
}
