package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"simulados/internal/model"
)

// LeaderboardCache handles Redis ZSET operations for per-exam leaderboards.
// Members are attempt ids scored by correct answers; display names live in a side hash.
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, examID, attemptID, userName string, correct int) error
	GetTop(ctx context.Context, examID string, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, examID, attemptID string) (int64, error)
	Size(ctx context.Context, examID string) (int64, error)
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(examID string) string {
	return fmt.Sprintf("exam:%s:lb", examID)
}

func (c *leaderboardCache) namesKey(examID string) string {
	return fmt.Sprintf("exam:%s:lb:names", examID)
}

func (c *leaderboardCache) UpdateScore(ctx context.Context, examID, attemptID, userName string, correct int) error {
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, c.key(examID), redis.Z{
		Score:  float64(correct),
		Member: attemptID,
	})
	pipe.HSet(ctx, c.namesKey(examID), attemptID, userName)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *leaderboardCache) GetTop(ctx context.Context, examID string, limit int) ([]model.LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(examID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	members := make([]string, len(results))
	for i, z := range results {
		members[i] = z.Member.(string)
	}
	names, err := c.client.HMGet(ctx, c.namesKey(examID), members...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = model.LeaderboardEntry{
			AttemptID: members[i],
			Correct:   int(z.Score),
			Rank:      i + 1,
		}
		if name, ok := names[i].(string); ok {
			entries[i].UserName = name
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, examID, attemptID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(examID), attemptID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *leaderboardCache) Size(ctx context.Context, examID string) (int64, error) {
	return c.client.ZCard(ctx, c.key(examID)).Result()
}
