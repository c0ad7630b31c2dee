package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"simulados/internal/model"
)

// ExamCache is a read-through cache for parent exam descriptors
type ExamCache interface {
	Set(ctx context.Context, userID string, exam *model.Exam) error
	Get(ctx context.Context, userID, examID string) (*model.Exam, error)
	Delete(ctx context.Context, userID, examID string) error
}

type examCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExamCache creates a new exam cache
func NewExamCache(client *redis.Client, ttl time.Duration) ExamCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &examCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *examCache) key(userID, examID string) string {
	if model.IsWeeklyExamID(examID) {
		return fmt.Sprintf("exam:weekly:%s", examID)
	}
	return fmt.Sprintf("exam:%s:%s", userID, examID)
}

func (c *examCache) Set(ctx context.Context, userID string, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID, exam.ID), data, c.ttl).Err()
}

func (c *examCache) Get(ctx context.Context, userID, examID string) (*model.Exam, error) {
	data, err := c.client.Get(ctx, c.key(userID, examID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var exam model.Exam
	if err := json.Unmarshal([]byte(data), &exam); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (c *examCache) Delete(ctx context.Context, userID, examID string) error {
	return c.client.Del(ctx, c.key(userID, examID)).Err()
}
