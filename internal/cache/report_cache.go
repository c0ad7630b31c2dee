package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"simulados/internal/model"
)

// ReportCache keeps recently finalized reports for stats views
type ReportCache interface {
	Set(ctx context.Context, report *model.PerformanceReport) error
	Get(ctx context.Context, attemptID string) (*model.PerformanceReport, error)
	Delete(ctx context.Context, attemptID string) error
}

type reportCache struct {
	client *redis.Client
}

func NewReportCache(client *redis.Client) ReportCache {
	return &reportCache{
		client: client,
	}
}

func (c *reportCache) Set(ctx context.Context, report *model.PerformanceReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "report:"+report.ID, data, 24*time.Hour).Err()
}

func (c *reportCache) Get(ctx context.Context, attemptID string) (*model.PerformanceReport, error) {
	data, err := c.client.Get(ctx, "report:"+attemptID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.PerformanceReport
	err = json.Unmarshal([]byte(data), &report)
	return &report, err
}

func (c *reportCache) Delete(ctx context.Context, attemptID string) error {
	return c.client.Del(ctx, "report:"+attemptID).Err()
}
