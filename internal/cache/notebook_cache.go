package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NotebookCache mirrors each user's notebook question-id set and
// publishes a notification on every change.
type NotebookCache interface {
	SetIDs(ctx context.Context, userID string, ids []string) error
	// GetIDs returns ok=false when the set is not cached
	GetIDs(ctx context.Context, userID string) (ids []string, ok bool, err error)
	Invalidate(ctx context.Context, userID string) error
	Publish(ctx context.Context, userID string) error
	// Changes delivers one value per published change until ctx is done
	Changes(ctx context.Context, userID string) (<-chan struct{}, error)
}

type notebookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNotebookCache creates a new notebook cache
func NewNotebookCache(client *redis.Client) NotebookCache {
	return &notebookCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *notebookCache) idsKey(userID string) string {
	return fmt.Sprintf("notebook:%s:ids", userID)
}

func (c *notebookCache) presentKey(userID string) string {
	return fmt.Sprintf("notebook:%s:cached", userID)
}

func (c *notebookCache) channel(userID string) string {
	return fmt.Sprintf("notebook:%s:changes", userID)
}

func (c *notebookCache) SetIDs(ctx context.Context, userID string, ids []string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.idsKey(userID))
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, c.idsKey(userID), members...)
		pipe.Expire(ctx, c.idsKey(userID), c.ttl)
	}
	// Empty sets do not exist in Redis, so presence is tracked separately
	pipe.Set(ctx, c.presentKey(userID), 1, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *notebookCache) GetIDs(ctx context.Context, userID string) ([]string, bool, error) {
	n, err := c.client.Exists(ctx, c.presentKey(userID)).Result()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	ids, err := c.client.SMembers(ctx, c.idsKey(userID)).Result()
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (c *notebookCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.idsKey(userID), c.presentKey(userID)).Err()
}

func (c *notebookCache) Publish(ctx context.Context, userID string) error {
	return c.client.Publish(ctx, c.channel(userID), "changed").Err()
}

func (c *notebookCache) Changes(ctx context.Context, userID string) (<-chan struct{}, error) {
	sub := c.client.Subscribe(ctx, c.channel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default: // a change is already pending
				}
			}
		}
	}()
	return out, nil
}
