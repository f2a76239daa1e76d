// Package cache stores rendered product list pages so repeated list requests skip the database.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"catalog/internal/query"

	"github.com/redis/go-redis/v9"
)

// ListKeyPrefix prefixes every product list key.
const ListKeyPrefix = "products_list_"

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// ListCache holds serialized list pages.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Invalidate drops every cached list page.
	Invalidate(ctx context.Context) error
}

// ListKey identifies one page of q. Free-text parts are quoted so they cannot be mistaken
// for other segments.
func ListKey(q query.ProductQuery, p query.Page) string {
	f := q.Filter()
	var b strings.Builder
	b.WriteString(ListKeyPrefix)
	fmt.Fprintf(&b, "page_%d_size_%d_sort_%s_%t", p.Number, p.Size, q.SortColumn(), q.Ascending())
	if f.CategoryID != nil {
		fmt.Fprintf(&b, "_category_%s", strconv.Quote(*f.CategoryID))
	}
	if f.Search != nil {
		fmt.Fprintf(&b, "_search_%s", strconv.Quote(strings.ToLower(strings.TrimSpace(*f.Search))))
	}
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "_min_%s", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "_max_%s", f.MaxPrice.String())
	}
	if f.IsFeatured != nil {
		fmt.Fprintf(&b, "_featured_%t", *f.IsFeatured)
	}
	if f.Status != nil {
		fmt.Fprintf(&b, "_status_%s", *f.Status)
	}
	if q.IncludesDeleted() {
		b.WriteString("_deleted")
	}
	return b.String()
}

// RedisCache is a ListCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache whose entries expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Connect parses url and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, ListKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (NopCache) Set(context.Context, string, []byte) error { return nil }

func (NopCache) Invalidate(context.Context) error { return nil }
