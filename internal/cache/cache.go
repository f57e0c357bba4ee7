package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marketlens/watchstream/internal/config"
	"github.com/marketlens/watchstream/internal/model"
)

// ErrMiss is returned when no cached entry exists for a key.
var ErrMiss = errors.New("cache: miss")

// Cache is a thin layer over Redis for last-known views and ticks.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Dial creates a Redis client from config and verifies the connection.
func Dial(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg.TTL), nil
}

// viewsEntry is the stored form of a watchlist view set.
type viewsEntry struct {
	Target   string              `json:"target"`
	Views    []model.HoldingView `json:"views"`
	CachedAt time.Time           `json:"cached_at"`
}

func viewsKey(target string) string {
	return fmt.Sprintf("views:%s", target)
}

func tickKey(id uuid.UUID) string {
	return fmt.Sprintf("tick:%s", id)
}

// SetViews stores the current view set for a watchlist.
func (c *Cache) SetViews(ctx context.Context, target string, views []model.HoldingView) error {
	entry := viewsEntry{Target: target, Views: views, CachedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal views: %w", err)
	}
	if err := c.client.Set(ctx, viewsKey(target), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set views: %w", err)
	}
	return nil
}

// GetViews returns the last stored view set for a watchlist.
func (c *Cache) GetViews(ctx context.Context, target string) ([]model.HoldingView, error) {
	data, err := c.client.Get(ctx, viewsKey(target)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("get views: %w", err)
	}

	var entry viewsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal views: %w", err)
	}
	return entry.Views, nil
}

// SetTick stores the most recent tick for an instrument.
func (c *Cache) SetTick(ctx context.Context, tick model.PriceTick) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}
	if err := c.client.Set(ctx, tickKey(tick.InstrumentID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set tick: %w", err)
	}
	return nil
}

// GetTick returns the most recent tick stored for an instrument.
func (c *Cache) GetTick(ctx context.Context, id uuid.UUID) (*model.PriceTick, error) {
	data, err := c.client.Get(ctx, tickKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("get tick: %w", err)
	}

	var tick model.PriceTick
	if err := json.Unmarshal(data, &tick); err != nil {
		return nil, fmt.Errorf("unmarshal tick: %w", err)
	}
	return &tick, nil
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
