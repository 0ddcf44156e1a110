package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaama/inventorypacer/internal/core/domain"
)

// Client wraps Redis operations for run coordination and alert debouncing.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func runLockKey(storeID domain.StoreID, date string) string {
	return fmt.Sprintf("pacer:run:%s:%s", storeID, date)
}

func alertedKey(storeID domain.StoreID, date string) string {
	return fmt.Sprintf("pacer:alerted:%s:%s", storeID, date)
}

func countsKey(storeID domain.StoreID) string {
	return fmt.Sprintf("pacer:counts:%s", storeID)
}

// AcquireRunLock attempts to acquire the per-store daily run lock. Only one
// instance should be scanning a store for a given date at a time.
func (c *Client) AcquireRunLock(
	ctx context.Context,
	storeID domain.StoreID,
	date string,
	ttl time.Duration,
) (bool, error) {
	key := runLockKey(storeID, date)
	ok, err := c.rdb.SetNX(ctx, key, "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseRunLock releases the per-store daily run lock.
func (c *Client) ReleaseRunLock(ctx context.Context, storeID domain.StoreID, date string) error {
	key := runLockKey(storeID, date)
	return c.rdb.Del(ctx, key).Err()
}

// RefreshRunLock extends the TTL of a run lock held by a long scan.
func (c *Client) RefreshRunLock(
	ctx context.Context,
	storeID domain.StoreID,
	date string,
	ttl time.Duration,
) error {
	key := runLockKey(storeID, date)
	return c.rdb.Expire(ctx, key, ttl).Err()
}

// MarkAlerted records that an alert went out for a store and date. Returns
// false if an alert was already recorded within the TTL window.
func (c *Client) MarkAlerted(
	ctx context.Context,
	storeID domain.StoreID,
	date string,
	ttl time.Duration,
) (bool, error) {
	key := alertedKey(storeID, date)
	ok, err := c.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ClearAlerted drops the debounce marker so the next imbalance alerts again.
func (c *Client) ClearAlerted(ctx context.Context, storeID domain.StoreID, date string) error {
	key := alertedKey(storeID, date)
	return c.rdb.Del(ctx, key).Err()
}

// CacheCounts stores the latest category counts for a store as a hash.
func (c *Client) CacheCounts(
	ctx context.Context,
	storeID domain.StoreID,
	counts domain.Counts,
	ttl time.Duration,
) error {
	key := countsKey(storeID)
	fields := make(map[string]any, len(counts))
	for cat, n := range counts {
		fields[string(cat)] = n
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache counts: %w", err)
	}
	return nil
}

// GetCachedCounts returns the latest cached counts for a store, if any.
func (c *Client) GetCachedCounts(
	ctx context.Context,
	storeID domain.StoreID,
) (domain.Counts, bool, error) {
	fields, err := c.rdb.HGetAll(ctx, countsKey(storeID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("hgetall failed: %w", err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	counts := make(domain.Counts, len(fields))
	for cat, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false, fmt.Errorf("invalid cached count for %s: %w", cat, err)
		}
		counts[domain.Category(cat)] = n
	}
	return counts, true, nil
}
