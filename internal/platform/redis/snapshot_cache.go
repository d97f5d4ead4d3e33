// Package redis caches derived backlog snapshots in Redis.
//
// Snapshots are cheap to recompute, so every failure here is reported to the
// caller, which is expected to fall back to the database.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when no snapshot is cached for the user.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis cannot be reached.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when a snapshot cannot be encoded or decoded.
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

// DefaultKeyPrefix namespaces snapshot keys when none is configured.
const DefaultKeyPrefix = "scry:backlog:"

const dialTimeout = 5 * time.Second

// SnapshotCache stores one backlog snapshot per user with a fixed TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewSnapshotCache connects to Redis and verifies the connection.
func NewSnapshotCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
		MaxRetries:  1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrCacheConnection, err)
	}

	return newSnapshotCache(client, cfg, logger), nil
}

func newSnapshotCache(client *redis.Client, cfg config.RedisConfig, logger *slog.Logger) *SnapshotCache {
	if logger == nil {
		logger = slog.Default()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SnapshotCache{
		client: client,
		ttl:    cfg.SnapshotTTL,
		prefix: prefix,
		logger: logger.With(slog.String("component", "snapshot_cache")),
	}
}

// Key returns the Redis key holding the user's snapshot.
func (c *SnapshotCache) Key(userID uuid.UUID) string {
	return c.prefix + userID.String()
}

// Get returns the cached snapshot or ErrCacheMiss.
func (c *SnapshotCache) Get(ctx context.Context, userID uuid.UUID) (*domain.BacklogSnapshot, error) {
	data, err := c.client.Get(ctx, c.Key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var snap domain.BacklogSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheSerialization, err)
	}
	return &snap, nil
}

// Set stores the snapshot for its user.
func (c *SnapshotCache) Set(ctx context.Context, userID uuid.UUID, snap *domain.BacklogSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, c.Key(userID), data, c.ttl).Err()
}

// Invalidate drops the user's snapshot. Missing keys are not an error.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, c.Key(userID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate snapshot",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}
	return nil
}

// Ping checks that Redis is reachable.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
