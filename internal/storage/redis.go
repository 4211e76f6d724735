package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

const (
	gameKeyPrefix = "game:"
	lockKeyPrefix = "game-lock:"

	defaultGameTTL = 24 * time.Hour
	defaultLockTTL = 10 * time.Second
	lockRetryDelay = 25 * time.Millisecond
)

// releaseLock deletes the lock only if the caller still owns it.
var releaseLock = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Options tunes a RedisStorage. Zero values select the defaults.
type Options struct {
	DataDir            string
	GameTTL            time.Duration
	LockTTL            time.Duration
	DefaultCharacterID string
}

// RedisStorage implements the Storage interface using Redis for game
// sessions and the filesystem for stories and characters.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
	gameTTL time.Duration
	lockTTL time.Duration
	defChar string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, opts Options, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if opts.DataDir == "" {
		opts.DataDir = "./data"
	}
	if opts.GameTTL <= 0 {
		opts.GameTTL = defaultGameTTL
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: opts.DataDir,
		gameTTL: opts.GameTTL,
		lockTTL: opts.LockTTL,
		defChar: opts.DefaultCharacterID,
	}
}

// Client exposes the underlying Redis client for pub/sub.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// LockGame acquires the per-game lock, polling until it is free or ctx
// ends. The lock expires after the lock TTL so a crashed holder cannot
// block a game forever.
func (r *RedisStorage) LockGame(ctx context.Context, id uuid.UUID) (UnlockFunc, error) {
	key := lockKeyPrefix + id.String()
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
			}
			r.logger.Error("Failed to acquire game lock", "game_id", id, "error", err)
			return nil, fmt.Errorf("failed to acquire game lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}

	return func() {
		// Release even when the request context is already gone.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseLock.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
			r.logger.Error("Failed to release game lock", "game_id", id, "error", err)
		}
	}, nil
}

// LoadRegistry reads the data directory into a registry.
func (r *RedisStorage) LoadRegistry(ctx context.Context) (*story.Registry, error) {
	return LoadRegistry(r.dataDir, r.defChar, r.logger)
}
