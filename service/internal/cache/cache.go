// Package cache keeps simulation results and game action logs in Redis.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/john-pickett/card-heist-sub000/engine/sim"
	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

const (
	simKeyPrefix    = "heist:sim:"
	actionKeyPrefix = "heist:game:"

	// DefaultTTL is how long a simulation result stays cached.
	DefaultTTL = 24 * time.Hour
)

// SimCache wraps a Redis client. A SimCache with a nil client misses on
// every read and drops every write, so the service runs without Redis.
type SimCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache over client. A ttl of zero uses DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *SimCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SimCache{client: client, ttl: ttl}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*SimCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

// Close closes the underlying client.
func (c *SimCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SimKey derives the cache key of a run from the normalized config, the
// game count and the seed.
func SimKey(cfg sim.Config, n int, seed uint64) (string, error) {
	cfg = cfg.Normalize()
	cfg.Seed = 0
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode sim config: %w", err)
	}
	var tail [16]byte
	binary.BigEndian.PutUint64(tail[:8], uint64(n))
	binary.BigEndian.PutUint64(tail[8:], seed)
	sum := blake2b.Sum256(append(b, tail[:]...))
	return simKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// GetResult looks up a cached run. ok is false on a miss.
func (c *SimCache) GetResult(ctx context.Context, cfg sim.Config, n int, seed uint64) (res sim.Result, ok bool, err error) {
	if c.client == nil {
		return res, false, nil
	}
	key, err := SimKey(cfg, n, seed)
	if err != nil {
		return res, false, err
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return res, false, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return res, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

// PutResult stores a finished run.
func (c *SimCache) PutResult(ctx context.Context, cfg sim.Config, n int, seed uint64, res sim.Result) error {
	if c.client == nil {
		return nil
	}
	key, err := SimKey(cfg, n, seed)
	if err != nil {
		return err
	}
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// ActionKey is the list holding a game's action log.
func ActionKey(rec models.GameActionRecord) string {
	return actionKeyPrefix + rec.GameID.String() + ":actions"
}

// PublishGameAction appends rec to its game's action list.
func (c *SimCache) PublishGameAction(ctx context.Context, rec models.GameActionRecord) error {
	if c.client == nil {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	key := ActionKey(rec)
	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}
