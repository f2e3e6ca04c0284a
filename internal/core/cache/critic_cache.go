// Package cache provides a Redis-backed read-through cache for the critic leaderboard.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/redis/go-redis/v9"

	"github.com/duynhne/mflix-service/internal/core/domain"
)

// CriticCache decorates a domain.CommentRepository, caching TopCommenters
// results per limit. Writes that change comment counts invalidate the cache.
// Redis failures are logged and fall through to the wrapped repository.
type CriticCache struct {
	next   domain.CommentRepository
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type Option func(*CriticCache)

// WithTTL sets the lifetime of cached leaderboards.
func WithTTL(ttl time.Duration) Option {
	return func(c *CriticCache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached leaderboards.
func WithPrefix(prefix string) Option {
	return func(c *CriticCache) {
		c.prefix = prefix
	}
}

// NewCriticCache wraps next with a leaderboard cache stored in client.
func NewCriticCache(next domain.CommentRepository, client *redis.Client, opts ...Option) *CriticCache {
	c := &CriticCache{
		next:   next,
		client: client,
		ttl:    time.Minute,
		prefix: "mflix:critics:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CriticCache) key(limit int) string {
	return c.prefix + "top:" + strconv.Itoa(limit)
}

// generationKey counts invalidations. A computed leaderboard is stored only
// if no invalidation happened since its computation started.
func (c *CriticCache) generationKey() string {
	return c.prefix + "gen"
}

func (c *CriticCache) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	return c.next.GetByID(ctx, id)
}

func (c *CriticCache) Create(ctx context.Context, comment domain.Comment) error {
	if err := c.next.Create(ctx, comment); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// UpdateText does not change counts, so cached leaderboards stay valid.
func (c *CriticCache) UpdateText(ctx context.Context, id, email, text string, at time.Time) (bool, error) {
	return c.next.UpdateText(ctx, id, email, text, at)
}

func (c *CriticCache) Delete(ctx context.Context, id, email string) (bool, error) {
	deleted, err := c.next.Delete(ctx, id, email)
	if err == nil && deleted {
		c.invalidate(ctx)
	}
	return deleted, err
}

// TopCommenters serves the leaderboard from Redis, computing and storing it on a miss.
func (c *CriticCache) TopCommenters(ctx context.Context, limit int) ([]domain.Critic, error) {
	if limit <= 0 {
		limit = domain.DefaultCriticLimit
	}
	logger := pkgzerolog.FromContext(ctx)
	key := c.key(limit)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var critics []domain.Critic
		if jsonErr := json.Unmarshal(data, &critics); jsonErr == nil {
			return critics, nil
		}
		logger.Warn().Str("key", key).Msg("Discarding corrupt cached leaderboard")
	case !errors.Is(err, redis.Nil):
		logger.Warn().Err(err).Str("key", key).Msg("Critic cache read failed")
	}

	gen, genErr := c.generation(ctx, c.client)

	critics, err := c.next.TopCommenters(ctx, limit)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		logger.Warn().Err(genErr).Str("key", key).Msg("Critic cache generation read failed")
		return critics, nil
	}
	if err := c.store(ctx, key, gen, critics); err != nil && !errors.Is(err, errStale) {
		logger.Warn().Err(err).Str("key", key).Msg("Critic cache write failed")
	}
	return critics, nil
}

// Refresh recomputes and stores the leaderboard for limit, bypassing any cached value.
// A result overtaken by a concurrent write is dropped without error.
func (c *CriticCache) Refresh(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = domain.DefaultCriticLimit
	}
	gen, err := c.generation(ctx, c.client)
	if err != nil {
		return err
	}
	critics, err := c.next.TopCommenters(ctx, limit)
	if err != nil {
		return err
	}
	if err := c.store(ctx, c.key(limit), gen, critics); err != nil && !errors.Is(err, errStale) {
		return err
	}
	return nil
}

var errStale = errors.New("leaderboard invalidated during computation")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *CriticCache) generation(ctx context.Context, cmd getter) (int64, error) {
	gen, err := cmd.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// store writes critics under key if the generation still equals gen.
func (c *CriticCache) store(ctx context.Context, key string, gen int64, critics []domain.Critic) error {
	data, err := json.Marshal(critics)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, c.generationKey())
	if errors.Is(err, redis.TxFailedErr) {
		return errStale
	}
	return err
}

// invalidate bumps the generation, so in-flight computations are not stored,
// and then drops every cached leaderboard.
func (c *CriticCache) invalidate(ctx context.Context) {
	logger := pkgzerolog.FromContext(ctx)
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		logger.Warn().Err(err).Msg("Critic cache generation bump failed")
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"top:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn().Err(err).Msg("Critic cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn().Err(err).Msg("Critic cache invalidation failed")
	}
}
