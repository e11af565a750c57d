package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/internal/model"
)

type Config struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD" json:"-"`
	DB       int           `envconfig:"REDIS_DB"`
	TTL      time.Duration `envconfig:"STATS_CACHE_TTL" default:"1m"`
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

// StatsCache keeps one serialized dashboard Stats per owner.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

func NewStatsCache(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("stats_cache"),
	}
}

func statsKey(ownerID string) string {
	return "booktracker:stats:" + ownerID
}

// Get reports false on a miss.
func (c *StatsCache) Get(ctx context.Context, ownerID string) (model.Stats, bool, error) {
	val, err := c.client.Get(ctx, statsKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Stats{}, false, nil
		}
		return model.Stats{}, false, errors.Wrap(err, "redis get")
	}
	var stats model.Stats
	if err = json.Unmarshal(val, &stats); err != nil {
		return model.Stats{}, false, errors.Wrap(err, "decode stats")
	}
	return stats, true, nil
}

func (c *StatsCache) Set(ctx context.Context, ownerID string, stats model.Stats) error {
	val, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "encode stats")
	}
	return errors.Wrap(c.client.Set(ctx, statsKey(ownerID), val, c.ttl).Err(), "redis set")
}

func (c *StatsCache) Invalidate(ctx context.Context, ownerID string) error {
	return errors.Wrap(c.client.Del(ctx, statsKey(ownerID)).Err(), "redis del")
}

// Noop is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (model.Stats, bool, error) { return model.Stats{}, false, nil }
func (Noop) Set(context.Context, string, model.Stats) error         { return nil }
func (Noop) Invalidate(context.Context, string) error               { return nil }
