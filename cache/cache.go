package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/restaurant-backoffice/config"
)

// Slot names where a freshly built projection belongs. It is captured by Get before
// the caller reads the database, so a value computed from rows that an invalidation
// has since replaced lands in a slot no later Get looks at.
type Slot struct {
	ItemCode string
	Version  string
}

// ProjectionCache stores per-item read projections. Implementations must treat a
// missing or undecodable entry as a miss.
type ProjectionCache interface {
	Get(ctx context.Context, itemCode string, dest interface{}) (Slot, bool, error)
	Set(ctx context.Context, slot Slot, value interface{}) error
	// InvalidateItem retires one item's current slot.
	InvalidateItem(ctx context.Context, itemCode string) error
	// InvalidateAll retires every slot, used when a group, option or category link
	// changes and any number of items may be affected.
	InvalidateAll(ctx context.Context) error
}

const (
	keyPrefix = "backoffice:modifiers"
	epochKey  = keyPrefix + ":epoch"
)

// RedisProjectionCache keys every entry on a global epoch and a per-item generation.
// InvalidateAll and InvalidateItem are a single INCR each; entries of retired slots
// are never read again and expire with the TTL.
type RedisProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

func NewRedisProjectionCache(client *redis.Client, ttl time.Duration) *RedisProjectionCache {
	return &RedisProjectionCache{client: client, ttl: ttl}
}

func generationKey(itemCode string) string {
	return keyPrefix + ":gen:" + itemCode
}

func entryKey(slot Slot) string {
	return fmt.Sprintf("%s:%s:item:%s", keyPrefix, slot.Version, slot.ItemCode)
}

// slot reads the epoch and the item generation in one round trip.
func (c *RedisProjectionCache) slot(ctx context.Context, itemCode string) (Slot, error) {
	vals, err := c.client.MGet(ctx, epochKey, generationKey(itemCode)).Result()
	if err != nil {
		return Slot{}, errors.Wrap(err, "read cache generation")
	}
	counter := func(v interface{}) string {
		if s, ok := v.(string); ok {
			return s
		}
		return "0"
	}
	return Slot{ItemCode: itemCode, Version: counter(vals[0]) + "." + counter(vals[1])}, nil
}

func (c *RedisProjectionCache) Get(ctx context.Context, itemCode string, dest interface{}) (Slot, bool, error) {
	slot, err := c.slot(ctx, itemCode)
	if err != nil {
		return Slot{}, false, err
	}
	data, err := c.client.Get(ctx, entryKey(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return slot, false, nil
	}
	if err != nil {
		return slot, false, errors.Wrap(err, "read cached projection")
	}
	if err := sonic.UnmarshalString(data, dest); err != nil {
		return slot, false, errors.Wrap(err, "decode cached projection")
	}
	return slot, true, nil
}

func (c *RedisProjectionCache) Set(ctx context.Context, slot Slot, value interface{}) error {
	if slot.ItemCode == "" || slot.Version == "" {
		return errors.New("set on an unresolved cache slot")
	}
	data, err := sonic.MarshalString(value)
	if err != nil {
		return errors.Wrap(err, "encode projection")
	}
	return errors.Wrap(c.client.Set(ctx, entryKey(slot), data, c.ttl).Err(), "write cached projection")
}

func (c *RedisProjectionCache) InvalidateItem(ctx context.Context, itemCode string) error {
	return errors.Wrap(c.client.Incr(ctx, generationKey(itemCode)).Err(), "bump item generation")
}

func (c *RedisProjectionCache) InvalidateAll(ctx context.Context) error {
	return errors.Wrap(c.client.Incr(ctx, epochKey).Err(), "bump cache epoch")
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(_ context.Context, itemCode string, _ interface{}) (Slot, bool, error) {
	return Slot{ItemCode: itemCode}, false, nil
}
func (Noop) Set(context.Context, Slot, interface{}) error { return nil }
func (Noop) InvalidateItem(context.Context, string) error { return nil }
func (Noop) InvalidateAll(context.Context) error          { return nil }
