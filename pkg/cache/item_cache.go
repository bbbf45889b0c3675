package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ItemCacheTTL is the time-to-live for cached items.
	ItemCacheTTL = 24 * time.Hour

	itemCacheKeyPrefix = "item"
)

// ErrCacheMiss is returned by ItemCache.Get when the key does not exist or has expired.
var ErrCacheMiss = errors.New("cache miss")

// CachedItem is the denormalized read model stored in Redis as a hash.
type CachedItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// setItemScript writes the hash only when the item has not been deleted and
// the stored version is not newer than the incoming one.
//
// KEYS[1] item hash, KEYS[2] delete marker
// ARGV[1] version, ARGV[2] ttl in ms, ARGV[3:] field/value pairs
var setItemScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return 0
end
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV, 3))
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// ItemCache reads and writes item read-model entries.
//
// Writers race: an async warm, the API write path and the event worker may
// all write the same item in any order. Every entry carries a version
// (UpdatedAt in microseconds) and deletes leave a marker, so an older write
// never replaces a newer one and a deleted item is never resurrected.
//
// Key format: "item:{itemID}" and "item:{itemID}:deleted". The braces are a
// cluster hash tag so both keys share a slot.
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached item. Returns ErrCacheMiss when absent.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*CachedItem, error) {
	vals, err := c.client.Client().HGetAll(ctx, itemKey(itemID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrCacheMiss
	}
	return decodeItem(vals)
}

// Set writes a cached item as a Redis hash with a 24-hour TTL. The write is
// skipped, without error, when the cache already holds a newer version or the
// item was deleted. It reports whether the entry was written.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) (bool, error) {
	args := []any{itemVersion(item), ItemCacheTTL.Milliseconds()}
	for field, value := range encodeItem(item) {
		args = append(args, field, value)
	}
	keys := []string{itemKey(item.ID), deletedKey(item.ID)}
	stored, err := setItemScript.Run(ctx, c.client.Client(), keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return stored == 1, nil
}

// MarkDeleted drops the cached item and records the deletion for
// ItemCacheTTL, so later writes for the same id are ignored.
func (c *ItemCache) MarkDeleted(ctx context.Context, itemID uuid.UUID) error {
	_, err := c.client.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, itemKey(itemID))
		pipe.Set(ctx, deletedKey(itemID), "1", ItemCacheTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache mark deleted: %w", err)
	}
	return nil
}

// Delete removes a cached item without recording a deletion; the next Set
// for the id is accepted. Deleting a missing key is not an error.
func (c *ItemCache) Delete(ctx context.Context, itemID uuid.UUID) error {
	if err := c.client.Client().Del(ctx, itemKey(itemID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func itemKey(itemID uuid.UUID) string {
	return itemCacheKeyPrefix + ":{" + itemID.String() + "}"
}

func deletedKey(itemID uuid.UUID) string {
	return itemKey(itemID) + ":deleted"
}

func itemVersion(item *CachedItem) string {
	return strconv.FormatInt(item.UpdatedAt.UnixMicro(), 10)
}

func encodeItem(item *CachedItem) map[string]any {
	return map[string]any{
		"id":         item.ID.String(),
		"name":       item.Name,
		"group":      item.Group,
		"created_at": item.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": item.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"version":    itemVersion(item),
	}
}

func decodeItem(vals map[string]string) (*CachedItem, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}
	return &CachedItem{
		ID:        id,
		Name:      vals["name"],
		Group:     vals["group"],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
