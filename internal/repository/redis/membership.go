package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/wishlist/internal/repository"
)

const (
	keyPrefix        = "wishlist:membership:"
	generationPrefix = "wishlist:membership-gen:"

	// generationTTL bounds how long an idle user's generation is kept.
	generationTTL = 24 * time.Hour
)

// fieldSep separates product and variant in a hash field. Key validation
// rejects it inside identifiers.
const fieldSep = "\x1f"

// setIfCurrent writes an answer only while the user's generation still
// matches the one read by the lookup. A missing generation counts as 0.
//
// KEYS[1] membership hash, KEYS[2] generation
// ARGV[1] field, ARGV[2] value, ARGV[3] generation, ARGV[4] ttl in ms
var setIfCurrent = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[3]) then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// MembershipCache implements repository.MembershipCache with one Redis hash
// per user and a per-user generation counter. Every write to a user's
// wishlist drops the hash and bumps the generation, and an answer read from
// Postgres is only cached if no bump happened since its lookup.
type MembershipCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewMembershipCache creates a Redis-backed membership cache.
func NewMembershipCache(client redis.Cmdable, ttl time.Duration) *MembershipCache {
	return &MembershipCache{client: client, ttl: ttl}
}

func userKey(userID string) string {
	return keyPrefix + userID
}

func generationKey(userID string) string {
	return generationPrefix + userID
}

func field(productID, variantID string) string {
	return productID + fieldSep + variantID
}

// Get returns the cached answer for the key and the user's generation.
func (c *MembershipCache) Get(ctx context.Context, userID, productID, variantID string) (repository.Membership, error) {
	var answer, gen *redis.StringCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		answer = pipe.HGet(ctx, userKey(userID), field(productID, variantID))
		gen = pipe.Get(ctx, generationKey(userID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return repository.Membership{}, fmt.Errorf("redis hget membership: %w", err)
	}

	var m repository.Membership
	m.Generation, err = gen.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return repository.Membership{}, fmt.Errorf("redis get membership generation: %w", err)
	}

	v, err := answer.Result()
	switch {
	case err == nil:
		m.Found = true
		m.Present = v == "1"
	case !errors.Is(err, redis.Nil):
		return repository.Membership{}, fmt.Errorf("redis hget membership: %w", err)
	}
	return m, nil
}

// Set stores an answer and refreshes the hash TTL, unless the user has been
// invalidated since the lookup that returned generation.
func (c *MembershipCache) Set(ctx context.Context, userID, productID, variantID string, present bool, generation int64) (bool, error) {
	v := "0"
	if present {
		v = "1"
	}

	n, err := setIfCurrent.Run(ctx, c.client,
		[]string{userKey(userID), generationKey(userID)},
		field(productID, variantID), v, generation, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis hset membership: %w", err)
	}
	return n == 1, nil
}

// Invalidate drops every cached answer for the user and advances the
// generation so in-flight lookups cannot repopulate the hash.
func (c *MembershipCache) Invalidate(ctx context.Context, userID string) error {
	genKey := generationKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, userKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis del membership: %w", err)
	}
	return nil
}
