package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds the WATCH/MULTI loop in RedisStore.Update when
// another writer touches the hash between read and write.
const maxUpdateAttempts = 8

// RedisStore is a Keyed kept in a single Redis hash.  Keys are formatted with
// fmt.Sprint and values are stored as JSON.
type RedisStore[K comparable, V any] struct {
	rdb  *redis.Client
	hash string
}

// NewRedisStore returns a store whose entries live in the hash named hash.
func NewRedisStore[K comparable, V any](rdb *redis.Client, hash string) *RedisStore[K, V] {
	return &RedisStore[K, V]{rdb: rdb, hash: hash}
}

func (s *RedisStore[K, V]) field(key K) string { return fmt.Sprint(key) }

func (s *RedisStore[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var v V
	raw, err := s.rdb.HGet(ctx, s.hash, s.field(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("redis hget %s: %w", s.hash, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s entry: %w", s.hash, err)
	}
	return v, true, nil
}

func (s *RedisStore[K, V]) Set(ctx context.Context, key K, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", s.hash, err)
	}
	if err := s.rdb.HSet(ctx, s.hash, s.field(key), raw).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.hash, err)
	}
	return nil
}

func (s *RedisStore[K, V]) SetIfAbsent(ctx context.Context, key K, v V) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s entry: %w", s.hash, err)
	}
	ok, err := s.rdb.HSetNX(ctx, s.hash, s.field(key), raw).Result()
	if err != nil {
		return false, fmt.Errorf("redis hsetnx %s: %w", s.hash, err)
	}
	return ok, nil
}

// Update reads, transforms and writes the entry inside WATCH/MULTI.  If the
// hash changes underneath, the transaction is retried up to
// maxUpdateAttempts times.
func (s *RedisStore[K, V]) Update(ctx context.Context, key K, fn func(V) (V, error)) (bool, error) {
	field := s.field(key)
	var found bool
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, s.hash, field).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		var cur V
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode %s entry: %w", s.hash, err)
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		out, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode %s entry: %w", s.hash, err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, s.hash, field, out)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, s.hash)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return found, err
	}
	return found, fmt.Errorf("redis update %s: %w", s.hash, redis.TxFailedErr)
}

func (s *RedisStore[K, V]) Delete(ctx context.Context, key K) (bool, error) {
	n, err := s.rdb.HDel(ctx, s.hash, s.field(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis hdel %s: %w", s.hash, err)
	}
	return n > 0, nil
}

func (s *RedisStore[K, V]) List(ctx context.Context) ([]V, error) {
	vals, err := s.rdb.HVals(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hvals %s: %w", s.hash, err)
	}
	out := make([]V, 0, len(vals))
	for _, raw := range vals {
		var v V
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", s.hash, err)
		}
		out = append(out, v)
	}
	return out, nil
}
