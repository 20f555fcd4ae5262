package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// RedisStore keeps form sessions in Redis so that several server instances
// share them. Guards are SET NX keys with an expiry.
type RedisStore struct {
	rdb      *redis.Client
	ttl      time.Duration
	guardTTL time.Duration
}

// NewRedisStore connects to Redis
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl, guardTTL time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: ttl, guardTTL: guardTTL}, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func formKey(id string) string { return "form:" + id }

func guardKey(key string) string { return "guard:" + key }

// Create starts a new form session
func (s *RedisStore) Create(ctx context.Context, ownerID string) (*Form, error) {
	f := &Form{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	if err := s.rdb.Set(ctx, formKey(f.ID), b, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store form: %w", err)
	}
	return f, nil
}

// Get returns the form, or nil when it expired or was discarded
func (s *RedisStore) Get(ctx context.Context, id string) (*Form, error) {
	b, err := s.rdb.Get(ctx, formKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	var f Form
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to decode form: %w", err)
	}
	return &f, nil
}

// Update rewrites the form under WATCH, keeping its expiry
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Form)) (bool, error) {
	key := formKey(id)
	applied := false

	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				applied = false
				return nil
			}
			return err
		}
		var f Form
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("failed to decode form: %w", err)
		}
		fn(&f)
		out, err := json.Marshal(&f)
		if err != nil {
			return fmt.Errorf("failed to encode form: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, out, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			applied = true
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return applied, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("failed to update form: %w", err)
	}
	return false, fmt.Errorf("failed to update form %s: too much contention", id)
}

// Discard drops a form session
func (s *RedisStore) Discard(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, formKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to discard form: %w", err)
	}
	return nil
}

// Acquire takes the guard if nobody holds it
func (s *RedisStore) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, guardKey(key), 1, s.guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire guard: %w", err)
	}
	return ok, nil
}

// Release frees the guard
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, guardKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release guard: %w", err)
	}
	return nil
}
