package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "studybot:pending:"

// OpenRedis parses url, connects and pings.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore keeps each entry under its own key with an expiry, so entries
// survive restarts of the process and are shared across instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Put(ctx context.Context, id string, c Candidate) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding candidate: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+id, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("storing pending %s: %w", id, err)
	}
	return nil
}

// Take uses GETDEL so two concurrent decisions cannot both consume the entry.
func (r *RedisStore) Take(ctx context.Context, id string) (Candidate, bool, error) {
	data, err := r.client.GetDel(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Candidate{}, false, nil
	}
	if err != nil {
		return Candidate{}, false, fmt.Errorf("taking pending %s: %w", id, err)
	}

	var c Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return Candidate{}, false, fmt.Errorf("decoding pending %s: %w", id, err)
	}
	return c, true, nil
}
