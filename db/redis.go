package db

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lastRunKey = "trendtracker:pipeline:last_run"
	runLockKey = "trendtracker:pipeline:lock"
)

// RunState keeps lightweight pipeline run state in Redis: the last run
// summary and a lock that stops the API from starting overlapping runs.
type RunState struct {
	client *redis.Client
}

// ConnectRunState builds a RunState from REDIS_URL, or returns (nil, nil)
// when no URL is configured. A nil RunState is a valid "no Redis" mode.
func ConnectRunState() (*RunState, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return &RunState{client: client}, nil
}

func (r *RunState) Close() {
	if r != nil && r.client != nil {
		r.client.Close()
	}
}

// SaveLastRun stores the run summary as JSON. Callers treat failures as
// non-fatal: the summary is a convenience cache, not the source of truth.
func (r *RunState) SaveLastRun(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(context.Background(), lastRunKey, data, 0).Err()
}

// LastRun returns the cached run summary, or nil when none is stored.
func (r *RunState) LastRun() (json.RawMessage, error) {
	data, err := r.client.Get(context.Background(), lastRunKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// TryLock acquires the run lock for ttl. Returns false when a run already
// holds it.
func (r *RunState) TryLock(ttl time.Duration) (bool, error) {
	return r.client.SetNX(context.Background(), runLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (r *RunState) Unlock() error {
	return r.client.Del(context.Background(), runLockKey).Err()
}
