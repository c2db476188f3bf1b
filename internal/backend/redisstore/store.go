// Package redisstore implements service.Backend on Redis.
//
// Each task is a JSON value under task:<id>; a sorted set scored by
// creation time in microseconds keeps the newest-first order.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tasksync/internal/service"
)

// CallTimeout is the timeout for a single Redis round trip.
const CallTimeout = 5 * time.Second

const (
	taskKeyPrefix = "tasksync:task:"
	orderKey      = "tasksync:tasks:by_created"
)

func taskKey(id string) string {
	return taskKeyPrefix + id
}

// Store implements service.Backend on a redis client.
type Store struct {
	rdb   *redis.Client
	now   func() time.Time
	newID func() string
}

// New wraps rdb.
func New(rdb *redis.Client) *Store {
	return &Store{
		rdb:   rdb,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Open connects to addr and pings the server.
func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return New(rdb), nil
}

// Close closes the client.
func (s *Store) Close() error { return s.rdb.Close() }

// List returns all tasks, newest first.
func (s *Store) List(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	ids, err := s.rdb.ZRevRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return nil, wrapError(err)
	}
	tasks := []service.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapError(err)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // order entry without a task value
		}
		t, err := decode(raw)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Create stores a new task and indexes it by creation time.
func (s *Store) Create(ctx context.Context, text string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	t := service.Task{
		ID:          s.newID(),
		Task:        text,
		IsCompleted: false,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}
	data, err := json.Marshal(t)
	if err != nil {
		return service.Task{}, err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, taskKey(t.ID), data, 0)
		pipe.ZAdd(ctx, orderKey, redis.Z{Score: float64(t.CreatedAt.UnixMicro()), Member: t.ID})
		return nil
	})
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return t, nil
}

// Update sets IsCompleted, retrying if the task changes underneath.
func (s *Store) Update(ctx context.Context, id string, isCompleted bool) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	key := taskKey(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		t, err := decode(raw)
		if err != nil {
			return err
		}
		t.IsCompleted = isCompleted
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	}

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return wrapError(err)
	}
	return fmt.Errorf("update %s: too much contention", id)
}

// Delete removes the task and its order entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, taskKey(id))
		pipe.ZRem(ctx, orderKey, id)
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	if del.Val() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func decode(raw string) (service.Task, error) {
	var t service.Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return service.Task{}, fmt.Errorf("malformed task value: %w", err)
	}
	return t, nil
}

func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return service.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return service.ErrTimeout
	}
	return err
}
