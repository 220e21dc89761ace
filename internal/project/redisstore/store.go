// Package redisstore persists projects in Redis. Each project is one JSON
// value; updates use WATCH/MULTI on that single key so concurrent writers to
// different projects never block each other.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reelcast/internal/project"
)

const (
	projectKeyPrefix     = "reelcast:project:" // reelcast:project:{id}
	createdIndexKey      = "reelcast:projects:created"
	updatedIndexKey      = "reelcast:projects:updated"
	eventChannelPrefix   = "reelcast:events:" // reelcast:events:{id}
	maxOptimisticRetries = 16
)

// ErrConflict is returned when an update keeps losing the optimistic race.
var ErrConflict = errors.New("redisstore: too many concurrent updates")

// Store implements project.Store on Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ project.Store = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithTTL expires project keys after ttl of inactivity. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

// SetClock overrides the timestamp source used by Update.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Client exposes the underlying client for sharing with other components.
func (s *Store) Client() *redis.Client {
	return s.client
}

// EventChannel returns the Pub/Sub channel carrying updates for id.
func EventChannel(id string) string {
	return eventChannelPrefix + id
}

// EventPattern matches every project's event channel.
func EventPattern() string {
	return eventChannelPrefix + "*"
}

func projectKey(id string) string {
	return projectKeyPrefix + id
}

func (s *Store) Create(ctx context.Context, p *project.Project) error {
	if p == nil || p.ID == "" {
		return errors.New("project id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	created, err := s.client.SetNX(ctx, projectKey(p.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create project %s: %w", p.ID, err)
	}
	if !created {
		return fmt.Errorf("%w: %s", project.ErrDuplicateID, p.ID)
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, createdIndexKey, redis.Z{Score: float64(p.CreatedAt.UnixMilli()), Member: p.ID})
	pipe.ZAdd(ctx, updatedIndexKey, redis.Z{Score: float64(p.UpdatedAt.UnixMilli()), Member: p.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index project %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*project.Project, bool, error) {
	data, err := s.client.Get(ctx, projectKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get project %s: %w", id, err)
	}
	p, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *Store) Update(ctx context.Context, id string, patch project.Patch) (*project.Project, bool, error) {
	key := projectKey(id)
	var (
		updated *project.Project
		found   bool
	)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		current, err := decode(data)
		if err != nil {
			return err
		}
		patch.Apply(current, s.now())
		encoded, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode project: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			pipe.ZAdd(ctx, updatedIndexKey, redis.Z{Score: float64(current.UpdatedAt.UnixMilli()), Member: id})
			pipe.Publish(ctx, EventChannel(id), encoded)
			return nil
		})
		if err != nil {
			return err
		}
		updated, found = current, true
		return nil
	}

	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("update project %s: %w", id, err)
		}
		return updated, found, nil
	}
	return nil, false, fmt.Errorf("update project %s: %w", id, ErrConflict)
}

func (s *Store) List(ctx context.Context, opts project.ListOptions) ([]*project.Project, error) {
	ids, err := s.client.ZRevRange(ctx, createdIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = projectKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	out := make([]*project.Project, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// expired or deleted between index read and fetch
			continue
		}
		p, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		if !opts.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	project.SortNewestFirst(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, projectKey(id))
	pipe.ZRem(ctx, createdIndexKey, id)
	pipe.ZRem(ctx, updatedIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("delete project %s: %w", id, err)
	}
	return del.Val() > 0, nil
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.client.ZRangeByScore(ctx, updatedIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", cutoff.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("find expired projects: %w", err)
	}
	removed := 0
	for _, id := range ids {
		deleted, err := s.Delete(ctx, id)
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}
	return removed, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*project.Project, error) {
	var p project.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return &p, nil
}
