package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis keeps one list per persona and appends with RPUSH.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.NewInvalidRequest("redis journal requires redis_addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "intake:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client:    client,
		keyPrefix: prefix + "journal:",
		logger:    logger.With(zap.String("component", "journal.redis")),
	}, nil
}

// listKey returns the Redis key for a persona's entry list.
func (r *Redis) listKey(persona string) string {
	return r.keyPrefix + "persona:" + persona
}

// personasKey returns the set of personas with entries.
func (r *Redis) personasKey() string {
	return r.keyPrefix + "personas"
}

// Append implements Journal.
func (r *Redis) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.NewInternal(err)
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.listKey(e.Persona), data)
	pipe.SAdd(ctx, r.personasKey(), e.Persona)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewPersistence("redis", err)
	}
	r.logger.Debug("appended entry", zap.String("persona", e.Persona), zap.String("id", e.ID))
	return nil
}

func (r *Redis) listPersona(ctx context.Context, persona string, limit int) ([]Entry, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := r.client.LRange(ctx, r.listKey(persona), start, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			r.logger.Warn("skipping undecodable entry", zap.String("persona", persona), zap.Error(err))
			continue
		}
		if e.Persona == "" {
			e.Persona = persona
		}
		out = append(out, e)
	}
	return out, nil
}

// List implements Journal.
func (r *Redis) List(ctx context.Context, persona string, limit int) ([]Entry, error) {
	if persona != "" {
		entries, err := r.listPersona(ctx, persona, limit)
		if err != nil {
			return nil, errors.NewPersistence("redis", err)
		}
		return entries, nil
	}

	names, err := r.client.SMembers(ctx, r.personasKey()).Result()
	if err != nil {
		return nil, errors.NewPersistence("redis", err)
	}
	var all []Entry
	for _, p := range names {
		entries, err := r.listPersona(ctx, p, limit)
		if err != nil {
			return nil, errors.NewPersistence("redis", err)
		}
		all = append(all, entries...)
	}
	sortEntries(all)
	return tail(all, limit), nil
}

// Latest implements Journal.
func (r *Redis) Latest(ctx context.Context, persona string) (Entry, error) {
	entries, err := r.List(ctx, persona, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, errors.NewNotFound("entry", persona)
	}
	return entries[0], nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements Journal.
func (r *Redis) Close() error {
	return r.client.Close()
}
