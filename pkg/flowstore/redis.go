package flowstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/userflow/pkg/userflow"
)

// saveScript writes the snapshot only if it is newer than the stored one.
// KEYS[1] flow key; ARGV[1] version, ARGV[2] encoded snapshot, ARGV[3] ttl in ms.
var saveScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'version'))
if cur and cur >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// Redis stores each snapshot in a hash holding its version and JSON encoding.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ userflow.SnapshotStore = (*Redis)(nil)

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithKeyPrefix sets the prefix of flow keys. Default "userflow:flow:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithTTL expires snapshots that were not saved for ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl >= 0 {
			r.ttl = ttl
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "userflow:flow:",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisFromConfig applies the key prefix and TTL from cfg.
func NewRedisFromConfig(client redis.UniversalClient, cfg RedisConfig) *Redis {
	return NewRedis(client, WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL))
}

// ConnectRedis opens a client and pings it, retrying RetryAttempts times
// with RetryInterval between attempts.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	var lastErr error
	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		_ = client.Close()
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, lastErr, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

func (r *Redis) Save(ctx context.Context, snap userflow.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Join(ErrEncodeSnapshot, err)
	}

	ok, err := saveScript.Run(ctx, r.client, []string{r.key(snap.FlowID)},
		snap.Version, data, r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return ErrStaleSnapshot
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, flowID uuid.UUID) (userflow.Snapshot, error) {
	data, err := r.client.HGet(ctx, r.key(flowID), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return userflow.Snapshot{}, ErrNotFound
		}
		return userflow.Snapshot{}, err
	}

	var snap userflow.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return userflow.Snapshot{}, errors.Join(ErrDecodeSnapshot, err)
	}
	return snap, nil
}

func (r *Redis) Delete(ctx context.Context, flowID uuid.UUID) error {
	return r.client.Del(ctx, r.key(flowID)).Err()
}

// Healthcheck pings the server.
func (r *Redis) Healthcheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

func (r *Redis) key(flowID uuid.UUID) string {
	return r.prefix + flowID.String()
}
