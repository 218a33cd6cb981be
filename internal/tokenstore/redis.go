package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"erpconsole/internal/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	redisOpTimeout = 3 * time.Second
	refreshLockTTL = 10 * time.Second
)

// RedisStore shares one session between console processes through Redis.
type RedisStore struct {
	client *redis.Client
	locker *redislock.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, locker: redislock.New(client), prefix: prefix}
}

// DialRedis connects to addr and verifies the server answers.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) SetAuthFromTokens(access, refresh string, user *User) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key("access_token"), access, 0)
		pipe.Set(ctx, s.key("refresh_token"), refresh, 0)
		pipe.Set(ctx, s.key("user"), userJSON, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearAuth() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key("access_token"), s.key("refresh_token"), s.key("user")).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) AccessToken() string {
	return s.get("access_token")
}

func (s *RedisStore) RefreshToken() string {
	return s.get("refresh_token")
}

func (s *RedisStore) StoredUser() *User {
	raw := s.get("user")
	if raw == "" || raw == "null" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log := logger.WithComponent("tokenstore")
		log.Warn().Err(err).Msg("stored user is not valid JSON")
		return nil
	}
	return &u
}

func (s *RedisStore) get(name string) string {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log := logger.WithComponent("tokenstore")
			log.Warn().Err(err).Str("key", s.key(name)).Msg("redis read failed")
		}
		return ""
	}
	return val
}

// Lock takes the shared refresh lock, retrying until ctx is done.
func (s *RedisStore) Lock(ctx context.Context) (func(), error) {
	lock, err := s.locker.Obtain(ctx, s.key("refresh_lock"), refreshLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 100),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockNotObtained
		}
		return nil, fmt.Errorf("obtain refresh lock: %w", err)
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log := logger.WithComponent("tokenstore")
			log.Warn().Err(err).Msg("release refresh lock")
		}
	}, nil
}
