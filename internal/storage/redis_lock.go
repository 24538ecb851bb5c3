package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"donation_backend/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld - ключ уже захвачен другим запросом
var ErrLockHeld = errors.New("lock is held by another request")

// SubmissionLocker - короткоживущая распределённая блокировка для сериализации
// одинаковых запросов (например, повторный submit одного донора).
type SubmissionLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker реализует SubmissionLocker через SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "donation"
	}
	return &RedisLocker{client: client, prefix: trimmed + ":lock"}
}

func (l *RedisLocker) key(key string) string {
	return l.prefix + ":" + key
}

// Acquire захватывает ключ. Недоступность Redis не блокирует операцию:
// уникальные индексы в БД остаются последней линией защиты.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}

	fullKey := l.key(key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		logger.CtxWarn(ctx, "redis lock unavailable, continuing without it", "key", fullKey, "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(logger.Detach(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			logger.CtxWarn(ctx, "failed to release redis lock", "key", fullKey, "error", err)
		}
	}
	return release, nil
}

// NoopLocker используется без Redis
type NoopLocker struct{}

func (NoopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return func() {}, nil
}

// NewRedisClient создаёт клиента и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
