// store_redis.go — хранилище сессий в Redis для многоэкземплярного развёртывания.
// Каждая сессия — отдельный ключ с TTL до ExpiresAt.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/brigadas/internal/domain/model"
)

const (
	redisKeyPrefix     = "brigadas:session:"
	redisRevokedPrefix = "brigadas:revoked:"
)

// RedisStore — SessionStore поверх go-redis.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore создаёт хранилище поверх готового клиента.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func revokedKey(id string) string { return redisRevokedPrefix + id }

func (r *RedisStore) Save(ctx context.Context, s *model.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("сессия %s уже истекла", s.ID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	if err := r.client.Set(ctx, redisKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи сессии в Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии из Redis: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	if s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("ошибка удаления сессии из Redis: %w", err)
	}
	return nil
}

// Revoke ставит отметку об отзыве с TTL до until.
func (r *RedisStore) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи отзыва сессии в Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Revoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка чтения отзыва сессии из Redis: %w", err)
	}
	return n > 0, nil
}

// Count считает ключи сессий через SCAN (без блокирующего KEYS).
func (r *RedisStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сессий в Redis: %w", err)
	}
	return n, nil
}

// RedisReadinessChecker — проверка готовности Redis для /health/ready.
type RedisReadinessChecker struct {
	client *redis.Client
}

// NewRedisReadinessChecker создаёт проверку готовности Redis.
func NewRedisReadinessChecker(client *redis.Client) *RedisReadinessChecker {
	return &RedisReadinessChecker{client: client}
}

// CheckReady выполняет PING.
func (c *RedisReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return "fail", fmt.Sprintf("Redis недоступен: %v", err)
	}
	return "ok", "подключение активно"
}
