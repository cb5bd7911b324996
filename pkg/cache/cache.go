package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLUser     = 10 * time.Minute // 사용자 요약 (프로필 변경 시 무효화)
	TTLContacts = 1 * time.Minute  // 연락처 목록 (가입 시 무효화)
)

// 캐시 키 접두사
const (
	PrefixUser     = "chat:user:"
	PrefixContacts = "chat:contacts"
)

// ErrMiss is returned when a key is absent or the cache is disabled
var ErrMiss = errors.New("cache miss")

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IsAvailable() bool

	// 사용자 요약 캐시 (메시지 발신자 표시용)
	GetUser(ctx context.Context, userID string, dest interface{}) error
	SetUser(ctx context.Context, userID string, data interface{}) error
	InvalidateUser(ctx context.Context, userID string) error

	// 전체 사용자 목록 캐시 (연락처 조회용)
	GetContacts(ctx context.Context, dest interface{}) error
	SetContacts(ctx context.Context, data interface{}) error
	InvalidateContacts(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성. client가 nil이면 모든 연산이 no-op/miss
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable Redis 연결 가능 여부
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) GetUser(ctx context.Context, userID string, dest interface{}) error {
	return c.Get(ctx, PrefixUser+userID, dest)
}

func (c *redisCache) SetUser(ctx context.Context, userID string, data interface{}) error {
	return c.Set(ctx, PrefixUser+userID, data, TTLUser)
}

func (c *redisCache) InvalidateUser(ctx context.Context, userID string) error {
	return c.Delete(ctx, PrefixUser+userID)
}

func (c *redisCache) GetContacts(ctx context.Context, dest interface{}) error {
	return c.Get(ctx, PrefixContacts, dest)
}

func (c *redisCache) SetContacts(ctx context.Context, data interface{}) error {
	return c.Set(ctx, PrefixContacts, data, TTLContacts)
}

func (c *redisCache) InvalidateContacts(ctx context.Context) error {
	return c.Delete(ctx, PrefixContacts)
}
