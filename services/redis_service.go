package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"hikbridge-http-service/config"
)

// InterfaceRedisService 定义缓存服务接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheCallStatus(serial string, result *CallStatusResult, expiration time.Duration) error
	GetCachedCallStatus(serial string) (*CallStatusResult, error)
	CacheSessionID(sessionID string, expiration time.Duration) error
	GetCachedSessionID() (string, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheCallStatus 缓存设备最近一次的归一化通话状态
func (s *RedisService) CacheCallStatus(serial string, result *CallStatusResult, expiration time.Duration) error {
	return s.Set("call_status:"+serial, result, expiration)
}

// GetCachedCallStatus 读取设备最近一次缓存的通话状态
func (s *RedisService) GetCachedCallStatus(serial string) (*CallStatusResult, error) {
	var result CallStatusResult
	if err := s.Get("call_status:"+serial, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CacheSessionID 缓存云端会话ID，服务重启后可以直接复用
func (s *RedisService) CacheSessionID(sessionID string, expiration time.Duration) error {
	return s.Client.Set(s.Ctx, "hik_session", sessionID, expiration).Err()
}

// GetCachedSessionID 读取缓存的云端会话ID
func (s *RedisService) GetCachedSessionID() (string, error) {
	return s.Client.Get(s.Ctx, "hik_session").Result()
}
