package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "ipsign.app/errors"
)

const redisLocationKey = "ipsign:geo-cache"

// RedisPersistence stores the location domain as one JSON blob in redis,
// as an alternative to the file backend for multi-instance deployments.
type RedisPersistence struct {
	client *redis.Client
	ctx    context.Context
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisPersistence(config *RedisConfig) (*RedisPersistence, error) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	slog.Info("redis location cache connected", "addr", config.Addr)

	return &RedisPersistence{
		client: client,
		ctx:    ctx,
	}, nil
}

func (r *RedisPersistence) Load() (map[string]Entry, error) {
	val, err := r.client.Get(r.ctx, redisLocationKey).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]Entry{}, nil
		}
		return nil, apperrors.NewPersistenceError("redis get", err)
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, apperrors.NewPersistenceError("parse redis location cache", err)
	}
	return entries, nil
}

func (r *RedisPersistence) Save(entries map[string]Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return apperrors.NewPersistenceError("marshal location cache", err)
	}
	if err := r.client.Set(r.ctx, redisLocationKey, data, 0).Err(); err != nil {
		return apperrors.NewPersistenceError("redis set", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *RedisPersistence) Close() error {
	return r.client.Close()
}
