package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const aiResponseKeyPrefix = "ai:response:"

// AICache хранит ответы модели по хэшу запроса
type AICache struct {
	client *redis.Client
}

func NewAICache(client *redis.Client) *AICache {
	return &AICache{client: client}
}

// Key строит ключ из пространства имён (nutrition, recipe, ...) и текста запроса
func (c *AICache) Key(namespace, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return aiResponseKeyPrefix + namespace + ":" + hex.EncodeToString(sum[:])
}

// Get возвращает ответ и true, при промахе - "", false, nil
func (c *AICache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached ai response: %w", err)
	}
	return val, true, nil
}

func (c *AICache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache ai response: %w", err)
	}
	return nil
}
