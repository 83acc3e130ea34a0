package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soundmap/logger"

	"github.com/go-redis/redis/v8"
)

const responseKeyPrefix = "soundmap:resp"

// ResponseCache 缓存 API 响应体。键包含快照 ID，快照替换后旧条目自然失效，
// 不需要主动清理。
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache 创建响应缓存；client 为 nil 时所有操作都是空操作
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl}
}

// Enabled 是否配置了 Redis
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.client != nil
}

// ResponseKey 生成缓存键
func ResponseKey(snapshotID, path string) string {
	return fmt.Sprintf("%s:%s:%s", responseKeyPrefix, snapshotID, path)
}

// Get 返回缓存的响应体；未命中返回 (nil, false, nil)
func (c *ResponseCache) Get(ctx context.Context, snapshotID, path string) ([]byte, bool, error) {
	if !c.Enabled() || snapshotID == "" {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, ResponseKey(snapshotID, path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		logger.Warn("[ResponseCache] get failed",
			logger.String("path", path),
			logger.ErrorField(err))
		return nil, false, err
	}
	return data, true, nil
}

// Set 写入响应体；没有快照 ID 的（空快照）不缓存
func (c *ResponseCache) Set(ctx context.Context, snapshotID, path string, body []byte) error {
	if !c.Enabled() || snapshotID == "" {
		return nil
	}
	if err := c.client.Set(ctx, ResponseKey(snapshotID, path), body, c.ttl).Err(); err != nil {
		logger.Warn("[ResponseCache] set failed",
			logger.String("path", path),
			logger.Int("dataSize", len(body)),
			logger.ErrorField(err))
		return err
	}
	return nil
}
