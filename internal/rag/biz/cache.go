package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
	"github.com/Abdul-Halim01/mini-RAG/pkg/utils/json"
)

// QueryCacheConfig 查询缓存配置。
type QueryCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// QueryCache 按 (项目, 问题, limit) 缓存向量检索结果。
// 项目索引被重建或重置时需要整体失效该项目的缓存。
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache 创建查询缓存实例。
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = &QueryCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "rag:cache:",
		}
	}
	return &QueryCache{
		redis:  redis,
		config: config,
	}
}

// generateCacheKey 生成缓存键，项目 ID 保留在键中以便按项目失效。
func (c *QueryCache) generateCacheKey(projectID, query string, limit int) string {
	hash := sha256.Sum256([]byte(query + ":" + strconv.Itoa(limit)))
	return c.config.KeyPrefix + projectID + ":" + hex.EncodeToString(hash[:])
}

// Get 从缓存获取检索结果，未命中时返回 (nil, false, nil)。
func (c *QueryCache) Get(ctx context.Context, projectID, query string, limit int) ([]model.RetrievedDocument, bool, error) {
	if !c.config.Enabled || c.redis == nil {
		return nil, false, nil
	}

	cacheKey := c.generateCacheKey(projectID, query, limit)

	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			logger.Debugw("cache miss", "project_id", projectID, "key", cacheKey)
			return nil, false, nil
		}
		logger.Warnw("failed to get from cache", "error", err.Error(), "key", cacheKey)
		return nil, false, err
	}

	var documents []model.RetrievedDocument
	if err := json.Unmarshal(data, &documents); err != nil {
		logger.Warnw("failed to unmarshal cached result", "error", err.Error(), "key", cacheKey)
		// 删除损坏的缓存
		_ = c.redis.Del(ctx, cacheKey).Err()
		return nil, false, err
	}

	logger.Debugw("cache hit", "project_id", projectID, "key", cacheKey, "documents", len(documents))
	return documents, true, nil
}

// Set 将检索结果写入缓存。
func (c *QueryCache) Set(ctx context.Context, projectID, query string, limit int, documents []model.RetrievedDocument) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	cacheKey := c.generateCacheKey(projectID, query, limit)

	data, err := json.Marshal(documents)
	if err != nil {
		logger.Warnw("failed to marshal result for caching", "error", err.Error())
		return err
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", cacheKey)
		return err
	}

	logger.Debugw("cached search result", "project_id", projectID, "key", cacheKey, "ttl", c.config.TTL)
	return nil
}

// InvalidateProject 清除指定项目的全部缓存，索引重建后调用。
func (c *QueryCache) InvalidateProject(ctx context.Context, projectID string) error {
	return c.clearByPattern(ctx, c.config.KeyPrefix+projectID+":*")
}

// Clear 清除所有查询缓存。
func (c *QueryCache) Clear(ctx context.Context) error {
	return c.clearByPattern(ctx, c.config.KeyPrefix+"*")
}

func (c *QueryCache) clearByPattern(ctx context.Context, pattern string) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	deletedCount := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deletedCount++
		}
	}

	if err := iter.Err(); err != nil {
		logger.Warnw("error during cache scan", "error", err.Error())
		return err
	}

	logger.Infow("cleared query cache", "pattern", pattern, "deleted_count", deletedCount)
	return nil
}

// GetStats 获取缓存统计信息。
func (c *QueryCache) GetStats(ctx context.Context) (map[string]interface{}, error) {
	if !c.config.Enabled || c.redis == nil {
		return map[string]interface{}{
			"enabled": false,
		}, nil
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"enabled":    true,
		"key_count":  keyCount,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}, nil
}
