package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// EmbeddingCacheConfig Embedding 缓存配置。
type EmbeddingCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// DefaultEmbeddingCacheConfig 返回默认的 Embedding 缓存配置。
func DefaultEmbeddingCacheConfig() *EmbeddingCacheConfig {
	return &EmbeddingCacheConfig{
		Enabled:   true,
		TTL:       24 * time.Hour, // Embedding 结果相对稳定，可以缓存更长时间
		KeyPrefix: "emb:",
	}
}

// CachedProvider 为 EmbedText 提供 Redis 缓存的 Provider 包装器。
// 生成调用直接透传，只有嵌入结果会被缓存。
type CachedProvider struct {
	provider Provider
	redis    *goredis.Client
	config   *EmbeddingCacheConfig
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider 创建带嵌入缓存的 Provider。
func NewCachedProvider(provider Provider, redis *goredis.Client, config *EmbeddingCacheConfig) *CachedProvider {
	if config == nil {
		config = DefaultEmbeddingCacheConfig()
	}
	return &CachedProvider{
		provider: provider,
		redis:    redis,
		config:   config,
	}
}

// SetGenerationModel 设置文本生成模型。
func (c *CachedProvider) SetGenerationModel(modelID string) {
	c.provider.SetGenerationModel(modelID)
}

// SetEmbeddingModel 设置嵌入模型及向量维度。
func (c *CachedProvider) SetEmbeddingModel(modelID string, embeddingSize int) {
	c.provider.SetEmbeddingModel(modelID, embeddingSize)
}

// GenerateText 根据提示和对话历史生成文本。
func (c *CachedProvider) GenerateText(ctx context.Context, prompt string, history []Message, maxOutputTokens int, temperature float64) (string, error) {
	return c.provider.GenerateText(ctx, prompt, history, maxOutputTokens, temperature)
}

// Name 返回供应商名称。
func (c *CachedProvider) Name() string {
	return c.provider.Name()
}

// cacheKey 基于供应商、文本用途和文本内容生成缓存键。
// 同一文本在文档模式和查询模式下的嵌入结果可能不同，需要分开缓存。
func (c *CachedProvider) cacheKey(text string, docType DocumentType) string {
	hash := sha256.Sum256([]byte(string(docType) + ":" + text))
	return c.config.KeyPrefix + c.provider.Name() + ":" + hex.EncodeToString(hash[:])
}

// EmbedText 为一批文本生成向量嵌入，命中缓存的文本不再调用底层供应商。
func (c *CachedProvider) EmbedText(ctx context.Context, texts []string, docType DocumentType) ([][]float32, error) {
	if !c.config.Enabled || c.redis == nil {
		return c.provider.EmbedText(ctx, texts, docType)
	}

	result := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		key := c.cacheKey(text, docType)
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var embedding []float32
			if jsonErr := json.Unmarshal(data, &embedding); jsonErr == nil {
				result[i] = embedding
				continue
			}
			// 反序列化失败，删除损坏的缓存
			logger.Warnw("failed to unmarshal cached embedding, deleting", "key", key)
			_ = c.redis.Del(ctx, key).Err()
		} else if err != goredis.Nil {
			logger.Warnw("redis get error, falling back to provider", "error", err.Error())
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		logger.Debugw("embedding cache full hit", "texts", len(texts))
		return result, nil
	}

	embeddings, err := c.provider.EmbedText(ctx, missing, docType)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(missing) {
		return nil, ErrNoResult
	}

	for j, embedding := range embeddings {
		result[missingIdx[j]] = embedding

		data, jsonErr := json.Marshal(embedding)
		if jsonErr != nil {
			continue
		}
		// 写缓存失败不影响结果返回
		if setErr := c.redis.Set(ctx, c.cacheKey(missing[j], docType), data, c.config.TTL).Err(); setErr != nil {
			logger.Debugw("failed to cache embedding", "error", setErr.Error())
		}
	}

	logger.Debugw("embedding cache partial hit",
		"texts", len(texts),
		"misses", len(missing),
	)

	return result, nil
}
