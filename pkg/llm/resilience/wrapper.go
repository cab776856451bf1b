// Package resilience 提供 LLM 调用的韧性包装器。
package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/kart-io/logger"

	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
)

// ResilientProvider 带重试和熔断功能的 Provider 包装器。
// 嵌入和生成共用同一个熔断器，任一路径的持续失败都会触发熔断。
type ResilientProvider struct {
	provider llm.Provider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

var _ llm.Provider = (*ResilientProvider)(nil)

// Wrap 创建带韧性功能的 Provider。
func Wrap(provider llm.Provider, retryConfig *RetryConfig, cbConfig *CircuitBreakerConfig) *ResilientProvider {
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}
	if cbConfig == nil {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	if retryConfig.RetryableErrors == nil {
		retryConfig.RetryableErrors = IsRetryableError
	}

	return &ResilientProvider{
		provider: provider,
		retry:    retryConfig,
		cb:       NewCircuitBreaker(cbConfig),
	}
}

// SetGenerationModel 设置文本生成模型。
func (r *ResilientProvider) SetGenerationModel(modelID string) {
	r.provider.SetGenerationModel(modelID)
}

// SetEmbeddingModel 设置嵌入模型及向量维度。
func (r *ResilientProvider) SetEmbeddingModel(modelID string, embeddingSize int) {
	r.provider.SetEmbeddingModel(modelID, embeddingSize)
}

// GenerateText 根据提示和对话历史生成文本（带重试和熔断）。
func (r *ResilientProvider) GenerateText(ctx context.Context, prompt string, history []llm.Message, maxOutputTokens int, temperature float64) (string, error) {
	var result string

	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		var callErr error
		result, callErr = r.provider.GenerateText(ctx, prompt, history, maxOutputTokens, temperature)
		return callErr
	})

	return result, err
}

// EmbedText 为一批文本生成向量嵌入（带重试和熔断）。
func (r *ResilientProvider) EmbedText(ctx context.Context, texts []string, docType llm.DocumentType) ([][]float32, error) {
	var result [][]float32

	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		var callErr error
		result, callErr = r.provider.EmbedText(ctx, texts, docType)
		return callErr
	})

	return result, err
}

// Name 返回供应商名称。
func (r *ResilientProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 获取熔断器实例（用于监控）。
func (r *ResilientProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

// IsRetryableError 判断错误是否可重试。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 熔断器打开错误不可重试
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return false
	}

	// 上下文相关错误不可重试
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 网络超时可重试
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("network timeout, retryable", "error", err.Error())
		return true
	}

	// DNS 错误可重试
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		logger.Debugw("DNS error, retryable", "error", err.Error())
		return true
	}

	// 连接错误可重试
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		logger.Debugw("network operation error, retryable", "error", err.Error())
		return true
	}

	// HTTP 5xx 错误可重试
	errMsg := err.Error()
	if strings.Contains(errMsg, "status code 5") ||
		strings.Contains(errMsg, "server error") {
		logger.Debugw("server error, retryable", "error", errMsg)
		return true
	}

	// HTTP 429 (Too Many Requests) 可重试
	if strings.Contains(errMsg, "status code 429") ||
		strings.Contains(errMsg, "rate limit") {
		logger.Debugw("rate limit error, retryable", "error", errMsg)
		return true
	}

	// HTTP 408 (Request Timeout) 可重试
	if strings.Contains(errMsg, "status code 408") {
		logger.Debugw("request timeout, retryable", "error", errMsg)
		return true
	}

	// 服务不可用可重试
	if strings.Contains(errMsg, "service unavailable") {
		logger.Debugw("service unavailable, retryable", "error", errMsg)
		return true
	}

	// 连接中断可重试
	if errors.Is(err, http.ErrServerClosed) ||
		strings.Contains(errMsg, "EOF") ||
		strings.Contains(errMsg, "connection reset") {
		logger.Debugw("connection error, retryable", "error", errMsg)
		return true
	}

	logger.Debugw("error not retryable", "error", errMsg)
	return false
}

// ProviderStats 获取包装后 Provider 的熔断器统计，未包装时返回 nil。
func ProviderStats(provider llm.Provider) map[string]interface{} {
	if rp, ok := provider.(*ResilientProvider); ok {
		return rp.cb.Stats()
	}
	return nil
}
