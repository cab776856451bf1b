// Package llm 提供统一的 LLM 供应商抽象层。
// 文本生成和向量嵌入可以使用不同供应商的模型。
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DocumentType 标识嵌入文本的用途。部分供应商（如 Cohere）会针对
// 文档和查询使用不同的嵌入方式。
type DocumentType string

const (
	// DocumentTypeDocument 表示被索引的文档内容。
	DocumentTypeDocument DocumentType = "document"
	// DocumentTypeQuery 表示检索查询文本。
	DocumentTypeQuery DocumentType = "query"
)

// Role 定义消息角色。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 表示对话中的一条消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// 模型未设置或供应商返回空结果时的哨兵错误。
var (
	ErrGenerationModelNotSet = errors.New("generation model was not set")
	ErrEmbeddingModelNotSet  = errors.New("embedding model was not set")
	ErrNoResult              = errors.New("no result returned from provider")
)

// Provider 定义 LLM 供应商接口。
// 同一个供应商实例根据设置的模型承担生成或嵌入职责。
type Provider interface {
	// SetGenerationModel 设置文本生成模型。
	SetGenerationModel(modelID string)

	// SetEmbeddingModel 设置嵌入模型及向量维度。
	SetEmbeddingModel(modelID string, embeddingSize int)

	// GenerateText 根据提示和对话历史生成文本。
	// maxOutputTokens 或 temperature 为零值时使用供应商默认值。
	GenerateText(ctx context.Context, prompt string, history []Message, maxOutputTokens int, temperature float64) (string, error)

	// EmbedText 为一批文本生成向量嵌入，返回向量与输入一一对应。
	EmbedText(ctx context.Context, texts []string, docType DocumentType) ([][]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

// registry 供应商注册表。
var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider 注册供应商工厂。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider 根据名称创建供应商实例。
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return factory(config)
}

// ListProviders 列出所有已注册的供应商名称。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	return names
}

// ProcessText 将文本截断到 maxCharacters 个字符并去除首尾空白。
// maxCharacters <= 0 时仅去除空白。截断按 Unicode 字符计。
func ProcessText(text string, maxCharacters int) string {
	if maxCharacters > 0 {
		runes := []rune(text)
		if len(runes) > maxCharacters {
			text = string(runes[:maxCharacters])
		}
	}
	return strings.TrimSpace(text)
}
