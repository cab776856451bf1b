// Package cohere 提供 Cohere LLM 供应商实现。
// Cohere 的嵌入 API 区分文档和查询两种输入类型，检索质量优于单一类型。
package cohere

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
	"github.com/Abdul-Halim01/mini-RAG/pkg/utils/httpclient"
)

const ProviderName = "cohere"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Cohere 供应商配置。
type Config struct {
	// BaseURL API 基础地址。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey Cohere API 密钥。
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// MaxInputCharacters 输入文本最大字符数，超出部分截断。
	MaxInputCharacters int `json:"max_input_characters" mapstructure:"max_input_characters"`

	// DefaultMaxOutputTokens 默认最大生成 token 数。
	DefaultMaxOutputTokens int `json:"default_max_output_tokens" mapstructure:"default_max_output_tokens"`

	// DefaultTemperature 默认生成温度。
	DefaultTemperature float64 `json:"default_temperature" mapstructure:"default_temperature"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:                "https://api.cohere.com/v1",
		MaxInputCharacters:     1024,
		DefaultMaxOutputTokens: 200,
		DefaultTemperature:     0.1,
		Timeout:                120 * time.Second,
		MaxRetries:             3,
	}
}

// Provider Cohere 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewProvider 从配置 map 创建 Cohere 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["max_input_characters"].(int); ok && v > 0 {
		cfg.MaxInputCharacters = v
	}
	if v, ok := configMap["default_max_output_tokens"].(int); ok && v > 0 {
		cfg.DefaultMaxOutputTokens = v
	}
	if v, ok := configMap["default_temperature"].(float64); ok && v > 0 {
		cfg.DefaultTemperature = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: api_key 是必需的")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Cohere 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// SetGenerationModel 设置文本生成模型。
func (p *Provider) SetGenerationModel(modelID string) {
	p.generationModel = modelID
}

// SetEmbeddingModel 设置嵌入模型及向量维度。
func (p *Provider) SetEmbeddingModel(modelID string, embeddingSize int) {
	p.embeddingModel = modelID
	p.embeddingSize = embeddingSize
}

// embedRequest Cohere embed API 请求体。
type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

// embedResponse Cohere embed API 响应体。
type embedResponse struct {
	ID         string `json:"id"`
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

// inputType 将统一的文档类型映射到 Cohere 的 input_type。
func inputType(docType llm.DocumentType) string {
	if docType == llm.DocumentTypeQuery {
		return "search_query"
	}
	return "search_document"
}

// EmbedText 为一批文本生成向量嵌入。
func (p *Provider) EmbedText(ctx context.Context, texts []string, docType llm.DocumentType) ([][]float32, error) {
	if p.embeddingModel == "" {
		return nil, llm.ErrEmbeddingModelNotSet
	}
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = llm.ProcessText(t, p.config.MaxInputCharacters)
	}

	reqBody := embedRequest{
		Model:          p.embeddingModel,
		Texts:          input,
		InputType:      inputType(docType),
		EmbeddingTypes: []string{"float"},
	}

	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, p.config.BaseURL+"/embed", reqBody, p.headers())
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	var embedResp embedResponse
	if err := p.client.DoJSON(req, &embedResp); err != nil {
		return nil, err
	}

	if len(embedResp.Embeddings.Float) == 0 {
		return nil, llm.ErrNoResult
	}

	return embedResp.Embeddings.Float, nil
}

// chatRequest Cohere chat API 请求体。
type chatRequest struct {
	Model       string        `json:"model"`
	Message     string        `json:"message"`
	ChatHistory []chatMessage `json:"chat_history,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// chatResponse Cohere chat API 响应体。
type chatResponse struct {
	Text         string `json:"text"`
	GenerationID string `json:"generation_id"`
	FinishReason string `json:"finish_reason"`
}

// chatRole 将统一的消息角色映射到 Cohere 的角色。
func chatRole(role llm.Role) string {
	switch role {
	case llm.RoleSystem:
		return "SYSTEM"
	case llm.RoleAssistant:
		return "CHATBOT"
	default:
		return "USER"
	}
}

// GenerateText 根据提示和对话历史生成文本。
// 历史消息放入 chat_history，当前提示作为 message 发送。
func (p *Provider) GenerateText(ctx context.Context, prompt string, history []llm.Message, maxOutputTokens int, temperature float64) (string, error) {
	if p.generationModel == "" {
		return "", llm.ErrGenerationModelNotSet
	}

	if maxOutputTokens <= 0 {
		maxOutputTokens = p.config.DefaultMaxOutputTokens
	}
	if temperature <= 0 {
		temperature = p.config.DefaultTemperature
	}

	chatHistory := make([]chatMessage, len(history))
	for i, msg := range history {
		chatHistory[i] = chatMessage{
			Role:    chatRole(msg.Role),
			Message: msg.Content,
		}
	}

	reqBody := chatRequest{
		Model:       p.generationModel,
		Message:     llm.ProcessText(prompt, p.config.MaxInputCharacters),
		ChatHistory: chatHistory,
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
	}

	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, p.config.BaseURL+"/chat", reqBody, p.headers())
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	if chatResp.Text == "" {
		return "", llm.ErrNoResult
	}

	return chatResp.Text, nil
}

// headers 构造认证请求头。
func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}
}
