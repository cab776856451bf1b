// Package openai 提供 OpenAI LLM 供应商实现。
// 同时支持 OpenAI API 和兼容 OpenAI API 的服务（如 Azure OpenAI、LocalAI 等）。
//
// 基本用法示例：
//
//	import _ "github.com/Abdul-Halim01/mini-RAG/pkg/llm/openai"
//	import "github.com/Abdul-Halim01/mini-RAG/pkg/llm"
//
//	provider, err := llm.NewProvider("openai", map[string]any{
//	    "api_key": "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider.SetGenerationModel("gpt-4o-mini")
//	provider.SetEmbeddingModel("text-embedding-3-small", 1536)
//
//	answer, err := provider.GenerateText(ctx, "你好", nil, 0, 0)
//	vectors, err := provider.EmbedText(ctx, []string{"文本1", "文本2"}, llm.DocumentTypeDocument)
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
	"github.com/Abdul-Halim01/mini-RAG/pkg/utils/httpclient"
)

// ProviderName 是 OpenAI 供应商的名称标识符
const ProviderName = "openai"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config OpenAI 供应商配置。
type Config struct {
	// BaseURL API 基础地址，默认为 OpenAI 官方地址。
	// 可设置为兼容 API 地址（如 Azure OpenAI、LocalAI 等）。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey API 密钥。
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`

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
		BaseURL:                "https://api.openai.com/v1",
		MaxInputCharacters:     1024,
		DefaultMaxOutputTokens: 200,
		DefaultTemperature:     0.1,
		Timeout:                120 * time.Second,
		MaxRetries:             3,
	}
}

// Provider OpenAI 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewProvider 从配置 map 创建 OpenAI 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["organization"].(string); ok && v != "" {
		cfg.Organization = v
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
		return nil, fmt.Errorf("openai: api_key 是必需的")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 OpenAI 供应商。
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

// embeddingRequest OpenAI embedding API 请求体。
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse OpenAI embedding API 响应体。
type embeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedText 为一批文本生成向量嵌入。
// OpenAI 不区分文档和查询嵌入，docType 参数被忽略。
func (p *Provider) EmbedText(ctx context.Context, texts []string, _ llm.DocumentType) ([][]float32, error) {
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

	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, p.config.BaseURL+"/embeddings",
		embeddingRequest{Model: p.embeddingModel, Input: input}, p.headers())
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	var embedResp embeddingResponse
	if err := p.client.DoJSON(req, &embedResp); err != nil {
		return nil, err
	}

	if len(embedResp.Data) == 0 {
		return nil, llm.ErrNoResult
	}

	// 按 index 排序确保顺序正确
	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}

	return embeddings, nil
}

// chatRequest OpenAI chat API 请求体。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse OpenAI chat API 响应体。
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateText 根据提示和对话历史生成文本。
// system/user/assistant 角色直接映射到 OpenAI 的消息角色。
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

	messages := make([]chatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, chatMessage{
		Role:    string(llm.RoleUser),
		Content: llm.ProcessText(prompt, p.config.MaxInputCharacters),
	})

	reqBody := chatRequest{
		Model:       p.generationModel,
		Messages:    messages,
		Stream:      false,
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
	}

	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", reqBody, p.headers())
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", llm.ErrNoResult
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ListModels 列出可用模型。
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodGet, p.config.BaseURL+"/models", nil, p.headers())
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := p.client.DoJSON(req, &result); err != nil {
		return nil, err
	}

	models := make([]string, len(result.Data))
	for i, m := range result.Data {
		models[i] = m.ID
	}

	return models, nil
}

// headers 构造认证请求头。
func (p *Provider) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}
	if p.config.Organization != "" {
		h["OpenAI-Organization"] = p.config.Organization
	}
	return h
}
