// Package gemini 提供 Google Gemini LLM 供应商实现。
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
	"github.com/Abdul-Halim01/mini-RAG/pkg/utils/httpclient"
)

const ProviderName = "gemini"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Gemini 供应商配置。
type Config struct {
	// BaseURL API 基础地址。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey Google AI API 密钥。
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
		BaseURL:                "https://generativelanguage.googleapis.com/v1beta",
		MaxInputCharacters:     1024,
		DefaultMaxOutputTokens: 200,
		DefaultTemperature:     0.1,
		Timeout:                120 * time.Second,
		MaxRetries:             3,
	}
}

// Provider Gemini 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client

	generationModel string
	embeddingModel  string
	embeddingSize   int
}

// NewProvider 从配置 map 创建 Gemini 供应商。
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
		return nil, fmt.Errorf("gemini: api_key 是必需的")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Gemini 供应商。
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

// embedRequest Gemini batchEmbedContents API 请求体。
type embedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentRequest struct {
	Model    string       `json:"model"`
	Content  embedContent `json:"content"`
	TaskType string       `json:"taskType"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

// embedResponse Gemini batchEmbedContents API 响应体。
type embedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// taskType 将嵌入用途映射为 Gemini 的任务类型。
func taskType(docType llm.DocumentType) string {
	if docType == llm.DocumentTypeQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

// EmbedText 为一批文本生成向量嵌入。
func (p *Provider) EmbedText(ctx context.Context, texts []string, docType llm.DocumentType) ([][]float32, error) {
	if p.embeddingModel == "" {
		return nil, llm.ErrEmbeddingModelNotSet
	}
	if len(texts) == 0 {
		return nil, nil
	}

	// Gemini 使用 batchEmbedContents API
	requests := make([]embedContentRequest, len(texts))
	for i, text := range texts {
		requests[i] = embedContentRequest{
			Model: fmt.Sprintf("models/%s", p.embeddingModel),
			Content: embedContent{
				Parts: []embedPart{{Text: llm.ProcessText(text, p.config.MaxInputCharacters)}},
			},
			TaskType: taskType(docType),
		}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s",
		p.config.BaseURL, p.embeddingModel, p.config.APIKey)

	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, url, embedRequest{Requests: requests}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	var embedResp embedResponse
	if err := p.client.DoJSON(req, &embedResp); err != nil {
		return nil, err
	}

	if len(embedResp.Embeddings) == 0 {
		return nil, llm.ErrNoResult
	}

	embeddings := make([][]float32, len(embedResp.Embeddings))
	for i, emb := range embedResp.Embeddings {
		embeddings[i] = emb.Values
	}

	return embeddings, nil
}

// chatRequest Gemini generateContent API 请求体。
type chatRequest struct {
	Contents          []chatContent     `json:"contents"`
	SystemInstruction *chatContent      `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type chatContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []chatPart `json:"parts"`
}

type chatPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// chatResponse Gemini generateContent API 响应体。
type chatResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
			Role string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// GenerateText 根据提示和对话历史生成文本。
// system 消息映射为 systemInstruction，assistant 消息映射为 model 角色。
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

	var contents []chatContent
	var systemInstruction *chatContent

	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			systemInstruction = &chatContent{
				Parts: []chatPart{{Text: msg.Content}},
			}
		case llm.RoleUser:
			contents = append(contents, chatContent{
				Role:  "user",
				Parts: []chatPart{{Text: msg.Content}},
			})
		case llm.RoleAssistant:
			contents = append(contents, chatContent{
				Role:  "model",
				Parts: []chatPart{{Text: msg.Content}},
			})
		}
	}

	contents = append(contents, chatContent{
		Role:  "user",
		Parts: []chatPart{{Text: llm.ProcessText(prompt, p.config.MaxInputCharacters)}},
	})

	reqBody := chatRequest{
		Contents:          contents,
		SystemInstruction: systemInstruction,
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.config.BaseURL, p.generationModel, p.config.APIKey)

	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, url, reqBody, nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Candidates) == 0 || len(chatResp.Candidates[0].Content.Parts) == 0 {
		return "", llm.ErrNoResult
	}

	return chatResp.Candidates[0].Content.Parts[0].Text, nil
}
