// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/Abdul-Halim01/mini-RAG/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
// 生成与嵌入可以使用不同供应商，各自持有一份 ProviderOptions。
type ProviderOptions struct {
	// Backend 供应商名称（openai, cohere, gemini）。
	Backend string `json:"backend" mapstructure:"backend"`

	// BaseURL API 基础地址。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。
	APIKey string `json:"api-key" mapstructure:"api-key"`

	// ModelID 使用的模型 ID。
	ModelID string `json:"model-id" mapstructure:"model-id"`

	// EmbeddingSize 嵌入向量维度（仅嵌入供应商需要）。
	EmbeddingSize int `json:"embedding-size" mapstructure:"embedding-size"`

	// MaxInputCharacters 输入文本最大字符数，超出部分会被截断。
	MaxInputCharacters int `json:"max-input-characters" mapstructure:"max-input-characters"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewGenerationOptions 创建默认生成供应商配置。
func NewGenerationOptions() *ProviderOptions {
	return &ProviderOptions{
		Backend:            "openai",
		ModelID:            "gpt-4o-mini",
		MaxInputCharacters: 1024,
		Timeout:            120 * time.Second,
		MaxRetries:         3,
	}
}

// NewEmbeddingOptions 创建默认嵌入供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Backend:            "openai",
		ModelID:            "text-embedding-3-small",
		EmbeddingSize:      1536,
		MaxInputCharacters: 1024,
		Timeout:            120 * time.Second,
		MaxRetries:         3,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":             o.BaseURL,
		"api_key":              o.APIKey,
		"max_input_characters": o.MaxInputCharacters,
		"timeout":              o.Timeout,
		"max_retries":          o.MaxRetries,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, options.Join(prefixes...)+"backend", o.Backend, "LLM backend (openai, cohere, gemini).")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.ModelID, options.Join(prefixes...)+"model-id", o.ModelID, "LLM model ID.")
	fs.IntVar(&o.EmbeddingSize, options.Join(prefixes...)+"embedding-size", o.EmbeddingSize, "Embedding vector dimension.")
	fs.IntVar(&o.MaxInputCharacters, options.Join(prefixes...)+"max-input-characters", o.MaxInputCharacters, "Maximum input characters before truncation.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Backend == "" {
		errs = append(errs, fmt.Errorf("backend is required"))
	}
	if o.ModelID == "" {
		errs = append(errs, fmt.Errorf("model-id is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for %s backend", o.Backend))
	}
	if o.MaxInputCharacters <= 0 {
		errs = append(errs, fmt.Errorf("max-input-characters must be positive"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return nil
}
