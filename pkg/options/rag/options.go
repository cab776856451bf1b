// Package rag provides RAG pipeline configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Abdul-Halim01/mini-RAG/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 定义 RAG 流水线配置。
type Options struct {
	// DataDir 上传文件存储根目录。
	DataDir string `json:"data-dir" mapstructure:"data-dir"`

	// FileAllowedTypes 允许上传的 MIME 类型。
	FileAllowedTypes []string `json:"file-allowed-types" mapstructure:"file-allowed-types"`

	// FileMaxSizeMB 单个上传文件大小上限（MB）。
	FileMaxSizeMB int `json:"file-max-size-mb" mapstructure:"file-max-size-mb"`

	// DefaultChunkSize 默认分块大小（字符数）。
	DefaultChunkSize int `json:"default-chunk-size" mapstructure:"default-chunk-size"`

	// DefaultOverlapSize 默认分块重叠大小（字符数）。
	DefaultOverlapSize int `json:"default-overlap-size" mapstructure:"default-overlap-size"`

	// DefaultSearchLimit 默认检索返回条数。
	DefaultSearchLimit int `json:"default-search-limit" mapstructure:"default-search-limit"`

	// IndexBatchSize 索引推送时每批处理的分块数。
	IndexBatchSize int `json:"index-batch-size" mapstructure:"index-batch-size"`

	// MaxOutputTokens 回答生成的最大输出 token 数。
	MaxOutputTokens int `json:"max-output-tokens" mapstructure:"max-output-tokens"`

	// Temperature 回答生成温度。
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// NewOptions creates an Options object with default parameters.
func NewOptions() *Options {
	return &Options{
		DataDir:            "assets/files",
		FileAllowedTypes:   []string{"text/plain", "application/pdf"},
		FileMaxSizeMB:      10,
		DefaultChunkSize:   100,
		DefaultOverlapSize: 20,
		DefaultSearchLimit: 5,
		IndexBatchSize:     50,
		MaxOutputTokens:    200,
		Temperature:        0.1,
	}
}

// AddFlags adds flags for RAG pipeline options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.DataDir, options.Join(prefixes...)+"rag.data-dir", o.DataDir, "Directory for uploaded project files.")
	fs.StringSliceVar(&o.FileAllowedTypes, options.Join(prefixes...)+"rag.file-allowed-types", o.FileAllowedTypes, "Allowed MIME types for uploaded files.")
	fs.IntVar(&o.FileMaxSizeMB, options.Join(prefixes...)+"rag.file-max-size-mb", o.FileMaxSizeMB, "Maximum uploaded file size in megabytes.")
	fs.IntVar(&o.DefaultChunkSize, options.Join(prefixes...)+"rag.default-chunk-size", o.DefaultChunkSize, "Default chunk size in characters.")
	fs.IntVar(&o.DefaultOverlapSize, options.Join(prefixes...)+"rag.default-overlap-size", o.DefaultOverlapSize, "Default chunk overlap in characters.")
	fs.IntVar(&o.DefaultSearchLimit, options.Join(prefixes...)+"rag.default-search-limit", o.DefaultSearchLimit, "Default number of search results.")
	fs.IntVar(&o.IndexBatchSize, options.Join(prefixes...)+"rag.index-batch-size", o.IndexBatchSize, "Number of chunks per indexing batch.")
	fs.IntVar(&o.MaxOutputTokens, options.Join(prefixes...)+"rag.max-output-tokens", o.MaxOutputTokens, "Maximum output tokens for answer generation.")
	fs.Float64Var(&o.Temperature, options.Join(prefixes...)+"rag.temperature", o.Temperature, "Sampling temperature for answer generation.")
}

// Validate validates the RAG pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.DataDir == "" {
		errs = append(errs, fmt.Errorf("data-dir is required"))
	}
	if o.FileMaxSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("file-max-size-mb must be positive"))
	}
	if o.DefaultChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("default-chunk-size must be positive"))
	}
	if o.DefaultOverlapSize < 0 {
		errs = append(errs, fmt.Errorf("default-overlap-size cannot be negative"))
	}
	if o.DefaultOverlapSize >= o.DefaultChunkSize {
		errs = append(errs, fmt.Errorf("default-overlap-size must be smaller than default-chunk-size"))
	}
	if o.DefaultSearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("default-search-limit must be positive"))
	}
	if o.IndexBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("index-batch-size must be positive"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2"))
	}
	return errs
}

// Complete completes the RAG pipeline options with defaults.
func (o *Options) Complete() error {
	if len(o.FileAllowedTypes) == 0 {
		o.FileAllowedTypes = []string{"text/plain", "application/pdf"}
	}
	return nil
}
