// Package options contains flags and options for initializing the mini-RAG server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	ragsvc "github.com/Abdul-Halim01/mini-RAG/internal/rag"
	cliflag "github.com/Abdul-Halim01/mini-RAG/pkg/app/cliflag"
	cacheopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/cache"
	httpopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/http"
	llmopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/llm"
	logopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/logger"
	milvusopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/milvus"
	mongodbopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/mongodb"
	ragopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/rag"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// MongoOptions contains MongoDB configuration.
	MongoOptions *mongodbopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// MilvusOptions contains Milvus database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// CacheOptions contains query cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// GenerationOptions contains text generation provider configuration.
	GenerationOptions *llmopts.ProviderOptions `json:"generation" mapstructure:"generation"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// RAGOptions contains RAG pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		MongoOptions:      mongodbopts.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		CacheOptions:      cacheopts.NewOptions(),
		GenerationOptions: llmopts.NewGenerationOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		RAGOptions:        ragopts.NewOptions(),
		ShutdownTimeout:   30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MongoOptions.AddFlags(fss.FlagSet("mongodb"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.GenerationOptions.AddFlags(fss.FlagSet("generation"), "generation")
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))

	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.GenerationOptions.Complete(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.MongoOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.GenerationOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)

	if o.EmbeddingOptions.EmbeddingSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.embedding-size must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a ragsvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*ragsvc.Config, error) {
	return &ragsvc.Config{
		HTTPOptions:       o.HTTPOptions,
		LogOptions:        o.LogOptions,
		MongoOptions:      o.MongoOptions,
		MilvusOptions:     o.MilvusOptions,
		CacheOptions:      o.CacheOptions,
		GenerationOptions: o.GenerationOptions,
		EmbeddingOptions:  o.EmbeddingOptions,
		RAGOptions:        o.RAGOptions,
		ShutdownTimeout:   o.ShutdownTimeout,
	}, nil
}
