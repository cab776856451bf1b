// Package ragsvc provides the RAG service server implementation.
package ragsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Abdul-Halim01/mini-RAG/internal/rag/biz"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/handler"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/router"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/store"
	"github.com/Abdul-Halim01/mini-RAG/pkg/app"
	"github.com/Abdul-Halim01/mini-RAG/pkg/component/milvus"
	"github.com/Abdul-Halim01/mini-RAG/pkg/component/mongodb"
	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
	"github.com/Abdul-Halim01/mini-RAG/pkg/llm/resilience"
	cacheopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/cache"
	httpopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/http"
	llmopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/llm"
	logopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/logger"
	milvusopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/milvus"
	mongodbopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/mongodb"
	ragopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/rag"

	// 导入 LLM 供应商以完成注册
	_ "github.com/Abdul-Halim01/mini-RAG/pkg/llm/cohere"
	_ "github.com/Abdul-Halim01/mini-RAG/pkg/llm/gemini"
	_ "github.com/Abdul-Halim01/mini-RAG/pkg/llm/openai"
)

// Name is the name of the application.
const Name = "mini-rag"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions       *httpopts.Options
	LogOptions        *logopts.Options
	MongoOptions      *mongodbopts.Options
	MilvusOptions     *milvusopts.Options
	CacheOptions      *cacheopts.Options
	GenerationOptions *llmopts.ProviderOptions
	EmbeddingOptions  *llmopts.ProviderOptions
	RAGOptions        *ragopts.Options
	ShutdownTimeout   time.Duration
}

// Server represents the RAG server.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	closers         []func()
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	// 1. 初始化日志
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting RAG service...", "name", Name, "version", app.GetVersion())

	var closers []func()

	// 2. 初始化 MongoDB 客户端与存储层
	mongoClient, err := mongodb.NewWithContext(ctx, cfg.MongoOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongodb: %w", err)
	}
	closers = append(closers, func() { _ = mongoClient.Close() })

	db := mongoClient.Database()
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure mongodb indexes: %w", err)
	}
	dataStore := store.NewStore(db)
	logger.Info("MongoDB store initialized")

	// 3. 初始化 Milvus 客户端与向量存储
	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	closers = append(closers, func() { _ = milvusClient.Close(context.Background()) })
	vectorStore := store.NewMilvusStore(milvusClient)
	logger.Info("Vector store initialized")

	// 4. 初始化 Redis 查询缓存
	redisClient := cfg.newRedisClient(&closers)
	queryCache := cfg.newQueryCache(redisClient)

	// 5. 初始化 LLM 供应商，统一套上重试和熔断包装
	rawGeneration, err := llm.NewProvider(cfg.GenerationOptions.Backend, cfg.GenerationOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation provider: %w", err)
	}
	generation := llm.Provider(resilience.Wrap(rawGeneration, nil, nil))
	generation.SetGenerationModel(cfg.GenerationOptions.ModelID)
	logger.Infow("Generation provider initialized",
		"backend", cfg.GenerationOptions.Backend,
		"model", cfg.GenerationOptions.ModelID,
	)

	rawEmbedding, err := llm.NewProvider(cfg.EmbeddingOptions.Backend, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	embedding := llm.Provider(resilience.Wrap(rawEmbedding, nil, nil))
	if redisClient != nil {
		// 嵌入结果缓存复用查询缓存的 Redis 连接
		embedding = llm.NewCachedProvider(embedding, redisClient, llm.DefaultEmbeddingCacheConfig())
	}
	embedding.SetEmbeddingModel(cfg.EmbeddingOptions.ModelID, cfg.EmbeddingOptions.EmbeddingSize)
	logger.Infow("Embedding provider initialized",
		"backend", cfg.EmbeddingOptions.Backend,
		"model", cfg.EmbeddingOptions.ModelID,
		"embedding_size", cfg.EmbeddingOptions.EmbeddingSize,
	)

	// 6. 初始化 Biz 层
	dataService := biz.NewDataService(dataStore, &biz.DataConfig{
		DataDir:            cfg.RAGOptions.DataDir,
		AllowedTypes:       cfg.RAGOptions.FileAllowedTypes,
		MaxSizeBytes:       int64(cfg.RAGOptions.FileMaxSizeMB) * 1024 * 1024,
		DefaultChunkSize:   cfg.RAGOptions.DefaultChunkSize,
		DefaultOverlapSize: cfg.RAGOptions.DefaultOverlapSize,
		BatchSize:          cfg.RAGOptions.IndexBatchSize,
	})
	nlpService := biz.NewNLPService(dataStore, vectorStore, embedding, generation, queryCache, &biz.NLPConfig{
		EmbeddingDim:       cfg.EmbeddingOptions.EmbeddingSize,
		BatchSize:          cfg.RAGOptions.IndexBatchSize,
		DefaultSearchLimit: cfg.RAGOptions.DefaultSearchLimit,
		MaxOutputTokens:    cfg.RAGOptions.MaxOutputTokens,
		Temperature:        cfg.RAGOptions.Temperature,
	})
	logger.Info("Biz layer initialized")

	// 7. 初始化 HTTP 引擎与路由
	gin.SetMode(cfg.HTTPOptions.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = cfg.HTTPOptions.MaxMultipartMemoryMB << 20
	router.Register(engine, handler.NewDataHandler(dataService), handler.NewNLPHandler(nlpService))

	httpServer := &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("RAG service is ready")
	return &Server{
		httpServer:      httpServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		closers:         closers,
	}, nil
}

// newRedisClient 按配置连接 Redis，连接失败时返回 nil 继续启动。
func (cfg *Config) newRedisClient(closers *[]func()) *goredis.Client {
	if !cfg.CacheOptions.Enabled || cfg.CacheOptions.Redis == nil {
		logger.Info("Query cache is disabled")
		return nil
	}

	redisOpts := cfg.CacheOptions.Redis
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         redisOpts.Addr(),
		Password:     redisOpts.Password,
		DB:           redisOpts.Database,
		MaxRetries:   redisOpts.MaxRetries,
		PoolSize:     redisOpts.PoolSize,
		MinIdleConns: redisOpts.MinIdleConns,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		_ = redisClient.Close()
		return nil
	}

	*closers = append(*closers, func() { _ = redisClient.Close() })
	logger.Infow("Redis cache initialized",
		"addr", redisOpts.Addr(),
		"ttl", cfg.CacheOptions.TTL,
	)
	return redisClient
}

// newQueryCache 基于已建立的 Redis 连接构建检索结果缓存。
func (cfg *Config) newQueryCache(redisClient *goredis.Client) *biz.QueryCache {
	if redisClient == nil {
		return nil
	}
	return biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
		Enabled:   true,
		TTL:       cfg.CacheOptions.TTL,
		KeyPrefix: cfg.CacheOptions.KeyPrefix,
	})
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		for _, closeFn := range s.closers {
			closeFn()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down RAG service...")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	logger.Info("RAG service stopped")
	return nil
}
