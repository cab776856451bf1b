package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
	"github.com/Abdul-Halim01/mini-RAG/internal/pkg/rag/prompt"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/metrics"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/store"
	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
	"github.com/Abdul-Halim01/mini-RAG/pkg/utils/json"
)

// collectionPrefix 向量集合名前缀，后接项目记录的 ObjectID 十六进制串。
const collectionPrefix = "collection_"

// ErrNoVectorsInserted 表示向量写入中断。
var ErrNoVectorsInserted = errors.New("failed to insert vectors")

// NLPConfig 索引与问答配置。
type NLPConfig struct {
	// EmbeddingDim 向量维度，与嵌入模型一致。
	EmbeddingDim int
	// BatchSize 翻页与批量写入的页大小。
	BatchSize int
	// DefaultSearchLimit 默认检索条数。
	DefaultSearchLimit int
	// MaxOutputTokens 生成答案的 token 上限。
	MaxOutputTokens int
	// Temperature 生成温度。
	Temperature float64
}

// IndexResult 索引推送结果。
type IndexResult struct {
	ProjectID     string `json:"project_id"`
	Collection    string `json:"collection"`
	InsertedItems int    `json:"inserted_items_count"`
	Pages         int    `json:"pages"`
}

// NLPService 负责向量索引维护与检索问答。
type NLPService interface {
	// PushIndex 将项目的全部文档块嵌入并写入向量集合。
	// doReset 为 true 时先删除旧集合重建。任何一页写入失败立即中止，
	// 已提交的页保持不变，返回值带上中止前的进度。
	PushIndex(ctx context.Context, projectID string, doReset bool) (*IndexResult, error)

	// IndexInfo 返回项目向量集合的后端统计信息。
	IndexInfo(ctx context.Context, projectID string) (*store.CollectionInfo, error)

	// Search 以查询模式嵌入文本并执行向量相似度检索。
	Search(ctx context.Context, projectID, text string, limit int) ([]model.RetrievedDocument, error)

	// Answer 检索相关文档并生成答案，同时返回完整提示词与对话历史。
	// 检索结果为空时返回 (nil, nil)。
	Answer(ctx context.Context, projectID, text string, limit int) (*model.RAGAnswer, error)

	// Stats 返回服务运行指标与缓存统计。
	Stats(ctx context.Context) (map[string]any, error)
}

type nlpService struct {
	store      store.IStore
	vectors    store.VectorStore
	embedding  llm.Provider
	generation llm.Provider
	cache      *QueryCache
	templates  prompt.Templates
	config     *NLPConfig
	metrics    *metrics.RAGMetrics
}

// NewNLPService 创建 NLP 服务实例。
func NewNLPService(
	s store.IStore,
	vectors store.VectorStore,
	embedding llm.Provider,
	generation llm.Provider,
	cache *QueryCache,
	config *NLPConfig,
) NLPService {
	return &nlpService{
		store:      s,
		vectors:    vectors,
		embedding:  embedding,
		generation: generation,
		cache:      cache,
		templates:  prompt.DefaultTemplates(),
		config:     config,
		metrics:    metrics.GetRAGMetrics(),
	}
}

func collectionName(project *model.Project) string {
	return collectionPrefix + project.ID.Hex()
}

// PushIndex 将项目的全部文档块嵌入并写入向量集合。
func (s *nlpService) PushIndex(ctx context.Context, projectID string, doReset bool) (*IndexResult, error) {
	project, err := s.store.Projects().GetOrCreate(ctx, projectID)
	if err != nil {
		s.metrics.RecordIndexing(0, err)
		return nil, err
	}

	collection := collectionName(project)
	if err := s.vectors.EnsureCollection(ctx, collection, s.config.EmbeddingDim, doReset); err != nil {
		s.metrics.RecordIndexing(0, err)
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	result := &IndexResult{
		ProjectID:  projectID,
		Collection: collection,
	}

	for page := 1; ; page++ {
		chunks, err := s.store.Chunks().ListByProject(ctx, project.ID, page, s.config.BatchSize)
		if err != nil {
			s.metrics.RecordIndexing(result.InsertedItems, err)
			return result, err
		}
		if len(chunks) == 0 {
			break
		}

		records, err := s.embedChunks(ctx, chunks)
		if err != nil {
			s.metrics.RecordIndexing(result.InsertedItems, err)
			return result, err
		}

		if err := s.vectors.Insert(ctx, collection, records); err != nil {
			// 已提交的页保持不变，报告中止边界
			logger.Errorw("vector insert failed, aborting index push",
				"project_id", projectID,
				"page", page,
				"inserted_so_far", result.InsertedItems,
				"error", err.Error(),
			)
			s.metrics.RecordIndexing(result.InsertedItems, err)
			return result, fmt.Errorf("%w: %v", ErrNoVectorsInserted, err)
		}

		result.InsertedItems += len(records)
		result.Pages = page
	}

	// 索引内容变化，旧的检索缓存全部失效
	if s.cache != nil {
		_ = s.cache.InvalidateProject(ctx, project.ID.Hex())
	}

	s.metrics.RecordIndexing(result.InsertedItems, nil)
	logger.Infow("index push completed",
		"project_id", projectID,
		"collection", collection,
		"inserted_items", result.InsertedItems,
		"pages", result.Pages,
		"do_reset", doReset,
	)

	return result, nil
}

// embedChunks 以文档模式嵌入一页文档块并组装向量记录。
func (s *nlpService) embedChunks(ctx context.Context, chunks []model.DataChunk) ([]store.VectorRecord, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	start := time.Now()
	vectors, err := s.embedding.EmbedText(ctx, texts, llm.DocumentTypeDocument)
	s.metrics.RecordEmbeddingCall(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
	}

	records := make([]store.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chunk metadata: %w", err)
		}
		records[i] = store.VectorRecord{
			ID:       chunk.ID.Hex(),
			Text:     chunk.Text,
			Metadata: string(metadata),
			Vector:   vectors[i],
		}
	}

	return records, nil
}

// IndexInfo 返回项目向量集合的后端统计信息。
func (s *nlpService) IndexInfo(ctx context.Context, projectID string) (*store.CollectionInfo, error) {
	project, err := s.store.Projects().GetOrCreate(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.vectors.Info(ctx, collectionName(project))
}

// Search 以查询模式嵌入文本并执行向量相似度检索。
func (s *nlpService) Search(ctx context.Context, projectID, text string, limit int) ([]model.RetrievedDocument, error) {
	if limit <= 0 {
		limit = s.config.DefaultSearchLimit
	}

	project, err := s.store.Projects().GetOrCreate(ctx, projectID)
	if err != nil {
		s.metrics.RecordQuery(false, err)
		return nil, err
	}

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, project.ID.Hex(), text, limit)
		if err == nil && hit {
			s.metrics.RecordQuery(true, nil)
			return cached, nil
		}
	}

	start := time.Now()
	vectors, err := s.embedding.EmbedText(ctx, []string{text}, llm.DocumentTypeQuery)
	s.metrics.RecordEmbeddingCall(time.Since(start), err)
	if err != nil {
		s.metrics.RecordQuery(false, err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchStart := time.Now()
	documents, err := s.vectors.Search(ctx, collectionName(project), vectors[0], limit)
	s.metrics.RecordSearch(time.Since(searchStart), err)
	if err != nil {
		s.metrics.RecordQuery(false, err)
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	if s.cache != nil && len(documents) > 0 {
		// 缓存写入失败不影响正常返回
		_ = s.cache.Set(ctx, project.ID.Hex(), text, limit, documents)
	}

	s.metrics.RecordQuery(false, nil)
	return documents, nil
}

// Answer 检索相关文档并生成答案。
func (s *nlpService) Answer(ctx context.Context, projectID, text string, limit int) (*model.RAGAnswer, error) {
	documents, err := s.Search(ctx, projectID, text, limit)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, nil
	}

	texts := make([]string, len(documents))
	for i, doc := range documents {
		texts[i] = doc.Text
	}
	fullPrompt, history := s.templates.Build(text, texts)

	start := time.Now()
	answer, err := s.generation.GenerateText(ctx, fullPrompt, history, s.config.MaxOutputTokens, s.config.Temperature)
	s.metrics.RecordGenerationCall(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &model.RAGAnswer{
		Answer:      answer,
		FullPrompt:  fullPrompt,
		ChatHistory: history,
	}, nil
}

// Stats 返回服务运行指标与缓存统计。
func (s *nlpService) Stats(ctx context.Context) (map[string]any, error) {
	stats := map[string]any{
		"embedding_provider":  s.embedding.Name(),
		"generation_provider": s.generation.Name(),
		"metrics":             s.metrics.Stats(),
	}

	if collections, err := s.vectors.ListCollections(ctx); err == nil {
		stats["collections_count"] = len(collections)
	}

	if s.cache != nil {
		cacheStats, err := s.cache.GetStats(ctx)
		if err == nil {
			stats["cache"] = cacheStats
		}
	}

	return stats, nil
}
