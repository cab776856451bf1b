// Package metrics 提供 RAG 服务的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RAGMetrics RAG 服务业务指标。
type RAGMetrics struct {
	// 上传指标
	uploadsTotal uint64 // 文件上传成功次数
	uploadErrors uint64 // 文件上传失败次数

	// 处理指标
	processingTotal  uint64 // 处理操作次数
	processingErrors uint64 // 处理失败次数
	chunksProcessed  uint64 // 已生成文档块数

	// 查询指标
	queriesTotal       uint64 // 总查询次数
	queriesCacheHits   uint64 // 缓存命中次数
	queriesCacheMisses uint64 // 缓存未命中次数
	queriesErrors      uint64 // 查询错误次数

	// 检索指标
	searchTotal    uint64  // 总检索次数
	searchDuration float64 // 检索总耗时（秒）
	searchErrors   uint64  // 检索错误次数

	// LLM 调用指标
	embeddingCallsTotal  uint64  // 嵌入调用次数
	embeddingDuration    float64 // 嵌入调用总耗时（秒）
	embeddingErrors      uint64  // 嵌入调用错误次数
	generationCallsTotal uint64  // 生成调用次数
	generationDuration   float64 // 生成调用总耗时（秒）
	generationErrors     uint64  // 生成调用错误次数

	// 索引指标
	indexTotal    uint64 // 索引操作次数
	chunksIndexed uint64 // 已写入向量库的块数
	indexErrors   uint64 // 索引错误次数

	startTime  time.Time
	durationMu sync.Mutex
}

// globalRAGMetrics 全局 RAG 指标实例。
var (
	globalRAGMetrics *RAGMetrics
	ragMetricsOnce   sync.Once
)

// GetRAGMetrics 获取全局 RAG 指标实例。
func GetRAGMetrics() *RAGMetrics {
	ragMetricsOnce.Do(func() {
		globalRAGMetrics = &RAGMetrics{
			startTime: time.Now(),
		}
	})
	return globalRAGMetrics
}

// RecordUpload 记录文件上传。
func (m *RAGMetrics) RecordUpload(err error) {
	if err != nil {
		atomic.AddUint64(&m.uploadErrors, 1)
		return
	}
	atomic.AddUint64(&m.uploadsTotal, 1)
}

// RecordProcessing 记录一次文件处理及其产出的块数。
func (m *RAGMetrics) RecordProcessing(chunks int, err error) {
	atomic.AddUint64(&m.processingTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.processingErrors, 1)
		return
	}
	if chunks > 0 {
		atomic.AddUint64(&m.chunksProcessed, uint64(chunks))
	}
}

// RecordQuery 记录查询。
func (m *RAGMetrics) RecordQuery(cacheHit bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if cacheHit {
		atomic.AddUint64(&m.queriesCacheHits, 1)
	} else {
		atomic.AddUint64(&m.queriesCacheMisses, 1)
	}
}

// RecordSearch 记录检索操作。
func (m *RAGMetrics) RecordSearch(duration time.Duration, err error) {
	atomic.AddUint64(&m.searchTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.searchErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.searchDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordEmbeddingCall 记录嵌入调用。
func (m *RAGMetrics) RecordEmbeddingCall(duration time.Duration, err error) {
	atomic.AddUint64(&m.embeddingCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.embeddingErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.embeddingDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordGenerationCall 记录生成调用。
func (m *RAGMetrics) RecordGenerationCall(duration time.Duration, err error) {
	atomic.AddUint64(&m.generationCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.generationErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.generationDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordIndexing 记录一次索引操作及写入的块数。
func (m *RAGMetrics) RecordIndexing(chunks int, err error) {
	atomic.AddUint64(&m.indexTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.indexErrors, 1)
		return
	}
	if chunks > 0 {
		atomic.AddUint64(&m.chunksIndexed, uint64(chunks))
	}
}

// Export 导出 Prometheus 格式指标。
func (m *RAGMetrics) Export(namespace, subsystem string) string {
	var sb strings.Builder
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	counter := func(name, help string, value uint64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %d\n\n", prefix, name, value))
	}

	counter("uploads_total", "Total number of uploaded files.", atomic.LoadUint64(&m.uploadsTotal))
	counter("upload_errors_total", "Number of upload errors.", atomic.LoadUint64(&m.uploadErrors))
	counter("processing_total", "Total number of processing operations.", atomic.LoadUint64(&m.processingTotal))
	counter("processing_errors_total", "Number of processing errors.", atomic.LoadUint64(&m.processingErrors))
	counter("chunks_processed_total", "Total chunks produced by processing.", atomic.LoadUint64(&m.chunksProcessed))
	counter("queries_total", "Total number of RAG queries.", atomic.LoadUint64(&m.queriesTotal))
	counter("queries_cache_hits_total", "Number of cache hits.", atomic.LoadUint64(&m.queriesCacheHits))
	counter("queries_cache_misses_total", "Number of cache misses.", atomic.LoadUint64(&m.queriesCacheMisses))
	counter("queries_errors_total", "Number of query errors.", atomic.LoadUint64(&m.queriesErrors))
	counter("search_total", "Total number of vector searches.", atomic.LoadUint64(&m.searchTotal))
	counter("search_errors_total", "Number of search errors.", atomic.LoadUint64(&m.searchErrors))
	counter("embedding_calls_total", "Total number of embedding calls.", atomic.LoadUint64(&m.embeddingCallsTotal))
	counter("embedding_errors_total", "Number of embedding call errors.", atomic.LoadUint64(&m.embeddingErrors))
	counter("generation_calls_total", "Total number of generation calls.", atomic.LoadUint64(&m.generationCallsTotal))
	counter("generation_errors_total", "Number of generation call errors.", atomic.LoadUint64(&m.generationErrors))
	counter("index_total", "Total number of index operations.", atomic.LoadUint64(&m.indexTotal))
	counter("chunks_indexed_total", "Total chunks written to the vector store.", atomic.LoadUint64(&m.chunksIndexed))
	counter("index_errors_total", "Number of indexing errors.", atomic.LoadUint64(&m.indexErrors))

	// 缓存命中率
	cacheHits := atomic.LoadUint64(&m.queriesCacheHits)
	cacheMisses := atomic.LoadUint64(&m.queriesCacheMisses)
	total := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total)
	}
	sb.WriteString(fmt.Sprintf("# HELP %s_cache_hit_rate Cache hit rate (0-1).\n", prefix))
	sb.WriteString(fmt.Sprintf("# TYPE %s_cache_hit_rate gauge\n", prefix))
	sb.WriteString(fmt.Sprintf("%s_cache_hit_rate %.4f\n\n", prefix, cacheHitRate))

	m.durationMu.Lock()
	searchDuration := m.searchDuration
	embeddingDuration := m.embeddingDuration
	generationDuration := m.generationDuration
	m.durationMu.Unlock()

	gauge := func(name, help string, value float64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %.6f\n\n", prefix, name, value))
	}

	gauge("search_duration_seconds_total", "Total search duration.", searchDuration)
	gauge("embedding_duration_seconds_total", "Total embedding call duration.", embeddingDuration)
	gauge("generation_duration_seconds_total", "Total generation call duration.", generationDuration)

	uptime := time.Since(m.startTime).Seconds()
	sb.WriteString(fmt.Sprintf("# HELP %s_uptime_seconds Service uptime in seconds.\n", prefix))
	sb.WriteString(fmt.Sprintf("# TYPE %s_uptime_seconds gauge\n", prefix))
	sb.WriteString(fmt.Sprintf("%s_uptime_seconds %.2f\n\n", prefix, uptime))

	return sb.String()
}

// Stats 返回当前统计信息（用于 API）。
func (m *RAGMetrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	searchDuration := m.searchDuration
	embeddingDuration := m.embeddingDuration
	generationDuration := m.generationDuration
	m.durationMu.Unlock()

	cacheHits := atomic.LoadUint64(&m.queriesCacheHits)
	cacheMisses := atomic.LoadUint64(&m.queriesCacheMisses)
	cacheTotal := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if cacheTotal > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheTotal)
	}

	searchTotal := atomic.LoadUint64(&m.searchTotal)
	avgSearchDuration := 0.0
	if searchTotal > 0 {
		avgSearchDuration = searchDuration / float64(searchTotal)
	}

	return map[string]interface{}{
		"uploads": map[string]interface{}{
			"total":  atomic.LoadUint64(&m.uploadsTotal),
			"errors": atomic.LoadUint64(&m.uploadErrors),
		},
		"processing": map[string]interface{}{
			"total":            atomic.LoadUint64(&m.processingTotal),
			"chunks_processed": atomic.LoadUint64(&m.chunksProcessed),
			"errors":           atomic.LoadUint64(&m.processingErrors),
		},
		"queries": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.queriesTotal),
			"cache_hits":     cacheHits,
			"cache_misses":   cacheMisses,
			"cache_hit_rate": cacheHitRate,
			"errors":         atomic.LoadUint64(&m.queriesErrors),
		},
		"search": map[string]interface{}{
			"total":               searchTotal,
			"total_duration_secs": searchDuration,
			"avg_duration_secs":   avgSearchDuration,
			"errors":              atomic.LoadUint64(&m.searchErrors),
		},
		"llm": map[string]interface{}{
			"embedding_calls":           atomic.LoadUint64(&m.embeddingCallsTotal),
			"embedding_duration_secs":   embeddingDuration,
			"embedding_errors":          atomic.LoadUint64(&m.embeddingErrors),
			"generation_calls":          atomic.LoadUint64(&m.generationCallsTotal),
			"generation_duration_secs":  generationDuration,
			"generation_errors":         atomic.LoadUint64(&m.generationErrors),
		},
		"indexing": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.indexTotal),
			"chunks_indexed": atomic.LoadUint64(&m.chunksIndexed),
			"errors":         atomic.LoadUint64(&m.indexErrors),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset 重置所有指标（仅用于测试）。
func (m *RAGMetrics) Reset() {
	atomic.StoreUint64(&m.uploadsTotal, 0)
	atomic.StoreUint64(&m.uploadErrors, 0)
	atomic.StoreUint64(&m.processingTotal, 0)
	atomic.StoreUint64(&m.processingErrors, 0)
	atomic.StoreUint64(&m.chunksProcessed, 0)
	atomic.StoreUint64(&m.queriesTotal, 0)
	atomic.StoreUint64(&m.queriesCacheHits, 0)
	atomic.StoreUint64(&m.queriesCacheMisses, 0)
	atomic.StoreUint64(&m.queriesErrors, 0)
	atomic.StoreUint64(&m.searchTotal, 0)
	atomic.StoreUint64(&m.searchErrors, 0)
	atomic.StoreUint64(&m.embeddingCallsTotal, 0)
	atomic.StoreUint64(&m.embeddingErrors, 0)
	atomic.StoreUint64(&m.generationCallsTotal, 0)
	atomic.StoreUint64(&m.generationErrors, 0)
	atomic.StoreUint64(&m.indexTotal, 0)
	atomic.StoreUint64(&m.chunksIndexed, 0)
	atomic.StoreUint64(&m.indexErrors, 0)

	m.durationMu.Lock()
	m.searchDuration = 0
	m.embeddingDuration = 0
	m.generationDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
