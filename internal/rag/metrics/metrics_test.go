package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *RAGMetrics {
	t.Helper()
	m := GetRAGMetrics()
	m.Reset()
	return m
}

func TestGetRAGMetrics(t *testing.T) {
	m1 := GetRAGMetrics()
	m2 := GetRAGMetrics()

	// 应该返回同一个单例实例
	assert.Same(t, m1, m2)
}

func TestRecordQuery(t *testing.T) {
	m := newTestMetrics(t)

	// 缓存命中
	m.RecordQuery(true, nil)
	// 缓存未命中
	m.RecordQuery(false, nil)
	// 查询失败
	m.RecordQuery(false, assert.AnError)

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	assert.Equal(t, uint64(3), queries["total"])
	assert.Equal(t, uint64(1), queries["cache_hits"])
	assert.Equal(t, uint64(1), queries["cache_misses"])
	assert.Equal(t, uint64(1), queries["errors"])
	assert.InDelta(t, 0.5, queries["cache_hit_rate"], 0.0001)
}

func TestRecordSearch(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSearch(100*time.Millisecond, nil)
	m.RecordSearch(300*time.Millisecond, nil)
	m.RecordSearch(0, assert.AnError)

	stats := m.Stats()
	search := stats["search"].(map[string]interface{})
	assert.Equal(t, uint64(3), search["total"])
	assert.Equal(t, uint64(1), search["errors"])
	assert.InDelta(t, 0.4, search["total_duration_secs"], 0.0001)
	// 错误的调用不计入耗时，平均值按总次数计算
	assert.InDelta(t, 0.4/3, search["avg_duration_secs"], 0.0001)
}

func TestRecordProcessingAndIndexing(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordProcessing(12, nil)
	m.RecordProcessing(0, assert.AnError)
	m.RecordIndexing(50, nil)
	m.RecordIndexing(0, assert.AnError)

	stats := m.Stats()
	processing := stats["processing"].(map[string]interface{})
	assert.Equal(t, uint64(2), processing["total"])
	assert.Equal(t, uint64(12), processing["chunks_processed"])
	assert.Equal(t, uint64(1), processing["errors"])

	indexing := stats["indexing"].(map[string]interface{})
	assert.Equal(t, uint64(2), indexing["total"])
	assert.Equal(t, uint64(50), indexing["chunks_indexed"])
	assert.Equal(t, uint64(1), indexing["errors"])
}

func TestRecordLLMCalls(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordEmbeddingCall(200*time.Millisecond, nil)
	m.RecordEmbeddingCall(0, assert.AnError)
	m.RecordGenerationCall(time.Second, nil)

	stats := m.Stats()
	llm := stats["llm"].(map[string]interface{})
	assert.Equal(t, uint64(2), llm["embedding_calls"])
	assert.Equal(t, uint64(1), llm["embedding_errors"])
	assert.Equal(t, uint64(1), llm["generation_calls"])
	assert.InDelta(t, 1.0, llm["generation_duration_secs"], 0.0001)
}

func TestRecordUpload(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordUpload(nil)
	m.RecordUpload(nil)
	m.RecordUpload(assert.AnError)

	stats := m.Stats()
	uploads := stats["uploads"].(map[string]interface{})
	assert.Equal(t, uint64(2), uploads["total"])
	assert.Equal(t, uint64(1), uploads["errors"])
}

func TestExport(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordQuery(true, nil)
	m.RecordIndexing(7, nil)

	out := m.Export("minirag", "rag")
	require.NotEmpty(t, out)

	assert.Contains(t, out, "# TYPE minirag_rag_queries_total counter")
	assert.Contains(t, out, "minirag_rag_queries_total 1")
	assert.Contains(t, out, "minirag_rag_chunks_indexed_total 7")
	assert.Contains(t, out, "minirag_rag_cache_hit_rate 1.0000")
	assert.Contains(t, out, "minirag_rag_uptime_seconds")

	// 每个指标都带 HELP 注释
	assert.Equal(t, strings.Count(out, "# HELP"), strings.Count(out, "# TYPE"))
}

func TestConcurrentRecording(t *testing.T) {
	m := newTestMetrics(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordQuery(j%2 == 0, nil)
				m.RecordSearch(time.Millisecond, nil)
				m.RecordIndexing(1, nil)
			}
		}()
	}
	wg.Wait()

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	assert.Equal(t, uint64(1000), queries["total"])
	indexing := stats["indexing"].(map[string]interface{})
	assert.Equal(t, uint64(1000), indexing["chunks_indexed"])
}

func TestReset(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordQuery(true, nil)
	m.RecordSearch(time.Second, nil)
	m.Reset()

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	assert.Equal(t, uint64(0), queries["total"])
	search := stats["search"].(map[string]interface{})
	assert.Equal(t, 0.0, search["total_duration_secs"])
}
