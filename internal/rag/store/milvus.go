package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
	"github.com/Abdul-Halim01/mini-RAG/pkg/component/milvus"
)

// VectorRecord 是写入向量集合的一条记录。
type VectorRecord struct {
	// ID 记录主键，使用文档块的 ObjectID 十六进制串。
	ID string
	// Text 原始文本。
	Text string
	// Metadata 序列化后的元数据。
	Metadata string
	// Vector 嵌入向量。
	Vector []float32
}

// CollectionInfo 集合的后端统计信息。
type CollectionInfo struct {
	// Name 集合名称。
	Name string `json:"name"`
	// RowCount 记录条数。
	RowCount int64 `json:"row_count"`
	// Dimension 向量维度。
	Dimension int `json:"dimension"`
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureCollection 确保集合存在；reset 为 true 时先删除旧集合。
	EnsureCollection(ctx context.Context, collection string, dimension int, reset bool) error

	// HasCollection 判断集合是否存在。
	HasCollection(ctx context.Context, collection string) (bool, error)

	// ListCollections 返回全部集合名称。
	ListCollections(ctx context.Context) ([]string, error)

	// Insert 批量写入向量记录，主键相同的记录会被覆盖。
	Insert(ctx context.Context, collection string, records []VectorRecord) error

	// Search 向量相似度搜索，按分数降序返回至多 limit 条结果。
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]model.RetrievedDocument, error)

	// Info 返回集合统计信息。
	Info(ctx context.Context, collection string) (*CollectionInfo, error)

	// Drop 删除集合。
	Drop(ctx context.Context, collection string) error

	// Close 关闭连接。
	Close(ctx context.Context) error
}

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection 确保集合存在；reset 为 true 时先删除旧集合重建。
func (s *MilvusStore) EnsureCollection(ctx context.Context, collection string, dimension int, reset bool) error {
	if reset {
		exists, err := s.client.HasCollection(ctx, collection)
		if err != nil {
			return err
		}
		if exists {
			if err := s.client.DropCollection(ctx, collection); err != nil {
				return err
			}
		}
	}
	return s.client.CreateCollection(ctx, collection, dimension)
}

// HasCollection 判断集合是否存在。
func (s *MilvusStore) HasCollection(ctx context.Context, collection string) (bool, error) {
	return s.client.HasCollection(ctx, collection)
}

// ListCollections 返回全部集合名称。
func (s *MilvusStore) ListCollections(ctx context.Context) ([]string, error) {
	return s.client.ListCollections(ctx)
}

// Insert 批量写入向量记录。
func (s *MilvusStore) Insert(ctx context.Context, collection string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]milvus.Record, len(records))
	for i, r := range records {
		rows[i] = milvus.Record{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Vector:   r.Vector,
		}
	}

	if err := s.client.Upsert(ctx, collection, rows); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Search 执行向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]model.RetrievedDocument, error) {
	results, err := s.client.Search(ctx, collection, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	documents := make([]model.RetrievedDocument, len(results))
	for i, r := range results {
		documents[i] = model.RetrievedDocument{
			Text:  r.Text,
			Score: float64(r.Score),
		}
	}

	return documents, nil
}

// Info 返回集合的记录数与向量维度。
func (s *MilvusStore) Info(ctx context.Context, collection string) (*CollectionInfo, error) {
	rowCount, err := s.client.GetCollectionStats(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection stats: %w", err)
	}

	info := &CollectionInfo{
		Name:     collection,
		RowCount: rowCount,
	}

	desc, err := s.client.DescribeCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to describe collection: %w", err)
	}
	for _, field := range desc.Schema.Fields {
		if field.DataType != entity.FieldTypeFloatVector {
			continue
		}
		if dim, ok := field.TypeParams[entity.TypeParamDim]; ok {
			if d, err := strconv.Atoi(dim); err == nil {
				info.Dimension = d
			}
		}
	}

	return info, nil
}

// Drop 删除集合。
func (s *MilvusStore) Drop(ctx context.Context, collection string) error {
	return s.client.DropCollection(ctx, collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
