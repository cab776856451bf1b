package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

type chunkStore struct {
	coll *mongo.Collection
}

func newChunkStore(db *mongo.Database) *chunkStore {
	return &chunkStore{coll: db.Collection(model.CollectionChunks)}
}

// SaveBatch 按 (project_id, order) 幂等写入文档块。
// 同一位置的旧块会被整体替换，重跑处理流程不会产生重复记录。
func (s *chunkStore) SaveBatch(ctx context.Context, chunks []model.DataChunk, batchSize int) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	if batchSize < 1 {
		batchSize = len(chunks)
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		writes := make([]mongo.WriteModel, 0, end-start)
		for _, chunk := range chunks[start:end] {
			doc := bson.M{
				"project_id": chunk.ProjectID,
				"asset_id":   chunk.AssetID,
				"order":      chunk.Order,
				"text":       chunk.Text,
				"metadata":   chunk.Metadata,
			}
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"project_id": chunk.ProjectID, "order": chunk.Order}).
				SetReplacement(doc).
				SetUpsert(true))
		}

		if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return 0, fmt.Errorf("failed to save chunk batch: %w", err)
		}
	}

	return len(chunks), nil
}

// ErrChunkNotFound 表示文档块不存在。
var ErrChunkNotFound = errors.New("chunk not found")

// Get 按 ID 返回单个文档块。
func (s *chunkStore) Get(ctx context.Context, chunkID primitive.ObjectID) (*model.DataChunk, error) {
	var chunk model.DataChunk
	if err := s.coll.FindOne(ctx, bson.M{"_id": chunkID}).Decode(&chunk); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChunkNotFound
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &chunk, nil
}

// ListByProject 按 order 升序分页返回项目下的文档块。
func (s *chunkStore) ListByProject(ctx context.Context, projectID primitive.ObjectID, page, pageSize int) ([]model.DataChunk, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "order", Value: 1}}).
		SetSkip(int64(page-1) * int64(pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := s.coll.Find(ctx, bson.M{"project_id": projectID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	chunks := make([]model.DataChunk, 0, pageSize)
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}

	return chunks, nil
}

// CountByProject 返回项目下的文档块总数。
func (s *chunkStore) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// DeleteByProject 删除项目下的全部文档块。
func (s *chunkStore) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return result.DeletedCount, nil
}
