package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

func testChunks(projectID, assetID primitive.ObjectID, count int) []model.DataChunk {
	chunks := make([]model.DataChunk, count)
	for i := range chunks {
		chunks[i] = model.DataChunk{
			ProjectID: projectID,
			AssetID:   assetID,
			Order:     i + 1,
			Text:      "chunk text",
			Metadata:  map[string]any{"source": "doc.txt"},
		}
	}
	return chunks
}

// setupTestDB 连接本地 MongoDB 测试库，不可用时跳过测试。
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Skip("MongoDB 不可用，跳过测试")
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skip("MongoDB 不可用，跳过测试")
	}

	db := client.Database("minirag_test")
	require.NoError(t, db.Drop(ctx))
	require.NoError(t, EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	return db
}

func TestProjectGetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	created, err := s.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())

	// 二次调用返回同一条记录
	loaded, err := s.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	projects, total, err := s.Projects().List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, projects, 1)
}

func TestChunkSaveBatchIdempotent(t *testing.T) {
	db := setupTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	projectID := primitive.NewObjectID()
	assetID := primitive.NewObjectID()
	chunks := testChunks(projectID, assetID, 3)

	inserted, err := s.Chunks().SaveBatch(ctx, chunks, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	// 相同 (project, order) 重写不会产生重复记录
	inserted, err = s.Chunks().SaveBatch(ctx, chunks, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	count, err := s.Chunks().CountByProject(ctx, projectID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	listed, err := s.Chunks().ListByProject(ctx, projectID, 1, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, 1, listed[0].Order)

	chunk, err := s.Chunks().Get(ctx, listed[1].ID)
	require.NoError(t, err)
	assert.Equal(t, listed[1].Order, chunk.Order)

	_, err = s.Chunks().Get(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrChunkNotFound)

	deleted, err := s.Chunks().DeleteByProject(ctx, projectID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
}

func TestAssetLifecycle(t *testing.T) {
	db := setupTestDB(t)
	s := NewStore(db)
	ctx := context.Background()

	projectID := primitive.NewObjectID()
	assetID, err := s.Assets().Create(ctx, &model.Asset{
		ProjectID: projectID,
		Type:      model.AssetTypeFile,
		Name:      "01HZX_report.txt",
		Size:      128,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.False(t, assetID.IsZero())

	asset, err := s.Assets().Get(ctx, projectID, assetID)
	require.NoError(t, err)
	assert.Equal(t, "file", asset.Type)

	_, err = s.Assets().Get(ctx, primitive.NewObjectID(), assetID)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	assets, err := s.Assets().ListByProject(ctx, projectID, "file")
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}
