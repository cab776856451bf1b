package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

// ProjectStore 管理项目记录。
type ProjectStore interface {
	// GetOrCreate 按外部项目 ID 查找项目，不存在则创建。
	GetOrCreate(ctx context.Context, projectID string) (*model.Project, error)

	// List 分页返回全部项目，page 从 1 开始。
	List(ctx context.Context, page, pageSize int) ([]model.Project, int64, error)
}

// AssetStore 管理上传资产记录。
type AssetStore interface {
	// Create 保存资产记录并返回其 ID。
	Create(ctx context.Context, asset *model.Asset) (primitive.ObjectID, error)

	// Get 按 ID 返回属于指定项目的资产。
	Get(ctx context.Context, projectID, assetID primitive.ObjectID) (*model.Asset, error)

	// ListByProject 返回项目下指定类型的全部资产。
	ListByProject(ctx context.Context, projectID primitive.ObjectID, assetType string) ([]model.Asset, error)
}

// ChunkStore 管理文档块记录。
type ChunkStore interface {
	// SaveBatch 按 (project_id, order) 幂等写入文档块，
	// 按 batchSize 分批提交，返回写入的条数。
	SaveBatch(ctx context.Context, chunks []model.DataChunk, batchSize int) (int, error)

	// Get 按 ID 返回单个文档块。
	Get(ctx context.Context, chunkID primitive.ObjectID) (*model.DataChunk, error)

	// ListByProject 按 order 升序分页返回项目下的文档块，page 从 1 开始。
	ListByProject(ctx context.Context, projectID primitive.ObjectID, page, pageSize int) ([]model.DataChunk, error)

	// CountByProject 返回项目下的文档块总数。
	CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)

	// DeleteByProject 删除项目下的全部文档块，返回删除条数。
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

// IStore 聚合所有 MongoDB 存储。
type IStore interface {
	Projects() ProjectStore
	Assets() AssetStore
	Chunks() ChunkStore
}

type datastore struct {
	db *mongo.Database
}

// NewStore 基于 MongoDB 数据库句柄创建存储层。
func NewStore(db *mongo.Database) IStore {
	return &datastore{db: db}
}

func (ds *datastore) Projects() ProjectStore {
	return newProjectStore(ds.db)
}

func (ds *datastore) Assets() AssetStore {
	return newAssetStore(ds.db)
}

func (ds *datastore) Chunks() ChunkStore {
	return newChunkStore(ds.db)
}
