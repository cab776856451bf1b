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

// ErrAssetNotFound 表示指定资产不存在或不属于该项目。
var ErrAssetNotFound = errors.New("asset not found")

type assetStore struct {
	coll *mongo.Collection
}

func newAssetStore(db *mongo.Database) *assetStore {
	return &assetStore{coll: db.Collection(model.CollectionAssets)}
}

// Create 保存资产记录并返回其 ID。
func (s *assetStore) Create(ctx context.Context, asset *model.Asset) (primitive.ObjectID, error) {
	result, err := s.coll.InsertOne(ctx, asset)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create asset: %w", err)
	}

	id := result.InsertedID.(primitive.ObjectID)
	asset.ID = id
	return id, nil
}

// Get 按 ID 返回属于指定项目的资产。
func (s *assetStore) Get(ctx context.Context, projectID, assetID primitive.ObjectID) (*model.Asset, error) {
	var asset model.Asset
	err := s.coll.FindOne(ctx, bson.M{"_id": assetID, "project_id": projectID}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return &asset, nil
}

// ListByProject 返回项目下指定类型的全部资产。
func (s *assetStore) ListByProject(ctx context.Context, projectID primitive.ObjectID, assetType string) ([]model.Asset, error) {
	filter := bson.M{"project_id": projectID}
	if assetType != "" {
		filter["type"] = assetType
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	assets := make([]model.Asset, 0)
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode assets: %w", err)
	}

	return assets, nil
}
