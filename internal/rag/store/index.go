package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

// EnsureIndexes 创建各集合需要的索引，启动时调用一次。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		model.CollectionProjects: {
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		model.CollectionAssets: {
			{
				Keys: bson.D{{Key: "project_id", Value: 1}},
			},
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		model.CollectionChunks: {
			{
				Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "order", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "asset_id", Value: 1}},
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
