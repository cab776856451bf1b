package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

type projectStore struct {
	coll *mongo.Collection
}

func newProjectStore(db *mongo.Database) *projectStore {
	return &projectStore{coll: db.Collection(model.CollectionProjects)}
}

// GetOrCreate 按外部项目 ID 查找项目，不存在则创建。
func (s *projectStore) GetOrCreate(ctx context.Context, projectID string) (*model.Project, error) {
	var project model.Project
	err := s.coll.FindOne(ctx, bson.M{"project_id": projectID}).Decode(&project)
	if err == nil {
		return &project, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	now := time.Now().UTC()
	project = model.Project{
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := s.coll.InsertOne(ctx, project)
	if err != nil {
		// 并发创建时唯一索引会拒绝第二次插入，回读已有记录
		if mongo.IsDuplicateKeyError(err) {
			if err := s.coll.FindOne(ctx, bson.M{"project_id": projectID}).Decode(&project); err != nil {
				return nil, fmt.Errorf("failed to reload project: %w", err)
			}
			return &project, nil
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	project.ID = result.InsertedID.(primitive.ObjectID)
	return &project, nil
}

// List 分页返回全部项目。
func (s *projectStore) List(ctx context.Context, page, pageSize int) ([]model.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(page-1) * int64(pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := s.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	projects := make([]model.Project, 0, pageSize)
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, 0, fmt.Errorf("failed to decode projects: %w", err)
	}

	return projects, total, nil
}
