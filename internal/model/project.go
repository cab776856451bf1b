// Package model provides data models for the mini-RAG service.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project groups uploaded assets and their chunks under one tenant.
// Each project owns an isolated vector collection.
type Project struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID string             `json:"project_id" bson:"project_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// CollectionProjects is the MongoDB collection name for projects.
const CollectionProjects = "projects"
