package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetTypeFile marks an asset stored as an uploaded file on disk.
const AssetTypeFile = "file"

// Asset records an uploaded file belonging to a project.
// Name is the sanitized, ULID-prefixed file name on disk; Size is in bytes.
type Asset struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `json:"project_id" bson:"project_id"`
	Type      string             `json:"type" bson:"type"`
	Name      string             `json:"name" bson:"name"`
	Size      int64              `json:"size" bson:"size"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CollectionAssets is the MongoDB collection name for assets.
const CollectionAssets = "assets"
