package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DataChunk is one ordered slice of an asset's text. Order is unique within
// a project, so re-processing a file overwrites its chunks in place.
type DataChunk struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `json:"project_id" bson:"project_id"`
	AssetID   primitive.ObjectID `json:"asset_id" bson:"asset_id"`
	Order     int                `json:"order" bson:"order"`
	Text      string             `json:"text" bson:"text"`
	Metadata  map[string]any     `json:"metadata" bson:"metadata"`
}

// CollectionChunks is the MongoDB collection name for data chunks.
const CollectionChunks = "chunks"

// RetrievedDocument is a single similarity search hit.
type RetrievedDocument struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
