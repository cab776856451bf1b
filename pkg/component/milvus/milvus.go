// Package milvus provides a Milvus client wrapper for chunk vector
// collections.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/Abdul-Halim01/mini-RAG/pkg/options/milvus"
)

const (
	fieldID        = "id"
	fieldText      = "text"
	fieldMetadata  = "metadata"
	fieldEmbedding = "embedding"

	maxIDLength   = 64
	maxTextLength = 65535
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// RawClient returns the underlying Milvus client.
func (c *Client) RawClient() *milvusclient.Client {
	return c.client
}

// HasCollection reports whether the named collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// ListCollections returns the names of all collections in the database.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	names, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// CreateCollection creates a chunk vector collection with the given
// embedding dimension. Records are keyed by an external string ID so that
// re-indexing the same chunk overwrites its vector. Creation is a no-op when
// the collection already exists.
func (c *Client) CreateCollection(ctx context.Context, name string, dimension int) error {
	exists, err := c.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	collSchema := entity.NewSchema().
		WithName(name).
		WithDescription("chunk embeddings").
		WithField(
			entity.NewField().
				WithName(fieldID).
				WithDataType(entity.FieldTypeVarChar).
				WithIsPrimaryKey(true).
				WithMaxLength(maxIDLength),
		).
		WithField(
			entity.NewField().
				WithName(fieldText).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(maxTextLength),
		).
		WithField(
			entity.NewField().
				WithName(fieldMetadata).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(maxTextLength),
		).
		WithField(
			entity.NewField().
				WithName(fieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(dimension)),
		)

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.COSINE, 128)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, fieldEmbedding, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	return nil
}

// Record is a single chunk vector to be written into a collection.
type Record struct {
	ID       string
	Text     string
	Metadata string
	Vector   []float32
}

// Upsert writes records into the collection, overwriting any record with
// the same ID. Data is flushed so it is immediately visible to searches.
func (c *Client) Upsert(ctx context.Context, collectionName string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	texts := make([]string, len(records))
	metadatas := make([]string, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = r.ID
		texts[i] = r.Text
		metadatas[i] = r.Metadata
		vectors[i] = r.Vector
	}

	columns := []column.Column{
		column.NewColumnVarChar(fieldID, ids),
		column.NewColumnVarChar(fieldText, texts),
		column.NewColumnVarChar(fieldMetadata, metadatas),
		column.NewColumnFloatVector(fieldEmbedding, len(vectors[0]), vectors),
	}

	if _, err := c.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(collectionName, columns...)); err != nil {
		return fmt.Errorf("failed to upsert data: %w", err)
	}

	// Flush so freshly indexed chunks are searchable right away. Ingestion
	// is batch oriented here, the extra flushes are acceptable.
	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}

	return nil
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID       string
	Score    float32
	Text     string
	Metadata string
}

// Search performs a vector similarity search and returns up to topK results
// ordered by score.
func (c *Client) Search(ctx context.Context, collectionName string, vector []float32, topK int) ([]SearchResult, error) {
	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collectionName))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	searchVectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		collectionName,
		topK,
		searchVectors,
	).WithANNSField(fieldEmbedding).
		WithSearchParam("nprobe", "16").
		WithOutputFields(fieldText, fieldMetadata))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	searchResults := make([]SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		result := SearchResult{
			Score: results[0].Scores[i],
		}

		if idCol, ok := results[0].IDs.(*column.ColumnVarChar); ok {
			result.ID = idCol.Data()[i]
		}

		for _, field := range results[0].Fields {
			col, ok := field.(*column.ColumnVarChar)
			if !ok {
				continue
			}
			switch col.Name() {
			case fieldText:
				result.Text = col.Data()[i]
			case fieldMetadata:
				result.Metadata = col.Data()[i]
			}
		}

		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// DeleteByIDs deletes records by their IDs.
func (c *Client) DeleteByIDs(ctx context.Context, collectionName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(collectionName).WithStringIDs(fieldID, ids)); err != nil {
		return fmt.Errorf("failed to delete by ids: %w", err)
	}
	return nil
}

// DropCollection drops a collection.
func (c *Client) DropCollection(ctx context.Context, collectionName string) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(collectionName)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// GetCollectionStats returns the number of entities in a collection.
func (c *Client) GetCollectionStats(ctx context.Context, collectionName string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collectionName))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}

	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}

// DescribeCollection returns schema information for a collection.
func (c *Client) DescribeCollection(ctx context.Context, collectionName string) (*entity.Collection, error) {
	coll, err := c.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(collectionName))
	if err != nil {
		return nil, fmt.Errorf("failed to describe collection: %w", err)
	}
	return coll, nil
}
