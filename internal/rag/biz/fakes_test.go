package biz

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/store"
	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
)

// fakeStore 是内存版的 store.IStore，供业务层测试使用。
type fakeStore struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	assets   []model.Asset
	chunks   []model.DataChunk
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: make(map[string]*model.Project)}
}

func (f *fakeStore) Projects() store.ProjectStore { return (*fakeProjectStore)(f) }
func (f *fakeStore) Assets() store.AssetStore     { return (*fakeAssetStore)(f) }
func (f *fakeStore) Chunks() store.ChunkStore     { return (*fakeChunkStore)(f) }

type fakeProjectStore fakeStore

func (f *fakeProjectStore) GetOrCreate(_ context.Context, projectID string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[projectID]; ok {
		return p, nil
	}
	p := &model.Project{ID: primitive.NewObjectID(), ProjectID: projectID}
	f.projects[projectID] = p
	return p, nil
}

func (f *fakeProjectStore) List(_ context.Context, _, _ int) ([]model.Project, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	projects := make([]model.Project, 0, len(f.projects))
	for _, p := range f.projects {
		projects = append(projects, *p)
	}
	return projects, int64(len(projects)), nil
}

type fakeAssetStore fakeStore

func (f *fakeAssetStore) Create(_ context.Context, asset *model.Asset) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	asset.ID = primitive.NewObjectID()
	f.assets = append(f.assets, *asset)
	return asset.ID, nil
}

func (f *fakeAssetStore) Get(_ context.Context, projectID, assetID primitive.ObjectID) (*model.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assets {
		if a.ID == assetID && a.ProjectID == projectID {
			asset := a
			return &asset, nil
		}
	}
	return nil, store.ErrAssetNotFound
}

func (f *fakeAssetStore) ListByProject(_ context.Context, projectID primitive.ObjectID, assetType string) ([]model.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assets := make([]model.Asset, 0)
	for _, a := range f.assets {
		if a.ProjectID == projectID && (assetType == "" || a.Type == assetType) {
			assets = append(assets, a)
		}
	}
	return assets, nil
}

type fakeChunkStore fakeStore

func (f *fakeChunkStore) SaveBatch(_ context.Context, chunks []model.DataChunk, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, chunk := range chunks {
		if chunk.ID.IsZero() {
			chunk.ID = primitive.NewObjectID()
		}
		replaced := false
		for i, existing := range f.chunks {
			if existing.ProjectID == chunk.ProjectID && existing.Order == chunk.Order {
				f.chunks[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			f.chunks = append(f.chunks, chunk)
		}
	}
	return len(chunks), nil
}

func (f *fakeChunkStore) Get(_ context.Context, chunkID primitive.ObjectID) (*model.DataChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chunks {
		if c.ID == chunkID {
			chunk := c
			return &chunk, nil
		}
	}
	return nil, store.ErrChunkNotFound
}

func (f *fakeChunkStore) ListByProject(_ context.Context, projectID primitive.ObjectID, page, pageSize int) ([]model.DataChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]model.DataChunk, 0)
	for _, c := range f.chunks {
		if c.ProjectID == projectID {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Order < matched[j].Order })

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []model.DataChunk{}, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (f *fakeChunkStore) CountByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.chunks {
		if c.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (f *fakeChunkStore) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.chunks[:0]
	var deleted int64
	for _, c := range f.chunks {
		if c.ProjectID == projectID {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	f.chunks = kept
	return deleted, nil
}

// fakeVectorStore 记录写入的向量记录并返回预置的检索结果。
type fakeVectorStore struct {
	mu          sync.Mutex
	collections map[string]int
	records     map[string][]store.VectorRecord
	resets      int
	failOnPage  int
	insertCalls int
	searchHits  []model.RetrievedDocument
	searchErr   error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		collections: make(map[string]int),
		records:     make(map[string][]store.VectorRecord),
	}
}

func (f *fakeVectorStore) EnsureCollection(_ context.Context, collection string, dimension int, reset bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reset {
		f.resets++
		delete(f.records, collection)
	}
	f.collections[collection] = dimension
	return nil
}

func (f *fakeVectorStore) HasCollection(_ context.Context, collection string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.collections[collection]
	return ok, nil
}

func (f *fakeVectorStore) ListCollections(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeVectorStore) Insert(_ context.Context, collection string, records []store.VectorRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failOnPage > 0 && f.insertCalls == f.failOnPage {
		return fmt.Errorf("milvus unavailable")
	}
	f.records[collection] = append(f.records[collection], records...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, _ string, _ []float32, limit int) ([]model.RetrievedDocument, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.searchHits) {
		return f.searchHits[:limit], nil
	}
	return f.searchHits, nil
}

func (f *fakeVectorStore) Info(_ context.Context, collection string) (*store.CollectionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &store.CollectionInfo{
		Name:      collection,
		RowCount:  int64(len(f.records[collection])),
		Dimension: f.collections[collection],
	}, nil
}

func (f *fakeVectorStore) Drop(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections, collection)
	delete(f.records, collection)
	return nil
}

func (f *fakeVectorStore) Close(_ context.Context) error { return nil }

// fakeProvider 返回确定性的向量与固定答案。
type fakeProvider struct {
	mu          sync.Mutex
	embedCalls  int
	embedTypes  []llm.DocumentType
	lastPrompt  string
	lastHistory []llm.Message
	answer      string
	embedErr    error
	generateErr error
}

func (p *fakeProvider) SetGenerationModel(string) {}

func (p *fakeProvider) SetEmbeddingModel(string, int) {}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) EmbedText(_ context.Context, texts []string, docType llm.DocumentType) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.embedErr != nil {
		return nil, p.embedErr
	}
	p.embedCalls++
	p.embedTypes = append(p.embedTypes, docType)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	return vectors, nil
}

func (p *fakeProvider) GenerateText(_ context.Context, prompt string, history []llm.Message, _ int, _ float64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generateErr != nil {
		return "", p.generateErr
	}
	p.lastPrompt = prompt
	p.lastHistory = history
	return p.answer, nil
}
