package biz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
	"github.com/Abdul-Halim01/mini-RAG/internal/pkg/rag/chunker"
	"github.com/Abdul-Halim01/mini-RAG/internal/pkg/rag/loader"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/metrics"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/store"
)

// filenameSanitizer 去掉文件名中除字母数字、下划线、点和横线以外的字符。
var filenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// DataConfig 文件上传与处理配置。
type DataConfig struct {
	// DataDir 上传文件的根目录，每个项目一个子目录。
	DataDir string
	// AllowedTypes 允许上传的 MIME 类型。
	AllowedTypes []string
	// MaxSizeBytes 单个文件大小上限（字节）。
	MaxSizeBytes int64
	// DefaultChunkSize 默认分块长度（字符）。
	DefaultChunkSize int
	// DefaultOverlapSize 默认分块重叠长度（字符）。
	DefaultOverlapSize int
	// BatchSize 文档块批量写入的批大小。
	BatchSize int
}

// UploadResult 上传结果。
type UploadResult struct {
	ProjectID string `json:"project_id"`
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	Size      int64  `json:"size"`
}

// ProcessResult 处理结果。
type ProcessResult struct {
	ProjectID      string `json:"project_id"`
	InsertedChunks int    `json:"inserted_chunks"`
	ProcessedFiles int    `json:"processed_files"`
}

// DataService 管理文件上传与分块处理。
type DataService interface {
	// ValidateFile 校验文件类型与大小，不合法时返回对应信号。
	ValidateFile(contentType string, size int64) (model.ResponseSignal, bool)

	// UploadFile 保存上传文件并登记资产记录。
	UploadFile(ctx context.Context, projectID, fileName, contentType string, size int64, src io.Reader) (*UploadResult, error)

	// ProcessFiles 读取项目资产文件，切分为文档块并幂等入库。
	// fileID 为空时处理项目下全部文件；doReset 为 true 时先清空已有文档块。
	ProcessFiles(ctx context.Context, projectID, fileID string, chunkSize, overlapSize int, doReset bool) (*ProcessResult, error)
}

// 处理流程的业务错误，handler 据此映射响应信号。
var (
	ErrNoFiles      = errors.New("no files found for project")
	ErrFileNotFound = errors.New("no file found with this id")
	ErrEmptyContent = errors.New("files contain no processable content")
)

type dataService struct {
	store   store.IStore
	config  *DataConfig
	metrics *metrics.RAGMetrics
}

// NewDataService 创建数据服务实例。
func NewDataService(s store.IStore, config *DataConfig) DataService {
	return &dataService{
		store:   s,
		config:  config,
		metrics: metrics.GetRAGMetrics(),
	}
}

// ValidateFile 校验文件类型与大小。
func (s *dataService) ValidateFile(contentType string, size int64) (model.ResponseSignal, bool) {
	allowed := false
	for _, t := range s.config.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.SignalFileTypeNotSupported, false
	}

	if size > s.config.MaxSizeBytes {
		return model.SignalFileSizeExceeded, false
	}

	return model.SignalFileValidatedSuccess, true
}

// UploadFile 保存上传文件并登记资产记录。
// 磁盘上的文件名带 ULID 前缀，同名文件不会互相覆盖。
func (s *dataService) UploadFile(ctx context.Context, projectID, fileName, contentType string, size int64, src io.Reader) (*UploadResult, error) {
	project, err := s.store.Projects().GetOrCreate(ctx, projectID)
	if err != nil {
		s.metrics.RecordUpload(err)
		return nil, err
	}

	uniqueName := ulid.Make().String() + "_" + sanitizeFilename(fileName)
	projectDir := filepath.Join(s.config.DataDir, projectID)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		s.metrics.RecordUpload(err)
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	dstPath := filepath.Join(projectDir, uniqueName)
	written, err := writeFile(dstPath, src)
	if err != nil {
		s.metrics.RecordUpload(err)
		return nil, err
	}

	asset := &model.Asset{
		ProjectID: project.ID,
		Type:      model.AssetTypeFile,
		Name:      uniqueName,
		Size:      written,
		CreatedAt: time.Now().UTC(),
	}
	assetID, err := s.store.Assets().Create(ctx, asset)
	if err != nil {
		// 入库失败时移除孤儿文件
		_ = os.Remove(dstPath)
		s.metrics.RecordUpload(err)
		return nil, err
	}

	s.metrics.RecordUpload(nil)
	logger.Infow("file uploaded",
		"project_id", projectID,
		"file_id", assetID.Hex(),
		"file_name", uniqueName,
		"content_type", contentType,
		"size", written,
	)

	return &UploadResult{
		ProjectID: projectID,
		FileID:    assetID.Hex(),
		FileName:  uniqueName,
		Size:      written,
	}, nil
}

// ProcessFiles 读取资产文件，切分为文档块并幂等入库。
func (s *dataService) ProcessFiles(ctx context.Context, projectID, fileID string, chunkSize, overlapSize int, doReset bool) (*ProcessResult, error) {
	if chunkSize <= 0 {
		chunkSize = s.config.DefaultChunkSize
	}
	if overlapSize < 0 {
		overlapSize = s.config.DefaultOverlapSize
	}

	project, err := s.store.Projects().GetOrCreate(ctx, projectID)
	if err != nil {
		s.metrics.RecordProcessing(0, err)
		return nil, err
	}

	assets, err := s.resolveAssets(ctx, project, fileID)
	if err != nil {
		s.metrics.RecordProcessing(0, err)
		return nil, err
	}

	nextOrder := 1
	if doReset {
		deleted, err := s.store.Chunks().DeleteByProject(ctx, project.ID)
		if err != nil {
			s.metrics.RecordProcessing(0, err)
			return nil, err
		}
		logger.Infow("reset project chunks", "project_id", projectID, "deleted", deleted)
	} else {
		count, err := s.store.Chunks().CountByProject(ctx, project.ID)
		if err != nil {
			s.metrics.RecordProcessing(0, err)
			return nil, err
		}
		nextOrder = int(count) + 1
	}

	chunks := make([]model.DataChunk, 0)
	for _, asset := range assets {
		docs, err := loader.Load(filepath.Join(s.config.DataDir, projectID, asset.Name), asset.Name)
		if err != nil {
			s.metrics.RecordProcessing(0, err)
			return nil, fmt.Errorf("failed to load asset %s: %w", asset.Name, err)
		}

		for _, doc := range docs {
			pieces, err := chunker.Split(doc.Text, chunkSize, overlapSize)
			if err != nil {
				s.metrics.RecordProcessing(0, err)
				return nil, err
			}
			for _, text := range pieces {
				chunks = append(chunks, model.DataChunk{
					ProjectID: project.ID,
					AssetID:   asset.ID,
					Order:     nextOrder,
					Text:      text,
					Metadata:  doc.Metadata,
				})
				nextOrder++
			}
		}
	}

	if len(chunks) == 0 {
		s.metrics.RecordProcessing(0, ErrEmptyContent)
		return nil, ErrEmptyContent
	}

	inserted, err := s.store.Chunks().SaveBatch(ctx, chunks, s.config.BatchSize)
	if err != nil {
		s.metrics.RecordProcessing(0, err)
		return nil, err
	}

	s.metrics.RecordProcessing(inserted, nil)
	logger.Infow("processed project files",
		"project_id", projectID,
		"files", len(assets),
		"inserted_chunks", inserted,
		"chunk_size", chunkSize,
		"overlap_size", overlapSize,
		"do_reset", doReset,
	)

	return &ProcessResult{
		ProjectID:      projectID,
		InsertedChunks: inserted,
		ProcessedFiles: len(assets),
	}, nil
}

// resolveAssets 确定要处理的资产列表。
func (s *dataService) resolveAssets(ctx context.Context, project *model.Project, fileID string) ([]model.Asset, error) {
	if fileID != "" {
		assetID, err := primitive.ObjectIDFromHex(fileID)
		if err != nil {
			return nil, ErrFileNotFound
		}
		asset, err := s.store.Assets().Get(ctx, project.ID, assetID)
		if err != nil {
			if errors.Is(err, store.ErrAssetNotFound) {
				return nil, ErrFileNotFound
			}
			return nil, err
		}
		return []model.Asset{*asset}, nil
	}

	assets, err := s.store.Assets().ListByProject(ctx, project.ID, model.AssetTypeFile)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, ErrNoFiles
	}
	return assets, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return filenameSanitizer.ReplaceAllString(name, "")
}

func writeFile(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return written, nil
}
