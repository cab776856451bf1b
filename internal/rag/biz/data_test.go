package biz

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

func newTestDataService(t *testing.T, fs *fakeStore) (DataService, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewDataService(fs, &DataConfig{
		DataDir:            dir,
		AllowedTypes:       []string{"text/plain", "application/pdf"},
		MaxSizeBytes:       10 * 1024 * 1024,
		DefaultChunkSize:   100,
		DefaultOverlapSize: 20,
		BatchSize:          50,
	})
	return svc, dir
}

func TestValidateFile(t *testing.T) {
	svc, _ := newTestDataService(t, newFakeStore())

	tests := []struct {
		name        string
		contentType string
		size        int64
		wantSignal  model.ResponseSignal
		wantOK      bool
	}{
		{"允许的文本类型", "text/plain", 1024, model.SignalFileValidatedSuccess, true},
		{"类型大小写不敏感", "Application/PDF", 1024, model.SignalFileValidatedSuccess, true},
		{"不支持的类型", "image/png", 1024, model.SignalFileTypeNotSupported, false},
		{"超过大小上限", "text/plain", 11 * 1024 * 1024, model.SignalFileSizeExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, ok := svc.ValidateFile(tt.contentType, tt.size)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSignal, signal)
		})
	}
}

func TestUploadFile(t *testing.T) {
	fs := newFakeStore()
	svc, dir := newTestDataService(t, fs)

	content := "hello retrieval"
	result, err := svc.UploadFile(context.Background(), "proj-1", "my report.txt", "text/plain",
		int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)

	// 文件名被清洗并带唯一前缀
	assert.True(t, strings.HasSuffix(result.FileName, "_my_report.txt"))
	assert.NotEqual(t, "my_report.txt", result.FileName)
	assert.Equal(t, int64(len(content)), result.Size)
	assert.NotEmpty(t, result.FileID)

	// 文件落盘在项目目录下
	data, err := os.ReadFile(filepath.Join(dir, "proj-1", result.FileName))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	// 资产已登记
	require.Len(t, fs.assets, 1)
	assert.Equal(t, model.AssetTypeFile, fs.assets[0].Type)
	assert.Equal(t, result.FileName, fs.assets[0].Name)
}

func TestUploadFileSanitizesName(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newTestDataService(t, fs)

	result, err := svc.UploadFile(context.Background(), "proj-1", "../..//we ird$名.txt", "text/plain",
		4, strings.NewReader("data"))
	require.NoError(t, err)

	// 路径分隔符和特殊字符全部去除
	assert.NotContains(t, result.FileName, "/")
	assert.NotContains(t, result.FileName, "$")
	assert.True(t, strings.HasSuffix(result.FileName, ".txt"))
}

func writeAssetFile(t *testing.T, dir, projectID, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, projectID), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, projectID, name), []byte(content), 0o600))
}

func TestProcessFiles(t *testing.T) {
	fs := newFakeStore()
	svc, dir := newTestDataService(t, fs)
	ctx := context.Background()

	project, err := fs.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)

	// 250 字符按 chunk 100 / overlap 20 切出 4 块
	text := strings.Repeat("a", 250)
	writeAssetFile(t, dir, "proj-1", "doc.txt", text)
	_, err = fs.Assets().Create(ctx, &model.Asset{
		ProjectID: project.ID,
		Type:      model.AssetTypeFile,
		Name:      "doc.txt",
		Size:      int64(len(text)),
	})
	require.NoError(t, err)

	result, err := svc.ProcessFiles(ctx, "proj-1", "", 100, 20, false)
	require.NoError(t, err)
	assert.Equal(t, 4, result.InsertedChunks)
	assert.Equal(t, 1, result.ProcessedFiles)

	// order 连续且元数据带来源
	require.Len(t, fs.chunks, 4)
	for i, chunk := range fs.chunks {
		assert.Equal(t, i+1, chunk.Order)
		assert.Equal(t, "doc.txt", chunk.Metadata["source"])
	}
}

func TestProcessFilesAppendContinuesOrder(t *testing.T) {
	fs := newFakeStore()
	svc, dir := newTestDataService(t, fs)
	ctx := context.Background()

	project, err := fs.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)

	// 已有 3 个块
	existing := []model.DataChunk{
		{ProjectID: project.ID, Order: 1, Text: "one"},
		{ProjectID: project.ID, Order: 2, Text: "two"},
		{ProjectID: project.ID, Order: 3, Text: "three"},
	}
	_, err = fs.Chunks().SaveBatch(ctx, existing, 50)
	require.NoError(t, err)

	writeAssetFile(t, dir, "proj-1", "new.txt", strings.Repeat("b", 80))
	_, err = fs.Assets().Create(ctx, &model.Asset{
		ProjectID: project.ID,
		Type:      model.AssetTypeFile,
		Name:      "new.txt",
	})
	require.NoError(t, err)

	result, err := svc.ProcessFiles(ctx, "proj-1", "", 100, 20, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.InsertedChunks)

	// 新块接在已有 order 之后
	count, err := fs.Chunks().CountByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	chunks, err := fs.Chunks().ListByProject(ctx, project.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, chunks[3].Order)
}

func TestProcessFilesReset(t *testing.T) {
	fs := newFakeStore()
	svc, dir := newTestDataService(t, fs)
	ctx := context.Background()

	project, err := fs.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)

	_, err = fs.Chunks().SaveBatch(ctx, []model.DataChunk{
		{ProjectID: project.ID, Order: 1, Text: "stale"},
		{ProjectID: project.ID, Order: 2, Text: "stale"},
	}, 50)
	require.NoError(t, err)

	writeAssetFile(t, dir, "proj-1", "fresh.txt", strings.Repeat("c", 60))
	_, err = fs.Assets().Create(ctx, &model.Asset{
		ProjectID: project.ID,
		Type:      model.AssetTypeFile,
		Name:      "fresh.txt",
	})
	require.NoError(t, err)

	result, err := svc.ProcessFiles(ctx, "proj-1", "", 100, 20, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.InsertedChunks)

	// 旧块被清空，order 从 1 重新开始
	chunks, err := fs.Chunks().ListByProject(ctx, project.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Order)
	assert.Equal(t, strings.Repeat("c", 60), chunks[0].Text)
}

func TestProcessFilesSingleAsset(t *testing.T) {
	fs := newFakeStore()
	svc, dir := newTestDataService(t, fs)
	ctx := context.Background()

	project, err := fs.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)

	writeAssetFile(t, dir, "proj-1", "a.txt", "first file content")
	writeAssetFile(t, dir, "proj-1", "b.txt", "second file content")
	idA, err := fs.Assets().Create(ctx, &model.Asset{ProjectID: project.ID, Type: model.AssetTypeFile, Name: "a.txt"})
	require.NoError(t, err)
	_, err = fs.Assets().Create(ctx, &model.Asset{ProjectID: project.ID, Type: model.AssetTypeFile, Name: "b.txt"})
	require.NoError(t, err)

	result, err := svc.ProcessFiles(ctx, "proj-1", idA.Hex(), 100, 20, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedFiles)
	require.Len(t, fs.chunks, 1)
	assert.Equal(t, "first file content", fs.chunks[0].Text)
}

func TestProcessFilesEmptyContent(t *testing.T) {
	fs := newFakeStore()
	svc, dir := newTestDataService(t, fs)
	ctx := context.Background()

	project, err := fs.Projects().GetOrCreate(ctx, "proj-1")
	require.NoError(t, err)

	// 只有空白字符的文件切不出任何块
	writeAssetFile(t, dir, "proj-1", "blank.txt", "   \n\t\n  ")
	_, err = fs.Assets().Create(ctx, &model.Asset{
		ProjectID: project.ID,
		Type:      model.AssetTypeFile,
		Name:      "blank.txt",
	})
	require.NoError(t, err)

	_, err = svc.ProcessFiles(ctx, "proj-1", "", 100, 20, false)
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Empty(t, fs.chunks)
}

func TestProcessFilesNoFiles(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newTestDataService(t, fs)

	_, err := svc.ProcessFiles(context.Background(), "proj-1", "", 100, 20, false)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestProcessFilesUnknownFileID(t *testing.T) {
	fs := newFakeStore()
	svc, _ := newTestDataService(t, fs)
	ctx := context.Background()

	// 非法的十六进制 ID
	_, err := svc.ProcessFiles(ctx, "proj-1", "not-a-hex-id", 100, 20, false)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// 合法但不存在的 ID
	_, err = svc.ProcessFiles(ctx, "proj-1", primitive.NewObjectID().Hex(), 100, 20, false)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
