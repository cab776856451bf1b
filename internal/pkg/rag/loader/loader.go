// Package loader 读取上传的资产文件并产出带来源元数据的文本记录。
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document 是从资产文件中读取的一段文本及其来源信息。
// 文本文件整体作为一条记录，PDF 按页产出记录。
type Document struct {
	Text     string
	Metadata map[string]any
}

// SupportedExtension reports whether the loader can read files with the
// given extension (".txt" or ".pdf", case insensitive).
func SupportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// Load 按扩展名读取文件并返回有序的文本记录。
// assetName 会写入每条记录的 source 元数据。
func Load(path, assetName string) ([]Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return loadText(path, assetName)
	case ".pdf":
		return loadPDF(path, assetName)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func loadText(path, assetName string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return []Document{}, nil
	}

	return []Document{
		{
			Text: text,
			Metadata: map[string]any{
				"source": assetName,
			},
		},
	}, nil
}

func loadPDF(path, assetName string) ([]Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	docs := make([]Document, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, Document{
			Text: text,
			Metadata: map[string]any{
				"source": assetName,
				"page":   i,
			},
		})
	}

	return docs, nil
}
