package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdul-Halim01/mini-RAG/internal/pkg/rag/chunker"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		wantCount int
	}{
		{
			name:      "典型重叠分块",
			text:      strings.Repeat("a", 250),
			chunkSize: 100,
			overlap:   20,
			wantCount: 4, // ceil(250/80)
		},
		{
			name:      "无重叠",
			text:      strings.Repeat("b", 100),
			chunkSize: 25,
			overlap:   0,
			wantCount: 4,
		},
		{
			name:      "文本短于块大小",
			text:      "short",
			chunkSize: 100,
			overlap:   20,
			wantCount: 1,
		},
		{
			name:      "恰好整除",
			text:      strings.Repeat("c", 160),
			chunkSize: 100,
			overlap:   20,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := chunker.Split(tt.text, tt.chunkSize, tt.overlap)
			require.NoError(t, err)
			assert.Len(t, chunks, tt.wantCount)
		})
	}
}

func TestSplitLossless(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " + strings.Repeat("0123456789", 30)
	chunkSize, overlap := 50, 10

	chunks, err := chunker.Split(text, chunkSize, overlap)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// 去掉每块与前一块重叠的前缀后拼接应还原原文
	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		runes := []rune(c)
		if len(runes) > overlap {
			sb.WriteString(string(runes[overlap:]))
		}
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitUnicode(t *testing.T) {
	text := strings.Repeat("中文分块测试", 10) // 60 个字符
	chunks, err := chunker.Split(text, 25, 5)
	require.NoError(t, err)
	assert.Len(t, chunks, 3) // ceil(60/20)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 25)
	}
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := chunker.Split("", 100, 20)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitInvalidArgs(t *testing.T) {
	_, err := chunker.Split("text", 0, 0)
	assert.Error(t, err)

	_, err = chunker.Split("text", 10, -1)
	assert.Error(t, err)

	_, err = chunker.Split("text", 10, 10)
	assert.Error(t, err)

	_, err = chunker.Split("text", 10, 15)
	assert.Error(t, err)
}
