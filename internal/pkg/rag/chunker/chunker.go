// Package chunker 将文本分割成带重叠的有序块。
package chunker

import (
	"fmt"
)

// Split 将文本按 Unicode 字符分割成重叠的块。
// chunkSize 是每个块的字符数，overlap 是相邻块之间的重叠字符数。
// 块数量为 ceil(len/(chunkSize-overlap))，拼接去重后可无损还原原文。
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap cannot be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []string{}, nil
	}

	step := chunkSize - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)

	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}

	return chunks, nil
}
