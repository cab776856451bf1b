package model

import (
	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
)

// RAGAnswer 是一次问答的完整结果。
// FullPrompt 保留渲染后的提示词原文，便于审计。
type RAGAnswer struct {
	Answer      string        `json:"answer"`
	FullPrompt  string        `json:"full_prompt"`
	ChatHistory []llm.Message `json:"chat_history"`
}
