// Package prompt 负责拼装问答提示词与对话历史。
package prompt

import (
	"strconv"
	"strings"

	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
)

// Templates 问答提示词模板，占位符使用 {{...}} 形式。
type Templates struct {
	// System 系统指令，作为对话历史的第一条消息。
	System string
	// Document 单篇检索文档的渲染模板，占位符 {{doc_num}} 与 {{chunk_text}}。
	Document string
	// Footer 提示词结尾，占位符 {{query}}。
	Footer string
}

// DefaultTemplates 返回内置的英文提示词模板。
func DefaultTemplates() Templates {
	return Templates{
		System: strings.Join([]string{
			"You are an assistant to generate a response for the user.",
			"You will be provided by a set of documents associated with the user's query.",
			"You have to generate a response based on the documents provided.",
			"Ignore the documents that are not relevant to the user's query.",
			"You can apologize to the user if you are not able to generate a response.",
			"You have to generate response in the same language as the user's query.",
			"Be polite and respectful to the user.",
			"Be precise and concise in your response. Avoid unnecessary information.",
		}, "\n"),
		Document: strings.Join([]string{
			"## Document No: {{doc_num}}",
			"### Content: {{chunk_text}}",
		}, "\n"),
		Footer: strings.Join([]string{
			"Based only on the above documents, please generate an answer for the user.",
			"## Question:",
			"{{query}}",
			"",
			"## Answer:",
		}, "\n"),
	}
}

// RenderDocument 渲染第 num 篇检索文档。
func (t Templates) RenderDocument(num int, text string) string {
	doc := strings.ReplaceAll(t.Document, "{{doc_num}}", strconv.Itoa(num))
	return strings.ReplaceAll(doc, "{{chunk_text}}", text)
}

// Build 根据检索文本与用户问题生成完整提示词和对话历史。
// 对话历史仅包含系统指令，完整提示词由文档列表与结尾模板拼接而成。
func (t Templates) Build(query string, documents []string) (string, []llm.Message) {
	parts := make([]string, 0, len(documents)+1)
	for i, doc := range documents {
		parts = append(parts, t.RenderDocument(i+1, doc))
	}
	parts = append(parts, strings.ReplaceAll(t.Footer, "{{query}}", query))

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: t.System},
	}

	return strings.Join(parts, "\n\n"), history
}
