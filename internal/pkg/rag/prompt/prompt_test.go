package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdul-Halim01/mini-RAG/internal/pkg/rag/prompt"
	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
)

func TestRenderDocument(t *testing.T) {
	tpl := prompt.DefaultTemplates()
	doc := tpl.RenderDocument(3, "Milvus stores vectors.")
	assert.Contains(t, doc, "## Document No: 3")
	assert.Contains(t, doc, "### Content: Milvus stores vectors.")
}

func TestBuild(t *testing.T) {
	tpl := prompt.DefaultTemplates()
	full, history := tpl.Build("What stores vectors?", []string{"doc one", "doc two"})

	assert.Contains(t, full, "## Document No: 1")
	assert.Contains(t, full, "doc one")
	assert.Contains(t, full, "## Document No: 2")
	assert.Contains(t, full, "doc two")
	assert.Contains(t, full, "What stores vectors?")
	assert.True(t, strings.HasSuffix(full, "## Answer:"))

	// 文档在问题之前出现
	assert.Less(t, strings.Index(full, "doc two"), strings.Index(full, "What stores vectors?"))

	require.Len(t, history, 1)
	assert.Equal(t, llm.RoleSystem, history[0].Role)
	assert.NotEmpty(t, history[0].Content)
}

func TestBuildWithoutDocuments(t *testing.T) {
	tpl := prompt.DefaultTemplates()
	full, history := tpl.Build("anything", nil)

	assert.NotContains(t, full, "## Document No:")
	assert.Contains(t, full, "anything")
	require.Len(t, history, 1)
}

func TestCustomTemplates(t *testing.T) {
	tpl := prompt.Templates{
		System:   "system says",
		Document: "[{{doc_num}}] {{chunk_text}}",
		Footer:   "Q: {{query}}",
	}

	full, history := tpl.Build("why", []string{"because"})
	assert.Equal(t, "[1] because\n\nQ: why", full)
	assert.Equal(t, "system says", history[0].Content)
}
