package llm

import (
	"context"
	"testing"
)

// mockProvider 模拟供应商实现，用于测试。
type mockProvider struct {
	name            string
	generationModel string
	embeddingModel  string
	embeddingSize   int
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) SetGenerationModel(modelID string) {
	m.generationModel = modelID
}

func (m *mockProvider) SetEmbeddingModel(modelID string, embeddingSize int) {
	m.embeddingModel = modelID
	m.embeddingSize = embeddingSize
}

func (m *mockProvider) GenerateText(_ context.Context, _ string, _ []Message, _ int, _ float64) (string, error) {
	if m.generationModel == "" {
		return "", ErrGenerationModelNotSet
	}
	return "mock generated text", nil
}

func (m *mockProvider) EmbedText(_ context.Context, texts []string, _ DocumentType) ([][]float32, error) {
	if m.embeddingModel == "" {
		return nil, ErrEmbeddingModelNotSet
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0.1, 0.2, 0.3}
	}
	return result, nil
}

func TestRegisterAndNewProvider(t *testing.T) {
	// 注册测试供应商
	RegisterProvider("test-provider", func(config map[string]any) (Provider, error) {
		name := "test-provider"
		if n, ok := config["name"].(string); ok {
			name = n
		}
		return &mockProvider{name: name}, nil
	})

	provider, err := NewProvider("test-provider", map[string]any{"name": "custom-name"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	if provider.Name() != "custom-name" {
		t.Errorf("expected name 'custom-name', got '%s'", provider.Name())
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("unknown-provider", nil)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestListProviders(t *testing.T) {
	RegisterProvider("list-test-provider", func(config map[string]any) (Provider, error) {
		return &mockProvider{name: "list-test-provider"}, nil
	})

	providers := ListProviders()
	if len(providers) == 0 {
		t.Error("expected at least one registered provider")
	}

	found := false
	for _, p := range providers {
		if p == "list-test-provider" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected 'list-test-provider' in provider list")
	}
}

func TestMessageRole(t *testing.T) {
	tests := []struct {
		role     Role
		expected string
	}{
		{RoleSystem, "system"},
		{RoleUser, "user"},
		{RoleAssistant, "assistant"},
	}

	for _, tt := range tests {
		if string(tt.role) != tt.expected {
			t.Errorf("expected role '%s', got '%s'", tt.expected, string(tt.role))
		}
	}
}

func TestProcessText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		expected string
	}{
		{"truncates to limit", "hello world", 5, "hello"},
		{"strips whitespace", "  hello  ", 100, "hello"},
		{"strips after truncation", "hi   there", 5, "hi"},
		{"no limit", "  hello world  ", 0, "hello world"},
		{"shorter than limit", "hi", 10, "hi"},
		{"unicode aware", "你好世界再见", 4, "你好世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProcessText(tt.text, tt.max); got != tt.expected {
				t.Errorf("ProcessText(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.expected)
			}
		})
	}
}

func TestProviderFailsFastWithoutModels(t *testing.T) {
	provider := &mockProvider{name: "test"}

	if _, err := provider.GenerateText(context.Background(), "prompt", nil, 0, 0); err != ErrGenerationModelNotSet {
		t.Errorf("expected ErrGenerationModelNotSet, got %v", err)
	}
	if _, err := provider.EmbedText(context.Background(), []string{"text"}, DocumentTypeDocument); err != ErrEmbeddingModelNotSet {
		t.Errorf("expected ErrEmbeddingModelNotSet, got %v", err)
	}

	provider.SetGenerationModel("model-a")
	provider.SetEmbeddingModel("model-b", 3)

	if _, err := provider.GenerateText(context.Background(), "prompt", nil, 0, 0); err != nil {
		t.Errorf("GenerateText failed: %v", err)
	}
	embeddings, err := provider.EmbedText(context.Background(), []string{"hello", "world"}, DocumentTypeQuery)
	if err != nil {
		t.Errorf("EmbedText failed: %v", err)
	}
	if len(embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(embeddings))
	}
}
