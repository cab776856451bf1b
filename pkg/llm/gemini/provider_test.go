package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abdul-Halim01/mini-RAG/pkg/llm"
)

const testAPIKey = "test-key"

func TestNewProviderRequiresAPIKey(t *testing.T) {
	if _, err := NewProvider(map[string]any{}); err == nil {
		t.Error("expected error for missing api_key")
	}
	provider, err := NewProvider(map[string]any{"api_key": testAPIKey})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if provider.Name() != ProviderName {
		t.Errorf("expected name %s, got %s", ProviderName, provider.Name())
	}
}

func TestEmbedTextBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/text-embedding-004:batchEmbedContents") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != testAPIKey {
			t.Error("expected key query parameter")
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Requests) != 2 {
			t.Fatalf("expected 2 embed requests, got %d", len(req.Requests))
		}
		if req.Requests[0].Model != "models/text-embedding-004" {
			t.Errorf("expected model prefix, got %s", req.Requests[0].Model)
		}
		for _, r := range req.Requests {
			if r.TaskType != "RETRIEVAL_DOCUMENT" {
				t.Errorf("expected RETRIEVAL_DOCUMENT task type, got %q", r.TaskType)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [{"values": [0.1, 0.2]}, {"values": [0.3, 0.4]}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetEmbeddingModel("text-embedding-004", 2)

	embeddings, err := provider.EmbedText(context.Background(), []string{"first", "second"}, llm.DocumentTypeDocument)
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(embeddings) != 2 || embeddings[1][0] != 0.3 {
		t.Errorf("unexpected embeddings: %v", embeddings)
	}
}

func TestEmbedTextTaskTypes(t *testing.T) {
	var captured []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		captured = append(captured, req.Requests[0].TaskType)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings": [{"values": [0.1]}]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetEmbeddingModel("text-embedding-004", 1)

	if _, err := provider.EmbedText(context.Background(), []string{"hello"}, llm.DocumentTypeDocument); err != nil {
		t.Fatalf("EmbedText document failed: %v", err)
	}
	if _, err := provider.EmbedText(context.Background(), []string{"hello"}, llm.DocumentTypeQuery); err != nil {
		t.Fatalf("EmbedText query failed: %v", err)
	}

	if len(captured) != 2 || captured[0] != "RETRIEVAL_DOCUMENT" || captured[1] != "RETRIEVAL_QUERY" {
		t.Errorf("unexpected task types: %v", captured)
	}
}

func TestGenerateTextRoleMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "you are helpful" {
			t.Error("expected system message mapped to systemInstruction")
		}
		// assistant 历史 + 当前用户提示
		if len(req.Contents) != 2 {
			t.Fatalf("expected 2 contents, got %d", len(req.Contents))
		}
		if req.Contents[0].Role != "model" {
			t.Errorf("expected assistant mapped to model role, got %s", req.Contents[0].Role)
		}
		if req.Contents[1].Role != "user" || req.Contents[1].Parts[0].Text != "question" {
			t.Errorf("expected trailing user content, got %+v", req.Contents[1])
		}
		if req.GenerationConfig == nil || req.GenerationConfig.MaxOutputTokens != 200 {
			t.Error("expected default generation config")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "the answer"}], "role": "model"}, "finishReason": "STOP"}]
		}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetGenerationModel("gemini-1.5-flash")

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "you are helpful"},
		{Role: llm.RoleAssistant, Content: "previous answer"},
	}
	answer, err := provider.GenerateText(context.Background(), "question", history, 0, 0)
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if answer != "the answer" {
		t.Errorf("expected 'the answer', got %q", answer)
	}
}

func TestGenerateTextEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetGenerationModel("gemini-1.5-flash")

	if _, err := provider.GenerateText(context.Background(), "question", nil, 0, 0); err != llm.ErrNoResult {
		t.Errorf("expected ErrNoResult, got %v", err)
	}
}

func TestModelsNotSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)

	if _, err := provider.GenerateText(context.Background(), "q", nil, 0, 0); err != llm.ErrGenerationModelNotSet {
		t.Errorf("expected ErrGenerationModelNotSet, got %v", err)
	}
	if _, err := provider.EmbedText(context.Background(), []string{"t"}, llm.DocumentTypeDocument); err != llm.ErrEmbeddingModelNotSet {
		t.Errorf("expected ErrEmbeddingModelNotSet, got %v", err)
	}
}
