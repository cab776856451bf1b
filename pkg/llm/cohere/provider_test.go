package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func TestInputType(t *testing.T) {
	if got := inputType(llm.DocumentTypeDocument); got != "search_document" {
		t.Errorf("expected search_document, got %s", got)
	}
	if got := inputType(llm.DocumentTypeQuery); got != "search_query" {
		t.Errorf("expected search_query, got %s", got)
	}
}

func TestEmbedTextInputType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("expected path /embed, got %s", r.URL.Path)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.InputType != "search_query" {
			t.Errorf("expected input_type search_query, got %s", req.InputType)
		}
		if len(req.EmbeddingTypes) != 1 || req.EmbeddingTypes[0] != "float" {
			t.Errorf("expected embedding_types [float], got %v", req.EmbeddingTypes)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "emb-1",
			"embeddings": {"float": [[0.1, 0.2], [0.3, 0.4]]}
		}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetEmbeddingModel("embed-multilingual-v3.0", 2)

	embeddings, err := provider.EmbedText(context.Background(), []string{"first", "second"}, llm.DocumentTypeQuery)
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(embeddings) != 2 || embeddings[1][1] != 0.4 {
		t.Errorf("unexpected embeddings: %v", embeddings)
	}
}

func TestGenerateTextRoleMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("expected path /chat, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer "+testAPIKey {
			t.Error("expected Authorization Bearer test-key")
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Message != "question" {
			t.Errorf("expected message 'question', got %q", req.Message)
		}
		if len(req.ChatHistory) != 2 {
			t.Fatalf("expected 2 history messages, got %d", len(req.ChatHistory))
		}
		if req.ChatHistory[0].Role != "SYSTEM" || req.ChatHistory[1].Role != "CHATBOT" {
			t.Errorf("unexpected roles: %s, %s", req.ChatHistory[0].Role, req.ChatHistory[1].Role)
		}
		if req.MaxTokens != 200 || req.Temperature != 0.1 {
			t.Errorf("expected defaults, got max_tokens=%d temperature=%f", req.MaxTokens, req.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "the answer", "finish_reason": "COMPLETE"}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetGenerationModel("command-r")

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
		_, _ = w.Write([]byte(`{"text": ""}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.APIKey = testAPIKey
	provider := NewProviderWithConfig(cfg)
	provider.SetGenerationModel("command-r")

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
