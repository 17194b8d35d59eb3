package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"psyinsight/internal/config"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseWithPlainFence(t *testing.T) {
	text := "```\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	result := ParseJSONResponse("not json at all")
	if result != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	result := ParseJSONResponse("")
	if result != nil {
		t.Error("expected nil for empty string")
	}
}

func geminiResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestProvider(t *testing.T, url string) *GeminiProvider {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	p, err := NewGeminiProvider(config.Enrichment{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.SetBaseURL(url)
	return p
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewGeminiProvider(config.Enrichment{}); err == nil {
		t.Fatal("expected error when API key env is empty")
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiResponse("hello")))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	text, err := p.Generate(context.Background(), "hi", GenOptions{MaxTokens: 64})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected 'hello', got %q", text)
	}
}

func TestGenerateFallsBackOnModelNotFound(t *testing.T) {
	var tried []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path: /models/<model>:generateContent
		model := strings.TrimPrefix(r.URL.Path, "/models/")
		model = strings.TrimSuffix(model, ":generateContent")
		tried = append(tried, model)

		if model == "gemini-1.5-flash-latest" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(geminiResponse("ok")))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	text, err := p.Generate(context.Background(), "hi", GenOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" {
		t.Errorf("expected 'ok', got %q", text)
	}
	if len(tried) != 2 {
		t.Fatalf("expected 2 attempts, got %d (%v)", len(tried), tried)
	}
	if tried[1] != "gemini-1.5-flash" {
		t.Errorf("expected fallback to 'gemini-1.5-flash', got %q", tried[1])
	}

	// Resolved model should be reused on the next call.
	tried = nil
	if _, err := p.Generate(context.Background(), "again", GenOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tried) != 1 || tried[0] != "gemini-1.5-flash" {
		t.Errorf("expected single call to resolved model, got %v", tried)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	if _, err := p.Generate(context.Background(), "hi", GenOptions{}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
