package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"psyinsight/internal/config"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// defaultModelCandidates is the ordered list tried when no explicit model
// is configured, or when the configured model is not served.
var defaultModelCandidates = []string{
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash",
	"gemini-1.5-pro-latest",
	"gemini-1.5-pro",
	"gemini-pro",
}

// GenOptions are per-call generation parameters.
type GenOptions struct {
	Temperature float64
	MaxTokens   int
}

// Provider is the interface for text-generation providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts GenOptions) (string, error)
	IsConfigured() bool
}

// GeminiProvider calls the Gemini REST API. It is safe for concurrent
// use; the only mutable state is the lazily resolved model name.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client

	candidates []string

	mu    sync.Mutex
	model string
}

// NewGeminiProvider builds a provider from configuration. A missing API
// key is a configuration error and the single hard failure of the
// enrichment stack; there is no meaningful fallback without credentials.
func NewGeminiProvider(cfg config.Enrichment) (*GeminiProvider, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "GEMINI_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set; configure a Gemini API key", keyEnv)
	}

	candidates := defaultModelCandidates
	if cfg.Model != "" {
		candidates = append([]string{cfg.Model}, cfg.ModelFallbacks...)
	} else if len(cfg.ModelFallbacks) > 0 {
		candidates = cfg.ModelFallbacks
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: timeout},
		candidates: candidates,
	}, nil
}

// IsConfigured reports whether the provider has credentials.
func (g *GeminiProvider) IsConfigured() bool {
	return g.apiKey != ""
}

// Generate sends a prompt to Gemini and returns the response text.
// A "model not found" answer invalidates the resolved model and moves on
// to the next candidate.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts GenOptions) (string, error) {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 512
	}

	var lastErr error
	for _, model := range g.modelOrder() {
		text, err := g.generateContent(ctx, model, prompt, opts)
		if err == nil {
			g.rememberModel(model)
			return text, nil
		}
		lastErr = err

		if !isModelNotFound(err) {
			return "", err
		}
		log.Printf("Gemini model %q not available, trying next candidate", model)
		g.forgetModel(model)
	}
	return "", fmt.Errorf("no usable Gemini model: %w", lastErr)
}

// modelOrder returns candidates with the resolved model first.
func (g *GeminiProvider) modelOrder() []string {
	g.mu.Lock()
	resolved := g.model
	g.mu.Unlock()

	if resolved == "" {
		return g.candidates
	}
	order := []string{resolved}
	for _, c := range g.candidates {
		if c != resolved {
			order = append(order, c)
		}
	}
	return order
}

func (g *GeminiProvider) rememberModel(model string) {
	g.mu.Lock()
	g.model = model
	g.mu.Unlock()
}

func (g *GeminiProvider) forgetModel(model string) {
	g.mu.Lock()
	if g.model == model {
		g.model = ""
	}
	g.mu.Unlock()
}

func (g *GeminiProvider) generateContent(ctx context.Context, model, prompt string, opts GenOptions) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     opts.Temperature,
			"maxOutputTokens": opts.MaxTokens,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if resp.StatusCode == http.StatusNotFound {
			return "", &modelNotFoundError{model: model, detail: string(respBody)}
		}
		return "", fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

type modelNotFoundError struct {
	model  string
	detail string
}

func (e *modelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found: %s", e.model, e.detail)
}

func isModelNotFound(err error) bool {
	_, ok := err.(*modelNotFoundError)
	return ok
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (g *GeminiProvider) SetBaseURL(url string) {
	g.baseURL = url
}
