// Package enrich wraps the text-generation provider behind the
// operations the collectors need: summaries, translations, validity
// scoring, keyword extraction and structured abstracts. Every operation
// retries with exponential backoff and degrades to a deterministic
// fallback instead of failing; enrichment must never abort a
// collection run.
package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"psyinsight/internal/llm"
)

const (
	// promptLimit bounds the raw text handed to the provider.
	promptLimit = 2000
	// abstractLimit is used for paper abstracts, which run longer.
	abstractLimit = 3000

	defaultMaxRetries = 3
)

const summaryPrompt = `다음 뉴스 기사를 3줄로 요약해주세요. 각 줄은 핵심 내용을 간결하게 담아야 합니다.

기사 내용:
%s

요약:`

const briefSummaryPrompt = `다음 외국 뉴스 기사를 한국어로 100자 내외로 간략히 요약해주세요. 핵심 내용만 간결하게 담아주세요.

기사 내용:
%s

한국어 요약:`

const translateTitlePrompt = `다음 제목을 한국어로 번역해주세요. 번역만 출력하세요.

제목:
%s

번역:`

const translateAbstractPrompt = `다음 논문 초록을 한국어로 번역해주세요. 전문 용어는 원문을 병기하세요.

초록:
%s

한국어 번역:`

const scorePrompt = `다음 뉴스 기사를 사회과학 논문의 신뢰도 및 타당도 평가 기준에 따라 평가해주세요.

평가 기준:
1. 과학적 연구가 이루어졌는지 / 근거보다는 일반상식에 바탕하는지
2. 연구가 타당한지 / 경험 및 선행보고가 충분한지
3. 저명학회지에 게재 가능한 수준의 근거기반 논리인지

기사 내용:
%s

다음 JSON 형식으로 응답해주세요:
{
    "score": 1~5 사이의 정수,
    "reason": "평가 근거를 간단히 설명"
}`

const keywordsPrompt = `다음 텍스트에서 핵심 키워드를 %d개 추출해주세요.

텍스트:
%s

다음 JSON 형식으로 응답해주세요:
{
    "keywords": ["키워드1", "키워드2", ...]
}`

const structureAbstractPrompt = `다음 논문 초록을 읽고 연구 목적, 방법, 결과, 시사점으로 구조화하여 요약해주세요.

초록:
%s

다음 JSON 형식으로 응답해주세요:
{
    "purpose": "연구 목적",
    "method": "연구 방법",
    "result": "주요 결과",
    "implication": "시사점"
}`

// ScoreResult is the outcome of a validity evaluation. Degraded marks
// the neutral fallback returned after the retry budget is exhausted.
type ScoreResult struct {
	Score    int
	Reason   string
	Degraded bool
}

// KeywordsResult carries extracted keywords, or the empty fallback.
type KeywordsResult struct {
	Keywords []string
	Degraded bool
}

// AbstractResult is a structured paper summary.
type AbstractResult struct {
	Purpose     string
	Method      string
	Result      string
	Implication string
	Degraded    bool
}

// Client performs enrichment through an llm.Provider. It holds no
// mutable state and is safe to share across workers.
type Client struct {
	provider   llm.Provider
	maxRetries int
	backoff    time.Duration
}

// New creates an enrichment client. maxRetries <= 0 selects the default
// budget of 3 attempts.
func New(provider llm.Provider, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		provider:   provider,
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// Summarize produces a 3-line summary. On exhaustion it falls back to
// the first lines of the input.
func (c *Client) Summarize(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(summaryPrompt, truncate(text, promptLimit))
	out, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.3, MaxTokens: 300}, minLen(10))
	if err != nil {
		log.Printf("summary generation failed, using prefix fallback: %v", err)
		return prefixSummary(text)
	}
	return out
}

// SummarizeBrief produces a ~100-character Korean summary of foreign
// text. On exhaustion it falls back to a truncated prefix.
func (c *Client) SummarizeBrief(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(briefSummaryPrompt, truncate(text, promptLimit))
	out, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.3, MaxTokens: 200}, minLen(20))
	if err != nil {
		log.Printf("brief summary failed, using prefix fallback: %v", err)
		return Ellipsize(text, 100)
	}
	return out
}

// TranslateTitle translates a title into Korean, returning the original
// when translation fails or produces something implausibly short.
func (c *Client) TranslateTitle(ctx context.Context, title string) string {
	prompt := fmt.Sprintf(translateTitlePrompt, truncate(title, 500))
	out, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.2, MaxTokens: 200}, minLen(5))
	if err != nil {
		return title
	}
	return out
}

// TranslateAbstract translates a paper abstract into Korean, returning
// the original on failure.
func (c *Client) TranslateAbstract(ctx context.Context, abstract string) string {
	prompt := fmt.Sprintf(translateAbstractPrompt, truncate(abstract, abstractLimit))
	out, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.2, MaxTokens: 2000}, minLen(50))
	if err != nil {
		return abstract
	}
	return out
}

// Score evaluates the evidential validity of an article (1..5). A parse
// failure counts as a retryable failure; exhaustion yields the neutral
// midpoint.
func (c *Client) Score(ctx context.Context, text string) ScoreResult {
	prompt := fmt.Sprintf(scorePrompt, truncate(text, promptLimit))

	var parsed map[string]any
	_, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.2, MaxTokens: 200}, func(out string) bool {
		parsed = llm.ParseJSONResponse(out)
		return parsed != nil
	})
	if err != nil {
		log.Printf("validity scoring failed, using neutral fallback: %v", err)
		return ScoreResult{Score: 3, Reason: "평가 중 오류 발생", Degraded: true}
	}

	score := getInt(parsed, "score", 3)
	if score < 1 || score > 5 {
		score = 3
	}
	reason := getString(parsed, "reason", "평가 완료")
	if reason == "" {
		reason = "평가 완료"
	}
	return ScoreResult{Score: score, Reason: reason}
}

// Keywords extracts up to k keywords from the text. Exhaustion yields
// the empty fallback.
func (c *Client) Keywords(ctx context.Context, text string, k int) KeywordsResult {
	if k <= 0 {
		k = 5
	}
	prompt := fmt.Sprintf(keywordsPrompt, k, truncate(text, promptLimit))

	var parsed map[string]any
	_, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.3, MaxTokens: 200}, func(out string) bool {
		parsed = llm.ParseJSONResponse(out)
		return parsed != nil
	})
	if err != nil {
		log.Printf("keyword extraction failed, using empty fallback: %v", err)
		return KeywordsResult{Degraded: true}
	}

	var keywords []string
	if raw, ok := parsed["keywords"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				keywords = append(keywords, s)
			}
		}
	}
	if len(keywords) > k {
		keywords = keywords[:k]
	}
	return KeywordsResult{Keywords: keywords}
}

// StructureAbstract summarizes a paper abstract into purpose, method,
// result and implication.
func (c *Client) StructureAbstract(ctx context.Context, abstract string) AbstractResult {
	prompt := fmt.Sprintf(structureAbstractPrompt, truncate(abstract, abstractLimit))

	var parsed map[string]any
	_, err := c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.2, MaxTokens: 500}, func(out string) bool {
		parsed = llm.ParseJSONResponse(out)
		return parsed != nil
	})
	if err != nil {
		log.Printf("abstract structuring failed, using empty fallback: %v", err)
		return AbstractResult{Purpose: "요약 실패", Degraded: true}
	}

	return AbstractResult{
		Purpose:     getString(parsed, "purpose", ""),
		Method:      getString(parsed, "method", ""),
		Result:      getString(parsed, "result", ""),
		Implication: getString(parsed, "implication", ""),
	}
}

// Compose runs a long-form generation for user-triggered content. This
// is the one operation whose failure surfaces to the caller: there is no
// meaningful fallback for a blog post.
func (c *Client) Compose(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.7, MaxTokens: 2000}, minLen(10))
}

// SynthesizeReport runs the long-form daily report synthesis. The
// caller (report.Synthesizer) maps exhaustion to a nil report.
func (c *Client) SynthesizeReport(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, llm.GenOptions{Temperature: 0.4, MaxTokens: 2000}, minLen(50))
}

// generate runs the retry loop shared by every operation: up to
// maxRetries attempts, 2^attempt backoff between them, accept deciding
// whether a response is usable.
func (c *Client) generate(ctx context.Context, prompt string, opts llm.GenOptions, accept func(string) bool) (string, error) {
	if c.provider == nil || !c.provider.IsConfigured() {
		return "", fmt.Errorf("no text-generation provider configured")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.backoff * (1 << (attempt - 1))):
			}
		}

		out, err := c.provider.Generate(ctx, prompt, opts)
		if err != nil {
			lastErr = err
			continue
		}

		out = strings.TrimSpace(out)
		if accept == nil || accept(out) {
			return out, nil
		}
		lastErr = fmt.Errorf("unusable response (%d chars)", len(out))
	}
	return "", fmt.Errorf("exhausted %d attempts: %w", c.maxRetries, lastErr)
}

// prefixSummary is the deterministic summary fallback: the first lines
// of the input, capped at 200 characters.
func prefixSummary(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	var parts []string
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			parts = append(parts, s)
		}
	}
	summary := truncate(strings.Join(parts, " "), 200)
	if summary == "" {
		return "요약을 생성할 수 없습니다."
	}
	return summary
}

// truncate cuts text to at most n runes.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// Ellipsize truncates to n runes and appends an ellipsis marker when
// anything was cut.
func Ellipsize(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func minLen(n int) func(string) bool {
	return func(s string) bool { return len([]rune(s)) >= n }
}

func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func getInt(m map[string]any, key string, fallback int) int {
	if v, ok := m[key]; ok {
		if n, ok := v.(float64); ok {
			return int(n)
		}
	}
	return fallback
}
