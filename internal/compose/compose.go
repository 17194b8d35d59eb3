// Package compose turns stored items into user-requested content
// drafts based on a topic and content type.
package compose

import (
	"context"
	"fmt"
	"strings"

	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
)

// ContentType names a draft format.
type ContentType string

const (
	TypeBlog         ContentType = "blog"
	TypeScript       ContentType = "script"
	TypeSocial       ContentType = "social"
	TypeResearchIdea ContentType = "research_idea"
)

// ParseContentType converts a request string into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeBlog:
		return TypeBlog, nil
	case TypeScript:
		return TypeScript, nil
	case TypeSocial:
		return TypeSocial, nil
	case TypeResearchIdea:
		return TypeResearchIdea, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

var prompts = map[ContentType]string{
	TypeBlog: `다음 자료를 바탕으로 "%s" 주제의 블로그 글을 작성해주세요.
독자는 심리학에 관심 있는 일반인입니다. 도입, 본문, 마무리 구조로 1000자 내외로 작성하세요.

자료:
%s`,
	TypeScript: `다음 자료를 바탕으로 "%s" 주제의 유튜브 영상 스크립트를 작성해주세요.
인트로, 본론 3개 포인트, 아웃트로 구조로 작성하고, 각 구간의 예상 시간을 표시하세요.

자료:
%s`,
	TypeSocial: `다음 자료를 바탕으로 "%s" 주제의 SNS 게시물을 작성해주세요.
300자 이내로, 핵심 메시지 하나에 집중하고 해시태그 3개를 붙이세요.

자료:
%s`,
	TypeResearchIdea: `다음 자료를 바탕으로 "%s" 주제의 연구 아이디어를 제안해주세요.
연구 질문, 가설, 제안 방법, 기대 효과를 각각 정리하세요.

자료:
%s`,
}

// Composer builds drafts from stored articles and papers.
type Composer struct {
	db       *database.DB
	enricher *enrich.Client
}

func New(db *database.DB, enricher *enrich.Client) *Composer {
	return &Composer{db: db, enricher: enricher}
}

// Compose generates a draft of the given type over the selected
// source items and stores it. Unlike collection-time enrichment this
// is user triggered, so failures surface as errors.
func (c *Composer) Compose(ctx context.Context, contentType ContentType, topic string, articleIDs, paperIDs []int64) (*database.GeneratedContent, error) {
	material, sourceIDs, err := c.gatherMaterial(articleIDs, paperIDs)
	if err != nil {
		return nil, err
	}
	if material == "" {
		return nil, fmt.Errorf("no source items found")
	}

	prompt := fmt.Sprintf(prompts[contentType], topic, material)
	text, err := c.enricher.Compose(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating %s draft: %w", contentType, err)
	}

	draft := database.GeneratedContent{
		ContentType: string(contentType),
		Topic:       topic,
		ContentText: text,
		SourceIDs:   sourceIDs,
	}
	id, err := c.db.InsertGeneratedContent(draft)
	if err != nil {
		return nil, fmt.Errorf("storing draft: %w", err)
	}
	return c.db.GetGeneratedContentByID(id)
}

// gatherMaterial renders the selected items into prompt text. Missing
// IDs are silently skipped; the caller may hold a stale item list.
func (c *Composer) gatherMaterial(articleIDs, paperIDs []int64) (string, []int64, error) {
	var b strings.Builder
	var sourceIDs []int64

	articles, err := c.db.GetArticlesByIDs(articleIDs)
	if err != nil {
		return "", nil, fmt.Errorf("loading articles: %w", err)
	}
	for _, a := range articles {
		fmt.Fprintf(&b, "[기사] %s\n", a.Title)
		if a.Summary != nil {
			fmt.Fprintf(&b, "%s\n", *a.Summary)
		}
		b.WriteString("\n")
		sourceIDs = append(sourceIDs, a.ID)
	}

	papers, err := c.db.GetPapersByIDs(paperIDs)
	if err != nil {
		return "", nil, fmt.Errorf("loading papers: %w", err)
	}
	for _, p := range papers {
		fmt.Fprintf(&b, "[논문] %s\n", p.Title)
		if p.Abstract != nil {
			fmt.Fprintf(&b, "%s\n", enrich.Ellipsize(*p.Abstract, 800))
		}
		b.WriteString("\n")
		sourceIDs = append(sourceIDs, p.ID)
	}

	return strings.TrimSpace(b.String()), sourceIDs, nil
}
