package compose

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
	"psyinsight/internal/llm"
)

type fakeProvider struct {
	lastPrompt string
	response   string
	err        error
}

func (p *fakeProvider) Generate(_ context.Context, prompt string, _ llm.GenOptions) (string, error) {
	p.lastPrompt = prompt
	return p.response, p.err
}

func (p *fakeProvider) IsConfigured() bool { return true }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestComposeBlogDraft(t *testing.T) {
	db := openTestDB(t)
	summary := "수면 부족이 불안을 키운다는 연구 요약"
	aid, _ := db.InsertArticle(database.Article{
		URL: "https://a.com/1", Title: "수면과 불안", Summary: &summary,
	})
	abstract := "Sleep deprivation increases anxiety in adults."
	pid, _ := db.InsertPaper(database.Paper{
		URL: "https://p.com/1", Title: "Sleep study", Abstract: &abstract,
	})

	provider := &fakeProvider{response: "블로그 본문입니다."}
	c := New(db, enrich.New(provider, 1))

	draft, err := c.Compose(context.Background(), TypeBlog, "수면과 불안", []int64{aid}, []int64{pid})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if draft.ContentText != "블로그 본문입니다." {
		t.Errorf("text = %q", draft.ContentText)
	}
	if len(draft.SourceIDs) != 2 {
		t.Errorf("source ids = %v", draft.SourceIDs)
	}
	if !strings.Contains(provider.lastPrompt, "수면과 불안") {
		t.Error("expected topic in prompt")
	}
	if !strings.Contains(provider.lastPrompt, "[기사]") || !strings.Contains(provider.lastPrompt, "[논문]") {
		t.Error("expected both source kinds in prompt")
	}
}

func TestComposeFailureSurfaces(t *testing.T) {
	db := openTestDB(t)
	aid, _ := db.InsertArticle(database.Article{URL: "https://a.com/1", Title: "기사"})

	provider := &fakeProvider{err: fmt.Errorf("provider down")}
	c := New(db, enrich.New(provider, 1))

	if _, err := c.Compose(context.Background(), TypeSocial, "주제", []int64{aid}, nil); err == nil {
		t.Fatal("expected error surfaced for user-triggered composition")
	}
	drafts, _ := db.ListGeneratedContent("", 10)
	if len(drafts) != 0 {
		t.Errorf("expected nothing stored on failure, got %d", len(drafts))
	}
}

func TestComposeNoSources(t *testing.T) {
	db := openTestDB(t)
	c := New(db, enrich.New(&fakeProvider{response: "x"}, 1))

	if _, err := c.Compose(context.Background(), TypeBlog, "주제", []int64{99}, nil); err == nil {
		t.Fatal("expected error when no source items exist")
	}
}

func TestParseContentType(t *testing.T) {
	for in, want := range map[string]ContentType{
		"blog": TypeBlog, "Script": TypeScript, " social ": TypeSocial,
		"research_idea": TypeResearchIdea,
	} {
		got, err := ParseContentType(in)
		if err != nil || got != want {
			t.Errorf("ParseContentType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseContentType("podcast"); err == nil {
		t.Error("expected error for unknown type")
	}
}
