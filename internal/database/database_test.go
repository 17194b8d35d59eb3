package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestInsertArticle(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertArticle(Article{
		URL: "https://example.com/test", Title: "Test Article",
		Summary: ptr("요약"), FullText: ptr("본문 전체 텍스트"),
		Source: ptr("연합뉴스"), Country: ptr("KR"),
		Keyword: ptr("심리"), Keywords: []string{"수면", "불안"},
		ValidityScore: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero article ID")
	}

	a, err := db.GetArticleByID(id)
	if err != nil || a == nil {
		t.Fatalf("lookup: %v, %v", a, err)
	}
	if a.FullText == nil || *a.FullText != "본문 전체 텍스트" {
		t.Errorf("full text = %v", a.FullText)
	}
	if len(a.Keywords) != 2 || a.Keywords[0] != "수면" {
		t.Errorf("keywords = %v", a.Keywords)
	}
}

func TestInsertDuplicateArticle(t *testing.T) {
	db := openTestDB(t)
	_, _ = db.InsertArticle(Article{URL: "https://example.com/dup", Title: "First"})
	id, err := db.InsertArticle(Article{URL: "https://example.com/dup", Title: "Duplicate"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate article")
	}
	count, err := db.CountArticles(ArticleFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 stored row after duplicate insert, got %d", count)
	}
}

func TestArticleURLExists(t *testing.T) {
	db := openTestDB(t)
	db.InsertArticle(Article{URL: "https://a.com/1", Title: "A"})

	exists, err := db.ArticleURLExists("https://a.com/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected stored URL to exist")
	}
	exists, err = db.ArticleURLExists("https://a.com/2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected unknown URL to not exist")
	}
}

func TestListArticlesFilters(t *testing.T) {
	db := openTestDB(t)
	db.InsertArticle(Article{URL: "https://a.com/1", Title: "불안 연구", Keyword: ptr("심리"), Country: ptr("KR"), ValidityScore: 4})
	db.InsertArticle(Article{URL: "https://a.com/2", Title: "Anxiety study", Keyword: ptr("psychology"), Country: ptr("US"), ValidityScore: 2})
	db.InsertArticle(Article{URL: "https://a.com/3", Title: "수면 연구", Keyword: ptr("심리"), Country: ptr("KR"), ValidityScore: 5})

	byKeyword, err := db.ListArticles(ArticleFilter{Keyword: "심리"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byKeyword) != 2 {
		t.Errorf("keyword filter: expected 2, got %d", len(byKeyword))
	}

	byScore, err := db.ListArticles(ArticleFilter{MinScore: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byScore) != 2 {
		t.Errorf("score filter: expected 2, got %d", len(byScore))
	}

	bySearch, err := db.ListArticles(ArticleFilter{Search: "수면"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Title != "수면 연구" {
		t.Errorf("search filter: got %v", bySearch)
	}

	limited, err := db.ListArticles(ArticleFilter{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: expected 2, got %d", len(limited))
	}
}

func TestDeleteArticlesByIDs(t *testing.T) {
	db := openTestDB(t)
	id1, _ := db.InsertArticle(Article{URL: "https://a.com/1", Title: "A"})
	id2, _ := db.InsertArticle(Article{URL: "https://a.com/2", Title: "B"})
	db.InsertArticle(Article{URL: "https://a.com/3", Title: "C"})

	n, err := db.DeleteArticlesByIDs([]int64{id1, id2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	count, _ := db.CountArticles(ArticleFilter{})
	if count != 1 {
		t.Errorf("expected 1 remaining, got %d", count)
	}

	n, err = db.DeleteArticlesByIDs(nil)
	if err != nil || n != 0 {
		t.Errorf("empty delete: got %d, %v", n, err)
	}
}

func TestDeleteAllArticles(t *testing.T) {
	db := openTestDB(t)
	db.InsertArticle(Article{URL: "https://a.com/1", Title: "A"})
	db.InsertArticle(Article{URL: "https://a.com/2", Title: "B"})

	n, err := db.DeleteAllArticles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
}

func TestInsertPaperRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertPaper(Paper{
		URL: "https://arxiv.org/abs/1", Title: "Memory consolidation",
		Abstract: ptr("[원문]\nOriginal text\n\n[번역]\n번역문"),
		Authors:  []string{"Jane Park", "Minsu Kim"},
		Journal:  ptr("arXiv"), Keyword: ptr("memory"),
		Keywords: []string{"기억", "수면"}, ValidityScore: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := db.GetPaperByID(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected paper, got nil")
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Jane Park" {
		t.Errorf("authors = %v", p.Authors)
	}
	if len(p.Keywords) != 2 || p.Keywords[0] != "기억" {
		t.Errorf("keywords = %v", p.Keywords)
	}
}

func TestInsertDuplicatePaper(t *testing.T) {
	db := openTestDB(t)
	db.InsertPaper(Paper{URL: "https://arxiv.org/abs/1", Title: "First"})
	id, err := db.InsertPaper(Paper{URL: "https://arxiv.org/abs/1", Title: "Duplicate"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate paper")
	}
}

func TestInsertDuplicateEconomyNews(t *testing.T) {
	db := openTestDB(t)
	db.InsertEconomyNews(EconomyNews{URL: "https://e.com/1", Title: "First", Category: "macro"})
	id, err := db.InsertEconomyNews(EconomyNews{URL: "https://e.com/1", Title: "Duplicate", Category: "macro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate economy item")
	}
}

func TestEconomyNewsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertEconomyNews(EconomyNews{
		URL: "https://e.com/1", Title: "경제전망", Summary: ptr("요약"),
		FullText: ptr("보고서 본문"), Source: ptr("한국은행"),
		Category: "macro", Keywords: []string{"금리", "물가"},
	})
	if err != nil || id == 0 {
		t.Fatalf("insert: id=%d err=%v", id, err)
	}

	n, err := db.GetEconomyNewsByID(id)
	if err != nil || n == nil {
		t.Fatalf("lookup: %v, %v", n, err)
	}
	if n.FullText == nil || *n.FullText != "보고서 본문" {
		t.Errorf("full text = %v", n.FullText)
	}
	if len(n.Keywords) != 2 || n.Keywords[1] != "물가" {
		t.Errorf("keywords = %v", n.Keywords)
	}
}

func TestGetEconomyNewsOnScopesByDay(t *testing.T) {
	db := openTestDB(t)
	db.InsertEconomyNews(EconomyNews{URL: "https://e.com/1", Title: "오늘 뉴스", Category: "macro"})

	today := time.Now().Format("2006-01-02")
	items, err := db.GetEconomyNewsOn(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items for today, want 1", len(items))
	}

	items, err = db.GetEconomyNewsOn("2000-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items for another day, want 0", len(items))
	}
}

func TestListEconomyNewsByCategory(t *testing.T) {
	db := openTestDB(t)
	db.InsertEconomyNews(EconomyNews{URL: "https://e.com/1", Title: "금리 동결", Category: "macro"})
	db.InsertEconomyNews(EconomyNews{URL: "https://e.com/2", Title: "반도체 전망", Category: "industry"})

	items, err := db.ListEconomyNews(EconomyFilter{Category: "macro"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "금리 동결" {
		t.Errorf("got %v", items)
	}
}

func TestUpsertEconomyReport(t *testing.T) {
	db := openTestDB(t)
	_, err := db.UpsertEconomyReport(EconomyReport{
		ReportDate: "2026-08-31", ReportText: "첫 보고서",
		NewsCount: 2, UsedNewsIDs: []int64{1, 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = db.UpsertEconomyReport(EconomyReport{
		ReportDate: "2026-08-31", ReportText: "갱신된 보고서",
		NewsCount: 3, UsedNewsIDs: []int64{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := db.GetEconomyReport("2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected report, got nil")
	}
	if r.ReportText != "갱신된 보고서" {
		t.Errorf("text = %q, want replacement", r.ReportText)
	}
	if len(r.UsedNewsIDs) != 3 {
		t.Errorf("used ids = %v, want full current set", r.UsedNewsIDs)
	}

	reports, err := db.ListEconomyReports(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("expected 1 report row after upsert, got %d", len(reports))
	}
}

func TestGetEconomyReportMissing(t *testing.T) {
	db := openTestDB(t)
	r, err := db.GetEconomyReport("2026-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil for missing report, got %v", r)
	}
}

func TestGeneratedContentRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertGeneratedContent(GeneratedContent{
		ContentType: "blog", Topic: "수면과 불안",
		ContentText: "본문", SourceIDs: []int64{4, 7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err := db.GetGeneratedContentByID(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil || len(c.SourceIDs) != 2 || c.SourceIDs[1] != 7 {
		t.Errorf("got %v", c)
	}

	drafts, err := db.ListGeneratedContent("blog", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 1 {
		t.Errorf("expected 1 draft, got %d", len(drafts))
	}
}

func TestBookmarks(t *testing.T) {
	db := openTestDB(t)
	if err := db.AddBookmark("article", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Re-adding is a no-op.
	if err := db.AddBookmark("article", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	marked, err := db.IsBookmarked("article", 5)
	if err != nil || !marked {
		t.Errorf("IsBookmarked = %v, %v", marked, err)
	}

	all, err := db.ListBookmarks()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 bookmark, got %d", len(all))
	}

	if err := db.RemoveBookmark("article", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	marked, _ = db.IsBookmarked("article", 5)
	if marked {
		t.Error("expected bookmark removed")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.InsertArticle(Article{URL: "https://a.com/1", Title: "A"})
	db.InsertPaper(Paper{URL: "https://p.com/1", Title: "P"})
	db.InsertEconomyNews(EconomyNews{URL: "https://e.com/1", Title: "E", Category: "macro"})

	s, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Articles != 1 || s.Papers != 1 || s.EconomyNews != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	db.InsertArticle(Article{URL: "https://a.com/1", Title: "A"})
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer db2.Close()
	count, err := db2.CountArticles(ArticleFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected persisted row, got count %d", count)
	}
}
