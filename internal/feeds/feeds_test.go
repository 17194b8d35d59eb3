package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"psyinsight/internal/config"
)

const newsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"심리" - Google News</title>
<item>
<title>청소년 마음건강 지원 확대 - 연합뉴스</title>
<link>https://news.example.com/a1</link>
<pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate>
</item>
<item>
<title>No link entry</title>
</item>
<item>
<title>Therapy apps on the rise - Example Times</title>
<link>https://news.example.com/a2</link>
<pubDate>Sun, 23 Aug 2026 12:00:00 GMT</pubDate>
</item>
</channel>
</rss>`

func TestNewsFetcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, newsRSS)
	}))
	defer srv.Close()

	f := NewNewsFetcher(0)
	f.SetBaseURL(srv.URL)

	items, err := f.Fetch(context.Background(), "심리", "KR", []string{"재판"}, 10)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (malformed entry skipped)", len(items))
	}
	if items[0].Title != "청소년 마음건강 지원 확대" {
		t.Errorf("title = %q, want source suffix stripped", items[0].Title)
	}
	if items[0].Source != "연합뉴스" {
		t.Errorf("source = %q, want 연합뉴스", items[0].Source)
	}
	if items[0].PublishedDate != "2026-08-24" {
		t.Errorf("date = %q, want 2026-08-24", items[0].PublishedDate)
	}
	if items[0].Country != "KR" || items[0].Keyword != "심리" {
		t.Errorf("country/keyword = %q/%q", items[0].Country, items[0].Keyword)
	}
	for _, want := range []string{"%EC%8B%AC%EB%A6%AC", "-%EC%9E%AC%ED%8C%90", "ceid=KR%3Ako"} {
		if !containsQuery(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func containsQuery(query, frag string) bool {
	for i := 0; i+len(frag) <= len(query); i++ {
		if query[i:i+len(frag)] == frag {
			return true
		}
	}
	return false
}

func TestNewsFetcherCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, newsRSS)
	}))
	defer srv.Close()

	f := NewNewsFetcher(0)
	f.SetBaseURL(srv.URL)

	items, err := f.Fetch(context.Background(), "심리", "KR", nil, 1)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want cap of 1", len(items))
	}
}

func TestNewsFetcherRejectsUnknownCountry(t *testing.T) {
	f := NewNewsFetcher(0)
	if _, err := f.Fetch(context.Background(), "kw", "FR", nil, 5); err == nil {
		t.Fatal("expected error for unsupported country")
	}
}

const arxivAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<entry>
<id>http://arxiv.org/abs/2608.01234v1</id>
<title>Attention  and
  working memory</title>
<summary>We study the
  relationship between attention and memory.</summary>
<link href="http://arxiv.org/abs/2608.01234v1" rel="alternate"/>
<published>2026-08-20T10:00:00Z</published>
<author><name>Jane Park</name></author>
<author><name>Minsu Kim</name></author>
</entry>
</feed>`

func TestArxivFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivAtom)
	}))
	defer srv.Close()

	f := NewArxivFetcher(0)
	f.SetBaseURL(srv.URL)

	items, err := f.Fetch(context.Background(), "attention", 5)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	p := items[0]
	if p.Title != "Attention and working memory" {
		t.Errorf("title = %q, want folded whitespace", p.Title)
	}
	if p.Abstract != "We study the relationship between attention and memory." {
		t.Errorf("abstract = %q", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Jane Park" {
		t.Errorf("authors = %v", p.Authors)
	}
	if p.Journal != "arXiv" || p.PublishedDate != "2026-08-20" {
		t.Errorf("journal/date = %q/%q", p.Journal, p.PublishedDate)
	}
}

const esearchJSON = `{"esearchresult":{"idlist":["12345678"]}}`

const efetchXML = `<?xml version="1.0"?>
<PubmedArticleSet>
<PubmedArticle>
<MedlineCitation>
<PMID>12345678</PMID>
<Article>
<ArticleTitle>Sleep and anxiety in adolescents.</ArticleTitle>
<Abstract><AbstractText>Background text.</AbstractText><AbstractText>Results text.</AbstractText></Abstract>
<AuthorList><Author><LastName>Lee</LastName><ForeName>Hana</ForeName></Author></AuthorList>
<Journal>
<Title>Journal of Sleep Research</Title>
<JournalIssue><PubDate><Year>2026</Year><Month>Aug</Month><Day>5</Day></PubDate></JournalIssue>
</Journal>
</Article>
</MedlineCitation>
</PubmedArticle>
</PubmedArticleSet>`

func TestPubMedFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, esearchJSON)
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, efetchXML)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewPubMedFetcher(0)
	f.SetBaseURL(srv.URL)

	items, err := f.Fetch(context.Background(), "sleep anxiety", 5)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	p := items[0]
	if p.URL != "https://pubmed.ncbi.nlm.nih.gov/12345678/" {
		t.Errorf("url = %q", p.URL)
	}
	if p.Abstract != "Background text. Results text." {
		t.Errorf("abstract = %q", p.Abstract)
	}
	if len(p.Authors) != 1 || p.Authors[0] != "Hana Lee" {
		t.Errorf("authors = %v", p.Authors)
	}
	if p.Journal != "Journal of Sleep Research" {
		t.Errorf("journal = %q", p.Journal)
	}
	if p.PublishedDate != "2026-08-05" {
		t.Errorf("date = %q", p.PublishedDate)
	}
}

func TestPubMedFetcherEmptySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer srv.Close()

	f := NewPubMedFetcher(0)
	f.SetBaseURL(srv.URL)

	items, err := f.Fetch(context.Background(), "nothing", 5)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if items != nil {
		t.Fatalf("got %v, want nil for empty result", items)
	}
}

const economyPageHTML = `<html><body>
<ul>
<li><a href="/portal/view.do?id=1">경제전망 보고서</a></li>
<li><a href="/portal/view.do?id=2">채용 공고</a></li>
<li><a href="https://ext.example.com/view.do?id=3">통화신용정책 보고서</a></li>
</ul>
</body></html>`

func TestEconomyFetcherPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, economyPageHTML)
	}))
	defer srv.Close()

	cfg := config.EconomySource{
		Pages: []config.EconomyPage{{
			Name:         "한국은행",
			URL:          srv.URL,
			LinkSelector: `a[href*="view.do"]`,
			BaseURL:      "https://www.bok.or.kr",
			TitleFilters: []string{"보고서"},
			Category:     "macro",
		}},
	}
	f := NewEconomyFetcher(cfg, 0)

	items, err := f.FetchAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (title filter drops one)", len(items))
	}
	if items[0].URL != "https://www.bok.or.kr/portal/view.do?id=1" {
		t.Errorf("url = %q, want resolved against base", items[0].URL)
	}
	if items[1].URL != "https://ext.example.com/view.do?id=3" {
		t.Errorf("url = %q, want absolute link untouched", items[1].URL)
	}
	if items[0].Category != CategoryMacro || items[0].Source != "한국은행" {
		t.Errorf("category/source = %v/%q", items[0].Category, items[0].Source)
	}
}

const economyRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Markets</title>
<item><title>Fed holds rates</title><link>https://econ.example.com/f1</link>
<pubDate>Tue, 25 Aug 2026 08:00:00 GMT</pubDate></item>
</channel></rss>`

func TestEconomyFetcherFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, economyRSS)
	}))
	defer srv.Close()

	cfg := config.EconomySource{
		Feeds: []config.EconomyFeed{{Name: "Investing.com", URL: srv.URL, Category: "global"}},
	}
	f := NewEconomyFetcher(cfg, 0)

	items, err := f.FetchAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Category != CategoryGlobal || items[0].PublishedDate != "2026-08-25" {
		t.Errorf("category/date = %v/%q", items[0].Category, items[0].PublishedDate)
	}
}

func TestEconomyFetcherSkipsFailingSource(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, economyRSS)
	}))
	defer good.Close()

	cfg := config.EconomySource{
		Pages: []config.EconomyPage{{Name: "down", URL: bad.URL, LinkSelector: "a", Category: "macro"}},
		Feeds: []config.EconomyFeed{{Name: "up", URL: good.URL, Category: "industry"}},
	}
	f := NewEconomyFetcher(cfg, 0)

	items, err := f.FetchAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want the healthy source's 1", len(items))
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"macro": CategoryMacro, "Industry": CategoryIndustry, " global ": CategoryGlobal,
	} {
		got, err := ParseCategory(in)
		if err != nil || got != want {
			t.Errorf("ParseCategory(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseCategory("equities"); err == nil {
		t.Error("expected error for unknown category")
	}
}
