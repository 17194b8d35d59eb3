package server

import (
	"net/http"
	"strconv"
	"strings"

	"psyinsight/internal/database"
)

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func pageOffset(r *http.Request) (page int, offset uint64) {
	page = queryInt(r, "page")
	if page < 1 {
		page = 1
	}
	return page, uint64(page-1) * pageSize
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	page, offset := pageOffset(r)
	q := r.URL.Query()
	filter := database.ArticleFilter{
		Keyword:  q.Get("keyword"),
		Country:  q.Get("country"),
		Search:   q.Get("q"),
		MinScore: queryInt(r, "min_score"),
		Limit:    pageSize,
		Offset:   offset,
	}

	articles, err := s.db.ListArticles(filter)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	total, _ := s.db.CountArticles(filter)
	keywords, _ := s.db.ArticleKeywords()

	s.render(w, "news.html", map[string]any{
		"Articles": articles,
		"Keywords": keywords,
		"Filter":   filter,
		"Page":     page,
		"HasNext":  int(offset)+len(articles) < total,
		"Total":    total,
	})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	page, offset := pageOffset(r)
	q := r.URL.Query()
	filter := database.PaperFilter{
		Keyword:  q.Get("keyword"),
		Journal:  q.Get("journal"),
		Search:   q.Get("q"),
		MinScore: queryInt(r, "min_score"),
		Limit:    pageSize,
		Offset:   offset,
	}

	papers, err := s.db.ListPapers(filter)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	journals, _ := s.db.PaperJournals()

	s.render(w, "papers.html", map[string]any{
		"Papers":   papers,
		"Journals": journals,
		"Filter":   filter,
		"Page":     page,
		"HasNext":  len(papers) == pageSize,
	})
}

// handlePaperDetail serves GET /paper/{id} and POST /paper/{id}/structure.
// The structure action runs the abstract through the enrichment client
// and renders the purpose/method/result/implication breakdown.
func (s *Server) handlePaperDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/paper/")
	parts := strings.Split(path, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	paper, err := s.db.GetPaperByID(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if paper == nil {
		http.NotFound(w, r)
		return
	}

	data := map[string]any{"Paper": paper}

	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "structure" {
		if paper.Abstract != nil && *paper.Abstract != "" {
			structured := s.enricher.StructureAbstract(r.Context(), *paper.Abstract)
			data["Structured"] = structured
		}
	}

	s.render(w, "paper.html", data)
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	page, offset := pageOffset(r)
	q := r.URL.Query()
	filter := database.EconomyFilter{
		Category: q.Get("category"),
		Source:   q.Get("source"),
		Search:   q.Get("q"),
		Limit:    pageSize,
		Offset:   offset,
	}

	items, err := s.db.ListEconomyNews(filter)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	reports, _ := s.db.ListEconomyReports(7)

	s.render(w, "economy.html", map[string]any{
		"Items":   items,
		"Reports": reports,
		"Filter":  filter,
		"Page":    page,
		"HasNext": len(items) == pageSize,
	})
}

// parseIDs reads the checked item IDs from a bulk-action form.
func parseIDs(r *http.Request) []int64 {
	var ids []int64
	for _, raw := range r.Form["ids"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request, redirect string,
	deleteByIDs func([]int64) (int64, error), deleteAll func() (int64, error)) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	r.ParseForm()

	if r.FormValue("all") == "1" {
		deleteAll()
	} else if ids := parseIDs(r); len(ids) > 0 {
		deleteByIDs(ids)
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) handleDeleteNews(w http.ResponseWriter, r *http.Request) {
	s.handleBulkDelete(w, r, "/news", s.db.DeleteArticlesByIDs, s.db.DeleteAllArticles)
}

func (s *Server) handleDeletePapers(w http.ResponseWriter, r *http.Request) {
	s.handleBulkDelete(w, r, "/papers", s.db.DeletePapersByIDs, s.db.DeleteAllPapers)
}

func (s *Server) handleDeleteEconomy(w http.ResponseWriter, r *http.Request) {
	s.handleBulkDelete(w, r, "/economy", s.db.DeleteEconomyNewsByIDs, s.db.DeleteAllEconomyNews)
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.db.ListBookmarks()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	type entry struct {
		Type  string
		Title string
		URL   string
	}
	var entries []entry
	for _, b := range bookmarks {
		switch b.ItemType {
		case "article":
			if a, _ := s.db.GetArticleByID(b.ItemID); a != nil {
				entries = append(entries, entry{"기사", a.Title, a.URL})
			}
		case "paper":
			if p, _ := s.db.GetPaperByID(b.ItemID); p != nil {
				entries = append(entries, entry{"논문", p.Title, p.URL})
			}
		case "economy":
			if n, _ := s.db.GetEconomyNewsByID(b.ItemID); n != nil {
				entries = append(entries, entry{"경제", n.Title, n.URL})
			}
		}
	}

	s.render(w, "bookmarks.html", map[string]any{
		"Entries": entries,
	})
}

// handleBookmarkToggle handles POST /bookmark/{type}/{id}/toggle.
func (s *Server) handleBookmarkToggle(w http.ResponseWriter, r *http.Request) {
	back := r.Header.Get("Referer")
	if back == "" {
		back = "/bookmarks"
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, back, http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/bookmark/")
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[2] != "toggle" {
		http.Redirect(w, r, back, http.StatusFound)
		return
	}
	itemType := parts[0]
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || (itemType != "article" && itemType != "paper" && itemType != "economy") {
		http.Redirect(w, r, back, http.StatusFound)
		return
	}

	marked, _ := s.db.IsBookmarked(itemType, id)
	if marked {
		s.db.RemoveBookmark(itemType, id)
	} else {
		s.db.AddBookmark(itemType, id)
	}
	http.Redirect(w, r, back, http.StatusFound)
}
