package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"psyinsight/internal/compose"
	"psyinsight/internal/database"
)

// handleCollect handles POST /collect/{news|papers|economy|all}. The
// run happens in the background; the response redirects immediately.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	kind := strings.TrimPrefix(r.URL.Path, "/collect/")
	switch kind {
	case "news", "papers", "economy", "all":
		s.runCollection(kind)
	default:
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleReport handles GET /report/ and GET /report/{date}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimPrefix(r.URL.Path, "/report/")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	rep, err := s.db.GetEconomyReport(date)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "report.html", map[string]any{
		"Report": rep,
		"Date":   date,
	})
}

// handleGenerateReport handles POST /report/generate. Synthesis runs
// synchronously; the user asked for it and wants the result.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/report/", http.StatusFound)
		return
	}

	date := time.Now().Format("2006-01-02")
	force := r.FormValue("force") == "1"
	if _, err := s.reports.Synthesize(r.Context(), date, force); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/report/"+date, http.StatusFound)
}

// handleCompose shows the composition form and handles submissions.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		articles, _ := s.db.ListArticles(database.ArticleFilter{Limit: 50})
		papers, _ := s.db.ListPapers(database.PaperFilter{Limit: 50})
		s.render(w, "compose.html", map[string]any{
			"Articles": articles,
			"Papers":   papers,
		})
		return
	}

	r.ParseForm()
	contentType, err := compose.ParseContentType(r.FormValue("content_type"))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	topic := strings.TrimSpace(r.FormValue("topic"))
	if topic == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var articleIDs, paperIDs []int64
	for _, raw := range r.Form["article_ids"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			articleIDs = append(articleIDs, id)
		}
	}
	for _, raw := range r.Form["paper_ids"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			paperIDs = append(paperIDs, id)
		}
	}

	draft, err := s.composer.Compose(r.Context(), contentType, topic, articleIDs, paperIDs)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/content?id="+strconv.FormatInt(draft.ID, 10), http.StatusFound)
}

// handleContent lists drafts, or shows one when ?id= is given.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		draft, err := s.db.GetGeneratedContentByID(id)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if draft == nil {
			http.NotFound(w, r)
			return
		}
		s.render(w, "content.html", map[string]any{
			"Draft": draft,
		})
		return
	}

	drafts, err := s.db.ListGeneratedContent(r.URL.Query().Get("type"), 50)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "content.html", map[string]any{
		"Drafts": drafts,
	})
}
