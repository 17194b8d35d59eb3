// Package server is the local web UI: browse collected items, trigger
// collection and report synthesis, compose drafts, manage bookmarks.
package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"psyinsight/internal/collector"
	"psyinsight/internal/compose"
	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
	"psyinsight/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

const pageSize = 20

// Server is the HTTP server for the psyinsight UI.
type Server struct {
	db        *database.DB
	collector *collector.Collector
	reports   *report.Synthesizer
	composer  *compose.Composer
	enricher  *enrich.Client
	pages     map[string]*template.Template
	mux       *http.ServeMux

	// collectMu serializes collection runs triggered from the UI.
	collectMu sync.Mutex
}

// New creates a new Server.
func New(db *database.DB, c *collector.Collector, r *report.Synthesizer, comp *compose.Composer, enricher *enrich.Client) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"stars": func(score int) string {
			if score < 1 {
				return "-"
			}
			if score > 5 {
				score = 5
			}
			return strings.Repeat("★", score) + strings.Repeat("☆", 5-score)
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{
		"index.html", "news.html", "papers.html", "paper.html", "economy.html",
		"report.html", "compose.html", "content.html", "bookmarks.html",
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:        db,
		collector: c,
		reports:   r,
		composer:  comp,
		enricher:  enricher,
		pages:     pages,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/news", s.handleNews)
	s.mux.HandleFunc("/news/delete", s.handleDeleteNews)
	s.mux.HandleFunc("/papers", s.handlePapers)
	s.mux.HandleFunc("/papers/delete", s.handleDeletePapers)
	s.mux.HandleFunc("/paper/", s.handlePaperDetail)
	s.mux.HandleFunc("/economy", s.handleEconomy)
	s.mux.HandleFunc("/economy/delete", s.handleDeleteEconomy)
	s.mux.HandleFunc("/report/", s.handleReport)
	s.mux.HandleFunc("/report/generate", s.handleGenerateReport)
	s.mux.HandleFunc("/collect/", s.handleCollect)
	s.mux.HandleFunc("/compose", s.handleCompose)
	s.mux.HandleFunc("/content", s.handleContent)
	s.mux.HandleFunc("/bookmarks", s.handleBookmarks)
	s.mux.HandleFunc("/bookmark/", s.handleBookmarkToggle)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	recent, _ := s.db.ListArticles(database.ArticleFilter{Limit: 5})
	today := time.Now().Format("2006-01-02")
	todaysReport, _ := s.db.GetEconomyReport(today)

	s.render(w, "index.html", map[string]any{
		"Stats":  stats,
		"Recent": recent,
		"Report": todaysReport,
		"Today":  today,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, c *collector.Collector, r *report.Synthesizer, comp *compose.Composer, enricher *enrich.Client, port int) error {
	srv, err := New(db, c, r, comp, enricher)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

// runCollection dispatches one collection kind in the background.
func (s *Server) runCollection(kind string) {
	go func() {
		s.collectMu.Lock()
		defer s.collectMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		var result *collector.Result
		var err error
		switch kind {
		case "news":
			result, err = s.collector.CollectNews(ctx)
		case "papers":
			result, err = s.collector.CollectPapers(ctx)
		case "economy":
			result, err = s.collector.CollectEconomy(ctx)
		case "all":
			run := s.collector.RunAll(ctx)
			for _, step := range run.Steps {
				if step.Err != nil {
					log.Printf("server: %s collection: %v", step.Name, step.Err)
				}
			}
			return
		}
		if err != nil {
			log.Printf("server: %s collection: %v", kind, err)
			return
		}
		log.Printf("server: %s collection saved %d of %d", kind, result.Saved, result.Collected)
	}()
}
