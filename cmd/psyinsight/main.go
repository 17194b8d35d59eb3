package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"psyinsight/internal/collector"
	"psyinsight/internal/compose"
	"psyinsight/internal/config"
	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
	"psyinsight/internal/llm"
	"psyinsight/internal/mailer"
	"psyinsight/internal/report"
	"psyinsight/internal/scheduler"
	"psyinsight/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "psyinsight",
	Short:   "Personal research intelligence for psychology and economics",
	Long:    "psyinsight collects news, papers, and economy sources, enriches them with an LLM, and serves the results locally.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Logging.Level == "DEBUG" {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("psyinsight", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/psyinsight/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure keywords, sources, and the API key env var.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Kind", "Count"})
		t.AppendRows([]table.Row{
			{"News articles", stats.Articles},
			{"Papers", stats.Papers},
			{"Economy news", stats.EconomyNews},
			{"Economy reports", stats.EconomyReports},
			{"Generated content", stats.GeneratedContent},
			{"Bookmarks", stats.Bookmarks},
		})
		t.Render()

		keywords, err := db.ArticleKeywords()
		if err == nil && len(keywords) > 0 {
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range keywords {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })

			fmt.Println("\nArticles by keyword:")
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- collect command ---

var collectKind string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect from configured sources",
	Long:  "Collect fetches candidates, skips stored URLs, enriches the rest, and saves them. --kind selects news, papers, economy, or all.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		unlock, err := lockDataDir()
		if err != nil {
			return err
		}
		defer unlock()

		c, err := newCollector(db)
		if err != nil {
			return err
		}
		c.SetProgress(func(completed, total int, message string) {
			fmt.Printf("\r[%d/%d] %-60.60s", completed, total, message)
			if completed == total {
				fmt.Println()
			}
		})

		ctx, cancel := signalContext()
		defer cancel()

		switch collectKind {
		case "news":
			result, err := c.CollectNews(ctx)
			return printResult("News", result, err)
		case "papers":
			result, err := c.CollectPapers(ctx)
			return printResult("Papers", result, err)
		case "economy":
			result, err := c.CollectEconomy(ctx)
			return printResult("Economy", result, err)
		case "all":
			run := c.RunAll(ctx)
			for _, step := range run.Steps {
				if step.Err != nil {
					fmt.Printf("%s: error: %v\n", step.Name, step.Err)
				} else {
					fmt.Printf("%s: %s\n", step.Name, step.Summary)
				}
			}
			return maybeSendDigest(db)
		default:
			return fmt.Errorf("unknown kind %q (news, papers, economy, all)", collectKind)
		}
	},
}

func init() {
	collectCmd.Flags().StringVarP(&collectKind, "kind", "k", "all", "What to collect: news, papers, economy, all")
}

func printResult(name string, result *collector.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s collection: %w", name, err)
	}
	fmt.Printf("%s: saved %d of %d collected\n", name, result.Saved, result.Collected)
	return nil
}

// --- report command ---

var reportForce bool

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Synthesize the daily economy report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		date := time.Now().Format("2006-01-02")
		if len(args) == 1 {
			date = args[0]
		}

		enricher, err := newEnricher()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		rep, err := report.New(db, enricher).Synthesize(ctx, date, reportForce)
		if err != nil {
			return err
		}
		if rep == nil {
			fmt.Println("No report: nothing to report on, or synthesis failed.")
			return nil
		}
		fmt.Printf("Report for %s (%d items):\n\n%s\n", rep.ReportDate, rep.NewsCount, rep.ReportText)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVarP(&reportForce, "force", "f", false, "Regenerate even if up to date")
}

// --- compose command ---

var (
	composeType       string
	composeArticleIDs []int64
	composePaperIDs   []int64
)

var composeCmd = &cobra.Command{
	Use:   "compose [topic]",
	Short: "Generate a content draft from stored items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		contentType, err := compose.ParseContentType(composeType)
		if err != nil {
			return err
		}

		enricher, err := newEnricher()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		draft, err := compose.New(db, enricher).Compose(ctx, contentType, args[0], composeArticleIDs, composePaperIDs)
		if err != nil {
			return err
		}
		fmt.Printf("Draft [%d] (%s):\n\n%s\n", draft.ID, draft.ContentType, draft.ContentText)
		return nil
	},
}

func init() {
	composeCmd.Flags().StringVarP(&composeType, "type", "t", "blog", "Content type: blog, script, social, research_idea")
	composeCmd.Flags().Int64SliceVar(&composeArticleIDs, "articles", nil, "Article IDs to use as source material")
	composeCmd.Flags().Int64SliceVar(&composePaperIDs, "papers", nil, "Paper IDs to use as source material")
}

// --- list command ---

var (
	listKind  string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored items",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		switch listKind {
		case "news":
			items, err := db.ListArticles(database.ArticleFilter{Limit: uint64(listLimit)})
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"ID", "Score", "Title", "Source", "Date"})
			for _, a := range items {
				t.AppendRow(table.Row{a.ID, a.ValidityScore, enrich.Ellipsize(a.Title, 50), deref(a.Source), deref(a.PublishedDate)})
			}
		case "papers":
			items, err := db.ListPapers(database.PaperFilter{Limit: uint64(listLimit)})
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"ID", "Score", "Title", "Journal", "Date"})
			for _, p := range items {
				t.AppendRow(table.Row{p.ID, p.ValidityScore, enrich.Ellipsize(p.Title, 50), deref(p.Journal), deref(p.PublishedDate)})
			}
		case "economy":
			items, err := db.ListEconomyNews(database.EconomyFilter{Limit: uint64(listLimit)})
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"ID", "Category", "Title", "Source", "Date"})
			for _, n := range items {
				t.AppendRow(table.Row{n.ID, n.Category, enrich.Ellipsize(n.Title, 50), deref(n.Source), deref(n.PublishedDate)})
			}
		default:
			return fmt.Errorf("unknown kind %q (news, papers, economy)", listKind)
		}

		t.Render()
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listKind, "kind", "k", "news", "What to list: news, papers, economy")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum rows")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := newCollector(db)
		if err != nil {
			return err
		}
		enricher, err := newEnricher()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, c, report.New(db, enricher), compose.New(db, enricher), enricher, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled collection in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Schedule.Enabled {
			return fmt.Errorf("scheduling disabled in config")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		c, err := newCollector(db)
		if err != nil {
			return err
		}
		enricher, err := newEnricher()
		if err != nil {
			return err
		}
		synth := report.New(db, enricher)

		sched := scheduler.New(cfg.Schedule, scheduler.Jobs{
			CollectNews: func(ctx context.Context) {
				if _, err := c.CollectNews(ctx); err != nil {
					log.Printf("scheduled news collection: %v", err)
				}
			},
			CollectPapers: func(ctx context.Context) {
				if _, err := c.CollectPapers(ctx); err != nil {
					log.Printf("scheduled paper collection: %v", err)
				}
			},
			CollectEconomy: func(ctx context.Context) {
				if _, err := c.CollectEconomy(ctx); err != nil {
					log.Printf("scheduled economy collection: %v", err)
					return
				}
				date := time.Now().Format("2006-01-02")
				if _, err := synth.Synthesize(ctx, date, false); err != nil {
					log.Printf("scheduled report synthesis: %v", err)
				}
				if err := maybeSendDigest(db); err != nil {
					log.Printf("digest: %v", err)
				}
			},
		})
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		fmt.Println("Scheduler running. Press Ctrl+C to stop.")
		ctx, cancel := signalContext()
		defer cancel()
		<-ctx.Done()
		return nil
	},
}

// --- helpers ---

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "psyinsight.db")
	return database.Open(dbPath)
}

// lockDataDir takes an exclusive file lock so two collection runs
// cannot interleave over the same database.
func lockDataDir() (func(), error) {
	lock := flock.New(filepath.Join(cfg.GetDataDir(), "collect.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring collection lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another collection run is in progress")
	}
	return func() { _ = lock.Unlock() }, nil
}

func newProvider() (llm.Provider, error) {
	return llm.NewGeminiProvider(cfg.Enrichment)
}

func newEnricher() (*enrich.Client, error) {
	provider, err := newProvider()
	if err != nil {
		return nil, err
	}
	return enrich.New(provider, cfg.Enrichment.MaxRetries), nil
}

func newCollector(db *database.DB) (*collector.Collector, error) {
	provider, err := newProvider()
	if err != nil {
		return nil, err
	}
	return collector.New(cfg, db, provider), nil
}

func maybeSendDigest(db *database.DB) error {
	if !cfg.Email.Enabled {
		return nil
	}
	today := time.Now().Format("2006-01-02")
	articles, _ := db.ListArticles(database.ArticleFilter{Limit: 50})
	papers, _ := db.ListPapers(database.PaperFilter{Limit: 50})
	rep, _ := db.GetEconomyReport(today)
	return mailer.New(cfg.Email).SendDigest(today, articles, papers, rep)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
