package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Keywords   Keywords   `yaml:"keywords"`
	Countries  []string   `yaml:"countries"`
	Sources    Sources    `yaml:"sources"`
	Collection Collection `yaml:"collection"`
	Enrichment Enrichment `yaml:"enrichment"`
	Server     Server     `yaml:"server"`
	Schedule   Schedule   `yaml:"schedule"`
	Email      Email      `yaml:"email"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Keywords struct {
	News   []string `yaml:"news"`
	Papers []string `yaml:"papers"`
	// Exclusions maps a news keyword to terms appended as negative
	// query terms, for off-topic homonyms in the source language.
	Exclusions map[string][]string `yaml:"exclusions"`
}

type Sources struct {
	Papers  PaperSources  `yaml:"papers"`
	Economy EconomySource `yaml:"economy"`
}

type PaperSources struct {
	Arxiv  bool `yaml:"arxiv"`
	PubMed bool `yaml:"pubmed"`
}

// EconomySource configures the economy channels. Pages are scraped for
// report links; feeds are plain RSS.
type EconomySource struct {
	Pages []EconomyPage `yaml:"pages"`
	Feeds []EconomyFeed `yaml:"feeds"`
}

type EconomyPage struct {
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	LinkSelector string   `yaml:"link_selector"`
	BaseURL      string   `yaml:"base_url"`
	TitleFilters []string `yaml:"title_filters"`
	Category     string   `yaml:"category"` // macro | industry | global
}

type EconomyFeed struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type Collection struct {
	Concurrency     int    `yaml:"concurrency"`
	MaxPerKeyword   int    `yaml:"max_per_keyword"`
	FetchDelayMs    int    `yaml:"fetch_delay_ms"`
	RelevancePolicy string `yaml:"relevance_policy"` // advisory | drop
}

type Enrichment struct {
	APIKeyEnv      string   `yaml:"api_key_env"`
	Model          string   `yaml:"model"`
	ModelFallbacks []string `yaml:"model_fallbacks"`
	MaxRetries     int      `yaml:"max_retries"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Schedule struct {
	Enabled bool   `yaml:"enabled"`
	News    string `yaml:"news"`
	Papers  string `yaml:"papers"`
	Economy string `yaml:"economy"`
}

type Email struct {
	Enabled     bool     `yaml:"enabled"`
	SMTPHost    string   `yaml:"smtp_host"`
	SMTPPort    int      `yaml:"smtp_port"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to"`
	PasswordEnv string   `yaml:"password_env"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for psyinsight.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "psyinsight")
}

// DataDir returns the XDG data directory for psyinsight.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "psyinsight")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/psyinsight/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'psyinsight init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Keywords: Keywords{
			News:   []string{"심리", "마음건강", "뇌과학", "상담", "psychology", "mental health", "neuroscience", "counseling"},
			Papers: []string{"psychology", "counseling", "correctional psychology", "criminal psychology"},
		},
		Countries: []string{"KR", "US"},
		Sources: Sources{
			Papers: PaperSources{Arxiv: true},
		},
		Collection: Collection{
			Concurrency:     5,
			MaxPerKeyword:   10,
			FetchDelayMs:    300,
			RelevancePolicy: "advisory",
		},
		Enrichment: Enrichment{
			APIKeyEnv:      "GEMINI_API_KEY",
			MaxRetries:     3,
			TimeoutSeconds: 30,
		},
		Server:  Server{Port: 8501},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Collection.Concurrency < 1 {
		cfg.Collection.Concurrency = 1
	}
	switch cfg.Collection.RelevancePolicy {
	case "advisory", "drop":
	default:
		return nil, fmt.Errorf("invalid relevance_policy %q (want advisory or drop)", cfg.Collection.RelevancePolicy)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
