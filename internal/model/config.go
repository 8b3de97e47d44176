package model

import (
	"os"
	"time"
)

// Config is the complete evidra configuration
type Config struct {
	SourceControl SourceControlConfig `yaml:"source_control" mapstructure:"source_control"`
	IssueTracker  IssueTrackerConfig  `yaml:"issue_tracker" mapstructure:"issue_tracker"`
	Documents     DocumentsConfig     `yaml:"documents" mapstructure:"documents"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// SourceControlConfig configures the source-control adapter
type SourceControlConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Token         string `yaml:"token" mapstructure:"token"`
	Organization  string `yaml:"organization" mapstructure:"organization"` // Empty = authenticated user's repositories
	DefaultRepo   string `yaml:"default_repo" mapstructure:"default_repo"`   // OWNER/REPO
	ListLimit     int    `yaml:"list_limit" mapstructure:"list_limit"`
	FallbackRepos int    `yaml:"fallback_repos" mapstructure:"fallback_repos"`
}

// IssueTrackerConfig configures the issue-tracker adapter
type IssueTrackerConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Email       string `yaml:"email" mapstructure:"email"`
	Token       string `yaml:"token" mapstructure:"token"`
	SearchLimit int    `yaml:"search_limit" mapstructure:"search_limit"`
	AccessLimit int    `yaml:"access_limit" mapstructure:"access_limit"`
}

// DocumentsConfig configures the document store
type DocumentsConfig struct {
	Backend          string `yaml:"backend" mapstructure:"backend"` // fs or azblob
	Dir              string `yaml:"dir" mapstructure:"dir"`
	ExportDir        string `yaml:"export_dir" mapstructure:"export_dir"`
	Container        string `yaml:"container" mapstructure:"container"`
	AccountURL       string `yaml:"account_url" mapstructure:"account_url"`
	ConnectionString string `yaml:"connection_string" mapstructure:"connection_string"`
	SampleSize       int    `yaml:"sample_size" mapstructure:"sample_size"`
	PreviewRows      int    `yaml:"preview_rows" mapstructure:"preview_rows"`
}

// LLMConfig configures the optional model backend
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// HTTPConfig configures outbound provider requests
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures the provider response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // Empty = memory only
}

// ConcurrencyConfig bounds fan-out
type ConcurrencyConfig struct {
	Workers           int `yaml:"workers" mapstructure:"workers"`                       // batch queries
	EnrichmentWorkers int `yaml:"enrichment_workers" mapstructure:"enrichment_workers"` // review fetches per list
}

// ServerConfig configures `evidra serve`
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SourceControl: SourceControlConfig{
			BaseURL:       "https://api.github.com",
			ListLimit:     30,
			FallbackRepos: 5,
		},
		IssueTracker: IssueTrackerConfig{
			SearchLimit: 50,
			AccessLimit: 20,
		},
		Documents: DocumentsConfig{
			Backend:     "fs",
			Dir:         "./data/uploads",
			ExportDir:   "./data/exports",
			Container:   "documents",
			SampleSize:  10,
			PreviewRows: 5,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 1000,
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "evidra/0.1 (+https://github.com/ppiankov/evidra)",
			MaxBodyBytes:      10_000_000,
			RequestsPerSecond: 10,
			BurstSize:         10,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			EnrichmentWorkers: 8,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyEnv fills credentials from well-known provider environment variables.
// Values already set (config file, EVIDRA_* env, flags) win.
func (c *Config) ApplyEnv() {
	setIfEmpty(&c.SourceControl.Token, "GITHUB_TOKEN")
	setIfEmpty(&c.IssueTracker.BaseURL, "JIRA_BASE_URL")
	setIfEmpty(&c.IssueTracker.Email, "JIRA_EMAIL")
	setIfEmpty(&c.IssueTracker.Token, "JIRA_API_TOKEN")
	setIfEmpty(&c.Documents.ConnectionString, "AZURE_STORAGE_CONNECTION_STRING")

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if c.LLM.Provider == "ollama" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

func setIfEmpty(dst *string, env string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Redacted returns a copy with secrets masked for display
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.SourceControl.Token = mask(c.SourceControl.Token)
	c.IssueTracker.Token = mask(c.IssueTracker.Token)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Documents.ConnectionString = mask(c.Documents.ConnectionString)
	return c
}
