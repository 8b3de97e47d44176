package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/evidra/internal/transport"
)

// ErrEmptyResponse is returned when a backend answers with no text
var ErrEmptyResponse = errors.New("empty model response")

// Provider defines the interface for generative model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt and returns the model's free-text answer
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Check verifies the backend is configured and reachable
	Check(ctx context.Context) error
}

// CompletionRequest is a single prompt/response exchange
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // Empty = provider default
	MaxTokens   int    // 0 = config default
	Temperature float64
	JSON        bool // Ask the backend for a JSON object when it supports that
}

// CompletionResponse is the model's answer
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted backends
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies, tests)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1000,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

// newHTTPClient builds the backend HTTP client honouring proxy settings
func newHTTPClient(config Config, fallback time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = transport.ProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)
	return &http.Client{
		Timeout:   config.timeout(fallback),
		Transport: tr,
	}
}
