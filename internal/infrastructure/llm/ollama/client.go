package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dashwise/dashboard-assistant/internal/infrastructure/resilience"
)

// Client issues non-streaming completions against an Ollama server.
// One transport handle is reused across calls; per-call deadlines come
// from the caller's context. Calls are fail-fast, optionally gated by a
// circuit breaker.
type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout time.Duration
	Executor       *resilience.Executor
}

func New(baseURL, genModel string) *Client {
	return NewWithOptions(baseURL, genModel, Options{})
}

func NewWithOptions(baseURL, genModel string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: requestTimeout},
		executor:   options.Executor,
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// GenerateFromPrompt returns the model's raw completion text. The
// caller owns all interpretation of the output.
func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
