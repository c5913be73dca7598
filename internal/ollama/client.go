// Package ollama wraps the external text-generation service: a connectivity
// probe at construction, one-shot chat calls, and a cached fallback state.
//
// The client never returns an error past its boundary. A transport failure,
// a non-2xx status, or a timeout all surface as "no answer" and the caller
// is expected to proceed to its own fallback.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:11434/api"
	DefaultModel   = "qwen2.5:7b"

	probeTimeout = 5 * time.Second
	chatTimeout  = 60 * time.Second
)

// Client talks to the generation service.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     *slog.Logger

	// Probe state, fixed at construction. A service that recovers
	// mid-session is not detected; callers get mock output until restart.
	connected bool
	fallback  bool
}

// NewClient builds a client and probes the service once. Empty baseURL or
// model select the defaults.
func NewClient(baseURL, model string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: chatTimeout},
		log:     log,
	}
	c.probe()
	return c
}

// probe checks the service is reachable and the configured model is among
// its available models. The result is cached for the client's lifetime.
func (c *Client) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		c.enterFallback("build probe request", err)
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.enterFallback("generation service unreachable", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.enterFallback(fmt.Sprintf("probe returned status %d", resp.StatusCode), nil)
		return
	}

	var list struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		c.enterFallback("decode model list", err)
		return
	}

	for _, m := range list.Models {
		if m.Name == c.model {
			c.connected = true
			c.fallback = false
			c.log.Info("generation service connected", "base_url", c.baseURL, "model", c.model)
			return
		}
	}
	c.enterFallback(fmt.Sprintf("model %q not available", c.model), nil)
}

func (c *Client) enterFallback(reason string, err error) {
	c.connected = false
	c.fallback = true
	if err != nil {
		c.log.Warn("generation client in fallback mode", "reason", reason, "error", err)
	} else {
		c.log.Warn("generation client in fallback mode", "reason", reason)
	}
}

// Healthy reports the cached probe result.
func (c *Client) Healthy() bool { return c.connected && !c.fallback }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// BaseURL returns the configured service address.
func (c *Client) BaseURL() string { return c.baseURL }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Chat sends one request carrying the system and user instructions and
// returns the raw response text. When jsonMode is set the service is asked
// to constrain output to JSON (it is not guaranteed to comply).
//
// The second return is false when there is no answer: fallback mode, a
// transport error, a timeout, or a non-2xx status. The client does not
// retry; retry policy belongs to the caller.
func (c *Client) Chat(ctx context.Context, system, user string, jsonMode bool) (string, bool) {
	if c.fallback {
		return "", false
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Options: map[string]any{
			"temperature": 0.3,
			"top_p":       0.9,
		},
	}
	if jsonMode {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Warn("marshal chat request", "error", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		c.log.Warn("build chat request", "error", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("chat request failed", "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("chat request rejected", "status", resp.StatusCode, "body", string(snippet))
		return "", false
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Warn("decode chat response", "error", err)
		return "", false
	}
	return parsed.Message.Content, true
}

// Health is the summary exposed on the health endpoint.
type Health struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	Mode    string `json:"mode"`
}

// Health summarizes the cached probe state.
func (c *Client) Health() Health {
	h := Health{
		Service: "mathmistake generation client",
		Model:   c.model,
		BaseURL: c.baseURL,
	}
	if c.Healthy() {
		h.Status = "healthy"
		h.Mode = "connected"
	} else {
		h.Status = "degraded"
		h.Mode = "mock"
	}
	return h
}
