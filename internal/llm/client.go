// CLAUDE:SUMMARY Multi-provider LLM client with model-level fallback chain for the chat assistant
// Package llm provides a multi-provider chat completion client with a
// fallback chain across providers and, within each provider, its model list.
package llm

import (
	"context"
	"log/slog"
	"time"
)

// Message represents a chat message (system/user/assistant).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Response is a provider-agnostic completion response.
type Response struct {
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Content      string        `json:"content"`
	TokensIn     int           `json:"tokens_in"`
	TokensOut    int           `json:"tokens_out"`
	FinishReason string        `json:"finish_reason"`
	Latency      time.Duration `json:"latency_ms"`
}

// Provider is a single LLM API backend.
type Provider interface {
	// Name returns the provider identifier (e.g. "gemini", "groq").
	Name() string
	// Models returns the model IDs to try, in preference order.
	Models() []string
	// Complete sends a chat completion request for a single model.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Client sends completion requests with fallback across providers.
type Client struct {
	providers map[string]Provider
	fallback  []string // provider names in priority order
}

// New creates a multi-provider client. Fallback order follows the slice.
func New(providers []Provider) *Client {
	m := make(map[string]Provider, len(providers))
	order := make([]string, 0, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
		order = append(order, p.Name())
	}
	return &Client{providers: m, fallback: order}
}

// Complete sends a request to a specific provider/model, or walks the
// fallback chain when the model is unspecified.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	provider, model := splitModel(req.Model)
	if provider != "" {
		req.Model = model
		if p, ok := c.providers[provider]; ok {
			return p.Complete(ctx, req)
		}
		return nil, &ProviderError{Provider: provider, Err: ErrProviderNotFound}
	}
	if req.Model != "" && len(c.fallback) > 0 {
		return c.providers[c.fallback[0]].Complete(ctx, req)
	}
	return c.CompleteAny(ctx, req)
}

// CompleteAny walks the fallback chain: every provider in priority order,
// and within each provider every model in its list. Rate-limited or retired
// models are skipped and the chain moves on; the last error is returned
// only when every model fails.
func (c *Client) CompleteAny(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for _, name := range c.fallback {
		p := c.providers[name]
		models := p.Models()
		if len(models) == 0 {
			models = []string{""}
		}
		for _, model := range models {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			attempt := req
			attempt.Model = model
			resp, err := p.Complete(ctx, attempt)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			if Retryable(err) {
				slog.Warn("llm model unavailable, trying next", "provider", name, "model", model, "err", err)
				continue
			}
			slog.Warn("llm completion failed", "provider", name, "model", model, "err", err)
		}
	}
	if lastErr == nil {
		lastErr = ErrProviderNotFound
	}
	return nil, lastErr
}

// HasProvider checks whether a named provider is configured.
func (c *Client) HasProvider(name string) bool {
	_, ok := c.providers[name]
	return ok
}

// Providers returns the configured provider names in fallback order.
func (c *Client) Providers() []string {
	return c.fallback
}

func splitModel(model string) (provider, name string) {
	for i, c := range model {
		if c == '/' {
			return model[:i], model[i+1:]
		}
	}
	return "", model
}
