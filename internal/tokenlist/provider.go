// Package tokenlist fetches the Solana token registry.
package tokenlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rickgao/serum-gateway/internal/model"
)

// ErrNoSources is returned when a provider has no URLs to try.
var ErrNoSources = errors.New("tokenlist: no source urls configured")

// document is the registry JSON as published.
type document struct {
	Name      string            `json:"name"`
	Timestamp string            `json:"timestamp"`
	Tokens    []model.TokenInfo `json:"tokens"`
}

// Provider resolves the token registry from a list of mirrors.
type Provider struct {
	client *resty.Client
	urls   []string
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.client.SetTimeout(d)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// NewProvider creates a provider that tries urls in order.
func NewProvider(urls []string, opts ...Option) *Provider {
	p := &Provider{
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
		urls:   append([]string(nil), urls...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Resolve fetches the registry from the first source that answers.
// Every call goes to the network.
func (p *Provider) Resolve(ctx context.Context) (*TokenList, error) {
	if len(p.urls) == 0 {
		return nil, ErrNoSources
	}

	var errs []error
	for _, url := range p.urls {
		tokens, err := p.fetch(ctx, url)
		if err == nil {
			return &TokenList{tokens: tokens}, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("resolve token list: %w", ctx.Err())
		}
		p.logger.Warn("token list source failed", "url", url, "error", err)
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("resolve token list: %w", errors.Join(errs...))
}

func (p *Provider) fetch(ctx context.Context, url string) ([]model.TokenInfo, error) {
	// Raw GitHub mirrors serve text/plain, so decode the body directly
	// rather than relying on resty's content-type sniffing.
	resp, err := p.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode())
	}

	var doc document
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return doc.Tokens, nil
}
