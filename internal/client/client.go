package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/rampkit/ramp/internal/logging"
	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
)

// Gateway is the HTTP implementation of ports.Gateway. Every request carries
// the opaque bearer token; a 401 is mapped to domain.ErrNotAuthenticated so
// callers route to login instead of surfacing a workflow error.
type Gateway struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

var _ ports.Gateway = (*Gateway)(nil)

// Option configures the Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// New creates a Gateway against the given base URL.
func New(base string, opts ...Option) *Gateway {
	g := &Gateway{
		base:   base,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AccountStatus reports whether the account is already configured.
func (g *Gateway) AccountStatus(ctx context.Context, token string) (*ports.AccountStatus, error) {
	var out ports.AccountStatus
	if err := g.do(ctx, http.MethodGet, "/api/account/status", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeDomain generates a business profile for a domain.
func (g *Gateway) AnalyzeDomain(ctx context.Context, token, domainName string) (*ports.BusinessAnalysis, error) {
	in := struct {
		Domain string `json:"domain"`
	}{Domain: domainName}

	var out ports.BusinessAnalysis
	if err := g.do(ctx, http.MethodPost, "/api/onboarding/analyze", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchCompetitors suggests competitor domains for a business.
func (g *Gateway) FetchCompetitors(ctx context.Context, token string, business domain.BusinessProfile) ([]string, error) {
	in := struct {
		Domain       string `json:"domain"`
		BusinessName string `json:"businessName"`
		Description  string `json:"description"`
	}{business.Domain, business.BusinessName, business.Description}

	var out struct {
		Competitors []string `json:"competitors"`
	}
	if err := g.do(ctx, http.MethodPost, "/api/onboarding/competitors", token, in, &out); err != nil {
		return nil, err
	}
	return out.Competitors, nil
}

// GenerateCategories suggests content categories.
func (g *Gateway) GenerateCategories(ctx context.Context, token string, business domain.BusinessProfile, competitors []string) ([]domain.Category, error) {
	in := struct {
		Domain       string   `json:"domain"`
		BusinessName string   `json:"businessName"`
		Description  string   `json:"description"`
		Competitors  []string `json:"competitors"`
	}{business.Domain, business.BusinessName, business.Description, competitors}

	// Category carries its own tolerant decoder for the two wire shapes.
	var out struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := g.do(ctx, http.MethodPost, "/api/onboarding/categories", token, in, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// promptRecord is the object wire shape for a generated prompt.
type promptRecord struct {
	ID       string `mapstructure:"id"`
	Category any    `mapstructure:"category"`
	Text     string `mapstructure:"text"`
}

// GeneratePrompts generates content prompts for the chosen categories.
// The service returns prompt items either as bare strings or as records;
// both are normalized into domain.Prompt.
func (g *Gateway) GeneratePrompts(ctx context.Context, token string, categories []domain.Category) ([]domain.Prompt, error) {
	in := struct {
		Categories []domain.Category `json:"categories"`
	}{categories}

	var out struct {
		Prompts []any `json:"prompts"`
	}
	if err := g.do(ctx, http.MethodPost, "/api/onboarding/prompts", token, in, &out); err != nil {
		return nil, err
	}

	prompts := make([]domain.Prompt, 0, len(out.Prompts))
	for _, raw := range out.Prompts {
		switch v := raw.(type) {
		case string:
			prompts = append(prompts, domain.Prompt{Text: v})
		case map[string]any:
			var rec promptRecord
			if err := mapstructure.Decode(v, &rec); err != nil {
				return nil, fmt.Errorf("decode prompt record: %w", err)
			}
			prompts = append(prompts, domain.Prompt{
				ID:       rec.ID,
				Category: decodeCategory(rec.Category),
				Text:     rec.Text,
			})
		default:
			return nil, fmt.Errorf("unsupported prompt shape %T", raw)
		}
	}
	return prompts, nil
}

func decodeCategory(raw any) domain.Category {
	switch v := raw.(type) {
	case string:
		return domain.CategoryLabel(v)
	case map[string]any:
		var rec struct {
			ID   string `mapstructure:"id"`
			Name string `mapstructure:"name"`
		}
		if err := mapstructure.Decode(v, &rec); err == nil {
			return domain.Category{ID: rec.ID, Name: rec.Name}
		}
	}
	return domain.Category{}
}

// Finalize marks the onboarding complete. No body: the server already holds
// the incrementally saved step data.
func (g *Gateway) Finalize(ctx context.Context, token string) error {
	return g.do(ctx, http.MethodPost, "/api/onboarding/complete", token, nil, nil)
}

func (g *Gateway) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	g.logger.Debug("gateway call",
		"method", method, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrNotAuthenticated
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("gateway %s %s: %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
