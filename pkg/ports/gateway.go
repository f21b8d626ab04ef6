package ports

import (
	"context"

	"github.com/rampkit/ramp/pkg/domain"
)

// AccountStatus is the server-reported account state consulted on entry.
type AccountStatus struct {
	ShouldRedirectToDashboard bool `json:"shouldRedirectToDashboard"`
}

// BusinessAnalysis is the AI-generated profile for a domain.
type BusinessAnalysis struct {
	BusinessName    string   `json:"businessName"`
	Description     string   `json:"description"`
	TargetAudiences []string `json:"targetAudiences"`
}

// Gateway is the remote account and generation service consumed by the engine.
// Every call attaches the opaque bearer token; a missing or rejected token
// surfaces as domain.ErrNotAuthenticated.
type Gateway interface {
	// AccountStatus reports whether the account is already configured.
	AccountStatus(ctx context.Context, token string) (*AccountStatus, error)

	// AnalyzeDomain generates a business profile for a domain.
	AnalyzeDomain(ctx context.Context, token, domainName string) (*BusinessAnalysis, error)

	// FetchCompetitors suggests competitor domains for a business.
	FetchCompetitors(ctx context.Context, token string, business domain.BusinessProfile) ([]string, error)

	// GenerateCategories suggests content categories for a business and its competitors.
	GenerateCategories(ctx context.Context, token string, business domain.BusinessProfile, competitors []string) ([]domain.Category, error)

	// GeneratePrompts generates content prompts for the chosen categories.
	GeneratePrompts(ctx context.Context, token string, categories []domain.Category) ([]domain.Prompt, error)

	// Finalize marks the onboarding complete. The server already holds the
	// incrementally saved step data, so no body is sent.
	Finalize(ctx context.Context, token string) error
}
