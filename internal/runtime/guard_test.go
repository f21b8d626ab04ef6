package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/rampkit/ramp/internal/logging"
	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
)

// stubGateway implements ports.Gateway with overridable behavior per call.
type stubGateway struct {
	status     *ports.AccountStatus
	statusErr  error
	statusHits int

	analysis    *ports.BusinessAnalysis
	analysisErr error
	analyzeHits int

	competitors    []string
	competitorsErr error
	fetchHits      int

	categories    []domain.Category
	categoriesErr error
	categoryHits  int

	prompts    []domain.Prompt
	promptsErr error
	promptHits int

	finalizeErr  error
	finalizeHits int
}

func (g *stubGateway) AccountStatus(ctx context.Context, token string) (*ports.AccountStatus, error) {
	g.statusHits++
	return g.status, g.statusErr
}

func (g *stubGateway) AnalyzeDomain(ctx context.Context, token, domainName string) (*ports.BusinessAnalysis, error) {
	g.analyzeHits++
	return g.analysis, g.analysisErr
}

func (g *stubGateway) FetchCompetitors(ctx context.Context, token string, business domain.BusinessProfile) ([]string, error) {
	g.fetchHits++
	return g.competitors, g.competitorsErr
}

func (g *stubGateway) GenerateCategories(ctx context.Context, token string, business domain.BusinessProfile, competitors []string) ([]domain.Category, error) {
	g.categoryHits++
	return g.categories, g.categoriesErr
}

func (g *stubGateway) GeneratePrompts(ctx context.Context, token string, categories []domain.Category) ([]domain.Prompt, error) {
	g.promptHits++
	return g.prompts, g.promptsErr
}

func (g *stubGateway) Finalize(ctx context.Context, token string) error {
	g.finalizeHits++
	return g.finalizeErr
}

func TestDecideEntry(t *testing.T) {
	logger := logging.NewNop()
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		gw    *stubGateway
		want  Route
	}{
		{
			name:  "missing credential routes to login",
			token: "",
			gw:    &stubGateway{},
			want:  RouteLogin,
		},
		{
			name:  "configured account routes to dashboard",
			token: "tok",
			gw:    &stubGateway{status: &ports.AccountStatus{ShouldRedirectToDashboard: true}},
			want:  RouteDashboard,
		},
		{
			name:  "unconfigured account stays in workflow",
			token: "tok",
			gw:    &stubGateway{status: &ports.AccountStatus{}},
			want:  RouteWorkflow,
		},
		{
			name:  "status failure fails open",
			token: "tok",
			gw:    &stubGateway{statusErr: errors.New("gateway timeout")},
			want:  RouteWorkflow,
		},
		{
			name:  "rejected credential routes to login",
			token: "tok",
			gw:    &stubGateway{statusErr: domain.ErrNotAuthenticated},
			want:  RouteLogin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecideEntry(ctx, tt.gw, tt.token, logger); got != tt.want {
				t.Errorf("DecideEntry = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecideEntryWithoutCredentialSkipsStatusCall(t *testing.T) {
	gw := &stubGateway{}
	DecideEntry(context.Background(), gw, "", logging.NewNop())
	if gw.statusHits != 0 {
		t.Errorf("status queried %d times without a credential", gw.statusHits)
	}
}
