package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampkit/ramp/pkg/domain"
)

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"shouldRedirectToDashboard": false}`))
	}))
	defer srv.Close()

	gw := New(srv.URL)
	status, err := gw.AccountStatus(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.False(t, status.ShouldRedirectToDashboard)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	gw := New(srv.URL)
	_, err := gw.AccountStatus(context.Background(), "expired")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	err = gw.Finalize(context.Background(), "expired")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestAnalyzeDomainRequestAndResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/onboarding/analyze", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{
			"businessName": "Acme",
			"description": "Widgets",
			"targetAudiences": ["makers", "tinkerers"]
		}`))
	}))
	defer srv.Close()

	gw := New(srv.URL)
	analysis, err := gw.AnalyzeDomain(context.Background(), "tok", "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Acme", analysis.BusinessName)
	assert.Len(t, analysis.TargetAudiences, 2)
}

func TestGenerateCategoriesMixedShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories": ["seo-basics", {"id": "cat_2", "name": "link building"}]}`))
	}))
	defer srv.Close()

	gw := New(srv.URL)
	cats, err := gw.GenerateCategories(context.Background(), "tok", domain.BusinessProfile{Domain: "acme.com"}, nil)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.False(t, cats[0].Persisted())
	assert.True(t, cats[1].Persisted())
	assert.Equal(t, "cat_2", cats[1].ID)
}

func TestGeneratePromptsMixedShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prompts": [
			"write a beginner guide",
			{"id": "p_2", "category": {"id": "cat_1", "name": "seo"}, "text": "compare tools"},
			{"text": "audit checklist", "category": "seo"}
		]}`))
	}))
	defer srv.Close()

	gw := New(srv.URL)
	prompts, err := gw.GeneratePrompts(context.Background(), "tok", []domain.Category{domain.CategoryLabel("seo")})
	require.NoError(t, err)
	require.Len(t, prompts, 3)

	assert.Equal(t, "write a beginner guide", prompts[0].Text)
	assert.Equal(t, "p_2", prompts[1].ID)
	assert.Equal(t, "cat_1", prompts[1].Category.ID)
	assert.Equal(t, "seo", prompts[2].Category.Name)
	assert.False(t, prompts[2].Category.Persisted())
}

func TestServerErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := New(srv.URL)
	_, err := gw.FetchCompetitors(context.Background(), "tok", domain.BusinessProfile{Domain: "acme.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotAuthenticated)
}
