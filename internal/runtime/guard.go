package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
)

// Route is the destination decided at workflow entry or completion.
type Route string

const (
	// RouteLogin means the bearer credential is missing or rejected.
	RouteLogin Route = "login"

	// RouteDashboard means the account is already configured.
	RouteDashboard Route = "dashboard"

	// RouteWorkflow means the onboarding workflow should be shown at step 1.
	RouteWorkflow Route = "workflow"
)

// DecideEntry queries the account status and decides where the user goes.
//
// A missing credential routes to login before any state is touched. A failed
// status check fails open: the user is never blocked on an unreachable
// service, so they stay in the workflow.
func DecideEntry(ctx context.Context, gw ports.Gateway, token string, logger *slog.Logger) Route {
	if token == "" {
		return RouteLogin
	}

	status, err := gw.AccountStatus(ctx, token)
	if errors.Is(err, domain.ErrNotAuthenticated) {
		return RouteLogin
	}
	if err != nil {
		logger.Warn("account status check failed, staying in workflow", "error", err)
		return RouteWorkflow
	}

	if status.ShouldRedirectToDashboard {
		return RouteDashboard
	}
	return RouteWorkflow
}
