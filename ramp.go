// Package ramp is the high-level entry point for the onboarding workflow
// engine. It wraps the internal runtime and re-exports the types consumers
// need, so external callers never import internal packages.
package ramp

import (
	"github.com/rampkit/ramp/internal/client"
	"github.com/rampkit/ramp/internal/runtime"
	"github.com/rampkit/ramp/pkg/ports"
)

// Version is the release version of the module.
const Version = "0.4.0"

// Re-export key runtime types.

type (
	// Engine orchestrates one onboarding session.
	Engine = runtime.Engine

	// Option configures an Engine.
	Option = runtime.Option

	// Route is the destination decided at entry or completion.
	Route = runtime.Route

	// Gateway is the remote account and generation service.
	Gateway = ports.Gateway

	// StepController is the behavioral contract shared by all steps.
	StepController = runtime.StepController

	// Typed controllers for draft editing.
	BusinessController    = runtime.BusinessController
	CompetitorsController = runtime.CompetitorsController
	CategoriesController  = runtime.CategoriesController
	PromptsController     = runtime.PromptsController
)

// Routes decided by the entry guard and the completion handler.
const (
	RouteLogin     = runtime.RouteLogin
	RouteDashboard = runtime.RouteDashboard
	RouteWorkflow  = runtime.RouteWorkflow
)

// Sentinel errors surfaced by the engine.
var (
	ErrStepGate        = runtime.ErrStepGate
	ErrNotTerminalStep = runtime.ErrNotTerminalStep
)

// Engine options.

var (
	WithLogger         = runtime.WithLogger
	WithHooks          = runtime.WithHooks
	WithStateStore     = runtime.WithStateStore
	WithFragmentStore  = runtime.WithFragmentStore
	WithRequestTimeout = runtime.WithRequestTimeout
	WithState          = runtime.WithState
)

// New creates an engine for one session against the given gateway.
func New(sessionID, token string, gateway Gateway, opts ...Option) *Engine {
	return runtime.NewEngine(sessionID, token, gateway, opts...)
}

// NewGateway creates the HTTP gateway client for the remote service.
func NewGateway(baseURL string, opts ...client.Option) Gateway {
	return client.New(baseURL, opts...)
}
