package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rampkit/ramp/internal/logging"
	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
)

// ErrStepGate is returned when advance is requested but the active step's
// validation gate is not satisfied. It is not a workflow error: the caller
// renders a disabled affordance, no message required.
var ErrStepGate = errors.New("step validation gate not satisfied")

// ErrNotTerminalStep is returned when completion is requested before the
// final step.
var ErrNotTerminalStep = errors.New("completion is only available on the final step")

// DefaultRequestTimeout bounds every remote generation call.
const DefaultRequestTimeout = 30 * time.Second

// Engine orchestrates one onboarding session: it guards entry, activates one
// step controller at a time, gates advancement on validation, and finalizes
// the account on completion.
type Engine struct {
	sessionID string
	token     string

	store     *Store
	gateway   ports.Gateway
	states    ports.StateStore
	fragments ports.FragmentStore

	logger         *slog.Logger
	hooks          domain.LifecycleHooks
	requestTimeout time.Duration

	controllers [domain.TotalSteps]StepController

	// wg tracks in-flight generation goroutines for graceful shutdown.
	wg sync.WaitGroup
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHooks registers lifecycle observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithStateStore enables committed-state persistence across requests.
func WithStateStore(store ports.StateStore) Option {
	return func(e *Engine) { e.states = store }
}

// WithFragmentStore enables the durable business-domain fragment.
func WithFragmentStore(store ports.FragmentStore) Option {
	return func(e *Engine) { e.fragments = store }
}

// WithRequestTimeout bounds each remote generation call.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) { e.requestTimeout = d }
}

// WithState resumes the engine from previously persisted state instead of a
// fresh one.
func WithState(state *domain.State) Option {
	return func(e *Engine) { e.store = NewStoreFrom(state) }
}

// NewEngine creates an engine for one session.
func NewEngine(sessionID, token string, gateway ports.Gateway, opts ...Option) *Engine {
	e := &Engine{
		sessionID:      sessionID,
		token:          token,
		gateway:        gateway,
		logger:         logging.NewNop(),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = NewStore(sessionID)
	}

	e.controllers = [domain.TotalSteps]StepController{
		newBusinessController(e),
		newCompetitorsController(e),
		newCategoriesController(e),
		newPromptsController(e),
		newStaticController(e, domain.StepBlog),
		newStaticController(e, domain.StepIntegration),
	}
	return e
}

// Start runs the entry guard and, when routed into the workflow, activates
// the current step. Workflow state is never touched on a login or dashboard
// route.
func (e *Engine) Start(ctx context.Context) Route {
	route := DecideEntry(ctx, e.gateway, e.token, e.logger)
	if route != RouteWorkflow {
		e.logger.Info("entry guard routed past workflow", "route", string(route))
		return route
	}

	e.activate(ctx)
	e.persist(ctx)
	return RouteWorkflow
}

// Active returns the controller for the current step.
func (e *Engine) Active() StepController {
	return e.controllers[e.store.CurrentStep()-1]
}

// Advance validates the active draft, commits it, and moves one step forward.
// At the final step it is a clamped no-op after commit.
func (e *Engine) Advance(ctx context.Context) error {
	active := e.Active()
	if !active.Valid() {
		return ErrStepGate
	}
	active.Commit()

	before := e.store.CurrentStep()
	e.store.Next()
	if e.store.CurrentStep() != before {
		e.leave(ctx, active)
		e.activate(ctx)
	}
	e.persist(ctx)
	return nil
}

// Retreat moves one step back, discarding the active draft. At the first
// step it is a no-op.
func (e *Engine) Retreat(ctx context.Context) {
	active := e.Active()

	before := e.store.CurrentStep()
	e.store.Prev()
	if e.store.CurrentStep() != before {
		e.leave(ctx, active)
		e.activate(ctx)
	}
	e.persist(ctx)
}

// Regenerate re-issues the active step's generation request.
func (e *Engine) Regenerate(ctx context.Context) {
	e.Active().Regenerate(ctx)
}

// Complete finalizes the onboarding from the terminal step. On success the
// workflow state is reset and the user is routed to the dashboard; on failure
// the state is preserved so the user can retry.
func (e *Engine) Complete(ctx context.Context) (Route, error) {
	if e.store.CurrentStep() != domain.TotalSteps {
		return RouteWorkflow, ErrNotTerminalStep
	}

	callCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	if err := e.gateway.Finalize(callCtx, e.token); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return RouteLogin, err
		}
		e.logger.Error("finalize failed", "error", err)
		e.store.SetError(msgFinalizeFailed)
		return RouteWorkflow, err
	}

	e.store.Reset()
	if e.states != nil {
		if err := e.states.Delete(ctx, e.sessionID); err != nil {
			e.logger.Warn("failed to drop persisted session", "error", err)
		}
	}
	if e.fragments != nil {
		if err := e.fragments.DeleteFragments(ctx, e.sessionID); err != nil {
			e.logger.Warn("failed to drop fragments", "error", err)
		}
	}

	e.logger.Info("onboarding completed", "session_id", e.sessionID)
	return RouteDashboard, nil
}

// State returns a snapshot of the committed workflow state.
func (e *Engine) State() *domain.State {
	return e.store.State()
}

// Progress projects the committed step index onto the per-step status view.
func (e *Engine) Progress() []domain.StepProgress {
	return domain.Progress(e.store.CurrentStep())
}

// Typed controller accessors for draft editing.

func (e *Engine) Business() *BusinessController {
	return e.controllers[domain.StepBusiness-1].(*BusinessController)
}

func (e *Engine) Competitors() *CompetitorsController {
	return e.controllers[domain.StepCompetitors-1].(*CompetitorsController)
}

func (e *Engine) Categories() *CategoriesController {
	return e.controllers[domain.StepCategories-1].(*CategoriesController)
}

func (e *Engine) Prompts() *PromptsController {
	return e.controllers[domain.StepPrompts-1].(*PromptsController)
}

// Wait blocks until all in-flight generation calls have settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) activate(ctx context.Context) {
	active := e.Active()
	def := active.Definition()
	e.logger.Debug("step enter", "step", def.Name, "session_id", e.sessionID)
	e.emitStepEvent(ctx, e.hooks.OnStepEnter, domain.EventStepEnter, def)
	active.Enter(ctx)
}

func (e *Engine) leave(ctx context.Context, ctrl StepController) {
	def := ctrl.Definition()
	e.logger.Debug("step leave", "step", def.Name, "session_id", e.sessionID)
	ctrl.Leave(ctx)
	e.emitStepEvent(ctx, e.hooks.OnStepLeave, domain.EventStepLeave, def)
}

func (e *Engine) persist(ctx context.Context) {
	if e.states == nil {
		return
	}
	if err := e.states.Save(ctx, e.sessionID, e.store.State()); err != nil {
		e.logger.Warn("failed to persist session state", "error", err)
	}
}

func (e *Engine) emitStepEvent(ctx context.Context, hook func(context.Context, *domain.StepEvent), typ domain.EventType, def domain.StepDefinition) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: e.sessionID,
		},
		StepID:   def.ID,
		StepName: def.Name,
	})
}

func (e *Engine) emitGenerateCall(ctx context.Context, def domain.StepDefinition, op string) {
	if e.hooks.OnGenerateCall == nil {
		return
	}
	e.hooks.OnGenerateCall(ctx, &domain.GenerateEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventGenerateCall,
			SessionID: e.sessionID,
		},
		StepID:    def.ID,
		Operation: op,
	})
}

func (e *Engine) emitGenerateReturn(ctx context.Context, def domain.StepDefinition, op string, elapsed time.Duration, err error) {
	if e.hooks.OnGenerateReturn == nil {
		return
	}
	e.hooks.OnGenerateReturn(ctx, &domain.GenerateEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventGenerateReturn,
			SessionID: e.sessionID,
		},
		StepID:    def.ID,
		Operation: op,
		Duration:  elapsed,
		IsError:   err != nil,
	})
}
