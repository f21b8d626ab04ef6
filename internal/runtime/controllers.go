package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
)

// Fixed user-facing failure messages, one per generation call.
const (
	msgAnalyzeFailed     = "Failed to analyze domain. Please try again."
	msgCompetitorsFailed = "Failed to fetch competitors. Please try again."
	msgCategoriesFailed  = "Failed to generate categories. Please try again."
	msgPromptsFailed     = "Failed to generate prompts. Please try again."
	msgFinalizeFailed    = "Failed to complete setup. Please try again."
)

// StepController is the behavioral contract shared by all steps.
//
// Each controller owns a draft copy of its slice of the state, decoupled from
// the committed store until the user advances. Drafts never leak partial or
// invalid edits into the shared store.
type StepController interface {
	// Definition returns the step's registry entry.
	Definition() domain.StepDefinition

	// Enter activates the step: it re-derives the draft from the committed
	// state and fires the one-shot auto-populate when the step's upstream
	// prerequisites exist and its own data is empty.
	Enter(ctx context.Context)

	// Leave deactivates the step. Any in-flight generation result arriving
	// after Leave carries a stale generation stamp and is discarded.
	Leave(ctx context.Context)

	// Regenerate re-issues the step's generation request on demand.
	// Safe to invoke repeatedly; the newest request wins.
	Regenerate(ctx context.Context)

	// Valid reports whether the advance gate is satisfied by the draft.
	Valid() bool

	// Commit copies the validated draft into the store.
	Commit()
}

// base carries the plumbing shared by all controllers: the step definition,
// a handle back to the engine, and the generation stamp that invalidates
// stale async results.
type base struct {
	def domain.StepDefinition
	eng *Engine

	mu  sync.Mutex
	gen uint64
}

func (b *base) Definition() domain.StepDefinition { return b.def }

func (b *base) Leave(ctx context.Context) {
	b.mu.Lock()
	b.gen++
	b.mu.Unlock()
	b.eng.store.SetLoading(false)
}

// validDraft applies the draft overlay onto a committed snapshot and runs the
// registry gate, so the gate rule lives in exactly one place.
func (b *base) validDraft(overlay func(*domain.State)) bool {
	s := b.eng.store.State()
	b.mu.Lock()
	overlay(s)
	b.mu.Unlock()
	return b.def.Validate(s)
}

// spawn runs one generation request asynchronously.
//
// The call is stamped with the controller's current generation; results whose
// stamp is stale by the time they land (the user left the step, or a newer
// request was issued) are discarded — last issued request wins, never the
// last response to land.
func (b *base) spawn(ctx context.Context, op, failMsg string, call func(context.Context) (func(), error)) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	b.eng.store.SetError("")
	b.eng.store.SetLoading(true)
	b.eng.emitGenerateCall(ctx, b.def, op)

	b.eng.wg.Add(1)
	go func() {
		defer b.eng.wg.Done()

		// Detach from the caller's (request-scoped) context but keep a
		// hard timeout so a hung service can't leak the goroutine.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.eng.requestTimeout)
		defer cancel()

		start := time.Now()
		apply, err := call(callCtx)
		b.eng.emitGenerateReturn(ctx, b.def, op, time.Since(start), err)

		b.mu.Lock()
		stale := gen != b.gen
		if !stale && err == nil {
			apply()
		}
		b.mu.Unlock()

		if stale {
			b.eng.logger.Debug("discarding stale generation result",
				"step", b.def.Name, "operation", op)
			return
		}

		if err != nil {
			if errors.Is(err, domain.ErrNotAuthenticated) {
				b.eng.logger.Warn("generation call rejected as unauthenticated",
					"step", b.def.Name, "operation", op)
			} else {
				b.eng.logger.Error("generation call failed",
					"step", b.def.Name, "operation", op, "error", err)
			}
			b.eng.store.SetError(failMsg)
		}
		b.eng.store.SetLoading(false)
	}()
}

// appendUnique adds v unless it is empty or already present (case-sensitive
// exact match). Reports whether the list changed.
func appendUnique(list []string, v string) ([]string, bool) {
	if v == "" {
		return list, false
	}
	for _, existing := range list {
		if existing == v {
			return list, false
		}
	}
	return append(list, v), true
}

func removeAt[T any](list []T, i int) []T {
	if i < 0 || i >= len(list) {
		return list
	}
	return append(list[:i], list[i+1:]...)
}

// --- Business step ---

// BusinessController collects the business profile. The domain field is
// additionally mirrored into the durable fragment store so it survives a
// remount before the user leaves this step.
type BusinessController struct {
	base
	draft domain.BusinessProfile
}

func newBusinessController(eng *Engine) *BusinessController {
	def, _ := domain.StepByID(domain.StepBusiness)
	return &BusinessController{base: base{def: def, eng: eng}}
}

func (c *BusinessController) Enter(ctx context.Context) {
	committed := c.eng.store.State().Business

	c.mu.Lock()
	c.draft = committed
	c.draft.TargetAudiences = append([]string(nil), committed.TargetAudiences...)

	if c.draft.Domain == "" && c.eng.fragments != nil {
		if v, err := c.eng.fragments.LoadFragment(ctx, c.eng.sessionID, ports.FragmentDomain); err == nil {
			c.draft.Domain = v
		} else if !errors.Is(err, domain.ErrFragmentNotFound) {
			c.eng.logger.Warn("failed to restore domain fragment", "error", err)
		}
	}

	domainName := c.draft.Domain
	empty := c.draft.BusinessName == "" && c.draft.Description == ""
	c.mu.Unlock()

	if domainName != "" && empty {
		c.analyze(ctx, domainName)
	}
}

func (c *BusinessController) Regenerate(ctx context.Context) {
	c.mu.Lock()
	domainName := c.draft.Domain
	c.mu.Unlock()

	if domainName == "" {
		return
	}
	c.analyze(ctx, domainName)
}

func (c *BusinessController) analyze(ctx context.Context, domainName string) {
	c.spawn(ctx, "analyze_domain", msgAnalyzeFailed, func(callCtx context.Context) (func(), error) {
		analysis, err := c.eng.gateway.AnalyzeDomain(callCtx, c.eng.token, domainName)
		if err != nil {
			return nil, err
		}
		return func() {
			c.draft.BusinessName = analysis.BusinessName
			c.draft.Description = analysis.Description
			c.draft.TargetAudiences = append([]string(nil), analysis.TargetAudiences...)
		}, nil
	})
}

// SetDomain updates the draft domain and mirrors it into the fragment store.
func (c *BusinessController) SetDomain(ctx context.Context, v string) {
	c.mu.Lock()
	c.draft.Domain = v
	c.mu.Unlock()

	if c.eng.fragments == nil || v == "" {
		return
	}
	if err := c.eng.fragments.SaveFragment(ctx, c.eng.sessionID, ports.FragmentDomain, v); err != nil {
		c.eng.logger.Warn("failed to mirror domain fragment", "error", err)
	}
}

func (c *BusinessController) SetBusinessName(v string) {
	c.mu.Lock()
	c.draft.BusinessName = v
	c.mu.Unlock()
}

func (c *BusinessController) SetDescription(v string) {
	c.mu.Lock()
	c.draft.Description = v
	c.mu.Unlock()
}

func (c *BusinessController) AddAudience(v string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var changed bool
	c.draft.TargetAudiences, changed = appendUnique(c.draft.TargetAudiences, v)
	return changed
}

func (c *BusinessController) RemoveAudience(i int) {
	c.mu.Lock()
	c.draft.TargetAudiences = removeAt(c.draft.TargetAudiences, i)
	c.mu.Unlock()
}

// Draft returns a copy of the current draft profile.
func (c *BusinessController) Draft() domain.BusinessProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	d.TargetAudiences = append([]string(nil), c.draft.TargetAudiences...)
	return d
}

func (c *BusinessController) Valid() bool {
	return c.validDraft(func(s *domain.State) { s.Business = c.draft })
}

func (c *BusinessController) Commit() {
	c.mu.Lock()
	d := c.draft
	audiences := append([]string(nil), c.draft.TargetAudiences...)
	c.mu.Unlock()

	c.eng.store.SetBusinessProfile(SetBusinessProfile{
		Domain:          &d.Domain,
		BusinessName:    &d.BusinessName,
		Description:     &d.Description,
		TargetAudiences: &audiences,
	})
}

// --- Competitors step ---

// CompetitorsController collects 3 to 7 competitor domains.
type CompetitorsController struct {
	base
	draft []string
}

func newCompetitorsController(eng *Engine) *CompetitorsController {
	def, _ := domain.StepByID(domain.StepCompetitors)
	return &CompetitorsController{base: base{def: def, eng: eng}}
}

func (c *CompetitorsController) Enter(ctx context.Context) {
	committed := c.eng.store.State()

	c.mu.Lock()
	c.draft = append([]string(nil), committed.Competitors...)
	empty := len(c.draft) == 0
	c.mu.Unlock()

	if committed.Business.Domain != "" && empty {
		c.fetch(ctx, committed.Business)
	}
}

func (c *CompetitorsController) Regenerate(ctx context.Context) {
	business := c.eng.store.State().Business
	if business.Domain == "" {
		return
	}
	c.fetch(ctx, business)
}

func (c *CompetitorsController) fetch(ctx context.Context, business domain.BusinessProfile) {
	c.spawn(ctx, "fetch_competitors", msgCompetitorsFailed, func(callCtx context.Context) (func(), error) {
		competitors, err := c.eng.gateway.FetchCompetitors(callCtx, c.eng.token, business)
		if err != nil {
			return nil, err
		}
		return func() { c.draft = competitors }, nil
	})
}

func (c *CompetitorsController) Add(v string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var changed bool
	c.draft, changed = appendUnique(c.draft, v)
	return changed
}

func (c *CompetitorsController) Remove(i int) {
	c.mu.Lock()
	c.draft = removeAt(c.draft, i)
	c.mu.Unlock()
}

func (c *CompetitorsController) Draft() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.draft...)
}

func (c *CompetitorsController) Valid() bool {
	return c.validDraft(func(s *domain.State) { s.Competitors = c.draft })
}

func (c *CompetitorsController) Commit() {
	c.eng.store.SetCompetitors(c.Draft())
}

// --- Categories step ---

// CategoriesController collects content categories.
type CategoriesController struct {
	base
	draft []domain.Category
}

func newCategoriesController(eng *Engine) *CategoriesController {
	def, _ := domain.StepByID(domain.StepCategories)
	return &CategoriesController{base: base{def: def, eng: eng}}
}

func (c *CategoriesController) Enter(ctx context.Context) {
	committed := c.eng.store.State()

	c.mu.Lock()
	c.draft = append([]domain.Category(nil), committed.Categories...)
	empty := len(c.draft) == 0
	c.mu.Unlock()

	if committed.Business.Domain != "" && committed.Business.BusinessName != "" && empty {
		c.generate(ctx, committed.Business, committed.Competitors)
	}
}

func (c *CategoriesController) Regenerate(ctx context.Context) {
	committed := c.eng.store.State()
	if committed.Business.Domain == "" || committed.Business.BusinessName == "" {
		return
	}
	c.generate(ctx, committed.Business, committed.Competitors)
}

func (c *CategoriesController) generate(ctx context.Context, business domain.BusinessProfile, competitors []string) {
	c.spawn(ctx, "generate_categories", msgCategoriesFailed, func(callCtx context.Context) (func(), error) {
		categories, err := c.eng.gateway.GenerateCategories(callCtx, c.eng.token, business, competitors)
		if err != nil {
			return nil, err
		}
		return func() { c.draft = categories }, nil
	})
}

// Add appends a label category unless empty or a name duplicate.
func (c *CategoriesController) Add(name string) bool {
	if name == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.draft {
		if existing.Name == name {
			return false
		}
	}
	c.draft = append(c.draft, domain.CategoryLabel(name))
	return true
}

func (c *CategoriesController) Remove(i int) {
	c.mu.Lock()
	c.draft = removeAt(c.draft, i)
	c.mu.Unlock()
}

func (c *CategoriesController) Draft() []domain.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Category(nil), c.draft...)
}

func (c *CategoriesController) Valid() bool {
	return c.validDraft(func(s *domain.State) { s.Categories = c.draft })
}

func (c *CategoriesController) Commit() {
	c.eng.store.SetCategories(c.Draft())
}

// --- Prompts step ---

// PromptsController reviews the generated prompts per category.
type PromptsController struct {
	base
	draft []domain.Prompt
}

func newPromptsController(eng *Engine) *PromptsController {
	def, _ := domain.StepByID(domain.StepPrompts)
	return &PromptsController{base: base{def: def, eng: eng}}
}

func (c *PromptsController) Enter(ctx context.Context) {
	committed := c.eng.store.State()

	c.mu.Lock()
	c.draft = append([]domain.Prompt(nil), committed.Prompts...)
	empty := len(c.draft) == 0
	c.mu.Unlock()

	if len(committed.Categories) > 0 && empty {
		c.generate(ctx, committed.Categories)
	}
}

func (c *PromptsController) Regenerate(ctx context.Context) {
	categories := c.eng.store.State().Categories
	if len(categories) == 0 {
		return
	}
	c.generate(ctx, categories)
}

func (c *PromptsController) generate(ctx context.Context, categories []domain.Category) {
	c.spawn(ctx, "generate_prompts", msgPromptsFailed, func(callCtx context.Context) (func(), error) {
		prompts, err := c.eng.gateway.GeneratePrompts(callCtx, c.eng.token, categories)
		if err != nil {
			return nil, err
		}
		return func() { c.draft = prompts }, nil
	})
}

// SetText edits the prompt text at index i.
func (c *PromptsController) SetText(i int, text string) {
	c.mu.Lock()
	if i >= 0 && i < len(c.draft) {
		c.draft[i].Text = text
	}
	c.mu.Unlock()
}

func (c *PromptsController) Remove(i int) {
	c.mu.Lock()
	c.draft = removeAt(c.draft, i)
	c.mu.Unlock()
}

func (c *PromptsController) Draft() []domain.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Prompt(nil), c.draft...)
}

func (c *PromptsController) Valid() bool {
	return c.validDraft(func(s *domain.State) { s.Prompts = c.draft })
}

func (c *PromptsController) Commit() {
	c.eng.store.SetPrompts(c.Draft())
}

// --- Informational steps ---

// StaticController backs the blog and integration steps: nothing to collect,
// nothing to generate, always valid.
type StaticController struct {
	base
}

func newStaticController(eng *Engine, stepID int) *StaticController {
	def, _ := domain.StepByID(stepID)
	return &StaticController{base: base{def: def, eng: eng}}
}

func (c *StaticController) Enter(ctx context.Context)      {}
func (c *StaticController) Regenerate(ctx context.Context) {}
func (c *StaticController) Valid() bool                    { return true }
func (c *StaticController) Commit()                        {}
