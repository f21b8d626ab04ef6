package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/rampkit/ramp/pkg/adapters/memory"
	"github.com/rampkit/ramp/pkg/domain"
	"github.com/rampkit/ramp/pkg/ports"
)

func workflowGateway() *stubGateway {
	return &stubGateway{
		status: &ports.AccountStatus{},
		analysis: &ports.BusinessAnalysis{
			BusinessName:    "Acme",
			Description:     "Widgets for everyone",
			TargetAudiences: []string{"makers"},
		},
		competitors: []string{"rival.com", "other.io", "third.dev"},
		categories:  []domain.Category{domain.PersistedCategory("cat_1", "seo")},
		prompts:     []domain.Prompt{{Category: domain.CategoryLabel("seo"), Text: "write about seo"}},
	}
}

func TestStartRoutesToDashboardWithoutTouchingState(t *testing.T) {
	gw := workflowGateway()
	gw.status = &ports.AccountStatus{ShouldRedirectToDashboard: true}

	eng := NewEngine("sess", "tok", gw)
	if route := eng.Start(context.Background()); route != RouteDashboard {
		t.Fatalf("route = %s, want dashboard", route)
	}
	eng.Wait()

	if gw.analyzeHits != 0 {
		t.Error("step 1 auto-populate fired on a dashboard route")
	}
}

func TestStartFailsOpenIntoWorkflow(t *testing.T) {
	gw := workflowGateway()
	gw.statusErr = errors.New("connection refused")

	eng := NewEngine("sess", "tok", gw)
	if route := eng.Start(context.Background()); route != RouteWorkflow {
		t.Fatalf("route = %s, want workflow", route)
	}
	eng.Wait()

	if got := eng.State().CurrentStep; got != 1 {
		t.Errorf("currentStep = %d, want 1", got)
	}
}

func TestBusinessAutoPopulateFromFragment(t *testing.T) {
	gw := workflowGateway()
	frags := memory.NewStore()
	ctx := context.Background()

	if err := frags.SaveFragment(ctx, "sess", ports.FragmentDomain, "acme.com"); err != nil {
		t.Fatal(err)
	}

	eng := NewEngine("sess", "tok", gw, WithFragmentStore(frags))
	eng.Start(ctx)
	eng.Wait()

	draft := eng.Business().Draft()
	if draft.Domain != "acme.com" {
		t.Errorf("domain not restored from fragment: %q", draft.Domain)
	}
	if draft.BusinessName != "Acme" || draft.Description == "" {
		t.Errorf("analysis not applied to draft: %+v", draft)
	}
	if gw.analyzeHits != 1 {
		t.Errorf("analyze called %d times, want 1", gw.analyzeHits)
	}
}

func TestBusinessNoAutoPopulateWithoutDomain(t *testing.T) {
	gw := workflowGateway()
	eng := NewEngine("sess", "tok", gw)
	eng.Start(context.Background())
	eng.Wait()

	if gw.analyzeHits != 0 {
		t.Errorf("analyze fired with an empty domain (%d hits)", gw.analyzeHits)
	}
	if draft := eng.Business().Draft(); draft.Domain != "" {
		t.Errorf("fresh session should render an empty domain, got %q", draft.Domain)
	}
}

func TestSetDomainMirrorsFragment(t *testing.T) {
	gw := workflowGateway()
	frags := memory.NewStore()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw, WithFragmentStore(frags))
	eng.Start(ctx)
	eng.Wait()

	eng.Business().SetDomain(ctx, "acme.com")

	val, err := frags.LoadFragment(ctx, "sess", ports.FragmentDomain)
	if err != nil {
		t.Fatalf("fragment not mirrored: %v", err)
	}
	if val != "acme.com" {
		t.Errorf("fragment = %q, want acme.com", val)
	}
}

// advanceToCompetitors walks a session through a valid business step.
func advanceToCompetitors(t *testing.T, eng *Engine, ctx context.Context) {
	t.Helper()

	eng.Business().SetDomain(ctx, "acme.com")
	eng.Business().SetBusinessName("Acme")
	if err := eng.Advance(ctx); err != nil {
		t.Fatalf("advance from business failed: %v", err)
	}
}

func TestCompetitorsAutoPopulateOncePerEntry(t *testing.T) {
	gw := workflowGateway()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()

	advanceToCompetitors(t, eng, ctx)
	eng.Wait()

	if gw.fetchHits != 1 {
		t.Fatalf("fetch called %d times on first entry, want 1", gw.fetchHits)
	}
	if got := eng.Competitors().Draft(); len(got) != 3 {
		t.Fatalf("draft = %v, want 3 generated competitors", got)
	}

	// Leaving and re-entering with committed data present must not re-fire.
	if err := eng.Advance(ctx); err != nil {
		t.Fatalf("advance from competitors failed: %v", err)
	}
	eng.Retreat(ctx)
	eng.Wait()

	if gw.fetchHits != 1 {
		t.Errorf("fetch re-fired on re-entry with data present (%d hits)", gw.fetchHits)
	}
}

func TestCompetitorsReentryWithEmptyDataRefires(t *testing.T) {
	gw := workflowGateway()
	gw.competitors = nil // generation yields nothing
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)
	eng.Wait()

	if gw.fetchHits != 1 {
		t.Fatalf("fetch called %d times, want 1", gw.fetchHits)
	}

	// Go back and forward again: data still empty, so the empty-state
	// condition holds and exactly one more request fires.
	eng.Retreat(ctx)
	eng.Wait()
	if err := eng.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	eng.Wait()

	if gw.fetchHits != 2 {
		t.Errorf("fetch called %d times after second entry, want 2", gw.fetchHits)
	}
}

func TestAdvanceGateBlocksInvalidDraft(t *testing.T) {
	gw := workflowGateway()
	gw.competitors = []string{"a.com"} // below the minimum
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)
	eng.Wait()

	err := eng.Advance(ctx)
	if !errors.Is(err, ErrStepGate) {
		t.Fatalf("advance with 1 competitor: err = %v, want ErrStepGate", err)
	}
	if got := eng.State().CurrentStep; got != 2 {
		t.Errorf("gate failure moved the step to %d", got)
	}

	eng.Competitors().Add("b.com")
	eng.Competitors().Add("c.com")
	if err := eng.Advance(ctx); err != nil {
		t.Fatalf("advance with 3 competitors failed: %v", err)
	}
}

func TestDuplicateCompetitorNotAdded(t *testing.T) {
	gw := workflowGateway()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)
	eng.Wait()

	before := len(eng.Competitors().Draft())
	if eng.Competitors().Add("rival.com") {
		t.Error("exact duplicate reported as added")
	}
	if got := len(eng.Competitors().Draft()); got != before {
		t.Errorf("duplicate changed draft length: %d -> %d", before, got)
	}

	// Case differs, so it is a distinct entry.
	if !eng.Competitors().Add("RIVAL.com") {
		t.Error("case-different entry rejected")
	}
}

func TestRetreatDiscardsDraft(t *testing.T) {
	gw := workflowGateway()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)
	eng.Wait()

	// Commit three competitors, advance, then edit the categories draft and
	// retreat; the edit must not leak into committed state.
	if err := eng.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	eng.Wait()
	eng.Categories().Add("uncommitted")
	eng.Retreat(ctx)
	eng.Wait()

	for _, cat := range eng.State().Categories {
		if cat.Name == "uncommitted" {
			t.Error("retreat committed a draft edit")
		}
	}
}

func TestGenerationFailureSetsErrorKeepsDraft(t *testing.T) {
	gw := workflowGateway()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)
	eng.Wait()

	// A failing regenerate must surface the fixed message and leave the
	// previously generated draft untouched.
	gw.competitorsErr = errors.New("upstream 503")
	eng.Regenerate(ctx)
	eng.Wait()

	state := eng.State()
	if state.Error != msgCompetitorsFailed {
		t.Errorf("error = %q, want %q", state.Error, msgCompetitorsFailed)
	}
	if state.Loading {
		t.Error("loading flag left set after failure")
	}
	if got := eng.Competitors().Draft(); len(got) != 3 {
		t.Errorf("failure cleared the draft: %v", got)
	}
}

func TestFullWalkthroughAndCompletion(t *testing.T) {
	gw := workflowGateway()
	states := memory.NewStore()
	frags := memory.NewStore()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw, WithStateStore(states), WithFragmentStore(frags))
	if route := eng.Start(ctx); route != RouteWorkflow {
		t.Fatalf("route = %s", route)
	}
	eng.Wait()

	advanceToCompetitors(t, eng, ctx) // -> competitors
	eng.Wait()
	for step := domain.StepCompetitors; step < domain.TotalSteps; step++ {
		if err := eng.Advance(ctx); err != nil {
			t.Fatalf("advance from step %d failed: %v", step, err)
		}
		eng.Wait()
	}

	if got := eng.State().CurrentStep; got != domain.TotalSteps {
		t.Fatalf("currentStep = %d, want %d", got, domain.TotalSteps)
	}

	route, err := eng.Complete(ctx)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if route != RouteDashboard {
		t.Errorf("route = %s, want dashboard", route)
	}

	// State reset, persistence dropped.
	if got := eng.State(); got.CurrentStep != 1 || len(got.Competitors) != 0 {
		t.Errorf("state not reset: %+v", got)
	}
	if _, err := states.Load(ctx, "sess"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("persisted session not dropped: %v", err)
	}
}

func TestCompleteFailurePreservesState(t *testing.T) {
	gw := workflowGateway()
	ctx := context.Background()

	eng := NewEngine("sess", "tok", gw)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)
	eng.Wait()
	for eng.State().CurrentStep < domain.TotalSteps {
		if err := eng.Advance(ctx); err != nil {
			t.Fatal(err)
		}
		eng.Wait()
	}

	gw.finalizeErr = errors.New("upstream 500")
	route, err := eng.Complete(ctx)
	if err == nil {
		t.Fatal("complete should fail")
	}
	if route != RouteWorkflow {
		t.Errorf("route = %s, want workflow (retry affordance)", route)
	}

	state := eng.State()
	if state.CurrentStep != domain.TotalSteps {
		t.Errorf("failure moved the step to %d", state.CurrentStep)
	}
	if state.Error != msgFinalizeFailed {
		t.Errorf("error = %q, want %q", state.Error, msgFinalizeFailed)
	}

	// Retry succeeds.
	gw.finalizeErr = nil
	if route, err := eng.Complete(ctx); err != nil || route != RouteDashboard {
		t.Errorf("retry: route=%s err=%v", route, err)
	}
}

func TestCompleteRejectedBeforeTerminalStep(t *testing.T) {
	gw := workflowGateway()
	eng := NewEngine("sess", "tok", gw)
	eng.Start(context.Background())
	eng.Wait()

	if _, err := eng.Complete(context.Background()); !errors.Is(err, ErrNotTerminalStep) {
		t.Errorf("err = %v, want ErrNotTerminalStep", err)
	}
}

func TestStaleGenerationDiscardedAfterLeave(t *testing.T) {
	gw := workflowGateway()
	ctx := context.Background()

	// Block the fetch until we let it go, simulating a slow response that
	// lands after the user has navigated away.
	release := make(chan struct{})
	blocking := &blockingGateway{stubGateway: gw, release: release}

	eng := NewEngine("sess", "tok", blocking)
	eng.Start(ctx)
	eng.Wait()
	advanceToCompetitors(t, eng, ctx)

	// Navigate back while the fetch is still in flight.
	eng.Retreat(ctx)
	close(release)
	eng.Wait()

	if got := eng.Competitors().Draft(); len(got) != 0 {
		t.Errorf("stale response mutated the draft: %v", got)
	}
	if eng.State().Loading {
		t.Error("loading flag stuck after leaving the step")
	}
}

// blockingGateway delays FetchCompetitors until release is closed.
type blockingGateway struct {
	*stubGateway
	release chan struct{}
}

func (g *blockingGateway) FetchCompetitors(ctx context.Context, token string, business domain.BusinessProfile) ([]string, error) {
	<-g.release
	return g.stubGateway.FetchCompetitors(ctx, token, business)
}
