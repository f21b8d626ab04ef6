package runtime

import (
	"testing"

	"github.com/rampkit/ramp/pkg/domain"
)

func TestSetStepClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{domain.TotalSteps, domain.TotalSteps},
		{domain.TotalSteps + 1, domain.TotalSteps},
	}
	for _, tt := range tests {
		store := NewStore("sess")
		store.SetStep(tt.in)
		if got := store.CurrentStep(); got != tt.want {
			t.Errorf("SetStep(%d): currentStep = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNextAtLastStepIsNoop(t *testing.T) {
	store := NewStore("sess")
	store.SetStep(domain.TotalSteps)
	store.Next()
	if got := store.CurrentStep(); got != domain.TotalSteps {
		t.Errorf("next at last step moved to %d", got)
	}
}

func TestPrevAtFirstStepIsNoop(t *testing.T) {
	store := NewStore("sess")
	store.Prev()
	if got := store.CurrentStep(); got != 1 {
		t.Errorf("prev at first step moved to %d", got)
	}
}

func TestSetBusinessProfileShallowMerge(t *testing.T) {
	store := NewStore("sess")

	d := "acme.com"
	store.SetBusinessProfile(SetBusinessProfile{Domain: &d})

	name := "Acme"
	store.SetBusinessProfile(SetBusinessProfile{BusinessName: &name})

	got := store.State().Business
	if got.Domain != "acme.com" || got.BusinessName != "Acme" {
		t.Errorf("merge lost fields: %+v", got)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	store := NewStore("sess")
	store.SetStep(4)
	store.SetCompetitors([]string{"a.com", "b.com", "c.com"})
	store.SetCategories([]domain.Category{domain.CategoryLabel("seo")})
	store.SetPrompts([]domain.Prompt{{Text: "write about seo"}})
	store.SetLoading(true)
	store.SetError("boom")

	store.Reset()

	got := store.State()
	if got.CurrentStep != 1 {
		t.Errorf("currentStep = %d, want 1", got.CurrentStep)
	}
	if len(got.Competitors) != 0 || len(got.Categories) != 0 || len(got.Prompts) != 0 {
		t.Errorf("lists not cleared: %+v", got)
	}
	if got.Loading || got.Error != "" {
		t.Errorf("flags not cleared: loading=%v error=%q", got.Loading, got.Error)
	}
	if got.SessionID != "sess" {
		t.Errorf("reset must keep the session identity, got %q", got.SessionID)
	}
}

func TestReduceIsPure(t *testing.T) {
	before := domain.NewState("sess")
	before.Competitors = []string{"a.com"}

	after := Reduce(before, SetCompetitors{Competitors: []string{"x.com", "y.com"}})

	if len(before.Competitors) != 1 || before.Competitors[0] != "a.com" {
		t.Errorf("reduce mutated its input: %+v", before.Competitors)
	}
	if len(after.Competitors) != 2 {
		t.Errorf("reduce did not apply: %+v", after.Competitors)
	}
}

func TestReplayReconstructsState(t *testing.T) {
	d := "acme.com"
	name := "Acme"
	actions := []Action{
		SetBusinessProfile{Domain: &d},
		SetBusinessProfile{BusinessName: &name},
		Next{},
		SetCompetitors{Competitors: []string{"a.com", "b.com", "c.com"}},
		Next{},
		SetError{Message: "transient"},
		SetError{Message: ""},
	}

	store := NewStore("sess")
	for _, a := range actions {
		store.Dispatch(a)
	}

	replayed := domain.NewState("sess")
	for _, a := range actions {
		replayed = Reduce(replayed, a)
	}

	got := store.State()
	if got.CurrentStep != replayed.CurrentStep ||
		got.Business.Domain != replayed.Business.Domain ||
		got.Business.BusinessName != replayed.Business.BusinessName ||
		len(got.Competitors) != len(replayed.Competitors) ||
		got.Error != replayed.Error {
		t.Errorf("replay mismatch: store=%+v replay=%+v", got, replayed)
	}
}
