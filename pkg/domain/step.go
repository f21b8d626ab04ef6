package domain

// Step identifiers, in sequence order.
const (
	StepBusiness = iota + 1
	StepCompetitors
	StepCategories
	StepPrompts
	StepBlog
	StepIntegration
)

// Competitor count bounds enforced by the competitors step gate.
const (
	MinCompetitors = 3
	MaxCompetitors = 7
)

// StepDefinition describes one stage of the onboarding sequence.
// Definitions are process-wide constants and never mutated.
type StepDefinition struct {
	ID          int
	Name        string
	Title       string
	Description string

	// Validate reports whether the state satisfies the step's advance gate.
	Validate func(*State) bool
}

var steps = []StepDefinition{
	{
		ID:          StepBusiness,
		Name:        "business",
		Title:       "Your business",
		Description: "Tell us about your business so we can tailor the rest of the setup.",
		Validate: func(s *State) bool {
			return s.Business.Domain != "" && s.Business.BusinessName != ""
		},
	},
	{
		ID:          StepCompetitors,
		Name:        "competitors",
		Title:       "Competitors",
		Description: "Pick 3 to 7 competitors to benchmark against.",
		Validate: func(s *State) bool {
			return len(s.Competitors) >= MinCompetitors && len(s.Competitors) <= MaxCompetitors
		},
	},
	{
		ID:          StepCategories,
		Name:        "categories",
		Title:       "Content categories",
		Description: "Choose the content categories you want to cover.",
		Validate: func(s *State) bool {
			return len(s.Categories) >= 1
		},
	},
	{
		ID:          StepPrompts,
		Name:        "prompts",
		Title:       "Content prompts",
		Description: "Review the generated prompts for each category.",
		Validate: func(s *State) bool {
			return len(s.Prompts) >= 1
		},
	},
	{
		ID:          StepBlog,
		Name:        "blog",
		Title:       "Your blog",
		Description: "How generated content will appear on your blog.",
		Validate:    func(*State) bool { return true },
	},
	{
		ID:          StepIntegration,
		Name:        "integration",
		Title:       "Integration",
		Description: "Connect your site and finish the setup.",
		Validate:    func(*State) bool { return true },
	},
}

// Steps returns the ordered step table. The returned slice is shared; callers
// must not modify it.
func Steps() []StepDefinition {
	return steps
}

// StepByID returns the definition for a step index, with ok=false when the
// index is out of range.
func StepByID(id int) (StepDefinition, bool) {
	if id < 1 || id > len(steps) {
		return StepDefinition{}, false
	}
	return steps[id-1], true
}
