package domain

// TotalSteps is the fixed length of the onboarding sequence.
const TotalSteps = 6

// BusinessProfile holds the data collected on the business step.
type BusinessProfile struct {
	Domain          string   `json:"domain"`
	BusinessName    string   `json:"business_name"`
	Description     string   `json:"description"`
	TargetAudiences []string `json:"target_audiences,omitempty"`
}

// State is the current snapshot of an onboarding session.
// It is owned by the runtime store; nothing outside the store mutates it directly.
type State struct {
	// SessionID identifies the onboarding session this state belongs to.
	SessionID string `json:"session_id"`

	// CurrentStep is the 1-based index of the active step.
	// Invariant: 1 <= CurrentStep <= TotalSteps.
	CurrentStep int `json:"current_step"`

	Business    BusinessProfile `json:"business"`
	Competitors []string        `json:"competitors,omitempty"`
	Categories  []Category      `json:"categories,omitempty"`
	Prompts     []Prompt        `json:"prompts,omitempty"`

	// Loading is true while an async operation for the active step is in flight.
	Loading bool `json:"loading,omitempty"`

	// Error is the last user-facing failure message; empty means none.
	Error string `json:"error,omitempty"`
}

// NewState creates a clean state for a session, positioned at the first step.
func NewState(sessionID string) *State {
	return &State{
		SessionID:   sessionID,
		CurrentStep: 1,
	}
}

// ClampStep bounds a step index to the valid range [1, TotalSteps].
func ClampStep(n int) int {
	if n < 1 {
		return 1
	}
	if n > TotalSteps {
		return TotalSteps
	}
	return n
}

// Clone returns a deep copy of the state so callers can hold a snapshot
// without aliasing the store's slices.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Business.TargetAudiences = append([]string(nil), s.Business.TargetAudiences...)
	next.Competitors = append([]string(nil), s.Competitors...)
	next.Categories = append([]Category(nil), s.Categories...)
	next.Prompts = append([]Prompt(nil), s.Prompts...)
	return &next
}
