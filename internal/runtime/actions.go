package runtime

import "github.com/rampkit/ramp/pkg/domain"

// Action is a request to transform the workflow state. Every mutation of the
// store is expressed as an action applied by Reduce, so any state sequence is
// reconstructable from the dispatched action sequence.
type Action interface {
	isAction()
}

// SetStep moves to an absolute step index, clamped to the valid range.
type SetStep struct {
	Step int
}

// Next advances one step, clamped at the last step.
type Next struct{}

// Prev retreats one step, clamped at the first step.
type Prev struct{}

// SetBusinessProfile shallow-merges into the business profile.
// Nil fields are left untouched.
type SetBusinessProfile struct {
	Domain          *string
	BusinessName    *string
	Description     *string
	TargetAudiences *[]string
}

// SetCompetitors replaces the competitor list.
type SetCompetitors struct {
	Competitors []string
}

// SetCategories replaces the category list.
type SetCategories struct {
	Categories []domain.Category
}

// SetPrompts replaces the prompt list.
type SetPrompts struct {
	Prompts []domain.Prompt
}

// SetLoading toggles the in-flight flag.
type SetLoading struct {
	Loading bool
}

// SetError sets or clears the user-facing error message.
type SetError struct {
	Message string
}

// Reset restores the state to its initial empty form.
type Reset struct{}

func (SetStep) isAction()            {}
func (Next) isAction()               {}
func (Prev) isAction()               {}
func (SetBusinessProfile) isAction() {}
func (SetCompetitors) isAction()     {}
func (SetCategories) isAction()      {}
func (SetPrompts) isAction()         {}
func (SetLoading) isAction()         {}
func (SetError) isAction()           {}
func (Reset) isAction()              {}

// Reduce applies an action to a state and returns the successor state.
// It is pure and total: the input state is never mutated, and no action fails.
func Reduce(s *domain.State, a Action) *domain.State {
	next := s.Clone()

	switch act := a.(type) {
	case SetStep:
		next.CurrentStep = domain.ClampStep(act.Step)
	case Next:
		next.CurrentStep = domain.ClampStep(next.CurrentStep + 1)
	case Prev:
		next.CurrentStep = domain.ClampStep(next.CurrentStep - 1)
	case SetBusinessProfile:
		if act.Domain != nil {
			next.Business.Domain = *act.Domain
		}
		if act.BusinessName != nil {
			next.Business.BusinessName = *act.BusinessName
		}
		if act.Description != nil {
			next.Business.Description = *act.Description
		}
		if act.TargetAudiences != nil {
			next.Business.TargetAudiences = append([]string(nil), (*act.TargetAudiences)...)
		}
	case SetCompetitors:
		next.Competitors = append([]string(nil), act.Competitors...)
	case SetCategories:
		next.Categories = append([]domain.Category(nil), act.Categories...)
	case SetPrompts:
		next.Prompts = append([]domain.Prompt(nil), act.Prompts...)
	case SetLoading:
		next.Loading = act.Loading
	case SetError:
		next.Error = act.Message
	case Reset:
		next = domain.NewState(s.SessionID)
	}

	return next
}
