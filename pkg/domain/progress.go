package domain

// StepStatus is the visual state of one step in the progress rail.
type StepStatus string

const (
	StatusCompleted StepStatus = "completed"
	StatusCurrent   StepStatus = "current"
	StatusPending   StepStatus = "pending"
)

// StepProgress pairs a step with its projected status.
type StepProgress struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Title  string     `json:"title"`
	Status StepStatus `json:"status"`
}

// Progress projects the current step index onto a per-step status view.
// Pure function of currentStep; no state, no side effects.
func Progress(currentStep int) []StepProgress {
	currentStep = ClampStep(currentStep)

	out := make([]StepProgress, 0, len(steps))
	for _, def := range steps {
		status := StatusPending
		switch {
		case def.ID < currentStep:
			status = StatusCompleted
		case def.ID == currentStep:
			status = StatusCurrent
		}
		out = append(out, StepProgress{
			ID:     def.ID,
			Name:   def.Name,
			Title:  def.Title,
			Status: status,
		})
	}
	return out
}
