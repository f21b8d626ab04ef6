package domain

// Prompt is an AI-generated content prompt associated with a category.
// Text is editable by the user before the workflow is finalized.
type Prompt struct {
	ID       string   `json:"id,omitempty"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
}
