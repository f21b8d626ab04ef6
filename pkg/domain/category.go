package domain

import (
	"encoding/json"
	"fmt"
)

// Category is a content category. The generation service returns categories in
// two shapes: a bare label, or a persisted record carrying a stable identifier.
// The zero ID marks a label-only category.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CategoryLabel builds a label-only category.
func CategoryLabel(name string) Category {
	return Category{Name: name}
}

// PersistedCategory builds a category backed by a server-side record.
func PersistedCategory(id, name string) Category {
	return Category{ID: id, Name: name}
}

// Persisted reports whether the category carries a stable identifier.
func (c Category) Persisted() bool {
	return c.ID != ""
}

// UnmarshalJSON accepts both wire shapes: "seo-basics" and
// {"id": "cat_1", "name": "seo-basics"}.
func (c *Category) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*c = CategoryLabel(label)
		return nil
	}

	type record Category
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("category: unsupported shape: %w", err)
	}
	*c = Category(rec)
	return nil
}

// MarshalJSON writes the label shape for label-only categories and the record
// shape otherwise, mirroring what the service sent.
func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Persisted() {
		return json.Marshal(c.Name)
	}
	type record Category
	return json.Marshal(record(c))
}
