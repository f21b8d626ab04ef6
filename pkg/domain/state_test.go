package domain

import "testing"

func TestClampStep(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{4, 4},
		{TotalSteps, TotalSteps},
		{TotalSteps + 1, TotalSteps},
		{99, TotalSteps},
	}
	for _, tt := range tests {
		if got := ClampStep(tt.in); got != tt.want {
			t.Errorf("ClampStep(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCloneIsolatesSlices(t *testing.T) {
	s := NewState("sess-1")
	s.Competitors = []string{"a.com", "b.com"}
	s.Categories = []Category{CategoryLabel("seo")}

	clone := s.Clone()
	clone.Competitors[0] = "mutated"
	clone.Categories[0] = CategoryLabel("mutated")

	if s.Competitors[0] != "a.com" {
		t.Error("clone shares competitor backing array with original")
	}
	if s.Categories[0].Name != "seo" {
		t.Error("clone shares category backing array with original")
	}
}
