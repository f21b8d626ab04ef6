package domain

import "testing"

func TestProgressProjection(t *testing.T) {
	tests := []struct {
		name    string
		current int
	}{
		{"first step", 1},
		{"middle step", 3},
		{"last step", TotalSteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Progress(tt.current)
			if len(view) != TotalSteps {
				t.Fatalf("expected %d entries, got %d", TotalSteps, len(view))
			}
			for _, p := range view {
				want := StatusPending
				switch {
				case p.ID < tt.current:
					want = StatusCompleted
				case p.ID == tt.current:
					want = StatusCurrent
				}
				if p.Status != want {
					t.Errorf("step %d: status = %s, want %s", p.ID, p.Status, want)
				}
			}
		})
	}
}

func TestProgressClampsOutOfRange(t *testing.T) {
	view := Progress(99)
	if view[TotalSteps-1].Status != StatusCurrent {
		t.Errorf("out-of-range index should clamp to the last step")
	}
	view = Progress(-4)
	if view[0].Status != StatusCurrent {
		t.Errorf("negative index should clamp to the first step")
	}
}
