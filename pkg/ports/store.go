package ports

import (
	"context"

	"github.com/rampkit/ramp/pkg/domain"
)

// StateStore defines the interface for persisting workflow state.
// Onboarding state is transient by design, but the HTTP surface keeps one
// session alive across requests, so the engine persists through this port.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}

// FragmentStore persists the single durable fragment of the workflow: the
// business domain entered on the first step. Everything else is transient,
// but the domain survives a remount so the user never retypes it.
type FragmentStore interface {
	// SaveFragment stores a value under a per-session key.
	SaveFragment(ctx context.Context, sessionID, key, value string) error

	// LoadFragment retrieves a value by key.
	// Returns domain.ErrFragmentNotFound if the key has no value.
	LoadFragment(ctx context.Context, sessionID, key string) (string, error)

	// DeleteFragments removes all fragments for a session.
	DeleteFragments(ctx context.Context, sessionID string) error
}

// FragmentDomain is the key under which the business domain is mirrored.
const FragmentDomain = "onboarding_domain"
