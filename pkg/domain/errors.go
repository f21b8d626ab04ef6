package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in a store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFragmentNotFound is returned when a durable fragment key has no value.
var ErrFragmentNotFound = errors.New("fragment not found")

// ErrNotAuthenticated is returned when the bearer credential is missing or
// rejected by the remote service. It routes to login, never into the workflow.
var ErrNotAuthenticated = errors.New("not authenticated")
