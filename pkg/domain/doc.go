// Package domain holds the core onboarding types: the workflow state, the
// fixed step registry with its validation gates, the progress projection, and
// the lifecycle events emitted by the engine.
package domain
