// Package runtime implements the onboarding orchestrator: the action-reduced
// workflow state store, the entry guard, the per-step controllers with their
// draft/commit cycle and generation-stamped async population, and the engine
// that drives one session from entry to completion.
package runtime
