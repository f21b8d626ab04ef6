package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter      EventType = "step_enter"
	EventStepLeave      EventType = "step_leave"
	EventGenerateCall   EventType = "generate_call"
	EventGenerateReturn EventType = "generate_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	StepID   int    `json:"step_id"`
	StepName string `json:"step_name"`
}

// GenerateEvent represents one call to the remote generation service.
type GenerateEvent struct {
	EventBase
	StepID    int           `json:"step_id"`
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnStepEnter      func(context.Context, *StepEvent)
	OnStepLeave      func(context.Context, *StepEvent)
	OnGenerateCall   func(context.Context, *GenerateEvent)
	OnGenerateReturn func(context.Context, *GenerateEvent)
}
