// Package events carries build status notifications from the orchestrator to
// whoever renders them.
package events

import "context"

const (
	// FormatStarted is emitted before the first stage of a format runs.
	FormatStarted = "format.started"
	// FormatCompleted is emitted when every stage of a format succeeded.
	FormatCompleted = "format.completed"
	// FormatFailed is emitted when a format ends in the failed state.
	FormatFailed = "format.failed"
	// StageStarted is emitted before a stage runs.
	StageStarted = "stage.started"
	// StageCompleted is emitted after a stage succeeded.
	StageCompleted = "stage.completed"
	// StageFailed is emitted when a stage returned false or an error.
	StageFailed = "stage.failed"
)

// Event is a single status notification.
type Event struct {
	Type   string
	Format string
	Stage  string
	Err    error
	Fields map[string]any
}

// Handler processes an event. Errors are logged by the publisher and never
// stop delivery to other handlers.
type Handler func(context.Context, Event) error

// Subscription is a registered handler.
type Subscription interface {
	Unsubscribe()
}

// Publisher distributes events synchronously.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType string, handler Handler) Subscription
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// Subscribe returns a subscription that does nothing.
func (Nop) Subscribe(string, Handler) Subscription { return noopSubscription{} }
