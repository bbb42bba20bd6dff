package events

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// LoggingPublisher renders each event as a structured log entry and then
// hands it to subscribers.
type LoggingPublisher struct {
	logger *logger.Logger
	subs   map[string][]subscriptionEntry
	nextID int
	mu     sync.RWMutex
}

// NewLoggingPublisher creates an event publisher that writes each event as a structured log entry.
func NewLoggingPublisher(log *logger.Logger) *LoggingPublisher {
	return &LoggingPublisher{
		logger: log,
		subs:   make(map[string][]subscriptionEntry),
	}
}

// Publish logs the event and runs the handlers subscribed to its type.
func (p *LoggingPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || event.Type == "" {
		return nil
	}

	p.mu.RLock()
	handlers := append([]subscriptionEntry(nil), p.subs[event.Type]...)
	handlers = append(handlers, p.subs[AllEvents]...)
	p.mu.RUnlock()

	if p.logger != nil {
		fields := make(map[string]any, len(event.Fields)+4)
		for key, value := range event.Fields {
			fields[key] = value
		}
		fields["event_type"] = event.Type
		if event.Format != "" {
			fields["format"] = event.Format
		}
		if event.Stage != "" {
			fields["stage"] = event.Stage
		}
		level := "info"
		if event.Err != nil {
			fields["error"] = event.Err
			level = "warn"
		}
		p.logger.Log(level, event.Type, fields)
	}

	for _, entry := range handlers {
		if entry.handler == nil {
			continue
		}
		if err := entry.handler(ctx, event); err != nil && p.logger != nil {
			p.logger.WithFields(map[string]any{"event_type": event.Type}).Error(err, "event handler failed")
		}
	}

	return nil
}

// Subscribe registers a handler for the provided event type, or AllEvents.
func (p *LoggingPublisher) Subscribe(eventType string, handler Handler) Subscription {
	if p == nil || handler == nil {
		return noopSubscription{}
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[eventType] = append(p.subs[eventType], subscriptionEntry{id: id, handler: handler})
	p.mu.Unlock()

	return subscription{
		cancel: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			handlers := p.subs[eventType]
			for i, entry := range handlers {
				if entry.id == id {
					p.subs[eventType] = append(handlers[:i], handlers[i+1:]...)
					break
				}
			}
		},
	}
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriptionEntry struct {
	id      int
	handler Handler
}
