package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Writer: buf, Level: "debug"})
	require.NoError(t, err)
	return log
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggingPublisherWritesStructuredEntry(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	publisher := NewLoggingPublisher(newTestLogger(t, buf))

	err := publisher.Publish(context.Background(), Event{
		Type:   StageCompleted,
		Format: "plugin",
		Stage:  "bundle",
		Fields: map[string]any{"result": "demo-1.0.api-5.curaplugin"},
	})
	require.NoError(t, err)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	require.Equal(t, StageCompleted, entry["message"])
	require.Equal(t, "info", entry["level"])
	require.Equal(t, StageCompleted, entry["event_type"])
	require.Equal(t, "plugin", entry["format"])
	require.Equal(t, "bundle", entry["stage"])
	require.Equal(t, "demo-1.0.api-5.curaplugin", entry["result"])
}

func TestLoggingPublisherFailureIsWarning(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	publisher := NewLoggingPublisher(newTestLogger(t, buf))

	require.NoError(t, publisher.Publish(context.Background(), Event{
		Type:   StageFailed,
		Format: "package-sdk6",
		Stage:  "verify",
		Err:    errors.New("missing email"),
	}))

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "warn", entries[0]["level"])
	require.Equal(t, "missing email", entries[0]["error"])
}

func TestLoggingPublisherInvokesSubscribers(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	publisher := NewLoggingPublisher(newTestLogger(t, buf))

	var typed, all []string
	sub := publisher.Subscribe(FormatFailed, func(_ context.Context, e Event) error {
		typed = append(typed, e.Format)
		return nil
	})
	publisher.Subscribe(AllEvents, func(_ context.Context, e Event) error {
		all = append(all, e.Type)
		return errors.New("render failed")
	})

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, Event{Type: FormatStarted, Format: "plugin"}))
	require.NoError(t, publisher.Publish(ctx, Event{Type: FormatFailed, Format: "plugin"}))

	sub.Unsubscribe()
	require.NoError(t, publisher.Publish(ctx, Event{Type: FormatFailed, Format: "plugin-source"}))

	require.Equal(t, []string{"plugin"}, typed)
	require.Equal(t, []string{FormatStarted, FormatFailed, FormatFailed}, all)
	require.Contains(t, buf.String(), "event handler failed")
}

func TestLoggingPublisherNilSafety(t *testing.T) {
	t.Parallel()

	var publisher *LoggingPublisher
	require.NoError(t, publisher.Publish(context.Background(), Event{Type: FormatStarted}))
	publisher.Subscribe(FormatStarted, func(context.Context, Event) error { return nil }).Unsubscribe()

	withoutLogger := NewLoggingPublisher(nil)
	called := false
	withoutLogger.Subscribe(FormatStarted, func(context.Context, Event) error {
		called = true
		return nil
	})
	require.NoError(t, withoutLogger.Publish(context.Background(), Event{Type: FormatStarted}))
	require.True(t, called)

	require.NoError(t, withoutLogger.Publish(context.Background(), Event{}))
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = Nop{}
	require.NoError(t, p.Publish(context.Background(), Event{Type: FormatStarted}))
	p.Subscribe(FormatStarted, nil).Unsubscribe()
}
