// Package orchestrator runs format strategies through the build stages.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/pluginoven/internal/events"
	"github.com/alexisbeaulieu97/pluginoven/internal/format"
	"github.com/alexisbeaulieu97/pluginoven/internal/logger"
)

// Outcome is the final record of one format.
type Outcome struct {
	Format      string
	State       State
	FailedStage Stage
	Err         error
	ResultPath  string
	Duration    time.Duration
}

// Failed reports whether the format ended in the failed state.
func (o Outcome) Failed() bool {
	return o.State == StateFailed
}

// Summary aggregates the outcomes of a run in format order.
type Summary struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Failed reports whether any format failed.
func (s Summary) Failed() bool {
	for _, o := range s.Outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

// FailedCount returns how many formats failed.
func (s Summary) FailedCount() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Options configures an Orchestrator.
type Options struct {
	Publisher events.Publisher
	Logger    *logger.Logger
	// Stages limits the run to a prefix of the pipeline, e.g. verify only.
	Stages []Stage
}

// Orchestrator drives strategies sequentially.
type Orchestrator struct {
	publisher events.Publisher
	log       *logger.Logger
	stages    []Stage
	now       func() time.Time
}

// New creates an orchestrator. Missing collaborators fall back to no-ops.
func New(opts Options) *Orchestrator {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	stages := opts.Stages
	if len(stages) == 0 {
		stages = Stages
	}
	return &Orchestrator{publisher: publisher, log: log, stages: stages, now: time.Now}
}

// Run executes every strategy in order. A failed format never prevents the
// next one from running.
func (o *Orchestrator) Run(ctx context.Context, strategies []format.Strategy) Summary {
	start := o.now()
	summary := Summary{Outcomes: make([]Outcome, 0, len(strategies))}
	for _, s := range strategies {
		summary.Outcomes = append(summary.Outcomes, o.runFormat(ctx, s))
	}
	summary.Duration = o.now().Sub(start)
	return summary
}

func (o *Orchestrator) runFormat(ctx context.Context, s format.Strategy) Outcome {
	start := o.now()
	outcome := Outcome{Format: s.Name(), State: StateCreated}
	o.publish(ctx, events.Event{Type: events.FormatStarted, Format: s.Name()})

	for _, stage := range o.stages {
		o.publish(ctx, events.Event{Type: events.StageStarted, Format: s.Name(), Stage: string(stage)})

		err := ctx.Err()
		if err == nil {
			err = runStage(ctx, s, stage)
		}
		if err == nil {
			outcome.State, err = advance(outcome.State, stage)
		}
		if err != nil {
			outcome.State = StateFailed
			outcome.FailedStage = stage
			outcome.Err = err
			o.publish(ctx, events.Event{Type: events.StageFailed, Format: s.Name(), Stage: string(stage), Err: err})
			break
		}

		fields := map[string]any{}
		if stage == StageVerify && s.ResultPath() != "" {
			fields["result"] = s.ResultPath()
		}
		o.publish(ctx, events.Event{Type: events.StageCompleted, Format: s.Name(), Stage: string(stage), Fields: fields})
	}

	outcome.ResultPath = s.ResultPath()
	outcome.Duration = o.now().Sub(start)

	fields := map[string]any{"state": string(outcome.State), "duration": outcome.Duration.String()}
	if outcome.Failed() {
		o.publish(ctx, events.Event{Type: events.FormatFailed, Format: s.Name(), Stage: string(outcome.FailedStage), Err: outcome.Err, Fields: fields})
	} else {
		if outcome.ResultPath != "" {
			fields["result"] = outcome.ResultPath
		}
		o.publish(ctx, events.Event{Type: events.FormatCompleted, Format: s.Name(), Fields: fields})
	}
	return outcome
}

type lastErrorer interface {
	LastError() error
}

func runStage(ctx context.Context, s format.Strategy, stage Stage) error {
	switch stage {
	case StageVerify:
		return checked(s, stage, s.Verify(ctx))
	case StagePrepare:
		return s.Prepare(ctx)
	case StageBuild:
		return s.Build(ctx)
	case StageBundle:
		return s.Bundle(ctx)
	case StageTest:
		return checked(s, stage, s.Test(ctx))
	case StageClean:
		return s.Clean(ctx)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// checked turns a boolean stage result into an error, preferring the reason
// the strategy recorded.
func checked(s format.Strategy, stage Stage, ok bool) error {
	if ok {
		return nil
	}
	if le, isLE := s.(lastErrorer); isLE {
		if err := le.LastError(); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: %s failed", s.Name(), stage)
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.log.WithFields(map[string]any{"event_type": event.Type}).Error(err, "failed to publish event")
	}
}
