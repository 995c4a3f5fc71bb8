package pipeline

import (
	"context"

	"otodake/internal/entity"
)

// Sink receives the ordered event stream of one batch run. The pipeline
// pushes validation results, per-item progress, and terminal outcomes into
// it as they happen; a presentation layer is one possible consumer, storage
// another.
type Sink interface {
	// Validated is called once, before any processing, with the accepted
	// URLs in input order and the rejected lines.
	Validated(ctx context.Context, accepted []string, rejected []entity.RejectedLine)

	// Progress is called for every transient status update of the item at
	// index (an index into the accepted slice).
	Progress(ctx context.Context, index int, event entity.ProgressEvent)

	// Outcome is called exactly once per accepted URL, immediately when the
	// item terminates, so partial progress stays visible even if later
	// items fail.
	Outcome(ctx context.Context, index int, outcome entity.ItemOutcome)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Validated(context.Context, []string, []entity.RejectedLine) {}
func (NopSink) Progress(context.Context, int, entity.ProgressEvent)       {}
func (NopSink) Outcome(context.Context, int, entity.ItemOutcome)          {}
