// Package entity defines the core entities used in the application.
package entity

import (
	"log/slog"
	"time"
)

// BatchStatus represents the status of one batch run.
type BatchStatus string

const (
	// BatchStatusQueued indicates that the batch is accepted and waiting for a worker.
	BatchStatusQueued BatchStatus = "queued"
	// BatchStatusRunning indicates that the batch is being processed.
	BatchStatusRunning BatchStatus = "running"
	// BatchStatusCompleted indicates that the batch finished with at least one success.
	BatchStatusCompleted BatchStatus = "completed"
	// BatchStatusFailed indicates that every item of the batch failed, or the
	// batch never reached processing.
	BatchStatusFailed BatchStatus = "failed"
)

// ItemStatus represents the processing stage of one item.
type ItemStatus string

const (
	// ItemStatusPending indicates the item has not started yet.
	ItemStatusPending ItemStatus = "pending"
	// ItemStatusFetching indicates the metadata probe is running.
	ItemStatusFetching ItemStatus = "fetching"
	// ItemStatusDownloading indicates the audio stream is downloading.
	ItemStatusDownloading ItemStatus = "downloading"
	// ItemStatusConverting indicates the raw download finished and
	// postprocessing to MP3 began.
	ItemStatusConverting ItemStatus = "converting"
	// ItemStatusSucceeded indicates the item produced an artifact.
	ItemStatusSucceeded ItemStatus = "succeeded"
	// ItemStatusFailed indicates the item terminated without an artifact.
	ItemStatusFailed ItemStatus = "failed"
)

// EventKind tags a ProgressEvent variant.
type EventKind string

const (
	EventFetching    EventKind = "fetching"
	EventDownloading EventKind = "downloading"
	EventConverting  EventKind = "converting"
	EventSucceeded   EventKind = "succeeded"
	EventFailed      EventKind = "failed"
)

// ProgressEvent is a transient per-item status update. Only the fields
// relevant to the Kind are set: Speed/TotalSize for downloading,
// Title/Filename/Size for succeeded, Reason for failed.
type ProgressEvent struct {
	Kind      EventKind `json:"kind"`
	Percent   int       `json:"percent"`
	Speed     string    `json:"speed,omitempty"`
	TotalSize string    `json:"totalSize,omitempty"`
	Title     string    `json:"title,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Size      int64     `json:"size,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (e ProgressEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(e.Kind)),
		slog.Int("percent", e.Percent),
		slog.String("speed", e.Speed),
		slog.String("total_size", e.TotalSize),
		slog.String("title", e.Title),
		slog.String("filename", e.Filename),
		slog.Int64("size", e.Size),
		slog.String("reason", e.Reason),
	)
}

// RejectedLine records one input line that failed validation, with a
// human-readable reason. Blank lines are discarded silently and never appear
// here.
type RejectedLine struct {
	Line   string `json:"line"`
	Reason string `json:"reason"`
}

// ItemOutcome is the terminal record for one validated URL. Audio holds the
// full artifact bytes; once the outcome exists the workspace copy is gone.
type ItemOutcome struct {
	SourceURL string     `json:"sourceUrl"`
	Status    ItemStatus `json:"status"`
	Title     string     `json:"title,omitempty"`
	Filename  string     `json:"filename,omitempty"`
	Audio     []byte     `json:"-"`
	Reason    string     `json:"reason,omitempty"`
}

// Succeeded reports whether the item produced an artifact.
func (o ItemOutcome) Succeeded() bool {
	return o.Status == ItemStatusSucceeded
}

// LogValue implements the slog.LogValuer interface for structured logging.
// Artifact bytes are elided.
func (o ItemOutcome) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source_url", o.SourceURL),
		slog.String("status", string(o.Status)),
		slog.String("title", o.Title),
		slog.String("filename", o.Filename),
		slog.Int("audio_bytes", len(o.Audio)),
		slog.String("reason", o.Reason),
	)
}

// BatchResult is the ordered aggregation of a batch run: one outcome per
// validated URL, in input order, plus the lines that were rejected.
type BatchResult struct {
	Outcomes []ItemOutcome  `json:"outcomes"`
	Rejected []RejectedLine `json:"rejected,omitempty"`
}

// AllFailed reports whether no item of the batch produced an artifact.
// A batch with any success counts as completed; partial success is not a
// distinct status.
func (r *BatchResult) AllFailed() bool {
	for _, out := range r.Outcomes {
		if out.Succeeded() {
			return false
		}
	}

	return true
}

// Item is the stored, pollable view of one in-flight or finished item.
type Item struct {
	Index     int        `json:"index"`
	SourceURL string     `json:"sourceUrl"`
	Status    ItemStatus `json:"status"`
	Progress  int        `json:"progress"`
	Title     string     `json:"title,omitempty"`
	Filename  string     `json:"filename,omitempty"`
	Size      int64      `json:"size,omitempty"`
	Speed     string     `json:"speed,omitempty"`
	TotalSize string     `json:"totalSize,omitempty"`
	Error     string     `json:"error,omitempty"`

	Audio []byte `json:"-"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (i Item) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("index", i.Index),
		slog.String("source_url", i.SourceURL),
		slog.String("status", string(i.Status)),
		slog.Int("progress", i.Progress),
		slog.String("title", i.Title),
		slog.String("filename", i.Filename),
		slog.Int64("size", i.Size),
		slog.String("error", i.Error),
	)
}

// Batch represents one submitted batch and its per-item state.
type Batch struct {
	ID        string         `json:"id"`
	Status    BatchStatus    `json:"status"`
	Items     []*Item        `json:"items"`
	Rejected  []RejectedLine `json:"rejected,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (b Batch) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", b.ID),
		slog.String("status", string(b.Status)),
		slog.Int("items", len(b.Items)),
		slog.Int("rejected", len(b.Rejected)),
		slog.String("error", b.Error),
	)
}
