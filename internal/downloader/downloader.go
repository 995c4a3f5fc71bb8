// Package downloader defines the downloader/transcoder collaborator
// interface and its implementations.
package downloader

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"otodake/internal/errs"
)

const defaultProgressFreq = 200 * time.Millisecond

// Status mirrors the collaborator's progress-callback status values.
type Status string

const (
	// StatusDownloading indicates byte progress on the raw audio stream.
	StatusDownloading Status = "downloading"
	// StatusFinished indicates the raw download completed and MP3
	// postprocessing began.
	StatusFinished Status = "finished"
	// StatusError indicates the collaborator reported a problem mid-run.
	StatusError Status = "error"
)

// Update is one progress tick. Percent and the descriptors are best-effort:
// the collaborator may omit or mangle them and consumers must cope.
type Update struct {
	Status    Status
	Percent   float64
	TotalSize string
	Speed     string
}

// ProgressFunc receives progress ticks during Fetch.
type ProgressFunc func(update Update)

// Metadata is the result of a probe that does not download anything.
type Metadata struct {
	Title string
}

// Result describes the artifact produced by a full fetch.
type Result struct {
	Title    string
	Filepath string
	Ext      string
}

// Downloader hides the external download/transcode tooling behind two calls:
// a metadata-only probe and a download-plus-transcode run into a directory.
type Downloader interface {
	// Probe fetches title metadata without downloading. A probe failure is
	// advisory: a subsequent Fetch can still succeed.
	Probe(ctx context.Context, url string) (*Metadata, error)

	// Fetch downloads the best available audio for url into destDir and
	// transcodes it to MP3, reporting progress through fn (which may be nil).
	Fetch(ctx context.Context, url, destDir string, fn ProgressFunc) (*Result, error)
}

// ClassifyError buckets a per-item processing error for metrics and display.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errs.ErrDownloadFailed):
		return "download"
	default:
		return "unexpected"
	}
}

// TruncateError bounds an error message for display. The cut never splits
// a multi-byte rune, so the result stays valid UTF-8.
func TruncateError(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}

	return msg[:cut]
}
