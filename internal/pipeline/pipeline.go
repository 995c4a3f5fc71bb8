// Package pipeline implements the per-URL batch processing pipeline:
// validation, sequential per-item processing with progress reporting,
// workspace lifecycle, and result aggregation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"otodake/internal/consts"
	"otodake/internal/downloader"
	"otodake/internal/entity"
	"otodake/internal/errs"
	"otodake/internal/observability"
	"otodake/internal/workspace"
	"otodake/pkg/calc"
	"otodake/pkg/urls"
)

// Runner drives one batch of URLs through the download/transcode pipeline.
type Runner struct {
	log     *slog.Logger
	ws      *workspace.Manager
	dl      downloader.Downloader
	metrics *observability.Metrics
}

// New creates a batch Runner.
func New(log *slog.Logger, ws *workspace.Manager, dl downloader.Downloader, metrics *observability.Metrics) *Runner {
	return &Runner{
		log:     log.With(slog.String("package", "pipeline")),
		ws:      ws,
		dl:      dl,
		metrics: metrics,
	}
}

// SplitInput splits raw multi-line text into accepted single-video URLs and
// rejected lines. Blank lines are discarded silently and count as neither.
func SplitInput(raw string) (accepted []string, rejected []entity.RejectedLine) {
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if urls.IsSingleVideo(line) {
			accepted = append(accepted, line)
		} else {
			rejected = append(rejected, entity.RejectedLine{Line: line, Reason: consts.ReasonNotSingleVideo})
		}
	}

	return accepted, rejected
}

// Run processes rawText as one batch: validate, acquire a workspace, process
// each accepted URL sequentially in input order, release the workspace, and
// return one outcome per accepted URL.
//
// Only three errors abort a batch, all before any item is processed: empty
// input, zero accepted URLs, and workspace acquisition failure. Everything
// that goes wrong inside an item becomes that item's Failure outcome.
func (r *Runner) Run(ctx context.Context, rawText string, sink Sink) (*entity.BatchResult, error) {
	log := r.log

	accepted, rejected := SplitInput(rawText)
	sink.Validated(ctx, accepted, rejected)

	if len(accepted) == 0 && len(rejected) == 0 {
		return nil, errs.ErrEmptyInput
	}

	if len(accepted) == 0 {
		return nil, errs.ErrNoValidInput
	}

	ws, err := r.ws.Acquire()
	if err != nil {
		return nil, err
	}
	// release runs even if an item panics; cleanup failure is a warning
	// inside Release and never reaches the result
	defer ws.Release(ctx)

	result := &entity.BatchResult{
		Outcomes: make([]entity.ItemOutcome, 0, len(accepted)),
		Rejected: rejected,
	}

	for index, url := range accepted {
		var outcome entity.ItemOutcome

		// one outcome per accepted URL, even after cancellation
		if err := ctx.Err(); err != nil {
			outcome = entity.ItemOutcome{
				SourceURL: url,
				Status:    entity.ItemStatusFailed,
				Reason:    downloader.TruncateError(err.Error(), consts.MaxErrorLen),
			}
			r.metrics.RecordItemFailed(downloader.ClassifyError(err))
		} else {
			outcome = r.processItem(ctx, index, url, ws.Path(), sink)
		}

		sink.Outcome(ctx, index, outcome)
		result.Outcomes = append(result.Outcomes, outcome)

		log.InfoContext(ctx, "item finished", "outcome", outcome)
	}

	return result, nil
}

// processItem drives one URL through metadata probe, download+transcode, and
// artifact resolution. It never returns an error: every failure mode ends as
// a Failure outcome, and a panic is recovered at this boundary.
func (r *Runner) processItem(ctx context.Context, index int, url, dir string, sink Sink) (outcome entity.ItemOutcome) {
	log := r.log.With(slog.Int("index", index), slog.String("url", url))

	// per-item progress floor: reporting is monotonic within an item even
	// when the collaborator's ticks are not
	floor := 0
	emit := func(ev entity.ProgressEvent) {
		if ev.Percent < floor {
			ev.Percent = floor
		} else {
			floor = ev.Percent
		}

		sink.Progress(ctx, index, ev)
	}

	done := r.metrics.ItemTimer()
	defer done()

	defer func() {
		if rec := recover(); rec != nil {
			reason := downloader.TruncateError(fmt.Sprintf("unexpected error: %v", rec), consts.MaxErrorLen)
			log.ErrorContext(ctx, "item panicked", slog.Any("panic", rec))
			r.metrics.RecordItemFailed("unexpected")

			emit(entity.ProgressEvent{Kind: entity.EventFailed, Percent: consts.ProgressDone, Reason: reason})

			outcome = entity.ItemOutcome{SourceURL: url, Status: entity.ItemStatusFailed, Reason: reason}
		}
	}()

	title := placeholderTitle(url)

	emit(entity.ProgressEvent{Kind: entity.EventFetching, Percent: consts.ProgressProbe, Title: title})

	meta, err := r.dl.Probe(ctx, url)
	if err != nil {
		// advisory only: the full download can succeed where the probe
		// failed (redirects, geo quirks), so keep going with a placeholder
		log.WarnContext(ctx, "metadata probe failed, proceeding with download attempt",
			slog.String("error", downloader.TruncateError(err.Error(), consts.MaxProbeErrorLen)))
	} else if meta.Title != "" {
		title = meta.Title
	}

	emit(entity.ProgressEvent{Kind: entity.EventFetching, Percent: consts.ProgressMetadataDone, Title: title})

	res, err := r.dl.Fetch(ctx, url, dir, func(u downloader.Update) {
		switch u.Status {
		case downloader.StatusFinished:
			emit(entity.ProgressEvent{Kind: entity.EventConverting, Percent: consts.ProgressConverting, Title: title})
		case downloader.StatusError:
			// generic mid-run signal; the definitive error surfaces from
			// Fetch itself
			log.WarnContext(ctx, "downloader reported a problem, waiting for final status")
		default:
			emit(entity.ProgressEvent{
				Kind:      entity.EventDownloading,
				Percent:   calc.MapToBand(u.Percent, consts.ProgressBandBase, consts.ProgressBandWidth),
				Speed:     u.Speed,
				TotalSize: u.TotalSize,
				Title:     title,
			})
		}
	})
	if err != nil {
		return r.failItem(ctx, emit, url, err)
	}

	// the download-with-metadata title is the more accurate one
	// (e.g. after redirects)
	if res.Title != "" {
		title = res.Title
	}

	audio, filename, reason := resolveArtifact(res.Filepath)
	if reason != "" {
		log.ErrorContext(ctx, "artifact resolution failed", slog.String("reason", reason))
		r.metrics.RecordItemFailed("artifact")

		emit(entity.ProgressEvent{Kind: entity.EventFailed, Percent: consts.ProgressDone, Reason: reason})

		return entity.ItemOutcome{SourceURL: url, Status: entity.ItemStatusFailed, Title: title, Reason: reason}
	}

	emit(entity.ProgressEvent{Kind: entity.EventFetching, Percent: consts.ProgressArtifact, Title: title})

	r.metrics.RecordItemSucceeded(len(audio))

	emit(entity.ProgressEvent{
		Kind:     entity.EventSucceeded,
		Percent:  consts.ProgressDone,
		Title:    title,
		Filename: filename,
		Size:     int64(len(audio)),
	})

	return entity.ItemOutcome{
		SourceURL: url,
		Status:    entity.ItemStatusSucceeded,
		Title:     title,
		Filename:  filename,
		Audio:     audio,
	}
}

func (r *Runner) failItem(ctx context.Context, emit func(entity.ProgressEvent), url string, err error) entity.ItemOutcome {
	class := downloader.ClassifyError(err)
	reason := downloader.TruncateError(err.Error(), consts.MaxErrorLen)

	r.log.ErrorContext(ctx, "item failed",
		slog.String("url", url),
		slog.String("class", class),
		slog.String("reason", reason))
	r.metrics.RecordItemFailed(class)

	emit(entity.ProgressEvent{Kind: entity.EventFailed, Percent: consts.ProgressDone, Reason: reason})

	return entity.ItemOutcome{SourceURL: url, Status: entity.ItemStatusFailed, Reason: reason}
}

// resolveArtifact validates the reported path (present, exists on disk,
// .mp3 extension), reads the artifact into memory, and deletes the on-disk
// copy so the workspace never holds more than one artifact at a time. A
// non-empty reason carries the diagnostic triple on any failed condition.
func resolveArtifact(path string) (audio []byte, filename, reason string) {
	exists := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			exists = true
		}
	}

	isMP3 := strings.EqualFold(filepath.Ext(path), consts.ArtifactExt)

	if path == "" || !exists || !isMP3 {
		return nil, "", fmt.Sprintf(
			"conversion failed or MP3 not found (reported path: %q, exists: %t, mp3: %t)",
			path, exists, isMP3)
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Sprintf("read artifact %q: %v", path, err)
	}

	// the in-memory bytes are now the sole copy
	_ = os.Remove(path)

	return audio, filepath.Base(path), ""
}

// placeholderTitle derives a display title from the URL's video identifier,
// used until real metadata arrives.
func placeholderTitle(url string) string {
	if id, ok := urls.VideoID(url); ok {
		return "Video " + id
	}

	return "Video from " + url
}
