package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"otodake/internal/consts"
	"otodake/internal/downloader"
	"otodake/internal/entity"
	"otodake/internal/errs"
	"otodake/internal/observability"
	"otodake/internal/pipeline"
	"otodake/internal/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// fakeDownloader scripts per-URL behavior for pipeline tests.
type fakeDownloader struct {
	probeErr   error
	fetchErr   map[string]error
	ext        string // artifact extension, "mp3" unless set
	noPath     bool   // report an empty filepath
	panicOn    string // URL whose Fetch panics
	updates    []downloader.Update
	cancelAll  context.CancelFunc // cancel the run context during the first Fetch
	fetchCalls []string
}

func (f *fakeDownloader) Probe(_ context.Context, url string) (*downloader.Metadata, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}

	return &downloader.Metadata{Title: "Probed " + url}, nil
}

func (f *fakeDownloader) Fetch(ctx context.Context, url, destDir string, fn downloader.ProgressFunc) (*downloader.Result, error) {
	f.fetchCalls = append(f.fetchCalls, url)

	if f.panicOn == url {
		panic("fake downloader exploded")
	}

	if err := f.fetchErr[url]; err != nil {
		return nil, err
	}

	for _, u := range f.updates {
		if fn != nil {
			fn(u)
		}
	}

	if fn != nil {
		fn(downloader.Update{Status: downloader.StatusFinished})
	}

	if f.cancelAll != nil {
		f.cancelAll()
		f.cancelAll = nil
	}

	ext := f.ext
	if ext == "" {
		ext = "mp3"
	}

	title := "Fetched " + url

	if f.noPath {
		return &downloader.Result{Title: title, Ext: ext}, nil
	}

	path := filepath.Join(destDir, fmt.Sprintf("artifact-%d.%s", len(f.fetchCalls), ext))
	if err := os.WriteFile(path, []byte("audio bytes for "+url), 0o644); err != nil {
		return nil, err
	}

	return &downloader.Result{Title: title, Filepath: path, Ext: ext}, nil
}

// recordingSink captures the full event stream of a run.
type recordingSink struct {
	accepted []string
	rejected []entity.RejectedLine
	progress map[int][]entity.ProgressEvent
	outcomes []entity.ItemOutcome
}

func newRecordingSink() *recordingSink {
	return &recordingSink{progress: make(map[int][]entity.ProgressEvent)}
}

func (s *recordingSink) Validated(_ context.Context, accepted []string, rejected []entity.RejectedLine) {
	s.accepted = accepted
	s.rejected = rejected
}

func (s *recordingSink) Progress(_ context.Context, index int, ev entity.ProgressEvent) {
	s.progress[index] = append(s.progress[index], ev)
}

func (s *recordingSink) Outcome(_ context.Context, _ int, out entity.ItemOutcome) {
	s.outcomes = append(s.outcomes, out)
}

func newRunner(t *testing.T, dl downloader.Downloader) (*pipeline.Runner, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "scratch")

	ws, err := workspace.New(testLogger(), root)
	if err != nil {
		t.Fatalf("workspace.New() failed: %v", err)
	}

	return pipeline.New(testLogger(), ws, dl, observability.New()), root
}

func scratchEntries(t *testing.T, root string) int {
	t.Helper()

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}

	return len(entries)
}

func TestSplitInput(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantAccepted int
		wantRejected int
	}{
		{
			name:         "mixed input",
			raw:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ\nnot a url\nhttps://youtu.be/abcdefghijk",
			wantAccepted: 2,
			wantRejected: 1,
		},
		{
			name:         "blank lines discarded silently",
			raw:          "\n\n  \nhttps://youtu.be/abcdefghijk\n\n",
			wantAccepted: 1,
			wantRejected: 0,
		},
		{
			name:         "only whitespace",
			raw:          "   \n\t\n",
			wantAccepted: 0,
			wantRejected: 0,
		},
		{
			name:         "windows line endings",
			raw:          "https://youtu.be/abcdefghijk\r\nhttps://youtu.be/dQw4w9WgXcQ\r\n",
			wantAccepted: 2,
			wantRejected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, rejected := pipeline.SplitInput(tt.raw)

			if len(accepted) != tt.wantAccepted {
				t.Errorf("accepted = %d, want %d", len(accepted), tt.wantAccepted)
			}

			if len(rejected) != tt.wantRejected {
				t.Errorf("rejected = %d, want %d", len(rejected), tt.wantRejected)
			}

			for _, rej := range rejected {
				if rej.Reason != consts.ReasonNotSingleVideo {
					t.Errorf("rejection reason = %q, want %q", rej.Reason, consts.ReasonNotSingleVideo)
				}
			}
		})
	}
}

func TestRunOrderAndCounts(t *testing.T) {
	dl := &fakeDownloader{}
	runner, root := newRunner(t, dl)
	sink := newRecordingSink()

	raw := "https://www.youtube.com/watch?v=dQw4w9WgXcQ\nnot a url\nhttps://youtu.be/abcdefghijk"

	result, err := runner.Run(t.Context(), raw, sink)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}

	if result.Outcomes[0].SourceURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("outcome 0 out of order: %s", result.Outcomes[0].SourceURL)
	}

	if result.Outcomes[1].SourceURL != "https://youtu.be/abcdefghijk" {
		t.Errorf("outcome 1 out of order: %s", result.Outcomes[1].SourceURL)
	}

	if len(result.Rejected) != 1 || result.Rejected[0].Reason != consts.ReasonNotSingleVideo {
		t.Errorf("unexpected rejections: %+v", result.Rejected)
	}

	for _, out := range result.Outcomes {
		if !out.Succeeded() {
			t.Errorf("expected success for %s, got %q (%s)", out.SourceURL, out.Status, out.Reason)
		}

		if len(out.Audio) == 0 {
			t.Errorf("expected audio bytes for %s", out.SourceURL)
		}
	}

	if len(sink.outcomes) != 2 {
		t.Errorf("expected 2 outcome events, got %d", len(sink.outcomes))
	}

	if got := scratchEntries(t, root); got != 0 {
		t.Errorf("expected workspace cleanup, found %d leftover dirs", got)
	}
}

func TestRunEmptyInput(t *testing.T) {
	runner, root := newRunner(t, &fakeDownloader{})

	_, err := runner.Run(t.Context(), "   \n\n\t\n", pipeline.NopSink{})
	if !errors.Is(err, errs.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	if got := scratchEntries(t, root); got != 0 {
		t.Errorf("expected no workspace for empty input, found %d dirs", got)
	}
}

func TestRunNoValidInput(t *testing.T) {
	dl := &fakeDownloader{}
	runner, root := newRunner(t, dl)
	sink := newRecordingSink()

	_, err := runner.Run(t.Context(), "not a url\nalso not one", sink)
	if !errors.Is(err, errs.ErrNoValidInput) {
		t.Fatalf("expected ErrNoValidInput, got %v", err)
	}

	if len(sink.rejected) != 2 {
		t.Errorf("expected 2 rejections reported, got %d", len(sink.rejected))
	}

	if len(dl.fetchCalls) != 0 {
		t.Errorf("expected no fetches, got %d", len(dl.fetchCalls))
	}

	if got := scratchEntries(t, root); got != 0 {
		t.Errorf("expected no workspace created, found %d dirs", got)
	}
}

func TestWrongExtensionIsFailureWithDiagnostic(t *testing.T) {
	dl := &fakeDownloader{ext: "wav"}
	runner, _ := newRunner(t, dl)

	raw := "https://youtu.be/abcdefghijk\nhttps://youtu.be/dQw4w9WgXcQ"

	result, err := runner.Run(t.Context(), raw, pipeline.NopSink{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}

	for _, out := range result.Outcomes {
		if out.Succeeded() {
			t.Errorf("expected failure for %s", out.SourceURL)
		}

		if !strings.Contains(out.Reason, "mp3: false") {
			t.Errorf("expected extension diagnostic in reason, got %q", out.Reason)
		}

		if !strings.Contains(out.Reason, "exists: true") {
			t.Errorf("expected existence diagnostic in reason, got %q", out.Reason)
		}
	}

	// the second item was still processed
	if len(dl.fetchCalls) != 2 {
		t.Errorf("expected 2 fetches, got %d", len(dl.fetchCalls))
	}
}

func TestMissingPathIsFailureWithDiagnostic(t *testing.T) {
	dl := &fakeDownloader{noPath: true}
	runner, _ := newRunner(t, dl)

	result, err := runner.Run(t.Context(), "https://youtu.be/abcdefghijk", pipeline.NopSink{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	out := result.Outcomes[0]
	if out.Succeeded() {
		t.Fatal("expected failure")
	}

	if !strings.Contains(out.Reason, `reported path: ""`) {
		t.Errorf("expected path diagnostic, got %q", out.Reason)
	}
}

func TestProbeFailureFallsBackToDownload(t *testing.T) {
	dl := &fakeDownloader{probeErr: errors.New("geoblocked probe")}
	runner, _ := newRunner(t, dl)
	sink := newRecordingSink()

	result, err := runner.Run(t.Context(), "https://youtu.be/abcdefghijk", sink)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	out := result.Outcomes[0]
	if !out.Succeeded() {
		t.Fatalf("expected success despite probe failure, got %q", out.Reason)
	}

	// title recovered from the full download call
	if out.Title != "Fetched https://youtu.be/abcdefghijk" {
		t.Errorf("unexpected title %q", out.Title)
	}

	// the first fetching event used the placeholder derived from the id
	first := sink.progress[0][0]
	if first.Title != "Video abcdefghijk" {
		t.Errorf("expected placeholder title in first event, got %q", first.Title)
	}
}

func TestFetchFailureDoesNotAbortBatch(t *testing.T) {
	bad := "https://youtu.be/badbadbad-1"
	good := "https://youtu.be/abcdefghijk"

	dl := &fakeDownloader{fetchErr: map[string]error{
		bad: fmt.Errorf("%w: HTTP 403", errs.ErrDownloadFailed),
	}}
	runner, _ := newRunner(t, dl)

	result, err := runner.Run(t.Context(), bad+"\n"+good, pipeline.NopSink{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}

	if result.Outcomes[0].Succeeded() {
		t.Error("expected first item to fail")
	}

	if !result.Outcomes[1].Succeeded() {
		t.Errorf("expected second item to succeed, got %q", result.Outcomes[1].Reason)
	}

	if result.AllFailed() {
		t.Error("partial success must not count as fully failed")
	}
}

func TestErrorMessageTruncated(t *testing.T) {
	long := fmt.Errorf("%w: %s", errs.ErrDownloadFailed, strings.Repeat("y", 1000))
	dl := &fakeDownloader{fetchErr: map[string]error{"https://youtu.be/abcdefghijk": long}}
	runner, _ := newRunner(t, dl)

	result, err := runner.Run(t.Context(), "https://youtu.be/abcdefghijk", pipeline.NopSink{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if got := len(result.Outcomes[0].Reason); got > consts.MaxErrorLen {
		t.Errorf("reason length = %d, want <= %d", got, consts.MaxErrorLen)
	}
}

func TestPanicRecoveredAtItemBoundary(t *testing.T) {
	boom := "https://youtu.be/panicpanic1"
	good := "https://youtu.be/abcdefghijk"

	dl := &fakeDownloader{panicOn: boom}
	runner, _ := newRunner(t, dl)

	result, err := runner.Run(t.Context(), boom+"\n"+good, pipeline.NopSink{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if result.Outcomes[0].Succeeded() {
		t.Error("expected panicking item to fail")
	}

	if !strings.Contains(result.Outcomes[0].Reason, "unexpected error") {
		t.Errorf("expected unexpected-error reason, got %q", result.Outcomes[0].Reason)
	}

	if !result.Outcomes[1].Succeeded() {
		t.Errorf("expected batch to continue past panic, got %q", result.Outcomes[1].Reason)
	}
}

func TestCancellationBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	dl := &fakeDownloader{cancelAll: cancel}
	runner, root := newRunner(t, dl)

	raw := "https://youtu.be/abcdefghijk\nhttps://youtu.be/dQw4w9WgXcQ\nhttps://youtu.be/zyxwvutsrq9"

	result, err := runner.Run(ctx, raw, pipeline.NopSink{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	// one outcome per accepted URL, even after cancellation
	if len(result.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
	}

	if !result.Outcomes[0].Succeeded() {
		t.Errorf("expected first item to finish before cancel, got %q", result.Outcomes[0].Reason)
	}

	for _, out := range result.Outcomes[1:] {
		if out.Succeeded() {
			t.Errorf("expected canceled failure for %s", out.SourceURL)
		}
	}

	// only the first item ever reached the downloader
	if len(dl.fetchCalls) != 1 {
		t.Errorf("expected 1 fetch, got %d", len(dl.fetchCalls))
	}

	if got := scratchEntries(t, root); got != 0 {
		t.Errorf("expected workspace cleanup after cancel, found %d dirs", got)
	}
}

func TestProgressMonotonicPerItem(t *testing.T) {
	// the collaborator reports out of order; per-item reporting must not
	// move backwards
	dl := &fakeDownloader{updates: []downloader.Update{
		{Status: downloader.StatusDownloading, Percent: 50},
		{Status: downloader.StatusDownloading, Percent: 30},
		{Status: downloader.StatusDownloading, Percent: 80},
	}}
	runner, _ := newRunner(t, dl)
	sink := newRecordingSink()

	_, err := runner.Run(t.Context(), "https://youtu.be/abcdefghijk", sink)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	events := sink.progress[0]
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}

	prev := -1
	for _, ev := range events {
		if ev.Percent < prev {
			t.Fatalf("progress went backwards: %d after %d", ev.Percent, prev)
		}
		prev = ev.Percent
	}

	last := events[len(events)-1]
	if last.Kind != entity.EventSucceeded || last.Percent != consts.ProgressDone {
		t.Errorf("expected terminal succeeded event at 100, got %+v", last)
	}
}
