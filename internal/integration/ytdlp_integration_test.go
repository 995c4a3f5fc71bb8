//go:build integration
// +build integration

package integration_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"otodake/internal/entity"
	"otodake/internal/errs"
	"otodake/internal/pipeline"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestYTdlpProbe(t *testing.T) {
	fx := newYTdlpFixture(t, "success")

	meta, err := fx.downloader.Probe(t.Context(), testVideoURL)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}

	if meta.Title != "Fake Song" {
		t.Errorf("title = %q, want %q", meta.Title, "Fake Song")
	}
}

func TestYTdlpFetch(t *testing.T) {
	fx := newYTdlpFixture(t, "success")

	destDir := t.TempDir()

	res, err := fx.downloader.Fetch(t.Context(), testVideoURL, destDir, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if res.Title != "Fake Song" {
		t.Errorf("title = %q, want %q", res.Title, "Fake Song")
	}

	if res.Ext != "mp3" {
		t.Errorf("ext = %q, want mp3", res.Ext)
	}

	data, err := os.ReadFile(res.Filepath)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	if string(data) != "fake mp3 bytes" {
		t.Errorf("artifact content = %q", data)
	}
}

func TestYTdlpFetchError(t *testing.T) {
	fx := newYTdlpFixture(t, "error")

	_, err := fx.downloader.Fetch(t.Context(), testVideoURL, t.TempDir(), nil)
	if !errors.Is(err, errs.ErrDownloadFailed) {
		t.Fatalf("got %v, want %v", err, errs.ErrDownloadFailed)
	}
}

func TestPipelineRunWithFakeYTdlp(t *testing.T) {
	fx := newYTdlpFixture(t, "success")

	result, err := fx.runner.Run(t.Context(), testVideoURL, pipeline.NopSink{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(result.Outcomes))
	}

	out := result.Outcomes[0]
	if out.Status != entity.ItemStatusSucceeded {
		t.Fatalf("status = %s, reason %q", out.Status, out.Reason)
	}

	if len(out.Audio) == 0 {
		t.Error("audio bytes are empty")
	}

	if !strings.HasSuffix(out.Filename, ".mp3") {
		t.Errorf("filename %q is not an mp3", out.Filename)
	}

	// per-batch scratch directory is removed after the run
	entries, err := os.ReadDir(fx.scratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("scratch dir not cleaned, %d entries left", len(entries))
	}
}

func TestPipelineRunNoArtifact(t *testing.T) {
	fx := newYTdlpFixture(t, "no-artifact")

	result, err := fx.runner.Run(t.Context(), testVideoURL, pipeline.NopSink{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(result.Outcomes))
	}

	out := result.Outcomes[0]
	if out.Status != entity.ItemStatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}

	if !strings.Contains(out.Reason, "exists: false") {
		t.Errorf("reason %q lacks existence diagnostic", out.Reason)
	}
}
