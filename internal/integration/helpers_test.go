//go:build integration
// +build integration

package integration_test

import (
	_ "embed"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"otodake/internal/config"
	"otodake/internal/depmanager"
	"otodake/internal/downloader"
	"otodake/internal/observability"
	"otodake/internal/pipeline"
	"otodake/internal/storage"
	"otodake/internal/workspace"
)

//go:embed testdata/fake-ytdlp.sh
var fakeYTDLPScript string

type ytdlpFixture struct {
	cfg        *config.Config
	metrics    *observability.Metrics
	storer     storage.Storer
	runner     *pipeline.Runner
	downloader downloader.Downloader
	scratchDir string
}

func newYTdlpFixture(t *testing.T, mode string) *ytdlpFixture {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp helper uses shell script")
	}

	baseDir := t.TempDir()
	binsDir := filepath.Join(baseDir, "bins")
	scratchDir := filepath.Join(baseDir, "scratch")
	cacheDir := filepath.Join(baseDir, "cache")

	for _, dir := range []string{binsDir, scratchDir, cacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	cfg.DepManager.BinsDir = binsDir
	cfg.Dir.Scratch = scratchDir
	cfg.Dir.Cache = cacheDir
	cfg.Dir.CookieFile = ""
	cfg.Batch.Workers = 1
	cfg.Batch.Timeout = 10 * time.Second
	cfg.Batch.QueueSize = 4
	cfg.Storage.TTL = time.Hour
	cfg.Storage.CleanupInterval = time.Hour

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.New()
	depMgr := depmanager.New(log, cfg)
	storer := storage.New(t.Context(), log, cfg, metrics)

	fakeBinaryPath := depMgr.GetBinaryPath(depmanager.BinaryYTdlp)
	if err := os.WriteFile(fakeBinaryPath, []byte(fakeYTDLPScript), 0o755); err != nil {
		t.Fatalf("write fake yt-dlp: %v", err)
	}

	t.Setenv("OTODAKE_FAKE_MODE", mode)

	dl := downloader.NewYTdlp(log, cfg, depMgr)

	ws, err := workspace.New(log, scratchDir)
	if err != nil {
		t.Fatalf("workspace new: %v", err)
	}

	return &ytdlpFixture{
		cfg:        cfg,
		metrics:    metrics,
		storer:     storer,
		runner:     pipeline.New(log, ws, dl, metrics),
		downloader: dl,
		scratchDir: scratchDir,
	}
}
