package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"otodake/internal/consts"
	"otodake/pkg/calc"
	"otodake/pkg/urls"
)

// mock simulates a download and writes a small placeholder artifact, so the
// whole pipeline can run without network or external binaries.
type mock struct {
	log      *slog.Logger
	simTime  time.Duration
	simSteps int
}

// NewMock creates a mock downloader.
func NewMock(log *slog.Logger) Downloader {
	return &mock{
		log:      log.With(slog.String("package", "downloader"), slog.String("downloader", consts.DownloaderMock)),
		simTime:  consts.DefaultSimulateTime,
		simSteps: 10,
	}
}

func (m *mock) Probe(_ context.Context, url string) (*Metadata, error) {
	id, ok := urls.VideoID(url)
	if !ok {
		return nil, fmt.Errorf("mock probe: no video id in %q", url)
	}

	return &Metadata{Title: "Mock " + id}, nil
}

func (m *mock) Fetch(ctx context.Context, url, destDir string, fn ProgressFunc) (*Result, error) {
	meta, err := m.Probe(ctx, url)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(m.simTime / time.Duration(m.simSteps))
	defer ticker.Stop()

	for step := 0; step <= m.simSteps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if fn != nil {
				// round-trip through the textual form yt-dlp emits
				percent := fmt.Sprintf("%d.0%%", step*100/m.simSteps)

				fn(Update{
					Status:    StatusDownloading,
					Percent:   calc.ParsePercent(percent),
					TotalSize: "1.00MiB",
					Speed:     "1.00MiB/s",
				})
			}
		}
	}

	if fn != nil {
		fn(Update{Status: StatusFinished})
	}

	path := filepath.Join(destDir, meta.Title+consts.ArtifactExt)
	if err := os.WriteFile(path, []byte("ID3 mock audio payload"), 0o644); err != nil {
		return nil, fmt.Errorf("mock fetch write: %w", err)
	}

	m.log.DebugContext(ctx, "mock fetch done", slog.String("path", path))

	return &Result{Title: meta.Title, Filepath: path, Ext: "mp3"}, nil
}
