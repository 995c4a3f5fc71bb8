package downloader

import (
	"fmt"
	"log/slog"

	"github.com/lrstanley/go-ytdlp"

	"otodake/pkg/calc"
)

// Result wraps ytdlp.Result for custom logging.
type runResult struct {
	*ytdlp.Result
}

// LogValue implements the slog.LogValuer interface for custom logging.
func (r runResult) LogValue() slog.Value {
	if r.Result == nil {
		return slog.GroupValue(slog.String("error", "nil result"))
	}

	var outputLogs string
	for _, log := range r.OutputLogs {
		outputLogs += fmt.Sprintf("%s\n", log)
	}

	return slog.GroupValue(
		slog.String("executable", r.Executable),
		slog.String("args", fmt.Sprintf("%v", r.Args)),
		slog.String("stdout", r.Stdout),
		slog.String("stderr", r.Stderr),
		slog.String("output_logs", outputLogs),
	)
}

// progressUpdate wraps ytdlp.ProgressUpdate for custom logging.
type progressUpdate struct {
	*ytdlp.ProgressUpdate
}

// LogValue implements the slog.LogValuer interface for custom logging.
func (p progressUpdate) LogValue() slog.Value {
	if p.ProgressUpdate == nil {
		return slog.GroupValue(slog.String("error", "nil progress update"))
	}

	return slog.GroupValue(
		slog.String("filename", p.Filename),
		slog.String("status", fmt.Sprintf("%v", p.Status)),
		slog.Int("downloaded_bytes", p.DownloadedBytes),
		slog.Int("total_bytes", p.TotalBytes),
		slog.Int("progress", calc.Progress(p.DownloadedBytes, p.TotalBytes)),
		slog.Time("started", p.Started),
		slog.String("eta", calc.ETA(p.DownloadedBytes, p.TotalBytes, p.Started).String()),
	)
}

// fetchJSON is the slice of the yt-dlp JSON output this service reads.
// Playlist expansion is disabled, so at most one of these appears per run.
type fetchJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Ext   string `json:"ext"`
}
