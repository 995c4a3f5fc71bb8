package downloader

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"otodake/internal/config"
	"otodake/internal/consts"
	"otodake/internal/depmanager"
	"otodake/internal/errs"
	"otodake/pkg/calc"
	"otodake/pkg/ptr"
)

var (
	maxJSONSize = 10 * 1024 * 1024                                       // 10 MiB scanner buffer
	bufSize     = 4096                                                   // 4 KiB buffer size
	reFilepath  = regexp.MustCompile(`(?i)^[^\{\[\n].*\.[a-z0-9]{1,6}$`) // file path

	// changing this may break ParseRunStdout().
	defaultPrintAfterMove = "after_move:filepath"
)

// YTdlp drives yt-dlp (and through it, ffmpeg) for metadata probes and
// audio fetches.
type YTdlp struct {
	log    *slog.Logger
	cfg    *config.Config
	depMgr *depmanager.Manager
}

// NewYTdlp creates a new YTdlp downloader instance. depMgr may be nil, in
// which case the yt-dlp and ffmpeg binaries are resolved from PATH.
func NewYTdlp(log *slog.Logger, cfg *config.Config, depMgr *depmanager.Manager) Downloader {
	return &YTdlp{
		log:    log.With(slog.String("package", "downloader"), slog.String("downloader", consts.DownloaderYTdlp)),
		cfg:    cfg,
		depMgr: depMgr,
	}
}

// newCommand starts a yt-dlp builder pointed at the managed binaries.
func (d *YTdlp) newCommand() *ytdlp.Command {
	command := ytdlp.New().CacheDir(d.cfg.Dir.Cache)

	if d.depMgr != nil {
		binPath := d.depMgr.GetInstalledPath(depmanager.BinaryYTdlp)
		if binPath == "" {
			binPath = d.depMgr.GetBinaryPath(depmanager.BinaryYTdlp)
		}

		command = command.SetExecutable(binPath)

		if ffmpegPath := d.depMgr.GetInstalledPath(depmanager.BinaryFFmpeg); ffmpegPath != "" {
			command = command.FFmpegLocation(filepath.Dir(ffmpegPath))
		}
	}

	return command
}

// Probe fetches title metadata for url without downloading anything.
func (d *YTdlp) Probe(ctx context.Context, url string) (*Metadata, error) {
	command := d.newCommand().
		SkipDownload().
		NoPlaylist().
		Quiet().
		NoWarnings().
		PrintJSON()

	if d.cfg.Dir.CookieFile != "" {
		command = command.Cookies(d.cfg.Dir.CookieFile)
	}

	res, err := command.Run(ctx, url)
	if err != nil {
		d.log.DebugContext(ctx, "ytdlp probe", slog.Any("error", err), slog.Any("result", runResult{res}))

		return nil, fmt.Errorf("ytdlp probe: %w", err)
	}

	info, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("ytdlp probe extracted info: %w", err)
	}

	if len(info) == 0 {
		return nil, fmt.Errorf("ytdlp probe: no metadata for %q", url)
	}

	return &Metadata{Title: ptr.Deref(info[0].Title)}, nil
}

// Fetch downloads the best available audio for url into destDir with an MP3
// postprocessing step at the fixed bitrate, reporting byte progress via fn.
// A playlist URL collapses to its single leading video.
func (d *YTdlp) Fetch(ctx context.Context, url, destDir string, fn ProgressFunc) (*Result, error) {
	log := d.log

	progressFn := func(prog ytdlp.ProgressUpdate) {
		log.DebugContext(ctx, "ytdlp progress", "progress_update", progressUpdate{&prog})

		if fn == nil {
			return
		}

		switch prog.Status {
		case ytdlp.ProgressStatusFinished, ytdlp.ProgressStatusPostProcessing:
			fn(Update{Status: StatusFinished})
		case ytdlp.ProgressStatusError:
			fn(Update{Status: StatusError})
		default:
			fn(Update{
				Status:    StatusDownloading,
				Percent:   float64(calc.Progress(prog.DownloadedBytes, prog.TotalBytes)),
				TotalSize: calc.HumanBytes(int64(prog.TotalBytes)),
				Speed:     calc.Speed(prog.DownloadedBytes, prog.Started),
			})
		}
	}

	command := d.newCommand().
		Format(consts.FormatSelector).
		ExtractAudio().
		AudioFormat(consts.AudioFormat).
		AudioQuality(consts.AudioQuality).
		NoPlaylist().
		Quiet().
		NoWarnings().
		ProgressFunc(defaultProgressFreq, progressFn).
		PrintJSON().Print(defaultPrintAfterMove).
		Output(filepath.Join(destDir, consts.OutputTemplate))

	if d.cfg.Dir.CookieFile != "" {
		command = command.Cookies(d.cfg.Dir.CookieFile)
	}

	res, err := command.Run(ctx, url)
	if err != nil {
		log.ErrorContext(ctx, "ytdlp run", slog.Any("error", err), slog.Any("result", runResult{res}))

		return nil, fmt.Errorf("%w: %w", errs.ErrDownloadFailed, err)
	}

	result := ParseRunStdout(res.Stdout)

	log.DebugContext(ctx, "ytdlp done",
		slog.String("title", result.Title),
		slog.String("filepath", result.Filepath),
		slog.String("ext", result.Ext))

	return result, nil
}

// ParseRunStdout extracts the printed metadata and the after-move file path
// from a yt-dlp run. The stdout interleaves one JSON info line with plain
// lines; the after_move:filepath print is the only reliable source for the
// postprocessed path. Missing pieces stay empty: the caller validates the
// artifact and turns gaps into a diagnostic, not an error here.
func ParseRunStdout(stdout string) *Result {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, bufSize), maxJSONSize)

	res := &Result{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var meta fetchJSON
		if err := json.Unmarshal([]byte(line), &meta); err == nil {
			res.Title = meta.Title
			res.Ext = meta.Ext

			continue
		}

		if reFilepath.MatchString(line) {
			res.Filepath = line
		}
	}

	if res.Filepath != "" {
		// the postprocessed extension wins over the pre-conversion one
		res.Ext = strings.TrimPrefix(filepath.Ext(res.Filepath), ".")
	}

	return res
}
