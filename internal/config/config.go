// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	HTTP       HTTP
	App        App
	Batch      Batch
	Dir        Dir
	Storage    Storage
	DepManager DepManager
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"OTODAKE_APP_LOG_LEVEL" envDefault:"info"`
	// Downloader selects the downloader implementation: "ytdlp" or "mock".
	Downloader string `env:"OTODAKE_APP_DOWNLOADER" envDefault:"ytdlp"`
}

// Batch holds batch processing configuration. Workers bounds how many
// batches run concurrently; items within one batch are always sequential.
type Batch struct {
	Workers   int           `env:"OTODAKE_BATCH_WORKERS"    envDefault:"2"`
	Timeout   time.Duration `env:"OTODAKE_BATCH_TIMEOUT"    envDefault:"30m"`
	QueueSize int           `env:"OTODAKE_BATCH_QUEUE_SIZE" envDefault:"50"`
}

// Storage holds in-memory result retention configuration.
type Storage struct {
	TTL             time.Duration `env:"OTODAKE_STORAGE_TTL"              envDefault:"1h"`
	CleanupInterval time.Duration `env:"OTODAKE_STORAGE_CLEANUP_INTERVAL" envDefault:"10m"`
}

// HTTP holds HTTP server configuration.
type HTTP struct {
	Port            string        `env:"OTODAKE_HTTP_PORT"             envDefault:":8080"`
	HandlerTimeout  time.Duration `env:"OTODAKE_HTTP_HANDLER_TIMEOUT"  envDefault:"20s"`
	ShutdownTimeout time.Duration `env:"OTODAKE_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Dir holds directory paths for scratch space, cache, and cookie file.
type Dir struct {
	// Scratch is the base root under which each batch acquires its own
	// uniquely named workspace. Created at startup; creation failure is fatal.
	Scratch string `env:"OTODAKE_DIR_SCRATCH" envDefault:"./data/scratch"`
	// Cache is handed to yt-dlp for metadata and signature caching.
	Cache string `env:"OTODAKE_DIR_CACHE" envDefault:"./data/cache"`

	// must contain cookies.txt file
	// see: https://github.com/yt-dlp/yt-dlp/wiki/FAQ#how-do-i-pass-cookies-to-yt-dlp
	CookieFile string `env:"OTODAKE_DIR_COOKIE_FILE" envDefault:""`
}

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Scratch, err = filepath.Abs(c.Scratch); err != nil {
		return fmt.Errorf("scratch: %w", err)
	}

	if c.Cache, err = filepath.Abs(c.Cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	if c.CookieFile != "" {
		if c.CookieFile, err = filepath.Abs(c.CookieFile); err != nil {
			return fmt.Errorf("cookie file: %w", err)
		}
	}

	return nil
}

// DepManager holds binary dependency management configuration. The tool
// location is a deployment concern: point BinsDir at provisioned binaries,
// flip UseSystemBinaries to resolve from PATH, or let the manager download
// pinned builds.
type DepManager struct {
	// BinsDir is the directory where downloaded binaries are stored.
	BinsDir string `env:"OTODAKE_DEPMANAGER_BINS_DIR" envDefault:"./bins"`
	// UseSystemBinaries resolves yt-dlp and ffmpeg from PATH instead of
	// downloading them.
	UseSystemBinaries bool `env:"OTODAKE_DEPMANAGER_USE_SYSTEM_BINARIES" envDefault:"false"`
	// UpdateInterval is how often to check for binary updates.
	UpdateInterval time.Duration `env:"OTODAKE_DEPMANAGER_UPDATE_INTERVAL" envDefault:"24h"`

	// ffmpeg binary URLs per platform.
	FFmpegSHA256SumsURL string `env:"OTODAKE_DEPMANAGER_FFMPEG_SHA256SUMS_URL" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/checksums.sha256"`                        //nolint:lll
	FFmpegLinuxARM64    string `env:"OTODAKE_DEPMANAGER_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	FFmpegLinuxAMD64    string `env:"OTODAKE_DEPMANAGER_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll

	// yt-dlp binary URLs per platform.
	YTdlpSHA256SumsURL string `env:"OTODAKE_DEPMANAGER_YTDLP_SHA256SUMS_URL" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/SHA2-256SUMS"`       //nolint:lll
	YTdlpLinuxARM64    string `env:"OTODAKE_DEPMANAGER_YTDLP_LINUX_ARM64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux_aarch64"` //nolint:lll
	YTdlpLinuxAMD64    string `env:"OTODAKE_DEPMANAGER_YTDLP_LINUX_AMD64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux"`         //nolint:lll
}

// SetAbsPaths converts the BinsDir path to an absolute path.
func (d *DepManager) SetAbsPaths() error {
	var err error
	if d.BinsDir, err = filepath.Abs(d.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	return nil
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.DepManager.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set dep manager absolute paths: %w", err)
	}

	return cfg, nil
}
