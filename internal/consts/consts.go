// Package consts defines application-wide constants.
package consts

import "time"

// Fixed downloader/transcoder configuration. The collaborator contract is a
// best-audio selection with a single MP3 postprocessing step.
const (
	// AudioFormat is the target audio container/codec.
	AudioFormat = "mp3"
	// AudioQuality is the fixed MP3 bitrate handed to the postprocessor.
	AudioQuality = "192K"
	// FormatSelector asks for the best available audio-only stream.
	FormatSelector = "bestaudio/best"
	// OutputTemplate names artifacts inside the batch workspace.
	OutputTemplate = "%(title)s.%(ext)s"
	// ArtifactExt is the extension every delivered artifact must carry.
	ArtifactExt = ".mp3"
	// ArtifactMIME is the MIME type artifacts are served with.
	ArtifactMIME = "audio/mpeg"
)

// Per-item progress bands. Metadata fetch owns the first 10%, the byte
// download maps onto 10-80, conversion and artifact finalization own the
// rest.
const (
	ProgressProbe        = 5
	ProgressMetadataDone = 10
	ProgressBandBase     = 10
	ProgressBandWidth    = 70
	ProgressConverting   = 85
	ProgressArtifact     = 95
	ProgressDone         = 100
)

// Error display limits.
const (
	// MaxErrorLen bounds download/conversion error messages shown per item.
	MaxErrorLen = 300
	// MaxProbeErrorLen bounds the advisory metadata-probe warning.
	MaxProbeErrorLen = 100
)

const (
	// DefaultBatchTimeout is the default timeout for one batch run.
	DefaultBatchTimeout = 30 * time.Minute
	// DefaultWorkers is the default number of concurrent batch workers.
	// Items within a batch are always processed sequentially.
	DefaultWorkers = 2
	// DefaultQueueSize is the default size of the batch queue.
	DefaultQueueSize = 50
	// DefaultSimulateTime is the processing time simulated by the mock
	// downloader.
	DefaultSimulateTime = 1 * time.Second
	// DefaultBatchTTL is the default time-to-live for stored batch results.
	DefaultBatchTTL = 1 * time.Hour
)

// HTTP response messages.
const (
	// RespInvalidRequestBody is returned when the request body is invalid.
	RespInvalidRequestBody = "invalid request body"
	// RespNoValidInput is returned when no line of the input is a valid
	// single-video URL.
	RespNoValidInput = "no valid input"
	// RespBatchEnqueued is returned when a batch is accepted.
	RespBatchEnqueued = "batch enqueued"
	// RespBatchEnqueueFail is returned when a batch cannot be enqueued.
	RespBatchEnqueueFail = "batch enqueue failed"
	// RespBatchRetrieved is returned when a batch is successfully retrieved.
	RespBatchRetrieved = "batch retrieved"
	// RespBatchesRetrieved is returned when batches are successfully retrieved.
	RespBatchesRetrieved = "batches retrieved"
	// RespBatchNotFound is returned when a batch is not found.
	RespBatchNotFound = "batch not found"
	// RespNoBatches is returned when there are no batches available.
	RespNoBatches = "no batches"
	// RespQueryParamMissing is returned when a path value is missing or invalid.
	RespQueryParamMissing = "query param missing or invalid"
	// RespArtifactNotFound is returned when an item has no artifact to serve.
	RespArtifactNotFound = "artifact not found"
)

// Downloader identifiers.
const (
	// DownloaderYTdlp is the yt-dlp downloader identifier.
	DownloaderYTdlp = "ytdlp"
	// DownloaderMock is the mock downloader identifier for testing.
	DownloaderMock = "mock"
)

// ReasonNotSingleVideo is the human-readable rejection reason attached to
// lines that fail validation.
const ReasonNotSingleVideo = "not a recognized single-video URL"
