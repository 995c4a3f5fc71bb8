// Package errs defines common error variables used across the application.
package errs

import "errors"

var (
	// ErrServiceClosed indicates that the service is closed and cannot accept new batches.
	ErrServiceClosed = errors.New("service is closed")
	// ErrInvalidRequestBody indicates that the request body is invalid or cannot be parsed.
	ErrInvalidRequestBody = errors.New("invalid request body")
)

// Input validation errors. These are the only processing errors allowed to
// abort a batch before the workspace stage.
var (
	// ErrEmptyInput indicates that the submitted text contains no non-blank lines.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoValidInput indicates that no line survived URL validation.
	ErrNoValidInput = errors.New("no valid single-video URLs in input")
)

// Batch and storage errors.
var (
	// ErrNoBatches indicates that there are no batches in storage.
	ErrNoBatches = errors.New("no batches")
	// ErrBatchNotFound indicates that the batch is not found in storage.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrBatchNil indicates that the batch is nil.
	ErrBatchNil = errors.New("batch is nil")
	// ErrBatchQueueFull indicates that the batch queue is full.
	ErrBatchQueueFull = errors.New("batch queue is full")
	// ErrItemNotFound indicates that the item index is out of range for the batch.
	ErrItemNotFound = errors.New("item not found")
	// ErrArtifactGone indicates that the item finished without a deliverable artifact.
	ErrArtifactGone = errors.New("artifact not available")
)

// Workspace errors.
var (
	// ErrScratchRoot indicates that the base scratch root could not be
	// created. Fatal, never retried.
	ErrScratchRoot = errors.New("cannot create scratch root")
)

// Downloader errors.
var (
	// ErrDownloadFailed indicates that the download or conversion failed.
	ErrDownloadFailed = errors.New("download failed")
	// ErrBinaryNotFound indicates that a required external binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
