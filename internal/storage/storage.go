// Package storage provides in-memory retention of batch state for polling
// and artifact delivery.
package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"otodake/internal/config"
	"otodake/internal/entity"
	"otodake/internal/errs"
	"otodake/internal/observability"
	"otodake/internal/pipeline"
)

// Storer defines the interface for batch storage operations.
type Storer interface {
	SetBatch(ctx context.Context, batch *entity.Batch)
	GetBatchByID(ctx context.Context, id string) (*entity.Batch, bool)
	GetBatches(ctx context.Context) ([]*entity.Batch, error)
	SetBatchStatus(ctx context.Context, id string, status entity.BatchStatus, errorMsg string)

	// GetArtifact returns the delivered filename and MP3 bytes of a
	// finished item.
	GetArtifact(ctx context.Context, id string, index int) (string, []byte, error)

	// Sink returns a pipeline sink bound to the given batch, translating
	// pipeline events into stored batch state.
	Sink(id string) pipeline.Sink

	CleanupExpiredBatches(ctx context.Context, interval time.Duration)
}

type storage struct {
	log     *slog.Logger
	cfg     *config.Config
	metrics *observability.Metrics

	mu      sync.RWMutex
	batches map[string]*entity.Batch // batch ID : batch
}

// New creates a new in-memory storage instance and starts its cleanup loop.
func New(ctx context.Context, log *slog.Logger, cfg *config.Config, metrics *observability.Metrics) Storer {
	stg := &storage{
		log:     log.With(slog.String("package", "storage")),
		cfg:     cfg,
		metrics: metrics,
		batches: make(map[string]*entity.Batch),
	}

	go stg.CleanupExpiredBatches(ctx, cfg.Storage.CleanupInterval)

	return stg
}

func (stg *storage) SetBatch(ctx context.Context, batch *entity.Batch) {
	if batch == nil || batch.ID == "" {
		stg.log.ErrorContext(ctx, "set batch: nil or unidentified batch")

		return
	}

	stg.mu.Lock()
	defer stg.mu.Unlock()

	stg.batches[batch.ID] = batch
	stg.metrics.SetStoredBatches(len(stg.batches))
}

func (stg *storage) GetBatchByID(_ context.Context, id string) (*entity.Batch, bool) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	batch, ok := stg.batches[id]

	return batch, ok
}

func (stg *storage) GetBatches(_ context.Context) ([]*entity.Batch, error) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	if len(stg.batches) == 0 {
		return nil, errs.ErrNoBatches
	}

	batches := make([]*entity.Batch, 0, len(stg.batches))
	for _, batch := range stg.batches {
		batches = append(batches, batch)
	}

	return batches, nil
}

func (stg *storage) SetBatchStatus(ctx context.Context, id string, status entity.BatchStatus, errorMsg string) {
	stg.mu.Lock()
	defer stg.mu.Unlock()

	batch, ok := stg.batches[id]
	if !ok {
		stg.log.ErrorContext(ctx, "set batch status: batch not found", slog.String("batch_id", id))

		return
	}

	batch.Status = status
	batch.UpdatedAt = time.Now()

	if errorMsg != "" {
		batch.Error = errorMsg
	}

	stg.log.DebugContext(ctx, "batch status updated", "batch", batch)
}

func (stg *storage) GetArtifact(_ context.Context, id string, index int) (string, []byte, error) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	batch, ok := stg.batches[id]
	if !ok {
		return "", nil, errs.ErrBatchNotFound
	}

	if index < 0 || index >= len(batch.Items) {
		return "", nil, errs.ErrItemNotFound
	}

	item := batch.Items[index]
	if item.Status != entity.ItemStatusSucceeded || len(item.Audio) == 0 {
		return "", nil, errs.ErrArtifactGone
	}

	return item.Filename, item.Audio, nil
}

// Sink returns a pipeline sink that writes events into the stored batch.
func (stg *storage) Sink(id string) pipeline.Sink {
	return &batchSink{stg: stg, id: id}
}

// batchSink adapts stored batch state to the pipeline event contract.
type batchSink struct {
	stg *storage
	id  string
}

func (s *batchSink) Validated(ctx context.Context, accepted []string, rejected []entity.RejectedLine) {
	s.stg.mu.Lock()
	defer s.stg.mu.Unlock()

	batch, ok := s.stg.batches[s.id]
	if !ok {
		s.stg.log.ErrorContext(ctx, "sink validated: batch not found", slog.String("batch_id", s.id))

		return
	}

	batch.Items = make([]*entity.Item, len(accepted))
	for i, url := range accepted {
		batch.Items[i] = &entity.Item{Index: i, SourceURL: url, Status: entity.ItemStatusPending}
	}

	batch.Rejected = rejected
	batch.UpdatedAt = time.Now()
}

func (s *batchSink) Progress(ctx context.Context, index int, ev entity.ProgressEvent) {
	s.stg.mu.Lock()
	defer s.stg.mu.Unlock()

	item, ok := s.item(ctx, index)
	if !ok {
		return
	}

	item.Progress = ev.Percent

	switch ev.Kind {
	case entity.EventFetching:
		if item.Status == entity.ItemStatusPending {
			item.Status = entity.ItemStatusFetching
		}
	case entity.EventDownloading:
		item.Status = entity.ItemStatusDownloading
		item.Speed = ev.Speed
		item.TotalSize = ev.TotalSize
	case entity.EventConverting:
		item.Status = entity.ItemStatusConverting
		item.Speed = ""
	case entity.EventSucceeded, entity.EventFailed:
		// terminal state is written by Outcome
	}

	if ev.Title != "" {
		item.Title = ev.Title
	}
}

func (s *batchSink) Outcome(ctx context.Context, index int, out entity.ItemOutcome) {
	s.stg.mu.Lock()
	defer s.stg.mu.Unlock()

	item, ok := s.item(ctx, index)
	if !ok {
		return
	}

	item.Status = out.Status
	item.Progress = 100
	item.Speed = ""
	item.Error = out.Reason

	if out.Title != "" {
		item.Title = out.Title
	}

	if out.Succeeded() {
		item.Filename = out.Filename
		item.Audio = out.Audio
		item.Size = int64(len(out.Audio))
	}
}

// item looks up one item of the bound batch. Callers hold the lock.
func (s *batchSink) item(ctx context.Context, index int) (*entity.Item, bool) {
	batch, ok := s.stg.batches[s.id]
	if !ok {
		s.stg.log.ErrorContext(ctx, "sink: batch not found", slog.String("batch_id", s.id))

		return nil, false
	}

	if index < 0 || index >= len(batch.Items) {
		s.stg.log.ErrorContext(ctx, "sink: item index out of range",
			slog.String("batch_id", s.id), slog.Int("index", index))

		return nil, false
	}

	batch.UpdatedAt = time.Now()

	return batch.Items[index], true
}
