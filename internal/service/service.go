// Package service queues submitted batches and runs them on a bounded pool
// of workers. Batches are isolated from each other (each gets its own
// workspace); items inside one batch are always processed sequentially.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"otodake/internal/config"
	"otodake/internal/entity"
	"otodake/internal/errs"
	"otodake/internal/observability"
	"otodake/internal/pipeline"
	"otodake/internal/storage"
	"otodake/pkg/gen"
)

// Batcher is the service surface the delivery layer talks to.
type Batcher interface {
	Start(ctx context.Context)

	// Enqueue validates rawText and queues it as a new batch. Input errors
	// (empty input, no valid URLs) are returned immediately and no batch is
	// created.
	Enqueue(ctx context.Context, rawText string) (*entity.Batch, error)

	GetByID(ctx context.Context, id string) (*entity.Batch, bool)
	GetAll(ctx context.Context) ([]*entity.Batch, error)
}

type queued struct {
	id      string
	rawText string
}

type service struct {
	log     *slog.Logger
	cfg     *config.Config
	runner  *pipeline.Runner
	storer  storage.Storer
	metrics *observability.Metrics

	queue chan queued

	wg        sync.WaitGroup
	closed    atomic.Bool
	startOnce sync.Once
}

var _ Batcher = (*service)(nil)

// New creates the batch service.
func New(cfg *config.Config, log *slog.Logger, runner *pipeline.Runner, storer storage.Storer, metrics *observability.Metrics) Batcher {
	return &service{
		log:     log.With(slog.String("package", "service")),
		cfg:     cfg,
		runner:  runner,
		storer:  storer,
		metrics: metrics,
		queue:   make(chan queued, cfg.Batch.QueueSize),
	}
}

func (svc *service) Start(ctx context.Context) {
	svc.startOnce.Do(func() {
		for i := range svc.cfg.Batch.Workers {
			svc.wg.Add(1)
			go svc.worker(ctx, i)
		}
	})
}

func (svc *service) Enqueue(ctx context.Context, rawText string) (*entity.Batch, error) {
	if svc.closed.Load() {
		return nil, errs.ErrServiceClosed
	}

	// fail fast on input errors, before anything is stored or queued
	accepted, rejected := pipeline.SplitInput(rawText)
	if len(accepted) == 0 && len(rejected) == 0 {
		return nil, errs.ErrEmptyInput
	}

	if len(accepted) == 0 {
		return nil, errs.ErrNoValidInput
	}

	now := time.Now()
	batch := &entity.Batch{
		ID:        gen.BatchID(),
		Status:    entity.BatchStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(svc.cfg.Storage.TTL),
	}

	svc.storer.SetBatch(ctx, batch)

	select {
	case svc.queue <- queued{id: batch.ID, rawText: rawText}:
		svc.metrics.RecordBatchCreated()

		return batch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("enqueue batch canceled: %w", ctx.Err())
	default:
		svc.storer.SetBatchStatus(ctx, batch.ID, entity.BatchStatusFailed, errs.ErrBatchQueueFull.Error())

		return nil, fmt.Errorf("%w: %d/%d", errs.ErrBatchQueueFull, len(svc.queue), cap(svc.queue))
	}
}

func (svc *service) worker(ctx context.Context, workerID int) {
	defer svc.wg.Done()

	log := svc.log.With(slog.Int("worker_id", workerID))

	for {
		select {
		case next, ok := <-svc.queue:
			if !ok {
				log.WarnContext(ctx, "batch queue closed")

				return
			}

			svc.processBatch(ctx, next)
		case <-ctx.Done():
			svc.closed.Store(true)
			log.InfoContext(ctx, "got ctx done signal", slog.Any("error", ctx.Err()))

			return
		}
	}
}

func (svc *service) processBatch(ctx context.Context, next queued) {
	log := svc.log.With(slog.String("batch_id", next.id))

	batchCtx, cancel := context.WithTimeout(ctx, svc.cfg.Batch.Timeout)
	defer cancel()

	svc.storer.SetBatchStatus(batchCtx, next.id, entity.BatchStatusRunning, "")

	result, err := svc.runner.Run(batchCtx, next.rawText, svc.storer.Sink(next.id))
	if err != nil {
		log.ErrorContext(ctx, "batch run failed", slog.Any("error", err))
		svc.storer.SetBatchStatus(ctx, next.id, entity.BatchStatusFailed, err.Error())
		svc.metrics.RecordBatchFailed()

		return
	}

	if result.AllFailed() {
		svc.storer.SetBatchStatus(ctx, next.id, entity.BatchStatusFailed, "no items could be processed successfully")
		svc.metrics.RecordBatchFailed()

		return
	}

	// partial success is still a completed batch
	svc.storer.SetBatchStatus(ctx, next.id, entity.BatchStatusCompleted, "")
	svc.metrics.RecordBatchCompleted()

	log.InfoContext(ctx, "batch processed", slog.Int("outcomes", len(result.Outcomes)))
}

func (svc *service) GetByID(ctx context.Context, id string) (*entity.Batch, bool) {
	return svc.storer.GetBatchByID(ctx, id)
}

func (svc *service) GetAll(ctx context.Context) ([]*entity.Batch, error) {
	return svc.storer.GetBatches(ctx)
}
