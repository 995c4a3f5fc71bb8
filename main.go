// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"otodake/internal/config"
	"otodake/internal/consts"
	"otodake/internal/depmanager"
	"otodake/internal/downloader"
	httprouter "otodake/internal/infrastructure/delivery/http"
	"otodake/internal/observability"
	"otodake/internal/pipeline"
	"otodake/internal/service"
	"otodake/internal/storage"
	"otodake/internal/workspace"
	httpserver "otodake/pkg/http/server"
	"otodake/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := observability.New()

	var dl downloader.Downloader

	switch cfg.App.Downloader {
	case consts.DownloaderMock:
		dl = downloader.NewMock(log)
	default:
		depMgr := depmanager.New(log, cfg)

		log.InfoContext(ctx, "checking if yt-dlp and ffmpeg are installed. it may take some time...")

		depMgr.Start(ctx)

		dl = downloader.NewYTdlp(log, cfg, depMgr)
	}

	ws, err := workspace.New(log, cfg.Dir.Scratch)
	if err != nil {
		log.ErrorContext(ctx, "workspace new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	storer := storage.New(ctx, log, cfg, metrics)
	runner := pipeline.New(log, ws, dl, metrics)

	svc := service.New(cfg, log, runner, storer, metrics)

	router := httprouter.New(log, cfg, svc, storer, metrics)

	httpSrv := httpserver.New(router, httpserver.Options{
		Addr:            cfg.HTTP.Port,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	svc.Start(ctx)

	log.InfoContext(ctx, "otodake started", slog.String("port", cfg.HTTP.Port))

	select {
	case <-ctx.Done():
	case err := <-httpSrv.Notify():
		log.ErrorContext(ctx, "http server stopped", slog.Any("error", err))
	}

	err = httpSrv.Shutdown()
	if err != nil {
		log.Error(err.Error())
	}

	log.InfoContext(ctx, "otodake shut down gracefully")
}
