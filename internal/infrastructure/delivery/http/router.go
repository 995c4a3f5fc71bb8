package httprouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"otodake/internal/config"
	"otodake/internal/consts"
	"otodake/internal/errs"
	"otodake/internal/infrastructure/delivery/http/middleware"
	"otodake/internal/infrastructure/delivery/http/request"
	"otodake/internal/infrastructure/delivery/http/response"
	"otodake/internal/observability"
	"otodake/internal/service"
	"otodake/internal/storage"
	"otodake/web"
)

type chain []func(http.Handler) http.Handler

func (c chain) then(h http.Handler) http.Handler {
	for _, mw := range slices.Backward(c) {
		h = mw(h)
	}
	return h
}

type Router struct {
	*http.ServeMux
	log            *slog.Logger
	globalChain    []func(http.Handler) http.Handler
	routeChain     []func(http.Handler) http.Handler
	isSubRouter    bool
	patternPrefix  string
	handlerTimeout time.Duration
	svc            service.Batcher
	storer         storage.Storer
	metrics        *observability.Metrics
}

func New(log *slog.Logger, cfg *config.Config, svc service.Batcher, storer storage.Storer, metrics *observability.Metrics) *Router {
	r := &Router{
		ServeMux:       http.NewServeMux(),
		log:            log,
		handlerTimeout: cfg.HTTP.HandlerTimeout,
		svc:            svc,
		storer:         storer,
		metrics:        metrics,
	}

	r.SetGlobalMiddlewares()
	r.SetRoutes()

	return r
}

func (r *Router) Use(middleware ...func(http.Handler) http.Handler) {
	if r.isSubRouter {
		r.routeChain = append(r.routeChain, middleware...)
	} else {
		r.globalChain = append(r.globalChain, middleware...)
	}
}

func (r *Router) Group(fn func(r *Router)) {
	subRouter := &Router{
		isSubRouter: true,
		routeChain:  slices.Clone(r.routeChain),
		ServeMux:    r.ServeMux}

	fn(subRouter)
}

func (r *Router) HandleFunc(pattern string, h http.HandlerFunc) {
	r.Handle(pattern, h)
}

func (r *Router) Handle(pattern string, h http.Handler) {
	h = middleware.RoutePattern(r.routeLabel(pattern), h)
	h = chain(r.routeChain).then(h)
	r.ServeMux.Handle(pattern, h)
}

// routeLabel restores the mounted prefix stripped off sub-router patterns,
// so metric series carry the full route.
func (r *Router) routeLabel(pattern string) string {
	if r.patternPrefix == "" {
		return pattern
	}

	if method, path, ok := strings.Cut(pattern, " "); ok {
		return method + " " + r.patternPrefix + path
	}

	return r.patternPrefix + pattern
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	chain(r.globalChain).then(r.ServeMux).ServeHTTP(w, req)
}

func (r *Router) SetGlobalMiddlewares() {
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.Logger,
		middleware.Metrics(r.metrics),
	)
}

func (r *Router) SetRoutes() {
	r.SetRoutesHealthcheck()
	r.SetRoutesBatch()
	r.SetRoutesObservability()
	r.SetRoutesWeb()
}

func (r *Router) SetRoutesHealthcheck() {
	healthcheckRouter := &Router{
		ServeMux:      http.NewServeMux(),
		patternPrefix: "/v1",
	}
	healthcheckRouter.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/v1/readyz", http.StripPrefix("/v1", healthcheckRouter))
}

func (ro *Router) SetRoutesBatch() {
	batchRouter := &Router{
		ServeMux:      http.NewServeMux(),
		patternPrefix: "/v1/batches",
	}
	batchRouter.HandleFunc("POST /", ro.Enqueue)
	batchRouter.HandleFunc("GET /", ro.GetBatches)
	batchRouter.HandleFunc("GET /{id}", ro.GetBatch)
	batchRouter.HandleFunc("GET /{id}/items/{index}/audio", ro.GetItemAudio)

	ro.Handle("/v1/batches/", http.StripPrefix("/v1/batches", batchRouter))
	ro.Handle("POST /v1/batches", http.HandlerFunc(ro.Enqueue))
	ro.Handle("GET /v1/batches", http.HandlerFunc(ro.GetBatches))
}

func (ro *Router) SetRoutesObservability() {
	ro.Handle("GET /metrics", ro.metrics.Handler())
}

func (ro *Router) SetRoutesWeb() {
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		ro.log.Error("mount web ui failed", slog.Any("error", err))

		return
	}

	ro.Handle("GET /{$}", http.FileServerFS(static))
}

func (ro *Router) Enqueue(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "Enqueue")
	ctx := r.Context()

	var in request.Enqueue
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.ErrorContext(ctx, consts.RespInvalidRequestBody, slog.Any("error", err))
		response.BadRequest(w, consts.RespInvalidRequestBody, err)

		return
	}

	if err := in.Validate(); err != nil {
		log.ErrorContext(ctx, consts.RespNoValidInput, slog.Any("error", err))
		response.UnprocessableEntity(w, consts.RespNoValidInput, err)

		return
	}

	batch, err := ro.svc.Enqueue(ctx, in.URLs)
	if errors.Is(err, errs.ErrEmptyInput) || errors.Is(err, errs.ErrNoValidInput) {
		log.DebugContext(ctx, consts.RespNoValidInput, slog.Any("error", err))
		response.UnprocessableEntity(w, consts.RespNoValidInput, err)

		return
	}
	if errors.Is(err, errs.ErrBatchQueueFull) {
		log.WarnContext(ctx, consts.RespBatchEnqueueFail, slog.Any("error", err))
		response.TooManyRequests(w, consts.RespBatchEnqueueFail, err)

		return
	}
	if err != nil {
		log.ErrorContext(ctx, consts.RespBatchEnqueueFail, slog.Any("error", err))
		response.InternalServerError(w, consts.RespBatchEnqueueFail, nil, err)

		return
	}

	log.InfoContext(ctx, consts.RespBatchEnqueued, slog.String("batch_id", batch.ID))

	response.Accepted(w, consts.RespBatchEnqueued, batch, nil)
}

func (ro *Router) GetBatch(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "GetBatch")

	ctx, cancel := context.WithTimeout(r.Context(), ro.handlerTimeout)
	defer cancel()

	id := r.PathValue("id")
	if id == "" {
		log.ErrorContext(ctx, consts.RespQueryParamMissing)
		response.BadRequest(w, consts.RespQueryParamMissing, nil)

		return
	}

	batch, ok := ro.svc.GetByID(ctx, id)
	if !ok {
		log.DebugContext(ctx, consts.RespBatchNotFound, slog.String("batch_id", id))
		response.NotFound(w, consts.RespBatchNotFound, nil)

		return
	}

	response.OK(w, consts.RespBatchRetrieved, batch, nil)
}

func (ro *Router) GetBatches(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "GetBatches")

	ctx, cancel := context.WithTimeout(r.Context(), ro.handlerTimeout)
	defer cancel()

	batches, err := ro.svc.GetAll(ctx)
	if errors.Is(err, errs.ErrNoBatches) {
		log.DebugContext(ctx, consts.RespNoBatches)
		response.OK(w, consts.RespNoBatches, []any{}, nil)

		return
	}

	if err != nil {
		log.ErrorContext(ctx, consts.RespBatchesRetrieved, slog.Any("error", err))
		response.InternalServerError(w, consts.RespBatchesRetrieved, nil, err)

		return
	}

	response.OK(w, consts.RespBatchesRetrieved, batches, nil)
}

func (ro *Router) GetItemAudio(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "GetItemAudio")

	ctx, cancel := context.WithTimeout(r.Context(), ro.handlerTimeout)
	defer cancel()

	id := r.PathValue("id")

	index, err := strconv.Atoi(r.PathValue("index"))
	if id == "" || err != nil {
		log.ErrorContext(ctx, consts.RespQueryParamMissing, slog.Any("error", err))
		response.BadRequest(w, consts.RespQueryParamMissing, err)

		return
	}

	filename, audio, err := ro.storer.GetArtifact(ctx, id, index)
	switch {
	case errors.Is(err, errs.ErrBatchNotFound):
		response.NotFound(w, consts.RespBatchNotFound, err)

		return
	case errors.Is(err, errs.ErrItemNotFound), errors.Is(err, errs.ErrArtifactGone):
		response.NotFound(w, consts.RespArtifactNotFound, err)

		return
	case err != nil:
		log.ErrorContext(ctx, consts.RespArtifactNotFound, slog.Any("error", err))
		response.InternalServerError(w, consts.RespArtifactNotFound, nil, err)

		return
	}

	w.Header().Set("Content-Type", consts.ArtifactMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(audio); err != nil {
		log.ErrorContext(ctx, "write artifact body failed", slog.Any("error", err))
	}
}
