package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
	"github.com/MetaStark/vision-IoS-sub013/internal/middleware"
	"github.com/MetaStark/vision-IoS-sub013/internal/usecase"
	pkgch "github.com/MetaStark/vision-IoS-sub013/pkg/clickhouse"
	"github.com/MetaStark/vision-IoS-sub013/pkg/config"
	xhttp "github.com/MetaStark/vision-IoS-sub013/pkg/http"
	httpmw "github.com/MetaStark/vision-IoS-sub013/pkg/http/middleware"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
	"github.com/MetaStark/vision-IoS-sub013/pkg/queue"
)

// App encapsulates the application lifecycle: synthesis scheduler, replay
// audit workers, publish pipeline, and the HTTP API.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	scheduler  *usecase.Scheduler
	pipeline   *middleware.PublishPipeline
	store      domrepo.VectorStore
	chClient   *pkgch.Client
	auditQueue *queue.RedisQueue
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	scheduler *usecase.Scheduler,
	pipeline *middleware.PublishPipeline,
	store domrepo.VectorStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		pipeline:  pipeline,
		store:     store,
		chClient:  chClient,
		handler:   handler,
	}
}

// SetAuditQueue wires the optional Redis replay-audit queue.
func (a *App) SetAuditQueue(q *queue.RedisQueue) { a.auditQueue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.store.Init(ctx); err != nil {
		a.logger.Error("store init error", applogger.Error(err))
		return err
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(httpmw.Metrics(a.logger, time.Second)),
	)

	a.pipeline.Start(ctx)

	if a.auditQueue != nil {
		a.auditQueue.Start(ctx)
		a.logger.Info("replay audit queue started")
	}

	a.scheduler.Start(ctx)
	a.logger.Info("scheduler started",
		applogger.Strings("assets", a.cfg.Synthesis.Assets),
		applogger.Duration("interval", a.cfg.Synthesis.Interval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services. Order matters: stop producing new
// vectors first, then drain outward surfaces, then close infrastructure.
func (a *App) shutdown(ctx context.Context) error {
	a.scheduler.Stop()

	if a.auditQueue != nil {
		a.auditQueue.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.pipeline.Close(); err != nil {
		a.logger.Warn("pipeline close error", applogger.Error(err))
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
