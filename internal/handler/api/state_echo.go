package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domrepo "github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
	"github.com/MetaStark/vision-IoS-sub013/internal/middleware"
	icache "github.com/MetaStark/vision-IoS-sub013/internal/service/cache"
	"github.com/MetaStark/vision-IoS-sub013/internal/service/ratelimit"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/mapping"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	"github.com/MetaStark/vision-IoS-sub013/internal/usecase"
	xhttp "github.com/MetaStark/vision-IoS-sub013/pkg/http"
	xlogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

// StateEchoHandler exposes the read side of the pipeline: latest vectors,
// history, a live stream, and on-demand replay verification.
type StateEchoHandler struct {
	logger   *xlogger.Logger
	synth    *usecase.Synthesizer
	store    domrepo.VectorStore
	cache    *icache.VectorCache
	registry *mapping.Registry
	pipeline *middleware.PublishPipeline
	rl       *ratelimit.Limiter
	upgrader websocket.Upgrader
}

func NewStateEchoHandler(
	logger *xlogger.Logger,
	synth *usecase.Synthesizer,
	store domrepo.VectorStore,
	cache *icache.VectorCache,
	registry *mapping.Registry,
	pipeline *middleware.PublishPipeline,
) *StateEchoHandler {
	return &StateEchoHandler{
		logger:   logger,
		synth:    synth,
		store:    store,
		cache:    cache,
		registry: registry,
		pipeline: pipeline,
		rl:       ratelimit.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StateEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/state/:asset", h.Latest)
	g.GET("/state/:asset/history", h.History)
	g.GET("/state/:asset/stream", h.Stream)
	g.POST("/replay", h.Replay)
	g.GET("/version", h.Versions)
	e.GET("/health", h.Health)
}

// Latest returns the most recent sealed vector for an asset. The cache is
// consulted first; the store is authoritative.
func (h *StateEchoHandler) Latest(c echo.Context) error {
	req := &models.StateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	if h.cache != nil {
		if v, ok, err := h.cache.GetLatest(ctx, req.Asset); err == nil && ok {
			return xhttp.SuccessResponse(c, v)
		}
	}

	v, err := h.store.Latest(ctx, req.Asset)
	if err != nil {
		h.logger.Error("latest query error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if v == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no vector for asset %s", req.Asset))
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *StateEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)
	if !to.After(from) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to must be after from"))
	}

	rows, err := h.store.Range(c.Request().Context(), req.Asset, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Stream upgrades to WebSocket and pushes every sealed vector for the asset
// as it leaves the pipeline. Slow readers are disconnected, not buffered
// indefinitely.
func (h *StateEchoHandler) Stream(c echo.Context) error {
	asset := c.Param("asset")
	if asset == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("asset is required"))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, cancel := h.pipeline.Subscribe(32)
	defer cancel()

	// Reader goroutine: we never expect client frames, but reading is the
	// only way to observe a close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("stream client connected", xlogger.String("asset", asset))
	for {
		select {
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			if v.AssetID != asset {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(v); err != nil {
				h.logger.Warn("stream write error", xlogger.String("asset", asset), xlogger.Error(err))
				return nil
			}
		}
	}
}

// Replay recomputes a historical vector and checks it against the recorded
// digest. Expensive, so rate limited per client.
func (h *StateEchoHandler) Replay(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":replay", 5, 1) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	req := &models.ReplayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ts, ok := xhttp.ParseTime(req.Timestamp)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("timestamp must be RFC3339 or unix seconds"))
	}

	v, err := h.synth.Replay(c.Request().Context(), req.Asset, ts, req.Version)
	if err != nil {
		var notFound *usecase.ErrVectorNotFound
		var badVersion *mapping.ErrUnknownVersion
		var verMismatch *usecase.ErrVersionMismatch
		var integrity *verify.IntegrityError
		switch {
		case errors.As(err, &notFound):
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
		case errors.As(err, &badVersion), errors.As(err, &verMismatch):
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		case errors.As(err, &integrity):
			return xhttp.DataResponse(c, http.StatusConflict, &models.ReplayResponse{
				Digest:   integrity.ReplayDigest,
				Verified: false,
			})
		default:
			h.logger.Error("replay error", xlogger.String("asset", req.Asset), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	}

	return xhttp.SuccessResponse(c, &models.ReplayResponse{
		Vector:   v,
		Digest:   v.Digest,
		Verified: true,
	})
}

func (h *StateEchoHandler) Versions(c echo.Context) error {
	return xhttp.SuccessResponse(c, &models.VersionsResponse{
		Active:   h.registry.Active(),
		Versions: h.registry.Versions(),
	})
}

func (h *StateEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "store unavailable")
	}
	return xhttp.SuccessResponse(c, "ok")
}
