package api

import (
	"errors"
	"strconv"
	"time"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/service/metrics"
	"TradePulse/internal/usecase"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler exposes the signal engine over Echo.
type SignalsEchoHandler struct {
	logger    *xlogger.Logger
	generator *usecase.SignalGenerator
	evaluator *usecase.SignalEvaluator
	signals   *usecase.SignalsUseCase
	candles   *usecase.CandlesUseCase
}

func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	generator *usecase.SignalGenerator,
	evaluator *usecase.SignalEvaluator,
	signals *usecase.SignalsUseCase,
) *SignalsEchoHandler {
	metrics.Register()
	return &SignalsEchoHandler{
		logger:    logger,
		generator: generator,
		evaluator: evaluator,
		signals:   signals,
	}
}

// SetCandles enables the raw candle endpoint.
func (h *SignalsEchoHandler) SetCandles(c *usecase.CandlesUseCase) { h.candles = c }

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Generate)
	g.GET("/signals", h.List)
	g.GET("/signals/:id", h.GetByID)
	g.POST("/evaluate", h.Evaluate)
	g.GET("/stats", h.Stats)
	g.GET("/regime", h.Regime)
	if h.candles != nil {
		g.GET("/candles", h.Candles)
	}
}

// Generate runs the full pipeline for the symbol and persists the result.
// Rejections return 200 with a REJECTED record, not an error.
func (h *SignalsEchoHandler) Generate(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("signal").Observe(time.Since(start).Seconds()) }()

	req := &models.GenerateSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.generator.Generate(c.Request().Context(), usecase.GenerateParams{
		Symbol:  req.Symbol,
		Balance: req.Balance,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("signal").Inc()
		h.logger.Error("generate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.SignalViewFrom(sig))
}

func (h *SignalsEchoHandler) List(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("signals").Observe(time.Since(start).Seconds()) }()

	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Status != "" && req.Outcome != "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_EXCLUSIVE",
			Message: "status and outcome filters are exclusive",
		}})
	}

	sigs, err := h.signals.List(c.Request().Context(), usecase.ListParams{
		Status:  models.SignalStatus(req.Status),
		Outcome: models.Outcome(req.Outcome),
		Limit:   req.Limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("signals").Inc()
		h.logger.Error("list usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	views := make([]*models.SignalView, 0, len(sigs))
	for _, s := range sigs {
		views = append(views, models.SignalViewFrom(s))
	}
	return xhttp.ListResponse(c, views, int64(len(views)))
}

// GetByID returns one persisted signal, evaluated or not.
func (h *SignalsEchoHandler) GetByID(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("signal_by_id").Observe(time.Since(start).Seconds()) }()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("id must be an integer").WithError(err))
	}
	sig, err := h.signals.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domrepo.ErrSignalNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("signal %d not found", id))
		}
		metrics.APIErrors.WithLabelValues("signal_by_id").Inc()
		h.logger.Error("get signal usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.SignalViewFrom(sig))
}

// Evaluate settles every unevaluated signal in one batch.
func (h *SignalsEchoHandler) Evaluate(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("evaluate").Observe(time.Since(start).Seconds()) }()

	summary, err := h.evaluator.EvaluateAll(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("evaluate").Inc()
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *SignalsEchoHandler) Stats(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("stats").Observe(time.Since(start).Seconds()) }()

	stats, err := h.evaluator.Stats(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("stats").Inc()
		h.logger.Error("stats usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, stats)
}

// Regime returns the classification stage only.
func (h *SignalsEchoHandler) Regime(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("regime").Observe(time.Since(start).Seconds()) }()

	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.generator.Regime(c.Request().Context(), req.Symbol)
	if err != nil {
		metrics.APIErrors.WithLabelValues("regime").Inc()
		h.logger.Error("regime usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, report)
}

// Candles serves stored candles for inspection and charting.
func (h *SignalsEchoHandler) Candles(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("candles").Observe(time.Since(start).Seconds()) }()

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now().UTC()
	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour)),
		To:        xhttp.ParseTimeDefault(req.To, now),
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("candles").Inc()
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
