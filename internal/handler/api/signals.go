package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	models "PipForge/internal/domain/models"
	icache "PipForge/internal/service/cache"
	"PipForge/internal/service/metrics"
	"PipForge/internal/service/ratelimit"
	"PipForge/internal/training"
	"PipForge/internal/usecase"
	xhttp "PipForge/pkg/http"
	xlogger "PipForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

const pollCacheTTL = 2 * time.Second

// SignalsHandler exposes the scoring, polling, outcome and training
// endpoints consumed by the trading terminal.
type SignalsHandler struct {
	logger    *xlogger.Logger
	scorer    *usecase.SignalScorer
	recorder  *usecase.OutcomeRecorder
	retrainer *usecase.Retrainer
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
}

func NewSignalsHandler(
	logger *xlogger.Logger,
	scorer *usecase.SignalScorer,
	recorder *usecase.OutcomeRecorder,
	retrainer *usecase.Retrainer,
) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{
		logger:    logger,
		scorer:    scorer,
		recorder:  recorder,
		retrainer: retrainer,
		rl:        ratelimit.New(),
	}
}

// SetCache injects a short-TTL byte cache for the poll endpoint.
func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/score", h.Score)
	g.GET("/signals", h.Poll)
	g.POST("/outcomes", h.Outcome)
	g.POST("/train", h.Train)
	g.GET("/weights", h.Weights)
}

func (h *SignalsHandler) Score(c echo.Context) error {
	start := time.Now()
	endpoint := "score"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scorer.Score(c.Request().Context(), *req)
	if err != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("score usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Poll serves the terminal's signal polling loop. It is the hottest
// endpoint, so it is rate limited per client and briefly cached.
func (h *SignalsHandler) Poll(c echo.Context) error {
	start := time.Now()
	endpoint := "poll"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.PollRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP()+":poll", 10, 5) {
		h.logger.Warn("poll rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limited"})
	}

	cacheKey := "poll:" + req.Symbol + ":" + strconv.FormatInt(req.Since, 10) + ":" + strconv.Itoa(req.Limit)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("poll cache_get_error", xlogger.Error(err))
		} else if ok {
			h.logger.Debug("poll cache_hit", xlogger.String("key", cacheKey))
			return c.JSONBlob(200, b)
		}
	}

	sigs, err := h.scorer.Poll(c.Request().Context(), *req)
	if err != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("poll usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(sigs); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, pollCacheTTL); err != nil {
				h.logger.Debug("poll cache_set_error", xlogger.Error(err))
			}
			return c.JSONBlob(200, b)
		}
	}
	return xhttp.SuccessResponse(c, sigs)
}

func (h *SignalsHandler) Outcome(c echo.Context) error {
	start := time.Now()
	endpoint := "outcome"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.OutcomeReport{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.recorder.RecordReport(c.Request().Context(), *req); err != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("outcome usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *SignalsHandler) Train(c echo.Context) error {
	start := time.Now()
	endpoint := "train"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	key := models.ContextKey{
		Symbol:  strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Session: models.TradingSession(req.Session),
		Regime:  models.MarketRegime(req.Regime),
	}
	res, err := h.retrainer.Train(c.Request().Context(), key, req.Algorithm, req.Force)
	if err != nil {
		var insufficient *training.ErrInsufficientData
		switch {
		case errors.Is(err, usecase.ErrRetrainNotDue):
			return xhttp.SuccessResponse(c, map[string]string{"status": "not_due", "context": key.String()})
		case errors.As(err, &insufficient):
			appErr := xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", insufficient.Error(), 422).
				WithParam("got", insufficient.Got).
				WithParam("want", insufficient.Want).
				WithParam("context", key.String())
			return xhttp.AppErrorResponse(c, appErr)
		default:
			metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
			h.logger.Error("train usecase error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsHandler) Weights(c echo.Context) error {
	start := time.Now()
	endpoint := "weights"
	defer func() { metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.WeightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	key := models.ContextKey{
		Symbol:  strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Session: models.TradingSession(req.Session),
		Regime:  models.MarketRegime(req.Regime),
	}
	vector := h.scorer.ResolveWeights(c.Request().Context(), key)
	return xhttp.SuccessResponse(c, vector)
}
