package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/service/ratelimit"
	"TrendCast/internal/usecase"
	"TrendCast/pkg/cache"
	xhttp "TrendCast/pkg/http"
	xlogger "TrendCast/pkg/logger"
	"TrendCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports a dependency failure as a non-nil error.
type HealthCheck func(ctx context.Context) error

// ForecastEchoHandler serves forecasts over HTTP.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.ForecastPipeline
	cache    cache.Store
	cacheTTL time.Duration
	timeout  time.Duration
	limiter  *ratelimit.Limiter
	checks   map[string]HealthCheck
}

type HandlerOption func(*ForecastEchoHandler)

// WithCache stores encoded responses for ttl. A nil store disables caching.
func WithCache(s cache.Store, ttl time.Duration) HandlerOption {
	return func(h *ForecastEchoHandler) {
		h.cache = s
		h.cacheTTL = ttl
	}
}

func WithRateLimit(l *ratelimit.Limiter) HandlerOption {
	return func(h *ForecastEchoHandler) { h.limiter = l }
}

// WithRequestTimeout bounds a single forecast request.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *ForecastEchoHandler) { h.timeout = d }
}

func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *ForecastEchoHandler) { h.checks[name] = check }
}

func NewForecastEchoHandler(logger *xlogger.Logger, p *usecase.ForecastPipeline, opts ...HandlerOption) *ForecastEchoHandler {
	h := &ForecastEchoHandler{logger: logger, pipeline: p, checks: make(map[string]HealthCheck)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api/forecast")
	if h.limiter != nil {
		g.Use(ratelimit.Middleware(h.limiter, xhttp.TooManyRequestsResponse))
	}
	g.GET("/demand", h.Demand)
	g.GET("/trends", h.Trends)
	g.GET("/market", h.Market)

	a := e.Group("/api/trends")
	if h.limiter != nil {
		a.Use(ratelimit.Middleware(h.limiter, xhttp.TooManyRequestsResponse))
	}
	a.GET("/current", h.CurrentTrends)
	a.GET("/metrics", h.SalesMetrics)
}

func (h *ForecastEchoHandler) Demand(c echo.Context) error {
	req := &models.DemandRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := cache.GenerateKeyWithParams("demand", req.EntityID, req.Days)
	return h.cached(c, key, func(ctx context.Context) (any, error) {
		return h.pipeline.PredictDemand(ctx, req.EntityID, req.Days)
	})
}

// Trends forecasts every product of a category (all products when category is empty).
// limit caps the number of returned records, best first.
func (h *ForecastEchoHandler) Trends(c echo.Context) error {
	req := &models.TrendsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	limit := xhttp.QueryInt(c, "limit", 0)
	key := cache.GenerateKeyWithParams("trends", req.Category, req.Days, limit)
	return h.cached(c, key, func(ctx context.Context) (any, error) {
		report, err := h.pipeline.PredictTrends(ctx, req.Category, req.Days)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(report.Records) > limit {
			report.Records = report.Records[:limit]
		}
		return report, nil
	})
}

func (h *ForecastEchoHandler) Market(c echo.Context) error {
	req := &models.MarketRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := cache.GenerateKeyWithParams("market", req.Category, req.Months)
	return h.cached(c, key, func(ctx context.Context) (any, error) {
		return h.pipeline.PredictMarket(ctx, req.Category, req.Months)
	})
}

func (h *ForecastEchoHandler) CurrentTrends(c echo.Context) error {
	req := &models.CurrentTrendsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := cache.GenerateKeyWithParams("current", req.Category, req.Limit)
	return h.cached(c, key, func(ctx context.Context) (any, error) {
		return h.pipeline.CurrentTrends(ctx, req.Category, req.Limit)
	})
}

func (h *ForecastEchoHandler) SalesMetrics(c echo.Context) error {
	req := &models.SalesMetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// the validator guarantees the layout; empty bounds stay zero
	from, _ := util.ParseDay(req.StartDate)
	to, _ := util.ParseDay(req.EndDate)
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Field:   "end_date",
			Code:    "ERR_RANGE",
			Message: "end_date must not be before start_date",
		}})
	}
	key := cache.GenerateKeyWithParams("sales", req.Category, req.StartDate, req.EndDate)
	return h.cached(c, key, func(ctx context.Context) (any, error) {
		return h.pipeline.SalesMetrics(ctx, req.Category, from, to)
	})
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := xhttp.HealthStatus{Status: "ok", Components: make(map[string]string, len(names))}
	code := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("component", name), xlogger.Error(err))
			status.Components[name] = err.Error()
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Components[name] = "ok"
	}
	return xhttp.DataResponse(c, code, status)
}

// cached serves key from the response cache or runs fn and stores its encoded result.
func (h *ForecastEchoHandler) cached(c echo.Context, key string, fn func(ctx context.Context) (any, error)) error {
	ctx := c.Request().Context()
	if h.cache != nil {
		b, err := h.cache.Get(ctx, key)
		if err == nil {
			c.Response().Header().Set("X-Cache", "HIT")
			return xhttp.JSONBytesResponse(c, b)
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("cache read failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	res, err := fn(ctx)
	if err != nil {
		h.logger.Error("forecast request failed", xlogger.String("route", c.Path()), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	body, err := json.Marshal(xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: res})
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if cacheable(res) {
			if err := h.cache.Set(ctx, key, body, h.cacheTTL); err != nil {
				h.logger.Warn("cache write failed", xlogger.String("key", key), xlogger.Error(err))
			}
		}
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return xhttp.JSONBytesResponse(c, body)
}

// cacheable rejects results carrying a fallback interval; they may only reflect a timeout.
func cacheable(res any) bool {
	switch v := res.(type) {
	case *models.ForecastRecord:
		return !v.ConfidenceInterval.Degraded
	case *models.TrendReport:
		for _, r := range v.Records {
			if r.ConfidenceInterval.Degraded {
				return false
			}
		}
	}
	return true
}
