package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"MarketSim/internal/domain/market"
	models "MarketSim/internal/domain/models"
	"MarketSim/internal/usecase"
	xhttp "MarketSim/pkg/http"
	xlogger "MarketSim/pkg/logger"
)

// HealthCheck probes one dependency for /healthz.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// MarketEchoHandler serves the read-only market API, liveness and health routes.
type MarketEchoHandler struct {
	logger    *xlogger.Logger
	book      *market.PriceBook
	indexes   []models.IndexDefinition
	scheduler *usecase.ReportScheduler
	checks    map[string]HealthCheck
}

func NewMarketEchoHandler(
	logger *xlogger.Logger,
	book *market.PriceBook,
	indexes []models.IndexDefinition,
	scheduler *usecase.ReportScheduler,
	checks map[string]HealthCheck,
) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, book: book, indexes: indexes, scheduler: scheduler, checks: checks}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Alive)
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/stocks", h.Stocks)
	g.GET("/stocks/:symbol", h.Stock)
	g.GET("/stocks/:symbol/history", h.History)
	g.GET("/indexes", h.Indexes)
	g.GET("/schedule", h.Schedule)
}

// Alive keeps hosting platforms that probe the root path happy.
func (h *MarketEchoHandler) Alive(c echo.Context) error {
	return c.String(http.StatusOK, "Bot is running.")
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	view := models.HealthView{Status: "ok", Checks: map[string]string{}}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			view.Status = "degraded"
			view.Checks[name] = err.Error()
			h.logger.Warn("health check failed", xlogger.String("check", name), xlogger.Error(err))
			continue
		}
		view.Checks[name] = "ok"
	}
	if view.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, view)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *MarketEchoHandler) Stocks(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.book.Snapshot())
}

func (h *MarketEchoHandler) Stock(c echo.Context) error {
	q, err := h.book.Quote(strings.ToUpper(c.Param("symbol")))
	if err != nil {
		return h.lookupError(c, err)
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *MarketEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verrs := xhttp.ReadAndValidateRequest(c, req); len(verrs) > 0 {
		return xhttp.BadRequestResponse(c, verrs)
	}
	req.Symbol = strings.ToUpper(req.Symbol)

	prices, err := h.book.History(req.Symbol)
	if err != nil {
		return h.lookupError(c, err)
	}
	trend, _ := h.book.Trend(req.Symbol)
	if limit := *req.Limit; len(prices) > limit {
		prices = prices[len(prices)-limit:]
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, models.HistoryResponse{Symbol: req.Symbol, Prices: prices, Trend: trend})
}

func (h *MarketEchoHandler) Indexes(c echo.Context) error {
	return xhttp.SuccessResponse(c, market.ComputeIndexes(h.indexes, h.book))
}

func (h *MarketEchoHandler) Schedule(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scheduler.Schedule())
}

func (h *MarketEchoHandler) lookupError(c echo.Context, err error) error {
	appErr := xhttp.MapError(err, xhttp.NotFound(market.ErrUnknownSymbol))
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("market lookup error", xlogger.Error(err))
	}
	return xhttp.ErrorResponse(c, appErr.WithParam("symbol", strings.ToUpper(c.Param("symbol"))))
}
