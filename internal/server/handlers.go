package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/0xmirasol/ammguard/internal/constants"
	"github.com/0xmirasol/ammguard/internal/engine"
	"github.com/0xmirasol/ammguard/internal/halts"
	"github.com/0xmirasol/ammguard/internal/pool"
	"github.com/0xmirasol/ammguard/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine  *engine.Engine     // Swap orchestrator (quotes + protected execution)
	Ledger  *pool.Ledger       // Reserve book backing the engine
	Cache   storage.TradeCache // Redis-backed trade cache (optional)
	Halts   *halts.Store       // Redis-backed trading-halt store (optional)
	DevMode bool               // Enable detailed error responses in development
	Logger  *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// coreErr maps a pricing/guard error to its HTTP status and envelope
func (h *Handlers) coreErr(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.Logger.WithError(err).Error("unexpected core error")
		return h.err(c, code, "internal error", map[string]any{"err": err.Error()})
	}
	return h.err(c, code, err.Error(), nil)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	pairs := 0
	if h.Ledger != nil {
		pairs = h.Ledger.Registry().Count()
	}
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Pairs: pairs})
}

// Swap performs a protected trade: impact and slippage are bounded against a
// reserve snapshot before settlement is delegated. Guard rejections come back
// as 422, never as a partial trade.
func (h *Handlers) Swap(c echo.Context) error {
	var body SwapRequestBody
	if err := c.Bind(&body); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	req := &engine.SwapRequest{
		Trader:            strings.TrimSpace(body.Trader),
		Pair:              strings.ToUpper(strings.TrimSpace(body.Pair)),
		AmountIn:          body.AmountIn,
		MinAmountOut:      body.MinAmountOut,
		MaxSlippageBps:    body.MaxSlippageBps,
		MaxPriceImpactBps: body.MaxPriceImpactBps,
	}
	if err := req.Validate(); err != nil {
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	receipt, err := h.Engine.SafeSwap(ctx, req)
	if err != nil {
		return h.coreErr(c, err)
	}

	return c.JSON(http.StatusOK, SwapResponse{
		ID:          receipt.ID,
		Trader:      receipt.Trader,
		Pair:        receipt.Pair,
		AmountIn:    receipt.AmountIn,
		ExpectedOut: receipt.ExpectedOut,
		AmountOut:   receipt.AmountOut,
		ImpactBps:   receipt.ImpactBps,
		FeeBps:      receipt.FeeBps,
		Price:       receipt.Price,
		TookMs:      receipt.Duration.Milliseconds(),
		ExecutedAt:  receipt.ExecutedAt,
	})
}

// RecentTrades returns the most recent settled trades with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentTrades(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "trade cache is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := constants.DefaultTradesLimit
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxTradesLimit {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentTrades(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get trades", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Price returns the last executed price for a pair
// Pair parameter is case-insensitive and will be normalized to uppercase
func (h *Handlers) Price(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "trade cache is not configured", nil)
	}

	pair := strings.ToUpper(strings.TrimSpace(c.Param("pair")))
	if _, _, err := pool.SplitRef(pair); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pair", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	price, err := h.Cache.GetPrice(ctx, pair)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get price", nil)
	}
	return c.JSON(http.StatusOK, PriceResponse{Pair: pair, Price: price})
}

// HaltsUpsert creates or updates a trading halt for the given pair
// Validates pair format and returns the created/updated halt
func (h *Handlers) HaltsUpsert(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}

	var req HaltUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := halts.ValidatePair(req.Pair); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Halts.Upsert(ctx, req.Pair, req.Halted, req.Reason)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert halt", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// HaltsUpdate updates an existing trading halt for the given pair
func (h *Handlers) HaltsUpdate(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}

	pair := c.Param("pair")
	if err := halts.ValidatePair(pair); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "invalid format"})
	}
	var req HaltUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Halts.Upsert(ctx, pair, req.Halted, req.Reason)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update halt", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// HaltsGet retrieves a trading halt by pair
// Returns 404 if no halt exists for the pair
func (h *Handlers) HaltsGet(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}

	pair := c.Param("pair")
	if err := halts.ValidatePair(pair); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Halts.Get(ctx, pair)
	if err != nil {
		if errors.Is(err, halts.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "halt not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get halt", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// HaltsList returns all trading halts in the system
func (h *Handlers) HaltsList(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Halts.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list halts", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// HaltsDelete removes a trading halt by pair
// Returns 204 No Content on successful deletion
func (h *Handlers) HaltsDelete(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}

	pair := c.Param("pair")
	if err := halts.ValidatePair(pair); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Halts.Delete(ctx, pair); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete halt", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
