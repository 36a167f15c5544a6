package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/0xmirasol/ammguard/internal/constants"
	"github.com/0xmirasol/ammguard/internal/pool"
)

// pairParam normalizes and validates the pair query parameter
func (h *Handlers) pairParam(c echo.Context) (string, error) {
	ref := strings.ToUpper(strings.TrimSpace(c.QueryParam("pair")))
	if ref == "" {
		return "", h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "required"})
	}
	if _, _, err := pool.SplitRef(ref); err != nil {
		return "", h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "must be TOKENIN-TOKENOUT"})
	}
	return ref, nil
}

// amountParam parses a required positive uint64 query parameter
func (h *Handlers) amountParam(c echo.Context, name string) (uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, h.err(c, http.StatusBadRequest, "invalid "+name, map[string]any{name: "required"})
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, h.err(c, http.StatusBadRequest, "invalid "+name, map[string]any{name: "must be uint64"})
	}
	if n == 0 {
		return 0, h.err(c, http.StatusBadRequest, "invalid "+name, map[string]any{name: "must be positive"})
	}
	return n, nil
}

// QuoteOut prices a forward swap: how much comes out for amountIn, what the
// price impact would be, and the minimum output the default tolerance allows.
// Read-only; no trade is triggered.
func (h *Handlers) QuoteOut(c echo.Context) error {
	ref, err := h.pairParam(c)
	if err != nil {
		return err
	}
	amountIn, err := h.amountParam(c, "amountIn")
	if err != nil {
		return err
	}

	slippageBps := constants.DefaultSlippageBps
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "must be uint16"})
		}
		slippageBps = uint16(n)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Engine.Quote(ctx, ref, amountIn, slippageBps)
	if err != nil {
		return h.coreErr(c, err)
	}

	return c.JSON(http.StatusOK, QuoteOutResponse{
		Pair:         q.Pair,
		AmountIn:     q.AmountIn,
		AmountOut:    q.AmountOut,
		MinAmountOut: q.MinAmountOut,
		ImpactBps:    q.ImpactBps,
		FeeBps:       q.FeeBps,
		ReserveIn:    q.ReserveIn,
		ReserveOut:   q.ReserveOut,
		Price:        q.Price,
		QuotedAt:     q.QuotedAt,
	})
}

// QuoteIn prices the inverse direction: the input required for a desired output
func (h *Handlers) QuoteIn(c echo.Context) error {
	ref, err := h.pairParam(c)
	if err != nil {
		return err
	}
	amountOut, err := h.amountParam(c, "amountOut")
	if err != nil {
		return err
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Engine.QuoteIn(ctx, ref, amountOut)
	if err != nil {
		return h.coreErr(c, err)
	}

	return c.JSON(http.StatusOK, QuoteInResponse{
		Pair:       q.Pair,
		AmountOut:  q.AmountOut,
		AmountIn:   q.AmountIn,
		FeeBps:     q.FeeBps,
		ReserveIn:  q.ReserveIn,
		ReserveOut: q.ReserveOut,
		Price:      q.Price,
		QuotedAt:   q.QuotedAt,
	})
}

// QuoteLiquidity prices the proportional other-side deposit for adding
// liquidity without shifting the pool's price ratio
func (h *Handlers) QuoteLiquidity(c echo.Context) error {
	ref, err := h.pairParam(c)
	if err != nil {
		return err
	}
	amountA, err := h.amountParam(c, "amountA")
	if err != nil {
		return err
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	q, err := h.Engine.QuoteLiquidity(ctx, ref, amountA)
	if err != nil {
		return h.coreErr(c, err)
	}

	return c.JSON(http.StatusOK, QuoteLiquidityResponse{
		Pair:     q.Pair,
		AmountA:  q.AmountA,
		AmountB:  q.AmountB,
		ReserveA: q.ReserveA,
		ReserveB: q.ReserveB,
		QuotedAt: q.QuotedAt,
	})
}

// PairsList returns every registered pair with its live reserves
func (h *Handlers) PairsList(c echo.Context) error {
	pairs := h.Ledger.Registry().All()

	items := make([]PairResponse, 0, len(pairs))
	for _, p := range pairs {
		base, quote, err := h.Ledger.PairReserves(p.ID)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to read reserves", nil)
		}
		items = append(items, PairResponse{
			ID:           p.ID,
			Base:         p.Base,
			Quote:        p.Quote,
			BaseReserve:  base,
			QuoteReserve: quote,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// PairGet returns one pair by canonical id with its live reserves
func (h *Handlers) PairGet(c echo.Context) error {
	id := strings.ToUpper(strings.TrimSpace(c.Param("id")))

	p, err := h.Ledger.Registry().FindByID(id)
	if err != nil {
		if errors.Is(err, pool.ErrPairNotFound) {
			return h.err(c, http.StatusNotFound, "pair not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get pair", nil)
	}

	base, quote, err := h.Ledger.PairReserves(p.ID)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to read reserves", nil)
	}

	return c.JSON(http.StatusOK, PairResponse{
		ID:           p.ID,
		Base:         p.Base,
		Quote:        p.Quote,
		BaseReserve:  base,
		QuoteReserve: quote,
	})
}
