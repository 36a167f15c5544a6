package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/0xmirasol/ammguard/internal/amm"
	"github.com/0xmirasol/ammguard/internal/engine"
	"github.com/0xmirasol/ammguard/internal/pool"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps core error kinds to stable HTTP statuses. Guard rejections
// are 422 so clients can tell "your trade was refused" apart from "your
// request was malformed".
func statusFor(err error) int {
	switch {
	case errors.Is(err, pool.ErrPairNotFound):
		return http.StatusNotFound
	case errors.Is(err, amm.ErrInsufficientInput):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrTradingHalted):
		return http.StatusForbidden
	case errors.Is(err, amm.ErrZeroLiquidity),
		errors.Is(err, amm.ErrPriceImpactExceeded),
		errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrAmountOverflow),
		errors.Is(err, engine.ErrTradeLimitExceeded),
		errors.Is(err, pool.ErrBelowMinAmountOut):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
