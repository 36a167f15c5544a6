package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmirasol/ammguard/internal/amm"
	"github.com/0xmirasol/ammguard/internal/engine"
	"github.com/0xmirasol/ammguard/internal/pool"
)

const testPairsJSON = `[
  {"id": "ETH-USDC", "base": "ETH", "quote": "USDC", "base_reserve": 100000, "quote_reserve": 100000},
  {"id": "WBTC-USDC", "base": "WBTC", "quote": "USDC", "base_reserve": 5000000, "quote_reserve": 9000000000}
]`

func newTestServer(t *testing.T) (*echo.Echo, *pool.Ledger) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pairs.json")
	require.NoError(t, os.WriteFile(path, []byte(testPairsJSON), 0o644))

	registry, err := pool.NewRegistry(path)
	require.NoError(t, err)

	cfg := amm.DefaultConfig()
	ledger := pool.NewLedger(registry, cfg)

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	eng, err := engine.New(ledger, ledger, cfg, logger)
	require.NoError(t, err)

	e := echo.New()
	RegisterRoutes(e, &Handlers{
		Engine:  eng,
		Ledger:  ledger,
		DevMode: true,
		Logger:  logger,
	}, ServerConfig{DevMode: true})

	return e, ledger
}

func doRequest(e *echo.Echo, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.Pairs)
}

func TestQuoteOut(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/v1/quote/out?pair=ETH-USDC&amountIn=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteOutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// floor(1000*997*100000 / (100000*1000 + 1000*997))
	assert.Equal(t, uint64(987), resp.AmountOut)
	assert.Equal(t, "ETH-USDC", resp.Pair)
	assert.Equal(t, uint16(30), resp.FeeBps)
	assert.LessOrEqual(t, resp.MinAmountOut, resp.AmountOut)
	assert.Equal(t, uint64(100000), resp.ReserveIn)
}

func TestQuoteOutValidation(t *testing.T) {
	e, _ := newTestServer(t)

	cases := []struct {
		name   string
		target string
		code   int
	}{
		{"missing pair", "/v1/quote/out?amountIn=1000", http.StatusBadRequest},
		{"malformed pair", "/v1/quote/out?pair=ETHUSDC&amountIn=1000", http.StatusBadRequest},
		{"unknown pair", "/v1/quote/out?pair=FOO-BAR&amountIn=1000", http.StatusNotFound},
		{"missing amount", "/v1/quote/out?pair=ETH-USDC", http.StatusBadRequest},
		{"zero amount", "/v1/quote/out?pair=ETH-USDC&amountIn=0", http.StatusBadRequest},
		{"non-numeric amount", "/v1/quote/out?pair=ETH-USDC&amountIn=ten", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestQuoteOutZeroLiquidity(t *testing.T) {
	e, ledger := newTestServer(t)
	require.NoError(t, ledger.SetReserves("ETH-USDC", 0, 100000))

	rec := doRequest(e, http.MethodGet, "/v1/quote/out?pair=ETH-USDC&amountIn=1000", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuoteIn(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/v1/quote/in?pair=ETH-USDC&amountOut=987", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.AmountIn, uint64(1000))
}

func TestQuoteInFullReserve(t *testing.T) {
	e, _ := newTestServer(t)

	// Requesting the entire output reserve is never payable.
	rec := doRequest(e, http.MethodGet, "/v1/quote/in?pair=ETH-USDC&amountOut=100000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteLiquidity(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/v1/quote/liquidity?pair=WBTC-USDC&amountA=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteLiquidityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1800000), resp.AmountB) // 1000 * 9000000000 / 5000000
}

func TestPairs(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/v1/pairs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []PairResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)

	rec = doRequest(e, http.MethodGet, "/v1/pairs/ETH-USDC", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var pairResp PairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairResp))
	assert.Equal(t, uint64(100000), pairResp.BaseReserve)

	rec = doRequest(e, http.MethodGet, "/v1/pairs/FOO-BAR", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwap(t *testing.T) {
	e, ledger := newTestServer(t)

	body := `{"trader":"alice","pair":"ETH-USDC","amount_in":1000,"min_amount_out":980}`
	rec := doRequest(e, http.MethodPost, "/v1/swap", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SwapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(987), resp.AmountOut)
	assert.NotEmpty(t, resp.ID)

	// Reserves moved: ETH side up by the input, USDC side down by the output.
	base, quote, err := ledger.PairReserves("ETH-USDC")
	require.NoError(t, err)
	assert.Equal(t, uint64(101000), base)
	assert.Equal(t, uint64(99013), quote)
}

func TestSwapPriceImpactRejected(t *testing.T) {
	e, ledger := newTestServer(t)

	before, _, err := ledger.PairReserves("ETH-USDC")
	require.NoError(t, err)

	// 5% of the input reserve moves the price far beyond the 300 bps ceiling.
	body := `{"trader":"alice","pair":"ETH-USDC","amount_in":5000,"min_amount_out":1}`
	rec := doRequest(e, http.MethodPost, "/v1/swap", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "price impact")

	// Nothing settled.
	after, _, err := ledger.PairReserves("ETH-USDC")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSwapSlippageRejected(t *testing.T) {
	e, _ := newTestServer(t)

	// Expected output is 987; a floor of 900 is an 8.8% shortfall, over the
	// 500 bps ceiling.
	body := `{"trader":"alice","pair":"ETH-USDC","amount_in":1000,"min_amount_out":900}`
	rec := doRequest(e, http.MethodPost, "/v1/swap", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "slippage")
}

func TestSwapValidation(t *testing.T) {
	e, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing trader", `{"pair":"ETH-USDC","amount_in":1000,"min_amount_out":980}`},
		{"bad pair", `{"trader":"alice","pair":"ethusdc","amount_in":1000,"min_amount_out":980}`},
		{"zero amount", `{"trader":"alice","pair":"ETH-USDC","amount_in":0,"min_amount_out":980}`},
		{"zero min out", `{"trader":"alice","pair":"ETH-USDC","amount_in":1000,"min_amount_out":0}`},
		{"invalid json", `{"trader":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/v1/swap", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRecentTradesWithoutCache(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/v1/trades/recent", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.json")
	require.NoError(t, os.WriteFile(path, []byte(testPairsJSON), 0o644))

	registry, err := pool.NewRegistry(path)
	require.NoError(t, err)

	cfg := amm.DefaultConfig()
	ledger := pool.NewLedger(registry, cfg)
	logger := logrus.New()

	eng, err := engine.New(ledger, ledger, cfg, logger)
	require.NoError(t, err)

	e := echo.New()
	RegisterRoutes(e, &Handlers{Engine: eng, Ledger: ledger, Logger: logger},
		ServerConfig{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
