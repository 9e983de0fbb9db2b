package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/fetcher"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tableSource struct{ table *fetcher.Table }

func (s tableSource) FetchConstituents(ctx context.Context) (*fetcher.Table, error) {
	return s.table, nil
}

// threeDays returns the three days before the requested end
type threeDays struct{}

func (threeDays) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (*fetcher.Frame, error) {
	frame := &fetcher.Frame{Symbol: symbol, Columns: fetcher.ProviderColumnNames()}
	for i := 3; i >= 1; i-- {
		v := decimal.NewFromInt(int64(100 + i))
		frame.Rows = append(frame.Rows, fetcher.FrameRow{
			Date:   end.AddDate(0, 0, -i),
			Values: []decimal.Decimal{v, v, v, v, decimal.NewFromInt(500), v},
		})
	}
	return frame, nil
}

// liveContexts counts fetches made with a context that is still usable
type liveContexts struct {
	threeDays
	live, total int
}

func (f *liveContexts) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (*fetcher.Frame, error) {
	f.total++
	if ctx.Err() == nil {
		f.live++
	}
	return f.threeDays.FetchDailyBars(ctx, symbol, start, end)
}

type apiResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	ErrorType string          `json:"error_type"`
	Message   string          `json:"message"`
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWithPrices(t, threeDays{})
}

func newTestServerWithPrices(t *testing.T, prices fetcher.PriceFetcher) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		APIName:          "SPX Analytics API",
		APIVersion:       "v1",
		DatabaseDriver:   "sqlite",
		DatabaseDsn:      "file::memory:",
		DatabaseLogLevel: "silent",
		BenchmarkSymbol:  "^GSPC",
		LookbackYears:    5,
	}
	db, err := repository.ConnectDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	table := &fetcher.Table{
		Columns: []string{"Symbol", "Security", "GICS Sector", "GICS Sub-Industry"},
		Rows: [][]string{
			{"MMM", "3M", "Industrials", "Industrial Conglomerates"},
			{"AOS", "A. O. Smith", "Industrials", "Building Products"},
		},
	}
	syncService := service.NewSyncService(db, tableSource{table}, prices, service.SyncOptionsFromConfig(cfg))

	e := echo.New()
	SetupRoutes(e, cfg, db, nil, syncService)
	return e
}

func get(t *testing.T, e *echo.Echo, target string) (int, apiResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestIndexRoute(t *testing.T) {
	e := newTestServer(t)
	code, resp := get(t, e, "/api/")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"SPX Analytics API v1"`, string(resp.Data))
}

func TestSyncFlow(t *testing.T) {
	e := newTestServer(t)

	code, resp := get(t, e, "/api/sp500/meta")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully loaded 2 records of S&P 500", resp.Message)

	code, resp = get(t, e, "/api/sp500/prices")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully loaded 9 price points for 3 tickers of S&P 500", resp.Message)

	var result service.UniverseSyncResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 3, result.Tickers)
	require.Len(t, result.Results, 3)
	assert.Equal(t, "AOS", result.Results[0].Ticker)

	code, resp = get(t, e, "/api/sp500/prices/%5EGSPC")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully loaded 0 price points for ^GSPC", resp.Message)

	code, resp = get(t, e, "/api/assets")
	require.Equal(t, http.StatusOK, code)
	var assets []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &assets))
	assert.Len(t, assets, 3)

	code, resp = get(t, e, "/api/assets/mmm/prices")
	require.Equal(t, http.StatusOK, code)
	var prices []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &prices))
	assert.Len(t, prices, 3)

	code, resp = get(t, e, "/api/analytics/MMM")
	require.Equal(t, http.StatusOK, code)
	var analytics service.Analytics
	require.NoError(t, json.Unmarshal(resp.Data, &analytics))
	require.Len(t, analytics.Points, 3)
	assert.Equal(t, 0.0, analytics.Points[2].RSM.Float64)
	assert.True(t, analytics.Points[2].RSM.Valid)

	code, resp = get(t, e, "/api/sp500/runs")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"kind":"prices"`)
}

func TestSyncPricesOutlivesClient(t *testing.T) {
	prices := &liveContexts{}
	e := newTestServerWithPrices(t, prices)
	get(t, e, "/api/sp500/meta")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sp500/prices", nil).WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully loaded 9 price points for 3 tickers of S&P 500", resp.Message)

	var result service.UniverseSyncResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	for _, r := range result.Results {
		assert.Equal(t, service.SyncStatusSynced, r.Status, r.Ticker)
	}
	assert.Equal(t, 3, prices.total)
	assert.Equal(t, 3, prices.live)
}

func TestNotFound(t *testing.T) {
	e := newTestServer(t)

	code, resp := get(t, e, "/api/analytics/NOPE")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFoundException", resp.ErrorType)

	code, resp = get(t, e, "/api/assets/NOPE/prices")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", resp.Status)
}

func TestMetricsRoute(t *testing.T) {
	e := newTestServer(t)
	get(t, e, "/api/sp500/prices/MMM")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spx_ticker_syncs_total")
}
