package service

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/fetcher"
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var syncNow = time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.ConnectDatabase(&config.Config{
		DatabaseDriver:   "sqlite",
		DatabaseDsn:      "file::memory:",
		DatabaseLogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type stubConstituents struct {
	table *fetcher.Table
	err   error
	calls int
}

func (s *stubConstituents) FetchConstituents(ctx context.Context) (*fetcher.Table, error) {
	s.calls++
	if s.err != nil {
		return &fetcher.Table{}, s.err
	}
	return s.table, nil
}

func constituentTable(symbols ...string) *fetcher.Table {
	table := &fetcher.Table{Columns: []string{"Symbol", "Security", "GICS Sector", "GICS Sub-Industry"}}
	for _, symbol := range symbols {
		table.Rows = append(table.Rows, []string{symbol, symbol + " Inc.", "Industrials", "Machinery"})
	}
	return table
}

type fetchCall struct {
	symbol     string
	start, end time.Time
}

// stubPrices returns the last three days before the requested end, or the fixed days when set
type stubPrices struct {
	fixed []time.Time
	fail  map[string]error
	extra string
	calls []fetchCall
}

func (s *stubPrices) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (*fetcher.Frame, error) {
	s.calls = append(s.calls, fetchCall{symbol, start, end})
	frame := &fetcher.Frame{Symbol: symbol, Columns: fetcher.ProviderColumnNames()}
	if err := s.fail[symbol]; err != nil {
		return frame, err
	}
	if s.extra != "" {
		frame.Columns = append(frame.Columns, s.extra)
	}

	days := s.fixed
	if days == nil {
		days = []time.Time{end.AddDate(0, 0, -3), end.AddDate(0, 0, -2), end.AddDate(0, 0, -1)}
	}
	for i, d := range days {
		v := decimal.NewFromInt(int64(100 + i))
		values := []decimal.Decimal{v, v, v, v, decimal.NewFromInt(1000), v}
		if s.extra != "" {
			values = append(values, decimal.Zero)
		}
		frame.Rows = append(frame.Rows, fetcher.FrameRow{Date: d, Values: values})
	}
	return frame, nil
}

func newTestSyncService(t *testing.T, constituents *stubConstituents, prices *stubPrices) (*SyncService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSyncService(db, constituents, prices, SyncOptions{
		LookbackYears:   5,
		BenchmarkSymbol: "^GSPC",
		DataRoot:        t.TempDir(),
	})
	svc.now = func() time.Time { return syncNow }
	return svc, db
}

func seedAssets(t *testing.T, db *gorm.DB, symbols ...string) {
	t.Helper()
	assets := make([]models.AssetModel, len(symbols))
	for i, symbol := range symbols {
		assets[i] = models.AssetModel{Symbol: symbol, MarketSymbol: "^GSPC", SecurityName: symbol}
	}
	_, err := repository.NewAssetRepository(db).InsertAssets(assets)
	require.NoError(t, err)
}

func countPrices(t *testing.T, db *gorm.DB, symbol string) int64 {
	t.Helper()
	asset, err := repository.NewAssetRepository(db).GetAsset(symbol)
	require.NoError(t, err)
	n, err := repository.NewPriceRepository(db).CountPrices(asset.ID)
	require.NoError(t, err)
	return n
}

func TestSyncTickerFirstRunFetchesLookbackWindow(t *testing.T) {
	prices := &stubPrices{}
	svc, db := newTestSyncService(t, &stubConstituents{}, prices)
	seedAssets(t, db, "MMM")

	result := svc.SyncTicker(context.Background(), "MMM")
	assert.Equal(t, TickerSyncResult{Ticker: "MMM", Status: SyncStatusSynced, Points: 3}, result)

	require.Len(t, prices.calls, 1)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, prices.calls[0].end)
	assert.Equal(t, today.AddDate(0, 0, -5*365), prices.calls[0].start)
	assert.Equal(t, int64(3), countPrices(t, db, "MMM"))
}

func TestSyncTickerIsIdempotent(t *testing.T) {
	prices := &stubPrices{}
	svc, db := newTestSyncService(t, &stubConstituents{}, prices)
	seedAssets(t, db, "MMM")

	first := svc.SyncTicker(context.Background(), "MMM")
	require.Equal(t, int64(3), first.Points)

	second := svc.SyncTicker(context.Background(), "MMM")
	assert.Equal(t, SyncStatusSkipped, second.Status)
	assert.Equal(t, int64(0), second.Points)
	assert.Len(t, prices.calls, 1, "an empty window must not reach the provider")

	// a day later the provider returns bars that are already stored
	svc.now = func() time.Time { return syncNow.AddDate(0, 0, 1) }
	prices.fixed = []time.Time{
		time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	third := svc.SyncTicker(context.Background(), "MMM")
	assert.Equal(t, SyncStatusSynced, third.Status)
	assert.Equal(t, int64(0), third.Points)
	assert.Equal(t, int64(3), countPrices(t, db, "MMM"))
}

func TestSyncTickerMissingAssetIsSkipped(t *testing.T) {
	prices := &stubPrices{}
	svc, _ := newTestSyncService(t, &stubConstituents{}, prices)

	result := svc.SyncTicker(context.Background(), "NOPE")
	assert.Equal(t, SyncStatusSkipped, result.Status)
	assert.Equal(t, "asset not found", result.Reason)
	assert.Empty(t, prices.calls)
}

func TestSyncTickerRejectsUndeclaredColumns(t *testing.T) {
	svc, db := newTestSyncService(t, &stubConstituents{}, &stubPrices{extra: "Dividends"})
	seedAssets(t, db, "MMM")

	result := svc.SyncTicker(context.Background(), "MMM")
	assert.Equal(t, SyncStatusFailed, result.Status)
	assert.Contains(t, result.Reason, "normalize")
	assert.Equal(t, int64(0), countPrices(t, db, "MMM"))
}

func TestSyncUniverseIsolatesProviderFailures(t *testing.T) {
	prices := &stubPrices{fail: map[string]error{"BBB": errors.New("connection reset")}}
	svc, db := newTestSyncService(t, &stubConstituents{table: constituentTable("CCC", "BBB", "AAA")}, prices)
	seedAssets(t, db, "AAA", "BBB", "CCC")

	result := svc.SyncUniverse(context.Background())

	assert.Equal(t, 4, result.Tickers)
	assert.Equal(t, int64(6), result.Points)
	assert.Equal(t, 1, result.Failed)

	byTicker := map[string]TickerSyncResult{}
	for _, r := range result.Results {
		byTicker[r.Ticker] = r
	}
	assert.Equal(t, SyncStatusFailed, byTicker["BBB"].Status)
	assert.Contains(t, byTicker["BBB"].Reason, "connection reset")
	assert.Equal(t, SyncStatusSkipped, byTicker["^GSPC"].Status)

	var order []string
	for _, c := range prices.calls {
		order = append(order, c.symbol)
	}
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, order)
}

func TestSyncConstituentsInsertOrSkip(t *testing.T) {
	svc, db := newTestSyncService(t, &stubConstituents{table: constituentTable("MMM", "AOS")}, &stubPrices{})

	n, err := svc.SyncConstituents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "Successfully loaded 2 records of S&P 500", ConstituentsMessage(n))

	n, err = svc.SyncConstituents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assets := repository.NewAssetRepository(db)
	mmm, err := assets.GetAsset("MMM")
	require.NoError(t, err)
	assert.Equal(t, "^GSPC", mmm.MarketSymbol)
	assert.Equal(t, "MMM Inc.", mmm.SecurityName)
	assert.Equal(t, "Industrials", mmm.GicsIndustry)
	assert.Equal(t, "Machinery", mmm.GicsSubIndustry)

	benchmark, err := assets.GetAsset("^GSPC")
	require.NoError(t, err)
	assert.Equal(t, "^GSPC", benchmark.MarketSymbol)

	run, err := svc.LatestRun(models.SyncKindConstituents)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, int64(0), run.Points)
}

func TestSyncConstituentsEmptyScrapeDoesNothing(t *testing.T) {
	svc, db := newTestSyncService(t, &stubConstituents{err: fetcher.ErrUnexpectedStatus}, &stubPrices{})

	n, err := svc.SyncConstituents(context.Background())
	assert.ErrorIs(t, err, fetcher.ErrUnexpectedStatus)
	assert.Equal(t, int64(0), n)

	svc.constituents = &stubConstituents{table: &fetcher.Table{}}
	n, err = svc.SyncConstituents(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	count, err := repository.NewAssetRepository(db).GetAssetsRecordCount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSyncUniverseEndToEnd(t *testing.T) {
	svc, db := newTestSyncService(t, &stubConstituents{table: constituentTable("MMM", "AOS")}, &stubPrices{})

	_, err := svc.SyncConstituents(context.Background())
	require.NoError(t, err)

	result := svc.SyncUniverse(context.Background())
	assert.Equal(t, 3, result.Tickers)
	assert.Equal(t, int64(9), result.Points)
	assert.Equal(t, "Successfully loaded 9 price points for 3 tickers of S&P 500", result.Message())

	var stored int64
	require.NoError(t, db.Model(&models.PriceModel{}).Count(&stored).Error)
	assert.Equal(t, int64(9), stored)

	run, err := svc.LatestRun(models.SyncKindPrices)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 3, run.Tickers)
	assert.Equal(t, int64(9), run.Points)
	assert.Contains(t, string(run.Results), `"ticker":"AOS"`)

	again := svc.SyncUniverse(context.Background())
	assert.Equal(t, 3, again.Tickers)
	assert.Equal(t, int64(0), again.Points)
}

func TestSyncUniverseWithoutBenchmarkAsset(t *testing.T) {
	svc, db := newTestSyncService(t, &stubConstituents{table: constituentTable("MMM", "AOS")}, &stubPrices{})
	seedAssets(t, db, "MMM", "AOS")

	result := svc.SyncUniverse(context.Background())
	assert.Equal(t, 3, result.Tickers)
	assert.Equal(t, int64(6), result.Points)
	assert.Equal(t, 0, result.Failed)

	var stored int64
	require.NoError(t, db.Model(&models.PriceModel{}).Count(&stored).Error)
	assert.Equal(t, int64(6), stored)
}

func TestUniverseFallsBackToStoredAssets(t *testing.T) {
	svc, db := newTestSyncService(t, &stubConstituents{err: errors.New("offline")}, &stubPrices{})
	seedAssets(t, db, "ZTS", "MMM")

	tickers, err := svc.Universe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MMM", "ZTS", "^GSPC"}, tickers)
}

func TestSyncUniverseStopsFetchingWhenCancelled(t *testing.T) {
	prices := &stubPrices{}
	svc, db := newTestSyncService(t, &stubConstituents{table: constituentTable("MMM")}, prices)
	seedAssets(t, db, "MMM")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.SyncUniverse(ctx)
	assert.Equal(t, 2, result.Tickers)
	assert.Empty(t, prices.calls)
	for _, r := range result.Results {
		assert.Equal(t, SyncStatusSkipped, r.Status)
	}
}

func TestClipKeepsWholeRunes(t *testing.T) {
	assert.Equal(t, "MMM", clip("  MMM ", 10))
	assert.Equal(t, "Abcdefghié", clip("Abcdefghié", 10))

	clipped := clip("Abcdefghiéxyz", 10)
	assert.True(t, utf8.ValidString(clipped))
	assert.Equal(t, "Abcdefghié", clipped)

	assert.Equal(t, "Société", clip("Société Générale", 7))
}
