// Package service contains the service layer for the SPX Analytics API
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/fetcher"
	"github.com/nsvirk/spxanalytics/internal/metrics"
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Constituent table headers
const (
	columnSymbol          = "Symbol"
	columnSecurity        = "Security"
	columnGicsSector      = "GICS Sector"
	columnGicsSubIndustry = "GICS Sub-Industry"
)

// SyncOptions configures the sync engine
type SyncOptions struct {
	LookbackYears   int
	BenchmarkSymbol string
	DataRoot        string
}

// SyncOptionsFromConfig builds SyncOptions from the application configuration
func SyncOptionsFromConfig(cfg *config.Config) SyncOptions {
	return SyncOptions{
		LookbackYears:   cfg.LookbackYears,
		BenchmarkSymbol: cfg.BenchmarkSymbol,
		DataRoot:        cfg.DataRoot,
	}
}

// SyncStatus is the outcome of syncing one ticker
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusSkipped SyncStatus = "skipped"
	SyncStatusFailed  SyncStatus = "failed"
)

// TickerSyncResult reports what happened to one ticker
type TickerSyncResult struct {
	Ticker string     `json:"ticker"`
	Status SyncStatus `json:"status"`
	Points int64      `json:"points"`
	Reason string     `json:"reason,omitempty"`
}

// UniverseSyncResult aggregates a batch price sync
type UniverseSyncResult struct {
	Tickers int                `json:"tickers"`
	Points  int64              `json:"points"`
	Failed  int                `json:"failed"`
	Results []TickerSyncResult `json:"results"`
}

// Message returns the human readable status of the batch
func (r UniverseSyncResult) Message() string {
	return fmt.Sprintf("Successfully loaded %d price points for %d tickers of S&P 500", r.Points, r.Tickers)
}

// ConstituentsMessage returns the human readable status of a constituent sync
func ConstituentsMessage(records int64) string {
	return fmt.Sprintf("Successfully loaded %d records of S&P 500", records)
}

// PricesSyncedEvent is the payload emitted after a ticker wrote new price points
type PricesSyncedEvent struct {
	Ticker string    `json:"ticker"`
	Points int64     `json:"points"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// SyncService keeps the store in step with the constituent and price sources
type SyncService struct {
	opts         SyncOptions
	assetRepo    *repository.AssetRepository
	priceRepo    *repository.PriceRepository
	syncRunRepo  *repository.SyncRunRepository
	constituents fetcher.ConstituentSource
	prices       fetcher.PriceFetcher
	now          func() time.Time
}

// NewSyncService creates a new SyncService
func NewSyncService(db *gorm.DB, constituents fetcher.ConstituentSource, prices fetcher.PriceFetcher, opts SyncOptions) *SyncService {
	return &SyncService{
		opts:         opts,
		assetRepo:    repository.NewAssetRepository(db),
		priceRepo:    repository.NewPriceRepository(db),
		syncRunRepo:  repository.NewSyncRunRepository(db),
		constituents: constituents,
		prices:       prices,
		now:          time.Now,
	}
}

// Options returns the options the service was built with
func (s *SyncService) Options() SyncOptions {
	return s.opts
}

// SyncConstituents scrapes the constituent table and stores every asset not yet known,
// together with the benchmark itself. It returns the number of constituents written.
// An empty scrape performs no update.
func (s *SyncService) SyncConstituents(ctx context.Context) (int64, error) {
	startedAt := s.now()
	began := time.Now()
	defer func() {
		metrics.SyncRuns.WithLabelValues(models.SyncKindConstituents).Inc()
		metrics.SyncLatency.WithLabelValues(models.SyncKindConstituents).Observe(time.Since(began).Seconds())
	}()

	table, err := s.constituents.FetchConstituents(ctx)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("constituents").Inc()
		zaplogger.Error("Constituents fetch failed", zaplogger.Fields{
			"operation": "sync_constituents",
			"error":     err.Error(),
		})
		return 0, fmt.Errorf("failed to fetch constituents: %w", err)
	}
	if table.Empty() {
		zaplogger.Warn("Constituents table is empty, nothing to update", zaplogger.Fields{
			"operation": "sync_constituents",
		})
		return 0, nil
	}

	assets := s.assetsFromTable(table)
	inserted, err := s.assetRepo.InsertAssets(assets)
	if err != nil {
		zaplogger.Error("Constituents insert failed", zaplogger.Fields{
			"operation": "sync_constituents",
			"assets":    len(assets),
			"error":     err.Error(),
		})
		return 0, err
	}

	benchmark := models.AssetModel{
		Symbol:       s.opts.BenchmarkSymbol,
		MarketSymbol: s.opts.BenchmarkSymbol,
		SecurityName: s.opts.BenchmarkSymbol + " index",
	}
	if _, err := s.assetRepo.InsertAssets([]models.AssetModel{benchmark}); err != nil {
		zaplogger.Error("Benchmark asset insert failed", zaplogger.Fields{
			"operation": "sync_constituents",
			"ticker":    benchmark.Symbol,
			"error":     err.Error(),
		})
	}

	metrics.AssetsWritten.Add(float64(inserted))
	s.recordRun(&models.SyncRunModel{
		Kind:      models.SyncKindConstituents,
		StartedAt: startedAt,
		Tickers:   len(assets),
		Points:    inserted,
	}, nil)

	zaplogger.Info("Constituents synced", zaplogger.Fields{
		"operation": "sync_constituents",
		"scraped":   len(assets),
		"inserted":  inserted,
	})
	return inserted, nil
}

func (s *SyncService) assetsFromTable(table *fetcher.Table) []models.AssetModel {
	assets := make([]models.AssetModel, 0, len(table.Rows))
	for _, row := range table.Rows {
		symbol := table.Value(row, columnSymbol)
		if symbol == "" {
			continue
		}
		assets = append(assets, models.AssetModel{
			Symbol:          clip(symbol, 10),
			MarketSymbol:    s.opts.BenchmarkSymbol,
			SecurityName:    clip(table.Value(row, columnSecurity), 64),
			GicsIndustry:    clip(table.Value(row, columnGicsSector), 64),
			GicsSubIndustry: clip(table.Value(row, columnGicsSubIndustry), 64),
		})
	}
	return assets
}

// Universe returns the sorted, de-duplicated tickers of a batch sync: the scraped
// constituents, or the stored ones when the scrape is empty, plus the benchmark.
func (s *SyncService) Universe(ctx context.Context) ([]string, error) {
	var symbols []string

	table, err := s.constituents.FetchConstituents(ctx)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("constituents").Inc()
		zaplogger.Warn("Constituents fetch failed, using stored assets", zaplogger.Fields{
			"operation": "sync_universe",
			"error":     err.Error(),
		})
	}
	if !table.Empty() {
		for _, row := range table.Rows {
			symbols = append(symbols, table.Value(row, columnSymbol))
		}
	} else {
		assets, err := s.assetRepo.GetAssetsByMarket(s.opts.BenchmarkSymbol)
		if err != nil {
			return nil, err
		}
		for _, asset := range assets {
			symbols = append(symbols, asset.Symbol)
		}
	}
	symbols = append(symbols, s.opts.BenchmarkSymbol)

	seen := make(map[string]bool, len(symbols))
	tickers := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		tickers = append(tickers, symbol)
	}
	sort.Strings(tickers)
	return tickers, nil
}

// SyncUniverse syncs every ticker of the universe in order. A failing ticker is recorded
// in the results and never aborts the batch.
func (s *SyncService) SyncUniverse(ctx context.Context) UniverseSyncResult {
	startedAt := s.now()
	began := time.Now()
	defer zaplogger.TimeTrack(began, "SyncUniverse")
	defer func() {
		metrics.SyncRuns.WithLabelValues(models.SyncKindPrices).Inc()
		metrics.SyncLatency.WithLabelValues(models.SyncKindPrices).Observe(time.Since(began).Seconds())
	}()

	var result UniverseSyncResult
	tickers, err := s.Universe(ctx)
	if err != nil {
		zaplogger.Error("Failed to enumerate universe", zaplogger.Fields{
			"operation": "sync_universe",
			"error":     err.Error(),
		})
		return result
	}

	result.Results = make([]TickerSyncResult, 0, len(tickers))
	for _, ticker := range tickers {
		var r TickerSyncResult
		if ctxErr := ctx.Err(); ctxErr != nil {
			r = TickerSyncResult{Ticker: ticker, Status: SyncStatusSkipped, Reason: ctxErr.Error()}
		} else {
			r = s.SyncTicker(ctx, ticker)
		}
		result.Results = append(result.Results, r)
		result.Tickers++
		result.Points += r.Points
		if r.Status == SyncStatusFailed {
			result.Failed++
		}
	}

	s.recordRun(&models.SyncRunModel{
		Kind:      models.SyncKindPrices,
		StartedAt: startedAt,
		Tickers:   result.Tickers,
		Points:    result.Points,
		Failed:    result.Failed,
	}, result.Results)

	zaplogger.Info("Universe synced", zaplogger.Fields{
		"operation": "sync_universe",
		"tickers":   result.Tickers,
		"points":    result.Points,
		"failed":    result.Failed,
	})
	return result
}

// SyncTicker fetches and stores the price bars missing for ticker.
// Every failure is reported in the result, nothing is returned as an error.
func (s *SyncService) SyncTicker(ctx context.Context, ticker string) (result TickerSyncResult) {
	result = TickerSyncResult{Ticker: ticker}
	defer func() {
		if r := recover(); r != nil {
			result = s.fail(ticker, "sync_ticker", fmt.Errorf("panic: %v", r))
		}
		metrics.TickerSyncs.WithLabelValues(string(result.Status)).Inc()
	}()

	asset, err := s.assetRepo.GetAsset(ticker)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return s.skip(ticker, "asset not found")
		}
		return s.fail(ticker, "get_asset", err)
	}

	last, hasData, err := s.priceRepo.GetLatestDatetime(asset.ID)
	if err != nil {
		return s.fail(ticker, "get_latest_datetime", err)
	}

	window := ResolveWindowAfter(last, hasData, s.now(), s.opts.LookbackYears)
	if window.Empty() {
		return s.skip(ticker, "up to date")
	}

	frame, err := s.prices.FetchDailyBars(ctx, ticker, window.Start, window.End)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("prices").Inc()
		return s.fail(ticker, "fetch_prices", err)
	}

	bars, err := fetcher.Normalize(frame)
	if err != nil {
		return s.fail(ticker, "normalize", err)
	}

	prices := make([]models.PriceModel, len(bars))
	for i, bar := range bars {
		prices[i] = models.PriceModel{
			AssetID:  asset.ID,
			Datetime: bar.Datetime,
			High:     bar.High,
			Low:      bar.Low,
			Open:     bar.Open,
			Close:    bar.Close,
			Volume:   bar.Volume,
			AdjClose: bar.AdjClose,
		}
	}

	inserted, err := s.priceRepo.InsertPrices(prices)
	if err != nil {
		return s.fail(ticker, "insert_prices", err)
	}
	metrics.PricePointsWritten.Add(float64(inserted))

	if inserted > 0 {
		s.notify(PricesSyncedEvent{Ticker: ticker, Points: inserted, Start: window.Start, End: window.End})
	}

	zaplogger.Info("Ticker synced", zaplogger.Fields{
		"ticker":    ticker,
		"operation": "sync_ticker",
		"status":    SyncStatusSynced,
		"window":    window.String(),
		"fetched":   len(bars),
		"points":    inserted,
	})
	return TickerSyncResult{Ticker: ticker, Status: SyncStatusSynced, Points: inserted}
}

func (s *SyncService) skip(ticker, reason string) TickerSyncResult {
	zaplogger.Debug("Ticker skipped", zaplogger.Fields{
		"ticker":    ticker,
		"operation": "sync_ticker",
		"status":    SyncStatusSkipped,
		"reason":    reason,
	})
	return TickerSyncResult{Ticker: ticker, Status: SyncStatusSkipped, Reason: reason}
}

func (s *SyncService) fail(ticker, operation string, err error) TickerSyncResult {
	zaplogger.Error("Ticker sync failed", zaplogger.Fields{
		"ticker":    ticker,
		"operation": operation,
		"status":    SyncStatusFailed,
		"points":    0,
		"error":     err.Error(),
	})
	return TickerSyncResult{Ticker: ticker, Status: SyncStatusFailed, Reason: fmt.Sprintf("%s: %v", operation, err)}
}

func (s *SyncService) notify(event PricesSyncedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.priceRepo.NotifyPricesSynced(string(payload)); err != nil {
		zaplogger.Warn("Failed to notify prices synced", zaplogger.Fields{
			"ticker": event.Ticker,
			"error":  err.Error(),
		})
	}
}

func (s *SyncService) recordRun(run *models.SyncRunModel, results []TickerSyncResult) {
	run.FinishedAt = s.now()
	if results != nil {
		raw, err := json.Marshal(results)
		if err == nil {
			run.Results = datatypes.JSON(raw)
		}
	}
	if err := s.syncRunRepo.InsertSyncRun(run); err != nil {
		zaplogger.Warn("Failed to record sync run", zaplogger.Fields{
			"kind":  run.Kind,
			"error": err.Error(),
		})
	}
}

// LatestRun returns the last recorded run of kind, or nil
func (s *SyncService) LatestRun(kind string) (*models.SyncRunModel, error) {
	return s.syncRunRepo.GetLatestSyncRun(kind)
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	zaplogger.Warn("Value clipped to column width", zaplogger.Fields{"value": s, "width": n})
	return string(runes[:n])
}
