package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/nsvirk/spxanalytics/internal/indicator"
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Moving average windows in trading days
const (
	SMAShortWindow = 10 * 7
	SMALongWindow  = 30 * 7
)

const analyticsCacheTTL = 12 * time.Hour

// AnalyticsPoint is one row of the analytics series
type AnalyticsPoint struct {
	Datetime      time.Time  `json:"datetime"`
	AdjClose      null.Float `json:"adj_close"`
	Sma10w        null.Float `json:"sma_10w"`
	Sma30w        null.Float `json:"sma_30w"`
	AdjCloseIndex null.Float `json:"adj_close_index"`
	RSM           null.Float `json:"rsm"`
}

// Analytics holds the indicator series of one ticker against the benchmark
type Analytics struct {
	Ticker    string           `json:"ticker"`
	Benchmark string           `json:"benchmark"`
	Points    []AnalyticsPoint `json:"points"`
}

// AnalyticsCache stores computed analytics by key
type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisAnalyticsCache is an AnalyticsCache backed by Redis
type RedisAnalyticsCache struct {
	client *redis.Client
}

// NewRedisAnalyticsCache returns a Redis backed cache, or nil without a client
func NewRedisAnalyticsCache(client *redis.Client) AnalyticsCache {
	if client == nil {
		return nil
	}
	return &RedisAnalyticsCache{client: client}
}

// Get returns the cached value for key
func (c *RedisAnalyticsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set caches value under key for ttl
func (c *RedisAnalyticsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// AnalyticsService computes indicator series from stored prices
type AnalyticsService struct {
	benchmark string
	assetRepo *repository.AssetRepository
	priceRepo *repository.PriceRepository
	cache     AnalyticsCache
}

// NewAnalyticsService creates a new AnalyticsService; cache may be nil
func NewAnalyticsService(db *gorm.DB, benchmark string, cache AnalyticsCache) *AnalyticsService {
	return &AnalyticsService{
		benchmark: benchmark,
		assetRepo: repository.NewAssetRepository(db),
		priceRepo: repository.NewPriceRepository(db),
		cache:     cache,
	}
}

// GetAnalytics returns the moving averages and Mansfield relative strength of ticker.
// It returns repository.ErrAssetNotFound for unknown tickers.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, ticker string) (*Analytics, error) {
	asset, err := s.assetRepo.GetAsset(ticker)
	if err != nil {
		return nil, err
	}
	prices, err := s.priceRepo.GetPrices(asset.ID)
	if err != nil {
		return nil, err
	}

	result := &Analytics{Ticker: ticker, Benchmark: s.benchmark, Points: []AnalyticsPoint{}}
	if len(prices) == 0 {
		return result, nil
	}

	benchmarkLatest, err := s.benchmarkLatest()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("SPX:ANALYTICS:%s:%d:%d", ticker, prices[len(prices)-1].Datetime.Unix(), benchmarkLatest)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	series := seriesFromPrices(prices)

	index := series
	if ticker != s.benchmark {
		index, err = s.benchmarkSeries()
		if err != nil {
			return nil, err
		}
	}
	index = indicator.Reindex(index, series.Times)

	short := indicator.MovingAverage(series, SMAShortWindow)
	long := indicator.MovingAverage(series, SMALongWindow)
	rsm := indicator.MansfieldRelativeStrength(series, index)

	result.Points = make([]AnalyticsPoint, series.Len())
	for i, t := range series.Times {
		result.Points[i] = AnalyticsPoint{
			Datetime:      t,
			AdjClose:      series.Values[i],
			Sma10w:        short.Values[i],
			Sma30w:        long.Values[i],
			AdjCloseIndex: index.Values[i],
			RSM:           rsm.Values[i],
		}
	}

	s.toCache(ctx, key, result)
	return result, nil
}

// benchmarkSeries returns the benchmark's adjusted closes, empty when it is not stored yet
func (s *AnalyticsService) benchmarkSeries() (indicator.Series, error) {
	asset, err := s.assetRepo.GetAsset(s.benchmark)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			zaplogger.Warn("Benchmark has no stored prices", zaplogger.Fields{"ticker": s.benchmark})
			return indicator.Series{}, nil
		}
		return indicator.Series{}, err
	}
	prices, err := s.priceRepo.GetPrices(asset.ID)
	if err != nil {
		return indicator.Series{}, err
	}
	return seriesFromPrices(prices), nil
}

// benchmarkLatest returns the unix time of the benchmark's last stored bar, 0 when there is none
func (s *AnalyticsService) benchmarkLatest() (int64, error) {
	asset, err := s.assetRepo.GetAsset(s.benchmark)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return 0, nil
		}
		return 0, err
	}
	latest, ok, err := s.priceRepo.GetLatestDatetime(asset.ID)
	if err != nil || !ok {
		return 0, err
	}
	return latest.Unix(), nil
}

func seriesFromPrices(prices []models.PriceModel) indicator.Series {
	times := make([]time.Time, len(prices))
	values := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		times[i] = p.Datetime.UTC()
		values[i] = p.AdjClose
	}
	return indicator.FromDecimals(times, values)
}

func (s *AnalyticsService) fromCache(ctx context.Context, key string) (*Analytics, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		zaplogger.Warn("Analytics cache read failed", zaplogger.Fields{"key": key, "error": err.Error()})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var cached Analytics
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func (s *AnalyticsService) toCache(ctx context.Context, key string, analytics *Analytics) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(analytics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, analyticsCacheTTL); err != nil {
		zaplogger.Warn("Analytics cache write failed", zaplogger.Fields{"key": key, "error": err.Error()})
	}
}
