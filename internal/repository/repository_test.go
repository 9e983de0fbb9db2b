package repository

import (
	"testing"
	"time"

	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := ConnectDatabase(&config.Config{
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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func price(assetID uint32, at time.Time, close string) models.PriceModel {
	c := decimal.RequireFromString(close)
	return models.PriceModel{
		AssetID:  assetID,
		Datetime: at,
		High:     c,
		Low:      c,
		Open:     c,
		Close:    c,
		Volume:   decimal.NewFromInt(1000),
		AdjClose: c,
	}
}

func seedAsset(t *testing.T, repo *AssetRepository, symbol string) models.AssetModel {
	t.Helper()
	_, err := repo.InsertAssets([]models.AssetModel{{Symbol: symbol, MarketSymbol: "^GSPC", SecurityName: symbol + " Inc."}})
	require.NoError(t, err)
	asset, err := repo.GetAsset(symbol)
	require.NoError(t, err)
	return asset
}

func TestInsertAssetsSkipsExisting(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))

	assets := []models.AssetModel{
		{Symbol: "AAPL", MarketSymbol: "^GSPC", SecurityName: "Apple Inc."},
		{Symbol: "MSFT", MarketSymbol: "^GSPC", SecurityName: "Microsoft"},
	}
	inserted, err := repo.InsertAssets(assets)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	again := []models.AssetModel{
		{Symbol: "AAPL", MarketSymbol: "^GSPC", SecurityName: "Apple Inc."},
		{Symbol: "NVDA", MarketSymbol: "^GSPC", SecurityName: "Nvidia"},
	}
	inserted, err = repo.InsertAssets(again)
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	count, err := repo.GetAssetsRecordCount()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// the same symbol may belong to another market
	inserted, err = repo.InsertAssets([]models.AssetModel{{Symbol: "AAPL", MarketSymbol: "^NDX"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	listed, err := repo.GetAssetsByMarket("^GSPC")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "AAPL", listed[0].Symbol)
	assert.Equal(t, "Apple Inc. [AAPL]", listed[0].String())
}

func TestGetAssetNotFound(t *testing.T) {
	repo := NewAssetRepository(newTestDB(t))
	_, err := repo.GetAsset("ZZZZ")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestInsertPricesIsUniquePerAssetAndDay(t *testing.T) {
	db := newTestDB(t)
	asset := seedAsset(t, NewAssetRepository(db), "AAPL")
	repo := NewPriceRepository(db)

	inserted, err := repo.InsertPrices([]models.PriceModel{
		price(asset.ID, day(2024, 3, 4), "170.12"),
		price(asset.ID, day(2024, 3, 5), "171.5"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	inserted, err = repo.InsertPrices([]models.PriceModel{
		price(asset.ID, day(2024, 3, 5), "999"),
		price(asset.ID, day(2024, 3, 6), "172"),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	count, err := repo.CountPrices(asset.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	prices, err := repo.GetPrices(asset.ID)
	require.NoError(t, err)
	require.Len(t, prices, 3)
	assert.True(t, prices[0].Datetime.Equal(day(2024, 3, 4)))
	assert.True(t, prices[1].Close.Equal(decimal.RequireFromString("171.5")), "first write wins")
	assert.True(t, prices[2].Datetime.Equal(day(2024, 3, 6)))
}

func TestGetLatestDatetime(t *testing.T) {
	db := newTestDB(t)
	asset := seedAsset(t, NewAssetRepository(db), "MSFT")
	repo := NewPriceRepository(db)

	_, ok, err := repo.GetLatestDatetime(asset.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.InsertPrices([]models.PriceModel{
		price(asset.ID, day(2024, 1, 3), "10"),
		price(asset.ID, day(2024, 1, 2), "11"),
	})
	require.NoError(t, err)

	latest, ok, err := repo.GetLatestDatetime(asset.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, latest.Equal(day(2024, 1, 3)))
	assert.Equal(t, time.UTC, latest.Location())
}

func TestDeleteAssetCascades(t *testing.T) {
	db := newTestDB(t)
	assets := NewAssetRepository(db)
	asset := seedAsset(t, assets, "XOM")
	prices := NewPriceRepository(db)
	_, err := prices.InsertPrices([]models.PriceModel{price(asset.ID, day(2024, 1, 2), "100")})
	require.NoError(t, err)

	deleted, err := assets.DeleteAsset("XOM")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	count, err := prices.CountPrices(asset.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = assets.DeleteAsset("XOM")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestSyncRuns(t *testing.T) {
	repo := NewSyncRunRepository(newTestDB(t))

	run, err := repo.GetLatestSyncRun(models.SyncKindPrices)
	require.NoError(t, err)
	assert.Nil(t, run)

	require.NoError(t, repo.InsertSyncRun(&models.SyncRunModel{Kind: models.SyncKindPrices, Tickers: 3, Points: 6}))
	require.NoError(t, repo.InsertSyncRun(&models.SyncRunModel{Kind: models.SyncKindPrices, Tickers: 3, Points: 0}))

	run, err = repo.GetLatestSyncRun(models.SyncKindPrices)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.EqualValues(t, 0, run.Points)
}

func TestNotifyIsNoopOnSqlite(t *testing.T) {
	repo := NewPriceRepository(newTestDB(t))
	assert.NoError(t, repo.NotifyPricesSynced(`{"ticker":"AAPL"}`))
}
