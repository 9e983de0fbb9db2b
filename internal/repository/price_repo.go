// Package repository contains the repository layer for the SPX Analytics API
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/nsvirk/spxanalytics/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PricesSyncedChannel is the postgres NOTIFY channel for price sync events
var PricesSyncedChannel = "CH:SPX:PRICES:SYNCED"

const insertBatchSize = 500

// PriceRepository is the database repository for daily prices
type PriceRepository struct {
	DB *gorm.DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{DB: db}
}

// InsertPrices inserts prices in batches. Rows whose (asset_id, datetime) is already
// stored are skipped, so the returned count is the number of rows actually written.
func (r *PriceRepository) InsertPrices(prices []models.PriceModel) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	var inserted int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < len(prices); i += insertBatchSize {
			end := i + insertBatchSize
			if end > len(prices) {
				end = len(prices)
			}
			batch := prices[i:end]
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "asset_id"}, {Name: "datetime"}},
				DoNothing: true,
			}).Create(&batch)
			if result.Error != nil {
				return fmt.Errorf("failed to insert batch starting at index %d: %w", i, result.Error)
			}
			inserted += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", models.PricesTableName, err)
	}
	return inserted, nil
}

// GetPrices returns the prices of an asset ordered by ascending datetime
func (r *PriceRepository) GetPrices(assetID uint32) ([]models.PriceModel, error) {
	var prices []models.PriceModel
	err := r.DB.Where("asset_id = ?", assetID).
		Order("datetime ASC").
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for asset %d: %w", assetID, err)
	}
	return prices, nil
}

// GetLatestDatetime returns the most recent stored datetime for an asset.
// ok is false when the asset has no prices.
func (r *PriceRepository) GetLatestDatetime(assetID uint32) (latest time.Time, ok bool, err error) {
	var price models.PriceModel
	err = r.DB.Select("datetime").
		Where("asset_id = ?", assetID).
		Order("datetime DESC").
		Take(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get latest datetime for asset %d: %w", assetID, err)
	}
	return price.Datetime.UTC(), true, nil
}

// CountPrices returns the number of stored prices for an asset
func (r *PriceRepository) CountPrices(assetID uint32) (int64, error) {
	var count int64
	err := r.DB.Model(&models.PriceModel{}).Where("asset_id = ?", assetID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count prices for asset %d: %w", assetID, err)
	}
	return count, nil
}

// NotifyPricesSynced emits a NOTIFY on PricesSyncedChannel; other dialects ignore it
func (r *PriceRepository) NotifyPricesSynced(payload string) error {
	if r.DB.Dialector.Name() != "postgres" {
		return nil
	}
	return r.DB.Exec("SELECT pg_notify(?, ?)", PricesSyncedChannel, payload).Error
}
