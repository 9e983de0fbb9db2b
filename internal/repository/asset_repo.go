// Package repository contains the repository layer for the SPX Analytics API
package repository

import (
	"errors"
	"fmt"

	"github.com/nsvirk/spxanalytics/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAssetNotFound is returned when no asset exists for a symbol
var ErrAssetNotFound = errors.New("asset not found")

// AssetRepository is the database repository for assets
type AssetRepository struct {
	DB *gorm.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{DB: db}
}

// InsertAssets inserts assets, skipping any (symbol, market_symbol) pair already stored.
// It returns the number of rows actually written.
func (r *AssetRepository) InsertAssets(assets []models.AssetModel) (int64, error) {
	if len(assets) == 0 {
		return 0, nil
	}
	result := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "market_symbol"}},
		DoNothing: true,
	}).Create(&assets)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert batch into %s: %w", models.AssetsTableName, result.Error)
	}
	return result.RowsAffected, nil
}

// GetAsset returns the asset for symbol.
// A symbol is unique per market, the oldest record wins when it is listed in several.
func (r *AssetRepository) GetAsset(symbol string) (models.AssetModel, error) {
	var asset models.AssetModel
	err := r.DB.Where("symbol = ?", symbol).Order("id ASC").First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return asset, fmt.Errorf("%w: %s", ErrAssetNotFound, symbol)
		}
		return asset, fmt.Errorf("failed to get asset %s: %w", symbol, err)
	}
	return asset, nil
}

// GetAssets returns all assets ordered by symbol
func (r *AssetRepository) GetAssets() ([]models.AssetModel, error) {
	var assets []models.AssetModel
	if err := r.DB.Order("symbol ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	return assets, nil
}

// GetAssetsByMarket returns the assets belonging to a market (index) symbol
func (r *AssetRepository) GetAssetsByMarket(marketSymbol string) ([]models.AssetModel, error) {
	var assets []models.AssetModel
	err := r.DB.Where("market_symbol = ?", marketSymbol).
		Order("symbol ASC").
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assets for market %s: %w", marketSymbol, err)
	}
	return assets, nil
}

// GetAssetsRecordCount returns the number of records in the assets table
func (r *AssetRepository) GetAssetsRecordCount() (int64, error) {
	var count int64
	if err := r.DB.Model(&models.AssetModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get assets record count: %w", err)
	}
	return count, nil
}

// DeleteAsset removes an asset together with all of its prices
func (r *AssetRepository) DeleteAsset(symbol string) (int64, error) {
	var deleted int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var assets []models.AssetModel
		if err := tx.Where("symbol = ?", symbol).Find(&assets).Error; err != nil {
			return err
		}
		if len(assets) == 0 {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, symbol)
		}
		ids := make([]uint32, len(assets))
		for i, a := range assets {
			ids[i] = a.ID
		}
		if err := tx.Where("asset_id IN ?", ids).Delete(&models.PriceModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.AssetModel{}, ids)
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}
