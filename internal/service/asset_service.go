package service

import (
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"gorm.io/gorm"
)

// AssetService is the service for reading stored assets and prices
type AssetService struct {
	assetRepo *repository.AssetRepository
	priceRepo *repository.PriceRepository
}

// NewAssetService creates a new AssetService
func NewAssetService(db *gorm.DB) *AssetService {
	return &AssetService{
		assetRepo: repository.NewAssetRepository(db),
		priceRepo: repository.NewPriceRepository(db),
	}
}

// GetAssets returns the assets of a market, or all assets when market is empty
func (s *AssetService) GetAssets(market string) ([]models.AssetModel, error) {
	if market == "" {
		return s.assetRepo.GetAssets()
	}
	return s.assetRepo.GetAssetsByMarket(market)
}

// GetPrices returns the stored prices of ticker in ascending order
func (s *AssetService) GetPrices(ticker string) ([]models.PriceModel, error) {
	asset, err := s.assetRepo.GetAsset(ticker)
	if err != nil {
		return nil, err
	}
	return s.priceRepo.GetPrices(asset.ID)
}

// DeleteAsset removes ticker together with its prices
func (s *AssetService) DeleteAsset(ticker string) (int64, error) {
	return s.assetRepo.DeleteAsset(ticker)
}
