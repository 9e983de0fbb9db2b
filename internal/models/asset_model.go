// Package models contains the models for the SPX Analytics API
package models

import (
	"fmt"
	"time"
)

// AssetsTableName is the name of the table for assets
var AssetsTableName = "assets"

// AssetModel is an index constituent, or the benchmark index itself
type AssetModel struct {
	ID              uint32       `gorm:"primaryKey;autoIncrement" json:"-"`
	Symbol          string       `gorm:"size:10;not null;uniqueIndex:idx_asset_symbol_market,priority:1" json:"symbol"`
	MarketSymbol    string       `gorm:"size:10;not null;default:'^GSPC';uniqueIndex:idx_asset_symbol_market,priority:2" json:"market_symbol"`
	SecurityName    string       `gorm:"size:64" json:"security_name"`
	GicsIndustry    string       `gorm:"size:64" json:"gics_industry,omitempty"`
	GicsSubIndustry string       `gorm:"size:64" json:"gics_sub_industry,omitempty"`
	Prices          []PriceModel `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"-"`
}

// TableName specifies the table name for the Asset model
func (AssetModel) TableName() string {
	return AssetsTableName
}

func (a AssetModel) String() string {
	return fmt.Sprintf("%s [%s]", a.SecurityName, a.Symbol)
}
