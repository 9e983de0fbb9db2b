// Package models contains the models for the SPX Analytics API
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricesTableName is the name of the table for daily prices
var PricesTableName = "asset_prices"

// PriceModel is one daily OHLCV bar of an asset
type PriceModel struct {
	ID       uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	AssetID  uint32          `gorm:"not null;uniqueIndex:idx_price_asset_datetime,priority:1" json:"-"`
	Datetime time.Time       `gorm:"not null;uniqueIndex:idx_price_asset_datetime,priority:2" json:"datetime"`
	High     decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"high"`
	Low      decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"low"`
	Open     decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"open"`
	Close    decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"close"`
	Volume   decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"volume"`
	AdjClose decimal.Decimal `gorm:"type:numeric(20,10);not null" json:"adj_close"`
}

// TableName specifies the table name for the Price model
func (PriceModel) TableName() string {
	return PricesTableName
}
