// Package models contains the models for the SPX Analytics API
package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRunsTableName is the name of the table for sync run records
var SyncRunsTableName = "sync_runs"

// Sync run kinds
const (
	SyncKindConstituents = "constituents"
	SyncKindPrices       = "prices"
)

// SyncRunModel records the outcome of one batch sync
type SyncRunModel struct {
	ID         uint32         `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       string         `gorm:"size:16;index" json:"kind"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Tickers    int            `json:"tickers"`
	Points     int64          `json:"points"`
	Failed     int            `json:"failed"`
	Results    datatypes.JSON `json:"results"`
}

// TableName specifies the table name for the SyncRun model
func (SyncRunModel) TableName() string {
	return SyncRunsTableName
}
