// Package repository contains the repository layer for the SPX Analytics API
package repository

import (
	"errors"
	"fmt"

	"github.com/nsvirk/spxanalytics/internal/models"
	"gorm.io/gorm"
)

// SyncRunRepository is the database repository for sync run records
type SyncRunRepository struct {
	DB *gorm.DB
}

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{DB: db}
}

// InsertSyncRun stores a sync run record
func (r *SyncRunRepository) InsertSyncRun(run *models.SyncRunModel) error {
	if err := r.DB.Create(run).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", models.SyncRunsTableName, err)
	}
	return nil
}

// GetLatestSyncRun returns the most recent run of a kind, or nil when there is none
func (r *SyncRunRepository) GetLatestSyncRun(kind string) (*models.SyncRunModel, error) {
	var run models.SyncRunModel
	err := r.DB.Where("kind = ?", kind).Order("id DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest %s sync run: %w", kind, err)
	}
	return &run, nil
}
