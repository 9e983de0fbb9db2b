// Package state is a small key/value table used for job bookkeeping
package state

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateTableName is the name of the table for state entries
var StateTableName = "state"

// TimeLayout is the layout of timestamps written by SetTime
const TimeLayout = "2006-01-02 15:04:05"

// StateEntry is a single key/value row
type StateEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for StateEntry
func (StateEntry) TableName() string {
	return StateTableName
}

// State reads and writes state entries
type State struct {
	db *gorm.DB
}

// NewState migrates the state table and returns a State
func NewState(db *gorm.DB) (*State, error) {
	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, err
	}
	return &State{db: db}, nil
}

// Get returns the value for key, or "" when the key is not set
func (s *State) Get(key string) (string, error) {
	var entry StateEntry
	err := s.db.Where(&StateEntry{Key: key}).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return entry.Value, nil
}

// Set inserts or replaces the value for key
func (s *State) Set(key, value string) error {
	entry := StateEntry{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Delete removes key
func (s *State) Delete(key string) error {
	return s.db.Where(&StateEntry{Key: key}).Delete(&StateEntry{}).Error
}

// SetTime stores t in UTC under key using TimeLayout
func (s *State) SetTime(key string, t time.Time) error {
	return s.Set(key, t.UTC().Format(TimeLayout))
}

// GetTime returns the time stored under key; ok is false when unset or unparsable
func (s *State) GetTime(key string) (t time.Time, ok bool, err error) {
	value, err := s.Get(key)
	if err != nil || value == "" {
		return time.Time{}, false, err
	}
	t, perr := time.Parse(TimeLayout, value)
	if perr != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// IsSameDay reports whether a and b fall on the same calendar day in UTC
func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
