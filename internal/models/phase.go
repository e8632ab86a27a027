package models

import (
	"time"

	"gorm.io/datatypes"
)

// Phase is one meal window on one calendar date. Moment indexes the daily
// schedule table. At most one row may exist per (date, moment); phases are
// created lazily on first reference and never change afterwards.
type Phase struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Date      datatypes.Date `gorm:"not null;index:idx_phase_date_moment,unique"`
	Moment    int            `gorm:"not null;index:idx_phase_date_moment,unique"`
	CreatedAt time.Time
}

// TableName overrides the table name for Phase
func (Phase) TableName() string {
	return "phases"
}
