package models

import "time"

// Statement is one declaration event. The table is append-only: every
// submission inserts a new row, and the current declaration of a user within
// a phase is the row with the greatest Time for that pair (greatest ID on a
// timestamp tie, so a resubmission within one clock tick still supersedes).
// A NULL Value is an explicit withdrawal marker, distinct from having never
// declared. The index is plain, not unique: same-instant rows are legal.
type Statement struct {
	ID      uint64    `gorm:"primaryKey;autoIncrement"`
	UserID  uint64    `gorm:"not null;index:idx_statement_user_phase_time"`
	PhaseID uint64    `gorm:"not null;index:idx_statement_user_phase_time"`
	Time    time.Time `gorm:"not null;index:idx_statement_user_phase_time"`
	Value   *string   `gorm:"type:text"`

	User  User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Phase Phase `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName overrides the table name for Statement
func (Statement) TableName() string {
	return "statements"
}
