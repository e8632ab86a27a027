package models

import (
	"strings"
	"time"
)

// User is a member of the group. Rows are created lazily the first time an
// identity shows up and are never deleted; disabling a user keeps the row
// but blocks access.
type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"size:255;not null;uniqueIndex"`
	// No default tag: GORM would skip a zero-valued (disabled) field on
	// insert and write the default instead. The store always sets it.
	Enabled   bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// PrettyName returns the display form of the username with the given domain
// suffix stripped. Display only, never used for storage or lookup.
func (u *User) PrettyName(suffix string) string {
	if suffix == "" {
		return u.Username
	}
	return strings.TrimSuffix(u.Username, suffix)
}
