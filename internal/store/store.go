// Package store implements the declaration store: lookup-or-create access to
// users and phases, and the append-only statement log with latest-wins
// resolution.
//
// Lookup-or-create is an explicit read, insert, re-read-on-conflict sequence.
// Two concurrent first-time requests may both attempt the insert; the store's
// uniqueness constraint lets exactly one win and the loser re-reads the row
// the winner created. Requires gorm.Config.TranslateError so the conflict
// surfaces as gorm.ErrDuplicatedKey across dialects.
package store

import (
	"errors"
	"sort"
	"time"

	"github.com/mensa-app/mensa/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Declaration is one user's current declaration within a phase, as resolved
// by ListCurrentDeclarations.
type Declaration struct {
	User  models.User
	Value string
	Time  time.Time
}

// GetOrCreateUser returns the user with the given username, creating an
// enabled record on first sight.
func GetOrCreateUser(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{Username: username, Enabled: true}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a benign race, the row exists now.
			var existing models.User
			if err := db.Where("username = ?", username).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetOrCreatePhase returns the phase for (date, moment), creating it on
// first reference. Only the calendar date portion of date is significant.
func GetOrCreatePhase(db *gorm.DB, date time.Time, moment int) (*models.Phase, error) {
	key := datatypes.Date(date)

	var phase models.Phase
	err := db.Where("date = ? AND moment = ?", key, moment).First(&phase).Error
	if err == nil {
		return &phase, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	phase = models.Phase{Date: key, Moment: moment}
	if err := db.Create(&phase).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Phase
			if err := db.Where("date = ? AND moment = ?", key, moment).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return &phase, nil
}

// RecordStatement appends a declaration event for the user within the phase.
// A nil value records an explicit withdrawal.
func RecordStatement(db *gorm.DB, user *models.User, phase *models.Phase, t time.Time, value *string) (*models.Statement, error) {
	statement := models.Statement{
		UserID:  user.ID,
		PhaseID: phase.ID,
		Time:    t,
		Value:   value,
	}
	if err := db.Create(&statement).Error; err != nil {
		return nil, err
	}
	return &statement, nil
}

// ListCurrentDeclarations resolves the current declarations of a phase: for
// each user the statement with the greatest time wins (greatest ID on a
// tie), users whose winning statement is a withdrawal are dropped, and the
// rest are ordered by the winning statement's time ascending.
func ListCurrentDeclarations(db *gorm.DB, phase *models.Phase) ([]Declaration, error) {
	var statements []models.Statement
	err := db.Preload("User").
		Where("phase_id = ?", phase.ID).
		Find(&statements).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uint64]models.Statement)
	for _, s := range statements {
		prev, ok := latest[s.UserID]
		if !ok || s.Time.After(prev.Time) || (s.Time.Equal(prev.Time) && s.ID > prev.ID) {
			latest[s.UserID] = s
		}
	}

	declarations := make([]Declaration, 0, len(latest))
	for _, s := range latest {
		if s.Value == nil {
			continue
		}
		declarations = append(declarations, Declaration{
			User:  s.User,
			Value: *s.Value,
			Time:  s.Time,
		})
	}

	sort.Slice(declarations, func(i, j int) bool {
		return declarations[i].Time.Before(declarations[j].Time)
	})

	return declarations, nil
}

// LatestStatement returns the most recent statement of the user within the
// phase, or nil if the user has never submitted one. The returned statement
// may carry a nil value (a withdrawal). Ties on time resolve to the highest
// ID, the most recently inserted row.
func LatestStatement(db *gorm.DB, user *models.User, phase *models.Phase) (*models.Statement, error) {
	var statement models.Statement
	err := db.Where("user_id = ? AND phase_id = ?", user.ID, phase.ID).
		Order("time DESC, id DESC").
		First(&statement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &statement, nil
}
