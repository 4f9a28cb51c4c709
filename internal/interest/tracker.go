// Package interest records property engagement and keeps the per-property
// counters in step with it.
package interest

import (
	"context"
	"errors"
	"fmt"

	"dreambid/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

var (
	ErrInvalidInterestType = errors.New("invalid interest_type, must be one of: view, share, contact, save")
	ErrPropertyNotFound    = errors.New("property not found")
)

// Event is one engagement with a property
type Event struct {
	PropertyID uint
	UserID     *uint
	Type       models.InterestType
	IPAddress  string
	UserAgent  string
}

// Stats summarizes the interest log of one property
type Stats struct {
	Views    int64 `json:"views"`
	Shares   int64 `json:"shares"`
	Contacts int64 `json:"contacts"`
	Saves    int64 `json:"saves"`
}

// Tracker writes interest rows and bumps property counters
type Tracker struct {
	db *gorm.DB
}

// NewTracker creates a new tracker
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// IsValidType reports whether t is a known interest type
func IsValidType(t models.InterestType) bool {
	return lo.Contains(models.InterestTypes, t)
}

// Track records the event. The interest insert and the counter increment
// commit together or not at all.
func (t *Tracker) Track(ctx context.Context, event Event) (*models.PropertyInterest, error) {
	if !IsValidType(event.Type) {
		return nil, ErrInvalidInterestType
	}

	row := &models.PropertyInterest{
		PropertyID:   event.PropertyID,
		UserID:       event.UserID,
		InterestType: event.Type,
		IPAddress:    event.IPAddress,
		UserAgent:    event.UserAgent,
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&models.Property{}).
			Where("id = ? AND is_active = ?", event.PropertyID, true).
			Count(&found).Error; err != nil {
			return err
		}
		if found == 0 {
			return ErrPropertyNotFound
		}

		if err := tx.Create(row).Error; err != nil {
			return err
		}

		column := event.Type.CounterColumn()
		if column == "" {
			return nil
		}
		return tx.Model(&models.Property{}).
			Where("id = ?", event.PropertyID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to track %s interest: %w", event.Type, err)
	}
	return row, nil
}

// Stats counts the interest log of a property by type
func (t *Tracker) Stats(ctx context.Context, propertyID uint) (Stats, error) {
	var rows []struct {
		InterestType models.InterestType
		Count        int64
	}
	err := t.db.WithContext(ctx).Model(&models.PropertyInterest{}).
		Select("interest_type, COUNT(*) AS count").
		Where("property_id = ?", propertyID).
		Group("interest_type").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load interest stats: %w", err)
	}

	var stats Stats
	for _, r := range rows {
		switch r.InterestType {
		case models.InterestView:
			stats.Views = r.Count
		case models.InterestShare:
			stats.Shares = r.Count
		case models.InterestContact:
			stats.Contacts = r.Count
		case models.InterestSave:
			stats.Saves = r.Count
		}
	}
	return stats, nil
}
