package activity

import (
	"context"
	"fmt"
	"time"

	"dreambid/internal/models"

	"gorm.io/gorm"
)

const (
	DefaultLimit    = 100
	MaxLimit        = 1000
	DefaultDaysBack = 30
)

// Service reads and synchronously writes the activity log
type Service struct {
	db *gorm.DB
}

// NewService creates a new activity service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ActionStat is one row of a per-user activity breakdown
type ActionStat struct {
	Action       string    `json:"action"`
	Count        int64     `json:"count"`
	LastActivity time.Time `json:"last_activity"`
}

// CategoryStat is one row of the operator-wide activity breakdown
type CategoryStat struct {
	ActionCategory *string `json:"action_category"`
	Count          int64   `json:"count"`
	UniqueUsers    int64   `json:"unique_users"`
}

// Create inserts a row. It satisfies Writer for the background logger.
func (s *Service) Create(ctx context.Context, row *models.UserActivity) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// Record writes an entry synchronously and returns the stored row
func (s *Service) Record(ctx context.Context, entry Entry) (*models.UserActivity, error) {
	row, err := entry.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return row, nil
}

// UserActivity returns a most-recent-first page of a user's activity
func (s *Service) UserActivity(ctx context.Context, userID uint, limit, offset int) ([]models.UserActivity, error) {
	return s.page(ctx, s.db.Where("user_id = ?", userID), limit, offset)
}

// CountForUser returns the number of activity rows for a user
func (s *Service) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserActivity{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// All returns a most-recent-first page across all users
func (s *Service) All(ctx context.Context, limit, offset int) ([]models.UserActivity, error) {
	return s.page(ctx, s.db, limit, offset)
}

// ByCategory returns a most-recent-first page for one category
func (s *Service) ByCategory(ctx context.Context, category string, limit, offset int) ([]models.UserActivity, error) {
	return s.page(ctx, s.db.Where("action_category = ?", category), limit, offset)
}

// ByAction returns a most-recent-first page for one action name
func (s *Service) ByAction(ctx context.Context, action string, limit, offset int) ([]models.UserActivity, error) {
	return s.page(ctx, s.db.Where("action = ?", action), limit, offset)
}

func (s *Service) page(ctx context.Context, query *gorm.DB, limit, offset int) ([]models.UserActivity, error) {
	limit, offset = ClampPage(limit, offset)

	var rows []models.UserActivity
	err := query.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return rows, nil
}

// UserStats groups a user's activity in the trailing window by action,
// most frequent first
func (s *Service) UserStats(ctx context.Context, userID uint, daysBack int, now time.Time) ([]ActionStat, error) {
	since := windowStart(now, daysBack)

	var rows []struct {
		Action       string
		Count        int64
		LastActivity models.DBTime
	}
	err := s.db.WithContext(ctx).Model(&models.UserActivity{}).
		Select("action, COUNT(*) AS count, MAX(created_at) AS last_activity").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("action").
		Order("count DESC").
		Order("action ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load activity stats: %w", err)
	}

	stats := make([]ActionStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, ActionStat{Action: r.Action, Count: r.Count, LastActivity: r.LastActivity.Time})
	}
	return stats, nil
}

// CategoryStats groups all activity in the trailing window by category,
// most frequent first
func (s *Service) CategoryStats(ctx context.Context, daysBack int, now time.Time) ([]CategoryStat, error) {
	since := windowStart(now, daysBack)

	stats := []CategoryStat{}
	err := s.db.WithContext(ctx).Model(&models.UserActivity{}).
		Select("action_category, COUNT(*) AS count, COUNT(DISTINCT user_id) AS unique_users").
		Where("created_at >= ?", since).
		Group("action_category").
		Order("count DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load category stats: %w", err)
	}
	return stats, nil
}

// CountSince returns how many rows were written at or after since
func (s *Service) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserActivity{}).Where("created_at >= ?", since.UTC()).Count(&count).Error
	return count, err
}

// ClampPage applies the default and maximum page sizes
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func windowStart(now time.Time, daysBack int) time.Time {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	return now.UTC().AddDate(0, 0, -daysBack)
}
