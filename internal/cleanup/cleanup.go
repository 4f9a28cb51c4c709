package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/metrics"
	"dreambid/internal/models"

	"gorm.io/gorm"
)

const (
	DefaultActivityRetentionDays = 90
	DefaultDormantUserDays       = 365
)

// EventLogger receives the audit entry written after a cleanup
type EventLogger interface {
	Log(entry activity.Entry)
}

// Service handles retention deletes for the activity log and dormant accounts
type Service struct {
	db      *gorm.DB
	events  EventLogger
	nowFunc func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the clock used by the Run* methods
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithEventLogger records a system_cleanup activity after each purge
func WithEventLogger(events EventLogger) Option {
	return func(s *Service) {
		s.events = events
	}
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db: db,
		nowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays int  // Rows older than this many days are deleted
	DryRun        bool // If true, only count what would be deleted
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	Target        string    `json:"target"`
	RetentionDays int       `json:"retention_days"`
	Cutoff        time.Time `json:"cutoff"`
	DeletedCount  int64     `json:"deleted_count"`
	DryRun        bool      `json:"dry_run"`
	ExecutedAt    time.Time `json:"executed_at"`
}

// ActivityStats previews what an activity purge would remove
type ActivityStats struct {
	RetentionDays int        `json:"retention_days"`
	Cutoff        time.Time  `json:"cutoff"`
	TotalRecords  int64      `json:"total_records"`
	AffectedUsers int64      `json:"affected_users"`
	OldestRecord  *time.Time `json:"oldest_record"`
	NewestRecord  *time.Time `json:"newest_record"`
}

// Cutoff returns the retention boundary. Rows strictly older are purged; a
// row stamped exactly at the cutoff is kept.
func Cutoff(now time.Time, olderThanDays int) time.Time {
	return now.UTC().AddDate(0, 0, -olderThanDays)
}

// PurgeActivity deletes every activity row created before now - olderThanDays
func (s *Service) PurgeActivity(ctx context.Context, now time.Time, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", olderThanDays)
	}
	result := s.db.WithContext(ctx).
		Where("created_at < ?", Cutoff(now, olderThanDays)).
		Delete(&models.UserActivity{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge activity: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeDormantUsers deletes deactivated accounts untouched since before
// now - olderThanDays
func (s *Service) PurgeDormantUsers(ctx context.Context, now time.Time, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", olderThanDays)
	}
	result := s.db.WithContext(ctx).
		Where("is_active = ? AND updated_at < ?", false, Cutoff(now, olderThanDays)).
		Delete(&models.User{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge dormant users: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ActivityStats summarizes the rows a purge at now would delete
func (s *Service) ActivityStats(ctx context.Context, now time.Time, olderThanDays int) (*ActivityStats, error) {
	if olderThanDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", olderThanDays)
	}
	cutoff := Cutoff(now, olderThanDays)

	var row struct {
		TotalRecords  int64
		AffectedUsers int64
		OldestRecord  models.DBTime
		NewestRecord  models.DBTime
	}
	err := s.db.WithContext(ctx).Model(&models.UserActivity{}).
		Select("COUNT(*) AS total_records, COUNT(DISTINCT user_id) AS affected_users, " +
			"MIN(created_at) AS oldest_record, MAX(created_at) AS newest_record").
		Where("created_at < ?", cutoff).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cleanup stats: %w", err)
	}

	return &ActivityStats{
		RetentionDays: olderThanDays,
		Cutoff:        cutoff,
		TotalRecords:  row.TotalRecords,
		AffectedUsers: row.AffectedUsers,
		OldestRecord:  row.OldestRecord.Ptr(),
		NewestRecord:  row.NewestRecord.Ptr(),
	}, nil
}

// RunActivityCleanup purges the activity log against the service clock and
// records the outcome
func (s *Service) RunActivityCleanup(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	if config.RetentionDays == 0 {
		config.RetentionDays = DefaultActivityRetentionDays
	}
	now := s.nowFunc()
	result := &CleanupResult{
		Target:        "user_activity",
		RetentionDays: config.RetentionDays,
		Cutoff:        Cutoff(now, config.RetentionDays),
		DryRun:        config.DryRun,
		ExecutedAt:    now,
	}

	start := time.Now()
	if config.DryRun {
		stats, err := s.ActivityStats(ctx, now, config.RetentionDays)
		if err != nil {
			return nil, err
		}
		result.DeletedCount = stats.TotalRecords
		log.Printf("Cleanup: [DRY-RUN] would delete %d activity records older than %d days",
			result.DeletedCount, config.RetentionDays)
		return result, nil
	}

	deleted, err := s.PurgeActivity(ctx, now, config.RetentionDays)
	metrics.RecordJobRun("purge_activity", time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	result.DeletedCount = deleted
	metrics.AddPurgedRows("user_activity", deleted)

	log.Printf("Cleanup: deleted %d activity records older than %d days (cutoff %s)",
		deleted, config.RetentionDays, result.Cutoff.Format(time.RFC3339))

	if s.events != nil {
		s.events.Log(activity.SystemCleanup("activity_cleanup", deleted, config.RetentionDays))
	}
	return result, nil
}

// RunDormantUserCleanup purges long-deactivated accounts against the service clock
func (s *Service) RunDormantUserCleanup(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	if config.RetentionDays == 0 {
		config.RetentionDays = DefaultDormantUserDays
	}
	now := s.nowFunc()
	result := &CleanupResult{
		Target:        "users",
		RetentionDays: config.RetentionDays,
		Cutoff:        Cutoff(now, config.RetentionDays),
		DryRun:        config.DryRun,
		ExecutedAt:    now,
	}

	if config.DryRun {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("is_active = ? AND updated_at < ?", false, result.Cutoff).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count dormant users: %w", err)
		}
		result.DeletedCount = count
		log.Printf("Cleanup: [DRY-RUN] would delete %d inactive users", count)
		return result, nil
	}

	start := time.Now()
	deleted, err := s.PurgeDormantUsers(ctx, now, config.RetentionDays)
	metrics.RecordJobRun("purge_dormant_users", time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	result.DeletedCount = deleted
	metrics.AddPurgedRows("users", deleted)

	log.Printf("Cleanup: removed %d inactive users not updated in %d days", deleted, config.RetentionDays)

	if s.events != nil {
		s.events.Log(activity.SystemCleanup("dormant_user_cleanup", deleted, config.RetentionDays))
	}
	return result, nil
}
