// Package auction keeps each property's auction_status in step with the clock.
package auction

import (
	"context"
	"fmt"
	"log"
	"time"

	"dreambid/internal/metrics"
	"dreambid/internal/models"

	"gorm.io/gorm"
)

// reconcileSQL advances stale statuses in one conditional statement. An
// upcoming auction whose date has already passed goes straight to expired,
// so a second run with the same now matches no rows. Terminal statuses never
// match the WHERE clause and are never written.
const reconcileSQL = `UPDATE properties
SET auction_status = CASE
		WHEN auction_date < ? THEN ?
		ELSE ?
	END,
	updated_at = ?
WHERE (auction_status = ? AND auction_date <= ?)
	OR (auction_status = ? AND auction_date < ?)`

// Reconciler moves properties through upcoming -> active -> expired
type Reconciler struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithClock overrides the clock used by Run
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.nowFunc = now
	}
}

// NewReconciler creates a new reconciler
func NewReconciler(db *gorm.DB, opts ...Option) *Reconciler {
	r := &Reconciler{
		db: db,
		nowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies the status transitions implied by now and returns the
// number of rows changed
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	result := r.db.WithContext(ctx).Exec(reconcileSQL,
		now, models.AuctionStatusExpired, models.AuctionStatusActive,
		now,
		models.AuctionStatusUpcoming, now,
		models.AuctionStatusActive, now,
	)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reconcile auction statuses: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Run reconciles against the current time. Errors are logged and swallowed
// so that callers on timers or request paths never fail because of it.
func (r *Reconciler) Run(ctx context.Context) int64 {
	start := time.Now()
	changed, err := r.Reconcile(ctx, r.nowFunc())
	metrics.RecordJobRun("reconcile", time.Since(start), err == nil)
	if err != nil {
		log.Printf("Reconciler: %v", err)
		return 0
	}
	if changed > 0 {
		metrics.AddReconciledRows(changed)
		log.Printf("Reconciler: updated %d auction statuses", changed)
	}
	return changed
}
