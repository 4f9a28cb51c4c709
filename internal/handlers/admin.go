package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/cleanup"
	"dreambid/internal/database"
	"dreambid/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// JobRunner triggers background jobs on demand
type JobRunner interface {
	RunReconcileNow(ctx context.Context) int64
	RunActivityCleanupNow(ctx context.Context, days int) (*cleanup.CleanupResult, error)
	RunDormantUserCleanupNow(ctx context.Context, days int) (*cleanup.CleanupResult, error)
	Jobs() []scheduler.JobInfo
}

// RetentionPreview reports what an activity purge would remove
type RetentionPreview interface {
	ActivityStats(ctx context.Context, now time.Time, olderThanDays int) (*cleanup.ActivityStats, error)
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db       *database.GormDB
	activity *activity.Service
	jobs     JobRunner
	preview  RetentionPreview
	search   SearchIndex
	nowFunc  func() time.Time
}

// NewAdminHandler creates a new admin handler. index may be nil when search
// is not configured. now must be the clock the retention jobs run on so the
// cleanup preview and the purge agree on the cutoff.
func NewAdminHandler(db *database.GormDB, activityService *activity.Service, jobs JobRunner, preview RetentionPreview, index SearchIndex, now func() time.Time) *AdminHandler {
	return &AdminHandler{
		db:       db,
		activity: activityService,
		jobs:     jobs,
		preview:  preview,
		search:   index,
		nowFunc:  clockOrDefault(now),
	}
}

type cleanupRequest struct {
	Days *int `json:"days"`
}

// GetStats returns dashboard statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.db.DashboardStats(ctx)
	if err != nil {
		serverError(c, "Failed to fetch stats", err)
		return
	}

	last24h := h.nowFunc().Add(-24 * time.Hour)
	recent, err := h.activity.CountSince(ctx, last24h)
	if err != nil {
		serverError(c, "Failed to fetch stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": gin.H{
			"total":     stats.TotalProperties,
			"by_status": stats.PropertiesByStatus,
			"delisted":  stats.DelistedProperties,
		},
		"users": gin.H{
			"total":  stats.TotalUsers,
			"active": stats.ActiveUsers,
		},
		"enquiries": gin.H{
			"total":     stats.TotalEnquiries,
			"by_status": stats.EnquiriesByStatus,
		},
		"recent_activity": gin.H{
			"last_24h": recent,
		},
	})
}

// GetJobs lists the scheduled jobs and their next run
func (h *AdminHandler) GetJobs(c *gin.Context) {
	jobs := h.jobs.Jobs()
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// Reconcile runs the auction reconciler immediately
func (h *AdminHandler) Reconcile(c *gin.Context) {
	log.Println("Admin: Manual reconcile requested")
	changed := h.jobs.RunReconcileNow(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message": "Auction statuses reconciled",
		"updated": changed,
	})
}

// CleanupActivity purges activity older than the requested number of days
func (h *AdminHandler) CleanupActivity(c *gin.Context) {
	days, ok := bindCleanupDays(c, cleanup.DefaultActivityRetentionDays)
	if !ok {
		return
	}

	log.Printf("Admin: Running activity cleanup (older than %d days)", days)
	result, err := h.jobs.RunActivityCleanupNow(c.Request.Context(), days)
	if err != nil {
		serverError(c, "Failed to cleanup activity", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Activity cleanup completed",
		"result":  result,
	})
}

// CleanupStats previews an activity purge
func (h *AdminHandler) CleanupStats(c *gin.Context) {
	days, err := queryInt(c, "days", cleanup.DefaultActivityRetentionDays)
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	stats, err := h.preview.ActivityStats(c.Request.Context(), h.nowFunc(), days)
	if err != nil {
		serverError(c, "Failed to fetch cleanup stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CleanupUsers purges deactivated accounts untouched for the requested days
func (h *AdminHandler) CleanupUsers(c *gin.Context) {
	days, ok := bindCleanupDays(c, cleanup.DefaultDormantUserDays)
	if !ok {
		return
	}

	log.Printf("Admin: Running dormant user cleanup (older than %d days)", days)
	result, err := h.jobs.RunDormantUserCleanupNow(c.Request.Context(), days)
	if err != nil {
		serverError(c, "Failed to cleanup users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dormant user cleanup completed",
		"result":  result,
	})
}

// ReindexSearch rebuilds the search index from the database
func (h *AdminHandler) ReindexSearch(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not configured"})
		return
	}

	properties, err := h.db.AllActiveProperties(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to load properties", err)
		return
	}
	indexed, err := h.search.Reindex(properties)
	if err != nil {
		serverError(c, "Failed to reindex", err)
		return
	}

	log.Printf("Admin: Reindexed %d properties", indexed)
	c.JSON(http.StatusOK, gin.H{"message": "Search index rebuilt", "indexed": indexed})
}

// bindCleanupDays reads an optional {"days": n} body; an empty body means the default
func bindCleanupDays(c *gin.Context, defaultDays int) (int, bool) {
	var req cleanupRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return 0, false
		}
	}
	if req.Days == nil {
		return defaultDays, true
	}
	if *req.Days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return 0, false
	}
	return *req.Days, true
}
