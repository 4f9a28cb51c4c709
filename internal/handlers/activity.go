package handlers

import (
	"net/http"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/middleware"
	"dreambid/internal/models"

	"github.com/gin-gonic/gin"
)

// ActivityHandler serves the activity log
type ActivityHandler struct {
	activity *activity.Service
	nowFunc  func() time.Time
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *activity.Service, now func() time.Time) *ActivityHandler {
	return &ActivityHandler{activity: activityService, nowFunc: clockOrDefault(now)}
}

type saveActivityRequest struct {
	Action         string                 `json:"action" binding:"required,max=100"`
	ActionCategory string                 `json:"action_category" binding:"max=50"`
	Data           map[string]interface{} `json:"data"`
}

// Save handles POST /api/activity/save. Unlike the background logger the
// write is synchronous so the caller learns whether it was stored.
func (h *ActivityHandler) Save(c *gin.Context) {
	var req saveActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ip, ua := clientInfo(c)
	entry := activity.Entry{
		UserID:    middleware.CurrentUserID(c),
		Action:    req.Action,
		Category:  req.ActionCategory,
		IPAddress: ip,
		UserAgent: ua,
	}
	if req.Data != nil {
		entry.Data = req.Data
	}

	row, err := h.activity.Record(c.Request.Context(), entry)
	if err != nil {
		serverError(c, "Failed to save activity", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Activity recorded successfully",
		"activity": row,
	})
}

// UserActivity handles GET /api/activity/user/:userId
func (h *ActivityHandler) UserActivity(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	respondUserActivity(c, h.activity, userID)
}

// UserStats handles GET /api/activity/stats/user/:userId
func (h *ActivityHandler) UserStats(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	respondUserStats(c, h.activity, userID, h.nowFunc())
}

// All handles GET /api/activity/all, optionally filtered by ?action=
func (h *ActivityHandler) All(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	var (
		rows []models.UserActivity
		err  error
	)
	if action := c.Query("action"); action != "" {
		rows, err = h.activity.ByAction(c.Request.Context(), action, limit, offset)
	} else {
		rows, err = h.activity.All(c.Request.Context(), limit, offset)
	}
	if err != nil {
		serverError(c, "Failed to fetch activities", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": rows,
		"pagination": gin.H{"limit": limit, "offset": offset},
	})
}

// ByCategory handles GET /api/activity/category/:category
func (h *ActivityHandler) ByCategory(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	category := c.Param("category")
	rows, err := h.activity.ByCategory(c.Request.Context(), category, limit, offset)
	if err != nil {
		serverError(c, "Failed to fetch activities", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":   category,
		"activities": rows,
		"pagination": gin.H{"limit": limit, "offset": offset},
	})
}

// Stats handles GET /api/activity/stats
func (h *ActivityHandler) Stats(c *gin.Context) {
	daysBack, err := queryInt(c, "daysBack", activity.DefaultDaysBack)
	if err != nil || daysBack <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daysBack must be a positive integer"})
		return
	}

	stats, err := h.activity.CategoryStats(c.Request.Context(), daysBack, h.nowFunc())
	if err != nil {
		serverError(c, "Failed to fetch statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"daysBack": daysBack, "stats": stats})
}

// authorizedUserID resolves :userId and allows only the owner or an admin
func (h *ActivityHandler) authorizedUserID(c *gin.Context) (uint, bool) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return 0, false
	}
	current, _ := middleware.CurrentUser(c)
	if !current.IsAdmin() && current.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return 0, false
	}
	return userID, true
}

func pageParams(c *gin.Context) (int, int, bool) {
	limit, err := queryInt(c, "limit", activity.DefaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return 0, 0, false
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return 0, 0, false
	}
	limit, offset = activity.ClampPage(limit, offset)
	return limit, offset, true
}

func respondUserActivity(c *gin.Context, svc *activity.Service, userID uint) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	rows, err := svc.UserActivity(ctx, userID, limit, offset)
	if err != nil {
		serverError(c, "Failed to fetch activity", err)
		return
	}
	total, err := svc.CountForUser(ctx, userID)
	if err != nil {
		serverError(c, "Failed to fetch activity", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": rows,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
			"total":  total,
			"pages":  pageCount(total, limit),
		},
	})
}

func respondUserStats(c *gin.Context, svc *activity.Service, userID uint, now time.Time) {
	daysBack, err := queryInt(c, "daysBack", activity.DefaultDaysBack)
	if err != nil || daysBack <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "daysBack must be a positive integer"})
		return
	}

	stats, err := svc.UserStats(c.Request.Context(), userID, daysBack, now)
	if err != nil {
		serverError(c, "Failed to fetch activity stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   userID,
		"daysBack": daysBack,
		"stats":    stats,
	})
}
