package handlers

import (
	"errors"
	"net/http"

	"dreambid/internal/activity"
	"dreambid/internal/interest"
	"dreambid/internal/middleware"
	"dreambid/internal/models"

	"github.com/gin-gonic/gin"
)

// InterestHandler records property engagement
type InterestHandler struct {
	tracker *interest.Tracker
	events  ActivityLogger
}

// NewInterestHandler creates a new interest handler
func NewInterestHandler(tracker *interest.Tracker, events ActivityLogger) *InterestHandler {
	return &InterestHandler{tracker: tracker, events: events}
}

type trackInterestRequest struct {
	PropertyID   uint   `json:"property_id"`
	InterestType string `json:"interest_type"`
}

// Track handles POST /api/interests
func (h *InterestHandler) Track(c *gin.Context) {
	var req trackInterestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PropertyID == 0 || req.InterestType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id and interest_type are required"})
		return
	}

	ip, ua := clientInfo(c)
	userID := middleware.CurrentUserID(c)
	row, err := h.tracker.Track(c.Request.Context(), interest.Event{
		PropertyID: req.PropertyID,
		UserID:     userID,
		Type:       models.InterestType(req.InterestType),
		IPAddress:  ip,
		UserAgent:  ua,
	})
	if err != nil {
		switch {
		case errors.Is(err, interest.ErrInvalidInterestType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, interest.ErrPropertyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		default:
			serverError(c, "Failed to track interest", err)
		}
		return
	}

	h.events.Log(activity.PropertyInterest(userID, row.PropertyID, row.InterestType, ip, ua))

	c.JSON(http.StatusOK, gin.H{
		"message":  "Interest tracked successfully",
		"interest": row,
	})
}

// Stats handles GET /api/interests/stats/:property_id
func (h *InterestHandler) Stats(c *gin.Context) {
	propertyID, ok := parseIDParam(c, "property_id")
	if !ok {
		return
	}

	stats, err := h.tracker.Stats(c.Request.Context(), propertyID)
	if err != nil {
		serverError(c, "Failed to fetch interest stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property_id": propertyID, "stats": stats})
}
