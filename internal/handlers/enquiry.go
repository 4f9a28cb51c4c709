package handlers

import (
	"net/http"
	"strings"

	"dreambid/internal/activity"
	"dreambid/internal/database"
	"dreambid/internal/middleware"
	"dreambid/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

// EnquiryHandler handles buyer enquiries
type EnquiryHandler struct {
	db     *database.GormDB
	events ActivityLogger
	policy *bluemonday.Policy
}

// NewEnquiryHandler creates a new enquiry handler
func NewEnquiryHandler(db *database.GormDB, events ActivityLogger) *EnquiryHandler {
	return &EnquiryHandler{
		db:     db,
		events: events,
		policy: bluemonday.StrictPolicy(),
	}
}

type createEnquiryRequest struct {
	PropertyID  uint   `json:"property_id" binding:"required"`
	Name        string `json:"name" binding:"required,max=255"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required,max=20"`
	Message     string `json:"message"`
	EnquiryType string `json:"enquiry_type" binding:"max=50"`
}

type updateEnquiryStatusRequest struct {
	Status models.EnquiryStatus `json:"status" binding:"required"`
}

// Create handles POST /api/enquiries
func (h *EnquiryHandler) Create(c *gin.Context) {
	var req createEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and phone are required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.db.GetActiveProperty(ctx, req.PropertyID); err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		serverError(c, "Failed to create enquiry", err)
		return
	}

	enquiry := &models.Enquiry{
		PropertyID:  req.PropertyID,
		UserID:      middleware.CurrentUserID(c),
		Name:        name,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       phone,
		Message:     strings.TrimSpace(h.policy.Sanitize(req.Message)),
		EnquiryType: strings.TrimSpace(req.EnquiryType),
	}
	if err := h.db.CreateEnquiry(ctx, enquiry); err != nil {
		serverError(c, "Failed to create enquiry", err)
		return
	}

	ip, ua := clientInfo(c)
	h.events.Log(activity.PropertyEnquiry(enquiry.UserID, enquiry.PropertyID, enquiry.ID, enquiry.EnquiryType, ip, ua))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Enquiry submitted successfully",
		"enquiry": enquiry,
	})
}

// List handles GET /api/enquiries
func (h *EnquiryHandler) List(c *gin.Context) {
	var filter database.EnquiryFilter
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.EnquiryStatus(raw)
		if !lo.Contains(models.EnquiryStatuses, filter.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}
	propertyID, err := queryInt(c, "property_id", 0)
	if err != nil || propertyID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id must be a positive integer"})
		return
	}
	filter.PropertyID = uint(propertyID)

	if filter.Page, err = queryInt(c, "page", 1); err != nil || filter.Page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	if filter.Limit, err = queryInt(c, "limit", database.DefaultPageLimit); err != nil || filter.Limit < 1 || filter.Limit > database.MaxPageLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	enquiries, total, err := h.db.ListEnquiries(c.Request.Context(), filter)
	if err != nil {
		serverError(c, "Failed to fetch enquiries", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enquiries": enquiries,
		"pagination": gin.H{
			"page":  filter.Page,
			"limit": filter.Limit,
			"total": total,
			"pages": pageCount(total, filter.Limit),
		},
	})
}

// UpdateStatus handles PUT /api/enquiries/:id/status
func (h *EnquiryHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateEnquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !lo.Contains(models.EnquiryStatuses, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	enquiry, err := h.db.UpdateEnquiryStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
			return
		}
		serverError(c, "Failed to update enquiry", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Enquiry status updated",
		"enquiry": enquiry,
	})
}
