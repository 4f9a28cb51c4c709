package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/auth"
	"dreambid/internal/middleware"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the signed-in user's own account
type UserHandler struct {
	auth     *auth.Service
	activity *activity.Service
	events   ActivityLogger
	nowFunc  func() time.Time
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, activityService *activity.Service, events ActivityLogger, now func() time.Time) *UserHandler {
	return &UserHandler{
		auth:     authService,
		activity: activityService,
		events:   events,
		nowFunc:  clockOrDefault(now),
	}
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Me handles GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)
	user, err := h.auth.GetUser(c.Request.Context(), current.ID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		serverError(c, "Failed to fetch user info", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile handles PUT /api/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name is required"})
		return
	}

	current, _ := middleware.CurrentUser(c)
	user, err := h.auth.UpdateProfile(c.Request.Context(), current.ID, req.FullName, req.Phone)
	if err != nil {
		serverError(c, "Failed to update profile", err)
		return
	}

	ip, ua := clientInfo(c)
	h.events.Log(activity.ProfileUpdated(user.ID, []string{"full_name", "phone"}, ip, ua))

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePassword handles POST /api/user/change-password and /api/auth/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New passwords do not match"})
		return
	}
	if len(req.NewPassword) < auth.MinChangePasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	current, _ := middleware.CurrentUser(c)
	err := h.auth.ChangePassword(c.Request.Context(), current.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}
		serverError(c, "Failed to change password", err)
		return
	}

	ip, ua := clientInfo(c)
	h.events.Log(activity.PasswordChanged(current.ID, ip, ua))

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Activity handles GET /api/user/activity
func (h *UserHandler) Activity(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)
	respondUserActivity(c, h.activity, current.ID)
}

// ActivityStats handles GET /api/user/activity/stats
func (h *UserHandler) ActivityStats(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)
	respondUserStats(c, h.activity, current.ID, h.nowFunc())
}
